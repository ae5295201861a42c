// Package fees computes the burnt and priority fee of EVM transactions and
// keeps the chain-lifetime fee aggregate.
package fees

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
)

// TxFees is the fee paid by one transaction. Burnt + Priority equals
// GasUsed * EffectiveGasPrice.
type TxFees struct {
	EffectiveGasPrice *uint256.Int
	Burnt             *uint256.Int
	Priority          *uint256.Int
}

// Total returns the fee charged to the sender.
func (f TxFees) Total() *uint256.Int {
	return new(uint256.Int).Add(f.Burnt, f.Priority)
}

// EffectiveGasPrice returns the price per gas a transaction pays: its gas
// price, or for dynamic-fee transactions, the gas price capped at the base
// fee plus the priority fee.
func EffectiveGasPrice(gasPrice, maxPriorityFeePerGas, baseFee *uint256.Int) *uint256.Int {
	effective := model.CloneInt(gasPrice)
	if maxPriorityFeePerGas == nil {
		return effective
	}
	capped := new(uint256.Int).Add(model.CloneInt(baseFee), maxPriorityFeePerGas)
	if capped.Lt(effective) {
		return capped
	}
	return effective
}

// CalcTxFees splits the fee of gasUsed gas into the burnt base fee portion
// and the priority portion paid to the block beneficiary.
func CalcTxFees(gasUsed uint64, gasPrice, maxPriorityFeePerGas, baseFee *uint256.Int) (TxFees, error) {
	effective := EffectiveGasPrice(gasPrice, maxPriorityFeePerGas, baseFee)
	baseFee = model.CloneInt(baseFee)
	if effective.Lt(baseFee) {
		return TxFees{}, errors.Errorf("effective gas price %s is below the base fee %s", effective, baseFee)
	}
	gas := uint256.NewInt(gasUsed)
	burnt, overflow := new(uint256.Int).MulOverflow(gas, baseFee)
	if overflow {
		return TxFees{}, errors.Errorf("burnt fee of %d gas overflows", gasUsed)
	}
	tip := new(uint256.Int).Sub(effective, baseFee)
	priority, overflow := new(uint256.Int).MulOverflow(gas, tip)
	if overflow {
		return TxFees{}, errors.Errorf("priority fee of %d gas overflows", gasUsed)
	}
	return TxFees{EffectiveGasPrice: effective, Burnt: burnt, Priority: priority}, nil
}

// BlockFees sums the fees of the EVM transactions of one block.
type BlockFees struct {
	Burnt    *uint256.Int
	Priority *uint256.Int

	// TransactionCount is the number of EVM transactions that paid a fee.
	TransactionCount int
}

// NewBlockFees returns an empty BlockFees.
func NewBlockFees() *BlockFees {
	return &BlockFees{Burnt: new(uint256.Int), Priority: new(uint256.Int)}
}

// Add accounts the fees of one transaction.
func (bf *BlockFees) Add(txFees TxFees) {
	bf.Burnt.Add(bf.Burnt, txFees.Burnt)
	bf.Priority.Add(bf.Priority, txFees.Priority)
	bf.TransactionCount++
}

// Clone returns a deep copy of bf.
func (bf *BlockFees) Clone() *BlockFees {
	return &BlockFees{
		Burnt:            model.CloneInt(bf.Burnt),
		Priority:         model.CloneInt(bf.Priority),
		TransactionCount: bf.TransactionCount,
	}
}
