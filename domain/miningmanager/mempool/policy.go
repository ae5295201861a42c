package mempool

import (
	"math"

	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// IntrinsicGas returns the gas a transaction consumes before executing
// anything: the base transaction cost plus the cost of its calldata.
func IntrinsicGas(transaction *model.Transaction) (uint64, error) {
	if transaction.Kind == model.TxKindTransferDomain {
		return 0, nil
	}

	gas := ethparams.TxGas
	if transaction.To == nil {
		gas = ethparams.TxGasContractCreation
	}
	var nonZeroBytes uint64
	for _, b := range transaction.Data {
		if b != 0 {
			nonZeroBytes++
		}
	}
	zeroBytes := uint64(len(transaction.Data)) - nonZeroBytes

	if (math.MaxUint64-gas)/ethparams.TxDataNonZeroGasEIP2028 < nonZeroBytes {
		return 0, ruleerrors.Errorf(ruleerrors.ErrIntrinsicGas, "calldata gas overflows")
	}
	gas += nonZeroBytes * ethparams.TxDataNonZeroGasEIP2028
	if (math.MaxUint64-gas)/ethparams.TxDataZeroGas < zeroBytes {
		return 0, ruleerrors.Errorf(ruleerrors.ErrIntrinsicGas, "calldata gas overflows")
	}
	gas += zeroBytes * ethparams.TxDataZeroGas
	return gas, nil
}

// upfrontCost returns value + gasLimit * gasPrice, the most a transaction
// can debit from its sender.
func upfrontCost(transaction *model.Transaction) (*uint256.Int, bool) {
	cost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(transaction.GasLimit),
		model.CloneInt(transaction.GasPrice))
	if overflow {
		return nil, false
	}
	if _, overflow := cost.AddOverflow(cost, model.CloneInt(transaction.Value)); overflow {
		return nil, false
	}
	return cost, true
}

// checkTransactionStandard performs the checks which only depend on the
// transaction itself and on the governance snapshot of the tip.
func (mp *mempool) checkTransactionStandard(transaction *model.Transaction, snapshot *attributes.Snapshot) error {
	if transaction.Kind != model.TxKindEVM {
		return nil
	}

	maxDataSize := snapshot.Uint64(attributes.KeyEVMOpReturnMaxSize, math.MaxUint64)
	if uint64(len(transaction.Data)) > maxDataSize {
		return transactionRuleError(ruleerrors.ErrOpReturnTooLarge,
			"transaction data of %d bytes is above the %d bytes limit", len(transaction.Data), maxDataSize)
	}

	intrinsicGas, err := IntrinsicGas(transaction)
	if err != nil {
		return wrapRuleError(err)
	}
	if transaction.GasLimit < intrinsicGas {
		return transactionRuleError(ruleerrors.ErrIntrinsicGas,
			"gas limit %d is below the intrinsic gas %d", transaction.GasLimit, intrinsicGas)
	}
	if transaction.GasLimit > mp.config.BlockGasLimit {
		return transactionRuleError(ruleerrors.ErrGasLimitExceeded,
			"gas limit %d is above the block gas limit %d", transaction.GasLimit, mp.config.BlockGasLimit)
	}

	gasPrice := model.CloneInt(transaction.GasPrice)
	if gasPrice.Lt(mp.config.BaseFee) {
		return transactionRuleError(ruleerrors.ErrFeeBelowBaseFee,
			"gas price %s is below the base fee %s", gasPrice, mp.config.BaseFee)
	}
	if transaction.MaxPriorityFeePerGas != nil && transaction.MaxPriorityFeePerGas.Gt(gasPrice) {
		return transactionRuleError(ruleerrors.ErrFeeBelowBaseFee,
			"max priority fee %s is above the max fee %s", transaction.MaxPriorityFeePerGas, gasPrice)
	}
	return nil
}
