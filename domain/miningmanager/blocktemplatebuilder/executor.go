package blocktemplatebuilder

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool"
	"github.com/xvmnet/xvmd/domain/model"
)

// Executor applies the EVM effects of a transaction to workingState, after
// its gas was bought. It returns the gas the transaction used, which is
// also charged when it returns an error.
type Executor interface {
	Execute(workingState *ledger.WorkingState, transaction *model.Transaction) (gasUsed uint64, err error)
}

type valueTransferExecutor struct{}

// NewValueTransferExecutor returns an Executor that moves the value of a
// transaction to its recipient and uses the intrinsic gas of the
// transaction. A contract creation credits the address the contract would
// be created at.
func NewValueTransferExecutor() Executor {
	return valueTransferExecutor{}
}

func (valueTransferExecutor) Execute(workingState *ledger.WorkingState, transaction *model.Transaction) (uint64, error) {
	gasUsed, err := mempool.IntrinsicGas(transaction)
	if err != nil {
		return transaction.GasLimit, err
	}

	recipient := crypto.CreateAddress(transaction.From, transaction.Nonce)
	if transaction.To != nil {
		recipient = *transaction.To
	}
	value := model.CloneInt(transaction.Value)
	err = workingState.SubBalance(model.NewEVMAddress(transaction.From), model.NativeTokenID, value)
	if err != nil {
		return gasUsed, err
	}
	err = workingState.AddBalance(model.NewEVMAddress(recipient), model.NativeTokenID, value)
	if err != nil {
		return gasUsed, err
	}
	return gasUsed, nil
}
