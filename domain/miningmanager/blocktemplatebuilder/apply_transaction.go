package blocktemplatebuilder

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/fees"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// isNext returns whether transaction is the next one of its sender.
// Senders with a nonce gap are skipped for the rest of the pass and their
// transactions are left in the mempool. Transactions whose nonce was
// already used are rejected.
func (btb *blockTemplateBuilder) isNext(ctx *buildContext, transaction *model.Transaction) bool {
	if _, ok := ctx.skippedSenders[transaction.From]; ok {
		return false
	}

	workingNonce := ctx.workingState.Nonce(model.NewEVMAddress(transaction.From))
	switch {
	case transaction.Nonce < workingNonce:
		reject(ctx, transaction, ruleerrors.Errorf(ruleerrors.ErrInvalidNonce,
			"invalid nonce. Account nonce %d, signed_tx nonce %d", workingNonce, transaction.Nonce))
		return false
	case transaction.Nonce > workingNonce:
		log.Debugf("Skipping sender %s for this block, expected nonce %d but next queued is %d",
			transaction.From, workingNonce, transaction.Nonce)
		ctx.skippedSenders[transaction.From] = struct{}{}
		return false
	}
	return true
}

// apply applies transaction, which must be the next one of its sender.
func (btb *blockTemplateBuilder) apply(ctx *buildContext, transaction *model.Transaction) error {
	if transaction.Kind == model.TxKindTransferDomain {
		btb.applyTransfer(ctx, transaction)
		return nil
	}
	return btb.applyEVMTransaction(ctx, transaction)
}

func (btb *blockTemplateBuilder) applyTransfer(ctx *buildContext, transaction *model.Transaction) {
	transfer := ctx.workingState.Fork()
	err := btb.bridge.Execute(ctx.snapshot, ctx.height, transfer, transaction.Transfer)
	if err != nil {
		reject(ctx, transaction, err)
		return
	}
	transfer.IncrementNonce(model.NewEVMAddress(transaction.From))
	err = transfer.Merge()
	if err != nil {
		reject(ctx, transaction, err)
		return
	}

	ctx.block.Transactions = append(ctx.block.Transactions, transaction)
	ctx.block.Receipts = append(ctx.block.Receipts, &model.Receipt{
		TxHash:            model.TransactionHash(transaction),
		Status:            model.ReceiptStatusSuccess,
		EffectiveGasPrice: new(uint256.Int),
		FeeBurnt:          new(uint256.Int),
		FeePriority:       new(uint256.Int),
	})
}

// applyEVMTransaction buys the gas of transaction, executes it and refunds
// the unused gas. A transaction whose execution fails stays in the block:
// it pays for the gas it used, capped at what its sender could pay, and
// consumes its nonce.
func (btb *blockTemplateBuilder) applyEVMTransaction(ctx *buildContext, transaction *model.Transaction) error {
	sender := model.NewEVMAddress(transaction.From)
	baseFee := btb.params.BaseFee
	effectivePrice := fees.EffectiveGasPrice(transaction.GasPrice, transaction.MaxPriorityFeePerGas, baseFee)
	if effectivePrice.Lt(baseFee) {
		reject(ctx, transaction, ruleerrors.Errorf(ruleerrors.ErrFeeBelowBaseFee,
			"effective gas price %s is below the base fee %s", effectivePrice, baseFee))
		return nil
	}

	txState := ctx.workingState.Fork()

	gasCost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(transaction.GasLimit), effectivePrice)
	if overflow {
		reject(ctx, transaction, errors.Errorf("gas cost of transaction %s overflows", model.TransactionHash(transaction)))
		return nil
	}
	balance := txState.Balance(sender, model.NativeTokenID)
	prepaid := model.CloneInt(gasCost)
	if balance.Lt(prepaid) {
		prepaid.Set(balance)
	}
	err := txState.SubBalance(sender, model.NativeTokenID, prepaid)
	if err != nil {
		return err
	}

	var gasUsed uint64
	var executionErr error
	if prepaid.Lt(gasCost) {
		gasUsed = transaction.GasLimit
		executionErr = ruleerrors.Errorf(ruleerrors.ErrInsufficientFunds,
			"insufficient funds for gas * price: address %s have %s want %s", sender, balance, gasCost)
	} else {
		execution := txState.Fork()
		gasUsed, executionErr = btb.executor.Execute(execution, transaction)
		if executionErr == nil {
			err = execution.Merge()
			if err != nil {
				return err
			}
		}
	}
	if gasUsed > transaction.GasLimit {
		gasUsed = transaction.GasLimit
	}

	txFees, err := fees.CalcTxFees(gasUsed, transaction.GasPrice, transaction.MaxPriorityFeePerGas, baseFee)
	if err != nil {
		return err
	}
	txFees = capFees(txFees, prepaid)
	refund := new(uint256.Int).Sub(prepaid, txFees.Total())
	err = txState.AddBalance(sender, model.NativeTokenID, refund)
	if err != nil {
		return err
	}
	err = txState.AddBalance(model.NewEVMAddress(ctx.block.Beneficiary), model.NativeTokenID, txFees.Priority)
	if err != nil {
		return err
	}
	txState.IncrementNonce(sender)
	err = txState.Merge()
	if err != nil {
		return err
	}

	receipt := &model.Receipt{
		TxHash:            model.TransactionHash(transaction),
		Status:            model.ReceiptStatusSuccess,
		GasUsed:           gasUsed,
		EffectiveGasPrice: txFees.EffectiveGasPrice,
		FeeBurnt:          txFees.Burnt,
		FeePriority:       txFees.Priority,
	}
	if executionErr != nil {
		receipt.Status = model.ReceiptStatusFailed
		receipt.Err = executionErr
		log.Debugf("Transaction %s failed and pays %s for %d gas: %s",
			receipt.TxHash, txFees.Total(), gasUsed, executionErr)
	}

	ctx.block.Transactions = append(ctx.block.Transactions, transaction)
	ctx.block.Receipts = append(ctx.block.Receipts, receipt)
	ctx.block.GasUsed += gasUsed
	ctx.blockFees.Add(txFees)
	return nil
}

// capFees limits txFees to what the sender paid, taking the burnt portion
// first.
func capFees(txFees fees.TxFees, paid *uint256.Int) fees.TxFees {
	if !txFees.Total().Gt(paid) {
		return txFees
	}
	burnt := model.CloneInt(txFees.Burnt)
	if burnt.Gt(paid) {
		burnt.Set(paid)
	}
	return fees.TxFees{
		EffectiveGasPrice: txFees.EffectiveGasPrice,
		Burnt:             burnt,
		Priority:          new(uint256.Int).Sub(paid, burnt),
	}
}

func reject(ctx *buildContext, transaction *model.Transaction, err error) {
	log.Debugf("Rejecting transaction %s from the block: %s", model.TransactionHash(transaction), err)
	ctx.block.Rejected = append(ctx.block.Rejected, &model.RejectedTransaction{
		Transaction: transaction,
		Err:         err,
	})
}
