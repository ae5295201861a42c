package mempool

import (
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/ledger"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// validateTransactionInIsolation checks the transaction against the
// activation rules and the governance snapshot, without looking at any
// account.
func (mp *mempool) validateTransactionInIsolation(transaction *domainmodel.Transaction,
	snapshot *attributes.Snapshot, height uint64) error {

	switch transaction.Kind {
	case domainmodel.TxKindEVM:
		if transaction.Transfer != nil {
			return transactionRuleError(ruleerrors.ErrInvalidTransferDomain,
				"evm transaction %s carries a transfer domain message", domainmodel.TransactionHash(transaction))
		}
		if height < mp.config.NextNetworkUpgradeHeight {
			return transactionRuleError(ruleerrors.ErrPreActivation,
				"evm transactions are not accepted before the network upgrade height %d",
				mp.config.NextNetworkUpgradeHeight)
		}
		if !snapshot.Bool(attributes.KeyFeatureEVM) {
			return transactionRuleError(ruleerrors.ErrFeatureDisabled, "cannot create tx, EVM is not enabled")
		}
		return mp.checkTransactionStandard(transaction, snapshot)

	case domainmodel.TxKindTransferDomain:
		if transaction.Transfer == nil {
			return transactionRuleError(ruleerrors.ErrInvalidTransferDomain,
				"transfer domain transaction %s has no message", domainmodel.TransactionHash(transaction))
		}
		evmSide := transaction.Transfer.EVMSide()
		if evmSide.Domain != domainmodel.DomainEVM || evmSide.Canonical().EVM() != transaction.From {
			return transactionRuleError(ruleerrors.ErrInvalidTransferDomain,
				"transfer domain transaction must be sent by its evm endpoint")
		}
		return nil
	}

	return transactionRuleError(ruleerrors.ErrInvalidTransferDomain, "unknown transaction kind %d", transaction.Kind)
}

// validateTransactionInContext checks the transaction against the account
// state of the tip.
func (mp *mempool) validateTransactionInContext(transaction *domainmodel.Transaction,
	snapshot *attributes.Snapshot, height uint64, view ledger.View) error {

	if transaction.Kind == domainmodel.TxKindTransferDomain {
		err := mp.bridge.Validate(snapshot, height, view, transaction.Transfer)
		if err != nil {
			return wrapRuleError(err)
		}
		return nil
	}

	cost, ok := upfrontCost(transaction)
	if !ok {
		return transactionRuleError(ruleerrors.ErrInsufficientFunds, "transaction cost overflows")
	}
	sender := domainmodel.NewEVMAddress(transaction.From)
	balance := view.Balance(sender, domainmodel.NativeTokenID)
	if balance.Lt(cost) {
		return transactionRuleError(ruleerrors.ErrInsufficientFunds,
			"insufficient funds for gas * price + value: address %s have %s want %s", sender, balance, cost)
	}
	return nil
}
