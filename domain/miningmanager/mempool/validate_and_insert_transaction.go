package mempool

import (
	"github.com/ethereum/go-ethereum/common"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
	"github.com/xvmnet/xvmd/infrastructure/logger"
)

// this function MUST be called with the mempool mutex locked for writes
func (mp *mempool) validateAndInsertTransaction(transaction *domainmodel.Transaction,
	assignNonce bool) (common.Hash, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "validateAndInsertTransaction")
	defer onEnd()

	// The mempool owns its copy, the caller's transaction is never modified.
	transaction = transaction.Clone()

	snapshot := mp.consensusState.TipAttributes()
	height := mp.consensusState.TipHeight() + 1
	err := mp.validateTransactionInIsolation(transaction, snapshot, height)
	if err != nil {
		return common.Hash{}, err
	}

	view := mp.consensusState.AccountView()
	accountNonce := view.Nonce(domainmodel.NewEVMAddress(transaction.From))
	if assignNonce {
		transaction.Nonce = mp.transactionsPool.firstFreeNonce(transaction.From, accountNonce)
	}
	if transaction.Nonce < accountNonce {
		return common.Hash{}, transactionRuleError(ruleerrors.ErrInvalidNonce,
			"invalid nonce. Account nonce %d, signed_tx nonce %d", accountNonce, transaction.Nonce)
	}

	err = mp.validateTransactionInContext(transaction, snapshot, height, view)
	if err != nil {
		return common.Hash{}, err
	}

	transactionID := domainmodel.TransactionHash(transaction)
	if _, ok := mp.transactionsPool.allTransactions[transactionID]; ok {
		return common.Hash{}, transactionRuleError(ruleerrors.ErrDuplicateTransaction,
			"transaction %s is already in the mempool", transactionID)
	}

	existing, isReplacement := mp.transactionsPool.transactionAt(transaction.From, transaction.Nonce)
	if isReplacement {
		newFee := domainmodel.CloneInt(transaction.GasPrice)
		if !newFee.Gt(existing.Fee()) {
			return common.Hash{}, transactionRuleError(ruleerrors.ErrLowFee,
				"replacement fee %s of nonce %d is not above the queued fee %s",
				newFee, transaction.Nonce, existing.Fee())
		}
		mp.transactionsPool.replaceTransaction(existing, transaction)
		mp.metrics.replaced.Inc()
		log.Debugf("Replaced transaction %s of %s at nonce %d with %s",
			existing.TransactionID(), transaction.From, transaction.Nonce, transactionID)
		return transactionID, nil
	}

	if mp.transactionsPool.senderCount(transaction.From) >= mp.config.MaximumTransactionsPerSender {
		return common.Hash{}, transactionRuleError(ruleerrors.ErrTooManyTxsBySender,
			"too many transactions by sender %s, at most %d can be queued",
			transaction.From, mp.config.MaximumTransactionsPerSender)
	}

	mp.transactionsPool.addTransaction(transaction)
	log.Debugf("Accepted %s transaction %s of %s at nonce %d",
		transaction.Kind, transactionID, transaction.From, transaction.Nonce)
	return transactionID, nil
}
