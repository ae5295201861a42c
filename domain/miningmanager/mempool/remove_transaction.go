package mempool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool/model"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// this function MUST be called with the mempool mutex locked for writes
func (mp *mempool) removeTransactions(transactionIDs []common.Hash) int {
	removed := 0
	for _, transactionID := range transactionIDs {
		if mp.removeTransaction(transactionID) {
			removed++
		}
	}
	return removed
}

// this function MUST be called with the mempool mutex locked for writes
func (mp *mempool) removeTransaction(transactionID common.Hash) bool {
	mempoolTransaction, ok := mp.transactionsPool.allTransactions[transactionID]
	if !ok {
		return false
	}
	mp.transactionsPool.removeTransaction(mempoolTransaction)
	return true
}

// removeStaleTransactions removes every queued transaction whose nonce was
// already consumed at the tip. It returns how many were removed.
//
// this function MUST be called with the mempool mutex locked for writes
func (mp *mempool) removeStaleTransactions() int {
	view := mp.consensusState.AccountView()

	var stale []*model.MempoolTransaction
	for sender, senderQueue := range mp.transactionsPool.senderQueues {
		accountNonce := view.Nonce(domainmodel.NewEVMAddress(sender))
		stale = append(stale, senderQueue.Below(accountNonce)...)
	}
	for _, transaction := range stale {
		log.Debugf("Removing transaction %s of %s, nonce %d was already used",
			transaction.TransactionID(), transaction.Sender(), transaction.Nonce())
		mp.transactionsPool.removeTransaction(transaction)
	}
	return len(stale)
}
