package mempool

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool/model"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

type transactionsPool struct {
	mempool             *mempool
	allTransactions     model.IDToTransaction
	senderQueues        model.SenderToQueue
	nextArrivalSequence uint64
}

func newTransactionsPool(mp *mempool) *transactionsPool {
	return &transactionsPool{
		mempool:             mp,
		allTransactions:     model.IDToTransaction{},
		senderQueues:        model.SenderToQueue{},
		nextArrivalSequence: 0,
	}
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) addTransaction(transaction *domainmodel.Transaction) *model.MempoolTransaction {
	arrivalSequence := tp.nextArrivalSequence
	tp.nextArrivalSequence++

	mempoolTransaction := model.NewMempoolTransaction(transaction, arrivalSequence)
	tp.addMempoolTransaction(mempoolTransaction)
	return mempoolTransaction
}

// replaceTransaction queues transaction in the slot of existing. The
// replacement keeps the arrival sequence of the transaction it replaces.
//
// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) replaceTransaction(existing *model.MempoolTransaction,
	transaction *domainmodel.Transaction) *model.MempoolTransaction {

	delete(tp.allTransactions, existing.TransactionID())
	mempoolTransaction := model.NewMempoolTransaction(transaction, existing.ArrivalSequence())
	tp.addMempoolTransaction(mempoolTransaction)
	return mempoolTransaction
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) addMempoolTransaction(transaction *model.MempoolTransaction) {
	tp.allTransactions[transaction.TransactionID()] = transaction

	senderQueue, ok := tp.senderQueues[transaction.Sender()]
	if !ok {
		senderQueue = model.NewSenderQueue()
		tp.senderQueues[transaction.Sender()] = senderQueue
	}
	senderQueue.Put(transaction)
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) removeTransaction(transaction *model.MempoolTransaction) {
	delete(tp.allTransactions, transaction.TransactionID())

	senderQueue, ok := tp.senderQueues[transaction.Sender()]
	if !ok {
		return
	}
	senderQueue.Remove(transaction.Nonce())
	if senderQueue.Len() == 0 {
		delete(tp.senderQueues, transaction.Sender())
	}
}

// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) transactionAt(sender common.Address, nonce uint64) (*model.MempoolTransaction, bool) {
	senderQueue, ok := tp.senderQueues[sender]
	if !ok {
		return nil, false
	}
	return senderQueue.Get(nonce)
}

// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) senderCount(sender common.Address) int {
	senderQueue, ok := tp.senderQueues[sender]
	if !ok {
		return 0
	}
	return senderQueue.Len()
}

// firstFreeNonce returns the lowest nonce at or above accountNonce that
// sender has no queued transaction for.
//
// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) firstFreeNonce(sender common.Address, accountNonce uint64) uint64 {
	senderQueue, ok := tp.senderQueues[sender]
	if !ok {
		return accountNonce
	}
	return senderQueue.FirstFreeNonce(accountNonce)
}

// orderedTransactions returns all queued transactions ordered by
// (sender rank, nonce), where the rank of a sender is the lowest arrival
// sequence among its queued transactions.
//
// this function MUST be called with the mempool mutex locked for reads
func (tp *transactionsPool) orderedTransactions() []*model.MempoolTransaction {
	type rankedQueue struct {
		rank  uint64
		queue *model.SenderQueue
	}
	rankedQueues := make([]rankedQueue, 0, len(tp.senderQueues))
	for _, senderQueue := range tp.senderQueues {
		rankedQueues = append(rankedQueues, rankedQueue{rank: senderQueue.Rank(), queue: senderQueue})
	}
	sort.Slice(rankedQueues, func(i, j int) bool {
		return rankedQueues[i].rank < rankedQueues[j].rank
	})

	result := make([]*model.MempoolTransaction, 0, len(tp.allTransactions))
	for _, rankedQueue := range rankedQueues {
		result = append(result, rankedQueue.queue.Transactions()...)
	}
	return result
}

func (tp *transactionsPool) getTransaction(transactionID common.Hash) (*domainmodel.Transaction, bool) {
	if mempoolTransaction, ok := tp.allTransactions[transactionID]; ok {
		return mempoolTransaction.Transaction(), true
	}
	return nil, false
}

func (tp *transactionsPool) transactionCount() int {
	return len(tp.allTransactions)
}
