package model

import (
	"github.com/google/btree"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

const senderQueueDegree = 8

// SenderQueue holds the queued transactions of one sender ordered by nonce.
// There is at most one transaction per nonce.
type SenderQueue struct {
	byNonce *btree.BTreeG[*MempoolTransaction]
}

// NewSenderQueue returns an empty SenderQueue
func NewSenderQueue() *SenderQueue {
	return &SenderQueue{
		byNonce: btree.NewG[*MempoolTransaction](senderQueueDegree, func(a, b *MempoolTransaction) bool {
			return a.Nonce() < b.Nonce()
		}),
	}
}

func nonceKey(nonce uint64) *MempoolTransaction {
	return &MempoolTransaction{transaction: &domainmodel.Transaction{Nonce: nonce}}
}

// Get returns the transaction queued at nonce, if any
func (sq *SenderQueue) Get(nonce uint64) (*MempoolTransaction, bool) {
	return sq.byNonce.Get(nonceKey(nonce))
}

// Put inserts transaction, returning the transaction it replaced at the
// same nonce, if any
func (sq *SenderQueue) Put(transaction *MempoolTransaction) (replaced *MempoolTransaction, ok bool) {
	return sq.byNonce.ReplaceOrInsert(transaction)
}

// Remove removes the transaction queued at nonce
func (sq *SenderQueue) Remove(nonce uint64) (*MempoolTransaction, bool) {
	return sq.byNonce.Delete(nonceKey(nonce))
}

// Len returns the number of queued transactions
func (sq *SenderQueue) Len() int {
	return sq.byNonce.Len()
}

// Transactions returns the queued transactions in ascending nonce order
func (sq *SenderQueue) Transactions() []*MempoolTransaction {
	transactions := make([]*MempoolTransaction, 0, sq.byNonce.Len())
	sq.byNonce.Ascend(func(transaction *MempoolTransaction) bool {
		transactions = append(transactions, transaction)
		return true
	})
	return transactions
}

// Below returns the queued transactions with a nonce lower than nonce
func (sq *SenderQueue) Below(nonce uint64) []*MempoolTransaction {
	var transactions []*MempoolTransaction
	sq.byNonce.AscendLessThan(nonceKey(nonce), func(transaction *MempoolTransaction) bool {
		transactions = append(transactions, transaction)
		return true
	})
	return transactions
}

// FirstFreeNonce returns the lowest nonce not below from that has no
// queued transaction
func (sq *SenderQueue) FirstFreeNonce(from uint64) uint64 {
	nonce := from
	sq.byNonce.AscendGreaterOrEqual(nonceKey(from), func(transaction *MempoolTransaction) bool {
		if transaction.Nonce() != nonce {
			return false
		}
		nonce++
		return true
	})
	return nonce
}

// Rank returns the lowest arrival sequence among the queued transactions.
// It orders senders against each other when building blocks.
func (sq *SenderQueue) Rank() uint64 {
	rank := ^uint64(0)
	sq.byNonce.Ascend(func(transaction *MempoolTransaction) bool {
		if transaction.ArrivalSequence() < rank {
			rank = transaction.ArrivalSequence()
		}
		return true
	})
	return rank
}
