package model

import (
	"github.com/ethereum/go-ethereum/common"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// Mempool maintains a set of known transactions that
// are intended to be mined into new blocks
type Mempool interface {
	// ValidateAndInsertTransaction validates transaction against the chain
	// tip and queues it. When assignNonce is set, the nonce of transaction
	// is ignored and the lowest free nonce of its sender is used instead.
	ValidateAndInsertTransaction(transaction *domainmodel.Transaction, assignNonce bool) (common.Hash, error)

	// DrainForBlock returns the queued transactions in block order.
	// The transactions stay queued until HandleNewBlock or
	// RemoveTransactions removes them.
	DrainForBlock() []*domainmodel.Transaction

	HandleNewBlock(block *domainmodel.Block) error
	HandleRollback(transactions []*domainmodel.Transaction) (requeued int)
	RemoveTransactions(transactionIDs []common.Hash) error
	EvictAll() int

	Transactions() []*domainmodel.Transaction
	TransactionByID(transactionID common.Hash) (*domainmodel.Transaction, bool)
	Count() int
	SenderCount(sender common.Address) int
}
