package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/transferdomain"
)

// SubmitTransaction validates transaction against the tip and queues it.
// When assignNonce is set the lowest free nonce of the sender is used.
func (c *Chain) SubmitTransaction(transaction *model.Transaction, assignNonce bool) (common.Hash, error) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.miningManager.ValidateAndInsertTransaction(transaction, assignNonce)
}

// SubmitTransferDomain queues a transfer between the DVM and EVM domains.
// A nil nonce is assigned automatically.
func (c *Chain) SubmitTransferDomain(msg *model.TransferDomainMessage, nonce *uint64) (common.Hash, error) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	var explicitNonce uint64
	if nonce != nil {
		explicitNonce = *nonce
	}
	transaction := transferdomain.NewTransaction(msg, explicitNonce)
	return c.miningManager.ValidateAndInsertTransaction(transaction, nonce == nil)
}

// SetGov stages governance changes for the next block. Either all of
// changes are staged or none are.
func (c *Chain) SetGov(changes map[string]string) error {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.attributes.SetGov(c.tipHeight(), changes)
}

// PendingTransactions returns the queued transactions in block order.
func (c *Chain) PendingTransactions() []*model.Transaction {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.miningManager.AllTransactions()
}

// PendingTransaction returns a queued transaction by its hash.
func (c *Chain) PendingTransaction(id common.Hash) (*model.Transaction, bool) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.miningManager.GetTransaction(id)
}

// RemovePendingTransactions drops queued transactions by hash.
func (c *Chain) RemovePendingTransactions(ids []common.Hash) error {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.miningManager.RemoveTransactions(ids)
}

// ClearMempool evicts every queued transaction once no block production
// or submission is waiting.
func (c *Chain) ClearMempool() int {
	c.lock.LowPriorityLock()
	defer c.lock.LowPriorityUnlock()

	evicted := c.miningManager.ClearMempool()
	log.Infof("Cleared %d transactions from the mempool", evicted)
	return evicted
}
