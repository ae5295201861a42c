package miningmanager

import (
	"github.com/ethereum/go-ethereum/common"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/model"
)

// MiningManager creates block templates for mining as well as maintaining
// known transactions that have not yet been added to any block
type MiningManager interface {
	ValidateAndInsertTransaction(transaction *model.Transaction, assignNonce bool) (common.Hash, error)
	BuildBlockTemplate(request *miningmanagermodel.BlockTemplateRequest) (*miningmanagermodel.BlockTemplate, error)
	HandleNewBlock(block *model.Block) error
	HandleRollback(transactions []*model.Transaction) (requeued int)
	RemoveTransactions(transactionIDs []common.Hash) error
	ClearMempool() (evicted int)

	AllTransactions() []*model.Transaction
	GetTransaction(transactionID common.Hash) (*model.Transaction, bool)
	TransactionCount() int
	SenderTransactionCount(sender common.Address) int
}

type miningManager struct {
	mempool              miningmanagermodel.Mempool
	blockTemplateBuilder miningmanagermodel.BlockTemplateBuilder
}

// ValidateAndInsertTransaction validates the given transaction, and
// adds it to the set of known transactions that have not yet been
// added to any block
func (mm *miningManager) ValidateAndInsertTransaction(transaction *model.Transaction,
	assignNonce bool) (common.Hash, error) {

	return mm.mempool.ValidateAndInsertTransaction(transaction, assignNonce)
}

// BuildBlockTemplate creates a block template for a miner to consume
func (mm *miningManager) BuildBlockTemplate(
	request *miningmanagermodel.BlockTemplateRequest) (*miningmanagermodel.BlockTemplate, error) {

	return mm.blockTemplateBuilder.BuildBlockTemplate(request)
}

// HandleNewBlock handles a new block that was just connected to the tip
func (mm *miningManager) HandleNewBlock(block *model.Block) error {
	return mm.mempool.HandleNewBlock(block)
}

// HandleRollback requeues the transactions of disconnected blocks. It
// MUST be called once the tip was rolled back.
func (mm *miningManager) HandleRollback(transactions []*model.Transaction) int {
	requeued := mm.mempool.HandleRollback(transactions)
	log.Debugf("Requeued %d of %d transactions from disconnected blocks", requeued, len(transactions))
	return requeued
}

func (mm *miningManager) RemoveTransactions(transactionIDs []common.Hash) error {
	return mm.mempool.RemoveTransactions(transactionIDs)
}

// ClearMempool evicts every queued transaction
func (mm *miningManager) ClearMempool() int {
	return mm.mempool.EvictAll()
}

func (mm *miningManager) AllTransactions() []*model.Transaction {
	return mm.mempool.Transactions()
}

func (mm *miningManager) GetTransaction(transactionID common.Hash) (*model.Transaction, bool) {
	return mm.mempool.TransactionByID(transactionID)
}

func (mm *miningManager) TransactionCount() int {
	return mm.mempool.Count()
}

func (mm *miningManager) SenderTransactionCount(sender common.Address) int {
	return mm.mempool.SenderCount(sender)
}
