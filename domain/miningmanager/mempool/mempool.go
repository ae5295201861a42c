package mempool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/transferdomain"
)

type mempool struct {
	mtx sync.RWMutex

	config         *Config
	consensusState miningmanagermodel.ConsensusState
	bridge         *transferdomain.Bridge

	transactionsPool *transactionsPool
	metrics          *metrics
}

// New constructs a new mempool
func New(config *Config, consensusState miningmanagermodel.ConsensusState, bridge *transferdomain.Bridge,
	registerer prometheus.Registerer) (miningmanagermodel.Mempool, error) {

	metrics, err := newMetrics(config.MetricsNamespace, registerer)
	if err != nil {
		return nil, err
	}
	mp := &mempool{
		config:         config,
		consensusState: consensusState,
		bridge:         bridge,
		metrics:        metrics,
	}
	mp.transactionsPool = newTransactionsPool(mp)
	return mp, nil
}

func (mp *mempool) ValidateAndInsertTransaction(transaction *domainmodel.Transaction,
	assignNonce bool) (common.Hash, error) {

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	transactionID, err := mp.validateAndInsertTransaction(transaction, assignNonce)
	if err != nil {
		mp.metrics.observeRejection(err)
		return common.Hash{}, err
	}
	mp.metrics.accepted.Inc()
	mp.metrics.observePool(mp.transactionsPool)
	return transactionID, nil
}

func (mp *mempool) DrainForBlock() []*domainmodel.Transaction {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return cloneTransactions(mp.transactionsPool.orderedTransactions())
}

// HandleNewBlock removes the transactions included in or rejected by block,
// then every transaction whose nonce the block consumed. It MUST be called
// once block is connected to the tip.
func (mp *mempool) HandleNewBlock(block *domainmodel.Block) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	included := make([]common.Hash, 0, len(block.Transactions))
	for _, transaction := range block.Transactions {
		included = append(included, domainmodel.TransactionHash(transaction))
	}
	mp.removeTransactions(included)

	rejected := make([]common.Hash, 0, len(block.Rejected))
	for _, rejectedTransaction := range block.Rejected {
		rejected = append(rejected, domainmodel.TransactionHash(rejectedTransaction.Transaction))
	}
	evicted := mp.removeTransactions(rejected)
	evicted += mp.removeStaleTransactions()

	mp.metrics.evicted.Add(float64(evicted))
	mp.metrics.observePool(mp.transactionsPool)
	log.Debugf("Handled block %d, %d transactions left in the mempool",
		block.Header.Height, mp.transactionsPool.transactionCount())
	return nil
}

// HandleRollback queues again the transactions of rolled back blocks that
// are still valid against the reverted tip. It MUST be called once the tip
// is reverted, with the transactions in their original block order.
func (mp *mempool) HandleRollback(transactions []*domainmodel.Transaction) int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	requeued := 0
	for _, transaction := range transactions {
		_, err := mp.validateAndInsertTransaction(transaction, false)
		if err != nil {
			log.Debugf("Dropping rolled back transaction %s: %s", domainmodel.TransactionHash(transaction), err)
			continue
		}
		requeued++
	}
	mp.metrics.requeued.Add(float64(requeued))
	mp.metrics.observePool(mp.transactionsPool)
	return requeued
}

func (mp *mempool) RemoveTransactions(transactionIDs []common.Hash) error {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.metrics.evicted.Add(float64(mp.removeTransactions(transactionIDs)))
	mp.metrics.observePool(mp.transactionsPool)
	return nil
}

func (mp *mempool) EvictAll() int {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	evicted := mp.transactionsPool.transactionCount()
	mp.transactionsPool = newTransactionsPool(mp)

	mp.metrics.evicted.Add(float64(evicted))
	mp.metrics.observePool(mp.transactionsPool)
	log.Infof("Evicted all %d transactions from the mempool", evicted)
	return evicted
}

func (mp *mempool) Transactions() []*domainmodel.Transaction {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return cloneTransactions(mp.transactionsPool.orderedTransactions())
}

func (mp *mempool) TransactionByID(transactionID common.Hash) (*domainmodel.Transaction, bool) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	transaction, ok := mp.transactionsPool.getTransaction(transactionID)
	if !ok {
		return nil, false
	}
	return transaction.Clone(), true
}

func (mp *mempool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.transactionCount()
}

func (mp *mempool) SenderCount(sender common.Address) int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return mp.transactionsPool.senderCount(sender)
}
