package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/fees"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/miningmanager"
	"github.com/xvmnet/xvmd/domain/miningmanager/blocktemplatebuilder"
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/vmmap"
	"github.com/xvmnet/xvmd/infrastructure/db/database"
	"github.com/xvmnet/xvmd/infrastructure/db/database/ldb"
	"github.com/xvmnet/xvmd/util/prioritylock"
)

// Chain owns the node state and serializes every operation on it.
// Submissions and queries share the lock, block production and rollback
// hold it exclusively.
type Chain struct {
	lock        *prioritylock.Mutex
	params      *chainparams.Params
	blockMaxGas uint64

	ledger        *ledger.Ledger
	attributes    *attributes.Store
	fees          *fees.Accountant
	vmmap         *vmmap.Store
	database      database.Database
	ownsDatabase  bool
	miningManager miningmanager.MiningManager
	metrics       *metrics

	blocks       []*model.Block
	blockHashes  []model.Hash
	blocksByHash map[model.Hash]uint64

	// haltErr is set once the node state can no longer be trusted.
	haltErr error

	// rollbackCheck is an additional consistency check run after every
	// rollback.
	rollbackCheck func() error
}

// New creates a chain holding only the genesis block of config.Params.
func New(config *Config) (*Chain, error) {
	if config.Params == nil {
		return nil, errors.New("chain parameters are required")
	}
	params := config.Params

	l, err := ledger.New(params.GenesisAllocs)
	if err != nil {
		return nil, err
	}
	attributeStore, err := attributes.New(params.NextNetworkUpgradeHeight, config.GenesisAttributes)
	if err != nil {
		return nil, err
	}

	db := config.Database
	ownsDatabase := false
	if db == nil {
		db, err = ldb.NewMemoryLevelDB()
		if err != nil {
			return nil, err
		}
		ownsDatabase = true
	}

	registerer := config.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	chainMetrics, err := newMetrics(defaultMetricsNamespace, registerer)
	if err != nil {
		return nil, err
	}

	genesis := &model.Block{
		Header: model.BlockHeader{
			Height:    0,
			Timestamp: params.GenesisTimestamp,
		},
		FeeBurnt:    new(uint256.Int),
		FeePriority: new(uint256.Int),
	}
	genesisHash := model.BlockHash(genesis)

	blockMaxGas := config.BlockMaxGas
	if blockMaxGas == 0 || blockMaxGas > params.BlockGasLimit {
		blockMaxGas = params.BlockGasLimit
	}

	c := &Chain{
		lock:         prioritylock.New(),
		params:       params,
		blockMaxGas:  blockMaxGas,
		ledger:       l,
		attributes:   attributeStore,
		fees:         fees.NewAccountant(),
		vmmap:        vmmap.New(db),
		database:     db,
		ownsDatabase: ownsDatabase,
		metrics:      chainMetrics,
		blocks:       []*model.Block{genesis},
		blockHashes:  []model.Hash{genesisHash},
		blocksByHash: map[model.Hash]uint64{genesisHash: 0},
	}

	// Blocks are not persisted, so edges left by a previous run are stale.
	err = c.vmmap.Rollback(0)
	if err != nil {
		return nil, err
	}

	executor := config.Executor
	if executor == nil {
		executor = blocktemplatebuilder.NewValueTransferExecutor()
	}
	mempoolConfig := mempool.DefaultConfig(params)
	mempoolConfig.BlockGasLimit = blockMaxGas
	c.miningManager, err = miningmanager.NewFactory().NewMiningManagerWithConfig(
		params, mempoolConfig, &consensusState{chain: c}, executor, registerer)
	if err != nil {
		return nil, err
	}

	log.Infof("Initialized %s chain with genesis block %s and %d genesis allocations",
		params.Name, genesisHash, len(params.GenesisAllocs))
	return c, nil
}

// Close releases the database when the chain created it.
func (c *Chain) Close() error {
	c.lock.HighPriorityLock()
	defer c.lock.HighPriorityUnlock()

	if !c.ownsDatabase {
		return nil
	}
	return c.database.Close()
}

// Params returns the parameters of the chain.
func (c *Chain) Params() *chainparams.Params {
	return c.params
}

func (c *Chain) tipHeight() uint64 {
	return uint64(len(c.blocks) - 1)
}

// tipEVMHash is the hash of the latest evm block, or the zero hash before
// the first one.
func (c *Chain) tipEVMHash() common.Hash {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i].XVM != nil {
			return c.blocks[i].XVM.BlockHash
		}
	}
	return common.Hash{}
}

// Tip returns the height and hash of the latest block.
func (c *Chain) Tip() (uint64, model.Hash) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	height := c.tipHeight()
	return height, c.blockHashes[height]
}

// BlockByHeight returns the connected block at height.
func (c *Chain) BlockByHeight(height uint64) (*model.Block, error) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	if height > c.tipHeight() {
		return nil, errors.Errorf("no block at height %d, the tip is at height %d", height, c.tipHeight())
	}
	return c.blocks[height], nil
}

// BlockByHash returns the connected block with the given hash.
func (c *Chain) BlockByHash(hash model.Hash) (*model.Block, error) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	height, ok := c.blocksByHash[hash]
	if !ok {
		return nil, errors.Errorf("block %s is not connected", hash)
	}
	return c.blocks[height], nil
}

// FinalizedHeight returns the height below which evm blocks are final:
// the tip minus the governance finality count, floored at zero.
func (c *Chain) FinalizedHeight() uint64 {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	finalityCount := c.attributes.Snapshot().Uint64(attributes.KeyEVMFinalityCount, defaultFinalityCount)
	tip := c.tipHeight()
	if finalityCount >= tip {
		return 0
	}
	return tip - finalityCount
}

// Account returns the state of address at the tip.
func (c *Chain) Account(address model.Address) *ledger.Account {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.ledger.Account(address)
}

// FeeAggregate returns the fee totals and extrema of all connected blocks.
func (c *Chain) FeeAggregate() *fees.Aggregate {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.fees.Aggregate()
}

// Attributes returns the governance snapshot in effect at the tip.
func (c *Chain) Attributes() *attributes.Snapshot {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.attributes.Snapshot()
}

// StagedAttributes returns the governance changes waiting for the next
// block.
func (c *Chain) StagedAttributes() map[string]string {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.attributes.Staged()
}

// VMMap resolves input between the DVM and EVM identifier spaces.
func (c *Chain) VMMap(input string, mapType vmmap.MapType) (*vmmap.LookupResult, error) {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.vmmap.Lookup(input, mapType)
}

// Halted returns the reason block production stopped, or nil while the
// chain is healthy.
func (c *Chain) Halted() error {
	c.lock.HighPriorityReadLock()
	defer c.lock.HighPriorityReadUnlock()

	return c.haltErr
}
