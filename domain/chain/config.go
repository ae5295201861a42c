package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/miningmanager/blocktemplatebuilder"
	"github.com/xvmnet/xvmd/infrastructure/db/database"
)

const (
	defaultMetricsNamespace = "xvmd_chain"

	// defaultFinalityCount applies while v0/evm/block/finality_count is
	// unset.
	defaultFinalityCount = 100
)

// Config holds the collaborators of a Chain.
type Config struct {
	Params *chainparams.Params

	// Database stores the vmmap edges. An in-memory database is used
	// when it is nil.
	Database database.Database

	// BlockMaxGas bounds the gas of produced blocks and the gas limit of
	// admitted transactions. The network block gas limit is used when it
	// is zero or above that limit.
	BlockMaxGas uint64

	// GenesisAttributes are the governance values at height 0.
	GenesisAttributes map[string]string

	// Executor applies evm transactions. Value transfers are used when it
	// is nil.
	Executor blocktemplatebuilder.Executor

	// Registerer receives the chain and mempool metrics. Metrics are not
	// exported when it is nil.
	Registerer prometheus.Registerer
}
