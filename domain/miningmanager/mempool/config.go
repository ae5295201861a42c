package mempool

import (
	"github.com/holiman/uint256"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/model"
)

const defaultMetricsNamespace = "xvmd_mempool"

// Config represents a mempool configuration
type Config struct {
	MaximumTransactionsPerSender int
	// BlockGasLimit is the gas limit of the blocks built from this
	// mempool. Transactions above it could never be included.
	BlockGasLimit            uint64
	BaseFee                  *uint256.Int
	NextNetworkUpgradeHeight uint64
	MetricsNamespace         string
}

// DefaultConfig returns the default mempool configuration
func DefaultConfig(params *chainparams.Params) *Config {
	return &Config{
		MaximumTransactionsPerSender: params.MaxTransactionsPerSender,
		BlockGasLimit:                params.BlockGasLimit,
		BaseFee:                      model.CloneInt(params.BaseFee),
		NextNetworkUpgradeHeight:     params.NextNetworkUpgradeHeight,
		MetricsNamespace:             defaultMetricsNamespace,
	}
}
