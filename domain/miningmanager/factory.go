package miningmanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/miningmanager/blocktemplatebuilder"
	mempoolpkg "github.com/xvmnet/xvmd/domain/miningmanager/mempool"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/transferdomain"
)

// Factory instantiates new mining managers
type Factory interface {
	NewMiningManager(params *chainparams.Params, consensusState miningmanagermodel.ConsensusState,
		registerer prometheus.Registerer) (MiningManager, error)
	NewMiningManagerWithExecutor(params *chainparams.Params, consensusState miningmanagermodel.ConsensusState,
		executor blocktemplatebuilder.Executor, registerer prometheus.Registerer) (MiningManager, error)
	NewMiningManagerWithConfig(params *chainparams.Params, mempoolConfig *mempoolpkg.Config,
		consensusState miningmanagermodel.ConsensusState, executor blocktemplatebuilder.Executor,
		registerer prometheus.Registerer) (MiningManager, error)
}

type factory struct{}

// NewMiningManager instantiates a new mining manager executing evm
// transactions as plain value transfers
func (f *factory) NewMiningManager(params *chainparams.Params, consensusState miningmanagermodel.ConsensusState,
	registerer prometheus.Registerer) (MiningManager, error) {

	return f.NewMiningManagerWithExecutor(params, consensusState, blocktemplatebuilder.NewValueTransferExecutor(), registerer)
}

// NewMiningManagerWithExecutor instantiates a new mining manager which
// applies evm transactions with executor
func (f *factory) NewMiningManagerWithExecutor(params *chainparams.Params,
	consensusState miningmanagermodel.ConsensusState, executor blocktemplatebuilder.Executor,
	registerer prometheus.Registerer) (MiningManager, error) {

	return f.NewMiningManagerWithConfig(params, mempoolpkg.DefaultConfig(params), consensusState, executor, registerer)
}

// NewMiningManagerWithConfig instantiates a new mining manager whose
// mempool uses mempoolConfig
func (f *factory) NewMiningManagerWithConfig(params *chainparams.Params, mempoolConfig *mempoolpkg.Config,
	consensusState miningmanagermodel.ConsensusState, executor blocktemplatebuilder.Executor,
	registerer prometheus.Registerer) (MiningManager, error) {

	bridge := transferdomain.New(params)
	mempool, err := mempoolpkg.New(mempoolConfig, consensusState, bridge, registerer)
	if err != nil {
		return nil, err
	}
	blockTemplateBuilder := blocktemplatebuilder.New(params, consensusState, mempool, bridge, executor)

	return &miningManager{
		mempool:              mempool,
		blockTemplateBuilder: blockTemplateBuilder,
	}, nil
}

// NewFactory creates a new mining manager factory
func NewFactory() Factory {
	return &factory{}
}
