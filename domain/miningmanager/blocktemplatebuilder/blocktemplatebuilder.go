package blocktemplatebuilder

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/fees"
	"github.com/xvmnet/xvmd/domain/ledger"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/transferdomain"
	"github.com/xvmnet/xvmd/infrastructure/logger"
)

// blockTemplateBuilder creates block templates for a miner to consume
type blockTemplateBuilder struct {
	params         *chainparams.Params
	consensusState miningmanagermodel.ConsensusState
	mempool        miningmanagermodel.Mempool
	bridge         *transferdomain.Bridge
	executor       Executor
}

// New creates a new blockTemplateBuilder
func New(params *chainparams.Params, consensusState miningmanagermodel.ConsensusState,
	mempool miningmanagermodel.Mempool, bridge *transferdomain.Bridge,
	executor Executor) miningmanagermodel.BlockTemplateBuilder {

	return &blockTemplateBuilder{
		params:         params,
		consensusState: consensusState,
		mempool:        mempool,
		bridge:         bridge,
		executor:       executor,
	}
}

// buildContext is the state of one BuildBlockTemplate pass
type buildContext struct {
	height       uint64
	maxGas       uint64
	snapshot     *attributes.Snapshot
	workingState *ledger.WorkingState
	block        *model.Block
	blockFees    *fees.BlockFees

	// skippedSenders have a nonce gap in this pass. Their transactions
	// stay queued.
	skippedSenders map[common.Address]struct{}
}

// BuildBlockTemplate creates a block template for a miner to consume. It
// makes a single pass over the mempool in block order and stops at the
// first includable transaction whose gas limit does not fit in the
// remaining gas.
func (btb *blockTemplateBuilder) BuildBlockTemplate(
	request *miningmanagermodel.BlockTemplateRequest) (*miningmanagermodel.BlockTemplate, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlockTemplate")
	defer onEnd()

	snapshot, err := btb.consensusState.NextBlockAttributes()
	if err != nil {
		return nil, err
	}

	height := btb.consensusState.TipHeight() + 1
	ctx := &buildContext{
		height:       height,
		maxGas:       btb.maxGas(request.MaxGas),
		snapshot:     snapshot,
		workingState: btb.consensusState.NewWorkingState(),
		block: &model.Block{
			Header: model.BlockHeader{
				Height:     height,
				ParentHash: btb.consensusState.TipHash(),
				Timestamp:  request.Timestamp,
				Proposer:   append([]byte(nil), request.Proposer...),
			},
			FeeBurnt:    new(uint256.Int),
			FeePriority: new(uint256.Int),
			Beneficiary: beneficiaryOf(request.Proposer),
		},
		blockFees:      fees.NewBlockFees(),
		skippedSenders: make(map[common.Address]struct{}),
	}

	if btb.params.IsUpgradeActive(height) && snapshot.Bool(attributes.KeyFeatureEVM) {
		err = btb.fillEVMSection(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		log.Debugf("EVM is not enabled at height %d, building a block without an EVM section", height)
	}

	if log.Level() <= logger.LevelTrace {
		log.Tracef("Built block template %s", spew.Sdump(ctx.block.Header, ctx.block.XVM))
	}
	log.Debugf("Built block template at height %d with %d transactions, %d rejected, %d gas used",
		height, len(ctx.block.Transactions), len(ctx.block.Rejected), ctx.block.GasUsed)

	return &miningmanagermodel.BlockTemplate{
		Block:        ctx.block,
		Attributes:   snapshot,
		WorkingState: ctx.workingState,
		Fees:         ctx.blockFees,
	}, nil
}

func (btb *blockTemplateBuilder) fillEVMSection(ctx *buildContext) error {
	for _, transaction := range btb.mempool.DrainForBlock() {
		if !btb.isNext(ctx, transaction) {
			continue
		}
		if transaction.GasLimit > ctx.maxGas {
			log.Debugf("Skipping sender %s for this block, gas limit %d of transaction %s is above "+
				"the block max gas %d", transaction.From, transaction.GasLimit,
				model.TransactionHash(transaction), ctx.maxGas)
			ctx.skippedSenders[transaction.From] = struct{}{}
			continue
		}
		if ctx.block.GasUsed+transaction.GasLimit > ctx.maxGas {
			log.Debugf("Transaction %s with gas limit %d does not fit in the remaining %d gas, "+
				"closing the block", model.TransactionHash(transaction), transaction.GasLimit,
				ctx.maxGas-ctx.block.GasUsed)
			break
		}
		err := btb.apply(ctx, transaction)
		if err != nil {
			return err
		}
	}

	block := ctx.block
	block.FeeBurnt.Set(ctx.blockFees.Burnt)
	block.FeePriority.Set(ctx.blockFees.Priority)
	record := &model.XVMRecord{
		BlockNumber:      ctx.height,
		ParentHash:       btb.consensusState.TipEVMHash(),
		Beneficiary:      block.Beneficiary,
		TotalPriorityFee: model.CloneInt(ctx.blockFees.Priority),
		TotalBurntFee:    model.CloneInt(ctx.blockFees.Burnt),
		GasUsed:          block.GasUsed,
		GasLimit:         ctx.maxGas,
		Timestamp:        block.Header.Timestamp,
	}
	record.BlockHash = model.EVMBlockHash(record, block.Transactions)
	block.XVM = record
	return nil
}

func (btb *blockTemplateBuilder) maxGas(requested uint64) uint64 {
	if requested == 0 || requested > btb.params.BlockGasLimit {
		return btb.params.BlockGasLimit
	}
	return requested
}

// beneficiaryOf returns the erc55 address of the proposer key, or the zero
// address when there is no valid proposer key.
func beneficiaryOf(proposer []byte) common.Address {
	if len(proposer) == 0 {
		return common.Address{}
	}
	beneficiary, err := addressformat.ERC55Address(proposer)
	if err != nil {
		log.Warnf("Invalid proposer key, priority fees go to the zero address: %s", err)
		return common.Address{}
	}
	return beneficiary.EVM()
}
