package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/model"
)

// consensusState exposes the tip of a chain to its mining manager. The
// mining manager is only called with the chain lock held, so the methods
// do not lock.
type consensusState struct {
	chain *Chain
}

func (cs *consensusState) TipHeight() uint64 {
	return cs.chain.tipHeight()
}

func (cs *consensusState) TipHash() model.Hash {
	return cs.chain.blockHashes[cs.chain.tipHeight()]
}

func (cs *consensusState) TipEVMHash() common.Hash {
	return cs.chain.tipEVMHash()
}

func (cs *consensusState) TipAttributes() *attributes.Snapshot {
	return cs.chain.attributes.Snapshot()
}

func (cs *consensusState) NextBlockAttributes() (*attributes.Snapshot, error) {
	return cs.chain.attributes.Preview(cs.chain.tipHeight() + 1)
}

func (cs *consensusState) AccountView() ledger.View {
	return cs.chain.ledger
}

func (cs *consensusState) NewWorkingState() *ledger.WorkingState {
	return cs.chain.ledger.NewWorkingState()
}
