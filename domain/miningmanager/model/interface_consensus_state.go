package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/ledger"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// ConsensusState is the chain tip the mining manager validates against
// and builds on
type ConsensusState interface {
	TipHeight() uint64
	TipHash() domainmodel.Hash
	TipEVMHash() common.Hash

	// TipAttributes is the governance snapshot in effect at the tip.
	TipAttributes() *attributes.Snapshot

	// NextBlockAttributes is the governance snapshot the next block will
	// be built under, staged changes included.
	NextBlockAttributes() (*attributes.Snapshot, error)

	AccountView() ledger.View
	NewWorkingState() *ledger.WorkingState
}
