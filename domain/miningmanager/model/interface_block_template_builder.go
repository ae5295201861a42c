package model

import (
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/fees"
	"github.com/xvmnet/xvmd/domain/ledger"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// BlockTemplateBuilder builds block templates for miners to consume
type BlockTemplateBuilder interface {
	BuildBlockTemplate(request *BlockTemplateRequest) (*BlockTemplate, error)
}

// BlockTemplateRequest describes the block to build on top of the tip
type BlockTemplateRequest struct {
	MaxGas    uint64
	Proposer  []byte
	Timestamp int64
}

// BlockTemplate is a built block together with the state it leads to.
// Connecting it commits WorkingState at Block.Header.Height.
type BlockTemplate struct {
	Block        *domainmodel.Block
	Attributes   *attributes.Snapshot
	WorkingState *ledger.WorkingState
	Fees         *fees.BlockFees
}
