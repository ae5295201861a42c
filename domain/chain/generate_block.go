package chain

import (
	"time"

	"github.com/xvmnet/xvmd/domain/miningmanager/model"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
	"github.com/xvmnet/xvmd/infrastructure/logger"
)

// GenerateBlock builds a block on top of the tip from the mempool and
// connects it. A zero request timestamp is replaced by the current time,
// a zero or oversized MaxGas by the configured block max gas.
func (c *Chain) GenerateBlock(request *model.BlockTemplateRequest) (*domainmodel.Block, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "GenerateBlock")
	defer onEnd()

	c.lock.HighPriorityLock()
	defer c.lock.HighPriorityUnlock()

	if c.haltErr != nil {
		return nil, ruleerrors.Errorf(ruleerrors.ErrChainHalted, "block production stopped: %s", c.haltErr)
	}

	effectiveRequest := *request
	if effectiveRequest.Timestamp == 0 {
		effectiveRequest.Timestamp = time.Now().Unix()
	}
	if effectiveRequest.MaxGas == 0 || effectiveRequest.MaxGas > c.blockMaxGas {
		effectiveRequest.MaxGas = c.blockMaxGas
	}
	template, err := c.miningManager.BuildBlockTemplate(&effectiveRequest)
	if err != nil {
		return nil, err
	}
	err = c.connectBlock(template)
	if err != nil {
		return nil, err
	}
	return template.Block, nil
}

func (c *Chain) connectBlock(template *model.BlockTemplate) error {
	block := template.Block
	height := block.Header.Height

	// Nothing is committed until the ledger accepts the block.
	_, err := c.ledger.Connect(height, template.WorkingState)
	if err != nil {
		return err
	}

	hash := domainmodel.BlockHash(block)
	err = c.fees.ConnectBlock(height, hash, template.Fees)
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrChainHalted,
			"failed to connect the fees of block %s: %s", hash, err))
	}
	_, err = c.attributes.ConnectBlock(height, c.fees.Attributes())
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrChainHalted,
			"failed to connect the attributes of block %s: %s", hash, err))
	}
	err = c.vmmap.ConnectBlock(block)
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrChainHalted,
			"failed to index block %s: %s", hash, err))
	}

	c.blocks = append(c.blocks, block)
	c.blockHashes = append(c.blockHashes, hash)
	c.blocksByHash[hash] = height
	c.metrics.tipHeight.Set(float64(height))
	c.metrics.blocksConnected.Inc()

	err = c.miningManager.HandleNewBlock(block)
	if err != nil {
		return err
	}

	log.Infof("Connected block %s at height %d with %d transactions, %d gas used",
		hash, height, len(block.Transactions), block.GasUsed)
	return nil
}

// halt stops block production after the node state became partially
// updated or inconsistent.
func (c *Chain) halt(err error) error {
	c.haltErr = err
	c.metrics.halted.Set(1)
	log.Criticalf("Block production stopped: %s", err)
	return err
}
