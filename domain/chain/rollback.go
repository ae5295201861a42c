package chain

import (
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
	"github.com/xvmnet/xvmd/infrastructure/logger"
)

// Rollback disconnects every block above toHeight and reverts the ledger,
// governance attributes, fee aggregate and vmmap to their state at
// toHeight. Transactions of the disconnected blocks are re-admitted to the
// mempool when they are still valid. A rollback that leaves the stores
// inconsistent stops block production.
func (c *Chain) Rollback(toHeight uint64) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Rollback")
	defer onEnd()

	c.lock.HighPriorityLock()
	defer c.lock.HighPriorityUnlock()

	if c.haltErr != nil {
		return ruleerrors.Errorf(ruleerrors.ErrChainHalted, "cannot roll back: %s", c.haltErr)
	}
	tip := c.tipHeight()
	if toHeight > tip {
		return errors.Errorf("cannot roll back to height %d, the tip is at height %d", toHeight, tip)
	}
	if toHeight == tip {
		return nil
	}

	var disconnected []*model.Transaction
	for _, block := range c.blocks[toHeight+1:] {
		disconnected = append(disconnected, block.Transactions...)
	}

	err := c.ledger.Rollback(toHeight)
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent, "ledger: %s", err))
	}
	c.fees.Rollback(toHeight)
	err = c.attributes.Rollback(toHeight)
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent, "attributes: %s", err))
	}
	err = c.vmmap.Rollback(toHeight)
	if err != nil {
		return c.halt(ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent, "vmmap: %s", err))
	}

	for _, hash := range c.blockHashes[toHeight+1:] {
		delete(c.blocksByHash, hash)
	}
	c.blocks = c.blocks[:toHeight+1]
	c.blockHashes = c.blockHashes[:toHeight+1]
	c.metrics.tipHeight.Set(float64(toHeight))
	c.metrics.rollbacks.Inc()

	err = c.verifyConsistency(toHeight)
	if err != nil {
		return c.halt(err)
	}

	requeued := c.miningManager.HandleRollback(disconnected)
	log.Infof("Rolled back from height %d to %d, requeued %d of %d transactions",
		tip, toHeight, requeued, len(disconnected))
	return nil
}

// verifyConsistency checks that every store agrees on toHeight and that
// the live fee attributes match the recomputed fee aggregate.
func (c *Chain) verifyConsistency(toHeight uint64) error {
	if c.ledger.Height() != toHeight {
		return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent,
			"ledger is at height %d instead of %d", c.ledger.Height(), toHeight)
	}
	if c.attributes.Height() != toHeight {
		return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent,
			"attributes are at height %d instead of %d", c.attributes.Height(), toHeight)
	}
	err := c.fees.Verify()
	if err != nil {
		return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent, "fees: %s", err)
	}

	// Genesis carries no live keys.
	live := c.attributes.Snapshot().Live()
	expected := map[string]string{}
	if toHeight > 0 {
		expected = c.fees.Attributes()
	}
	if len(live) != len(expected) {
		return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent,
			"%d live attributes at height %d, expected %d", len(live), toHeight, len(expected))
	}
	for key, value := range expected {
		if live[key] != value {
			return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent,
				"live attribute %s is %q at height %d, expected %q", key, live[key], toHeight, value)
		}
	}

	if c.rollbackCheck != nil {
		err := c.rollbackCheck()
		if err != nil {
			return ruleerrors.Errorf(ruleerrors.ErrRollbackInconsistent, "%s", err)
		}
	}
	return nil
}
