package fees

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
)

type blockRecord struct {
	height uint64
	hash   model.Hash
	fees   *BlockFees
}

// Accountant keeps the fee history of every connected block and the
// aggregate derived from it.
type Accountant struct {
	mtx       sync.RWMutex
	history   []blockRecord
	aggregate *Aggregate
}

// NewAccountant returns an Accountant with an empty history.
func NewAccountant() *Accountant {
	return &Accountant{aggregate: newAggregate()}
}

// ConnectBlock adds the fees of the block at height.
func (a *Accountant) ConnectBlock(height uint64, hash model.Hash, blockFees *BlockFees) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if len(a.history) > 0 && height <= a.history[len(a.history)-1].height {
		return errors.Errorf("cannot connect fees of height %d after height %d",
			height, a.history[len(a.history)-1].height)
	}
	record := blockRecord{height: height, hash: hash, fees: blockFees.Clone()}
	a.history = append(a.history, record)
	a.aggregate.connect(hash, record.fees)
	log.Debugf("Block %d fees: burnt %s, priority %s, lifetime burnt %s, lifetime priority %s",
		height, record.fees.Burnt, record.fees.Priority, a.aggregate.Burnt, a.aggregate.Priority)
	return nil
}

// Rollback discards the history above toHeight and recomputes the
// aggregate from the remaining blocks, since a discarded block may have
// held an extremum.
func (a *Accountant) Rollback(toHeight uint64) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	kept := len(a.history)
	for kept > 0 && a.history[kept-1].height > toHeight {
		kept--
	}
	a.history = a.history[:kept]
	a.aggregate = recompute(a.history)
	log.Debugf("Rolled back fees to height %d, lifetime burnt %s, lifetime priority %s",
		toHeight, a.aggregate.Burnt, a.aggregate.Priority)
}

// recompute derives an aggregate from a block history.
func recompute(history []blockRecord) *Aggregate {
	aggregate := newAggregate()
	for _, record := range history {
		aggregate.connect(record.hash, record.fees)
	}
	return aggregate
}

// Aggregate returns a copy of the current aggregate.
func (a *Accountant) Aggregate() *Aggregate {
	a.mtx.RLock()
	defer a.mtx.RUnlock()

	return a.aggregate.Clone()
}

// Attributes returns the live governance keys of the current aggregate.
func (a *Accountant) Attributes() map[string]string {
	a.mtx.RLock()
	defer a.mtx.RUnlock()

	return a.aggregate.Attributes()
}

// Verify checks that the incrementally maintained aggregate matches one
// recomputed from the history.
func (a *Accountant) Verify() error {
	a.mtx.RLock()
	defer a.mtx.RUnlock()

	if !recompute(a.history).Equal(a.aggregate) {
		return errors.New("the fee aggregate does not match the fee history")
	}
	return nil
}
