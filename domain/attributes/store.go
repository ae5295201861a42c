// Package attributes implements the versioned governance attribute store.
// Governance writes are staged and become visible at the next connected
// block; every connected block records the changes it made so that they
// can be reverted on rollback.
package attributes

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// Delta records the previous values of the keys changed by one block.
// A nil previous value means the key did not exist.
type Delta struct {
	Height   uint64
	Previous map[string]*string
}

// Store holds the attributes at the chain tip.
type Store struct {
	mtx sync.RWMutex

	forkHeight uint64
	current    *Snapshot
	staged     map[string]string
	deltas     []*Delta
}

// New returns a store whose genesis state holds the given values. Keys
// gated by the network upgrade become writable from forkHeight on.
func New(forkHeight uint64, genesis map[string]string) (*Store, error) {
	values := make(map[string]string, len(genesis))
	for key, value := range genesis {
		spec, ok := lookupKeySpec(key)
		if !ok {
			return nil, ruleerrors.Errorf(ruleerrors.ErrUnknownAttribute, "genesis attribute %s", key)
		}
		normalized, err := normalizeValue(key, spec, value)
		if err != nil {
			return nil, err
		}
		values[key] = normalized
	}
	if forkHeight == 0 {
		applyForkDefaults(values)
	}
	return &Store{
		forkHeight: forkHeight,
		current:    &Snapshot{height: 0, values: values},
		staged:     make(map[string]string),
	}, nil
}

// Snapshot returns the attributes at the tip.
func (s *Store) Snapshot() *Snapshot {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.current
}

// Height returns the height of the tip snapshot.
func (s *Store) Height() uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.current.height
}

// SetGov validates changes and stages them for the block after tipHeight.
// Either all changes are staged or none are.
func (s *Store) SetGov(tipHeight uint64, changes map[string]string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(changes))
	for _, key := range keys {
		if strings.HasPrefix(key, LivePrefix) {
			return ruleerrors.Errorf(ruleerrors.ErrInvalidAttribute, "%s is written by the node and cannot be set", key)
		}
		spec, ok := lookupKeySpec(key)
		if !ok {
			return ruleerrors.Errorf(ruleerrors.ErrUnknownAttribute, "%s", key)
		}
		if spec.gated && tipHeight+1 < s.forkHeight {
			return ruleerrors.Errorf(ruleerrors.ErrPreActivation,
				"%s cannot be set before the network upgrade height %d", key, s.forkHeight)
		}
		value, err := normalizeValue(key, spec, changes[key])
		if err != nil {
			return err
		}
		normalized[key] = value
	}

	for key, value := range normalized {
		s.staged[key] = value
	}
	log.Debugf("Staged %d attribute changes for height %d", len(normalized), tipHeight+1)
	return nil
}

// Staged returns a copy of the changes waiting for the next block.
func (s *Store) Staged() map[string]string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return copyValues(s.staged)
}

// Preview returns the snapshot the block at height will build against:
// the tip values with fork defaults and staged changes applied. The live
// keys are those of the tip.
func (s *Store) Preview(height uint64) (*Snapshot, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if height != s.current.height+1 {
		return nil, errors.Errorf("cannot preview height %d on top of height %d", height, s.current.height)
	}
	return &Snapshot{height: height, values: s.nextValues(height, nil)}, nil
}

// ConnectBlock publishes the attributes of the block at height, replacing
// all live keys with live.
func (s *Store) ConnectBlock(height uint64, live map[string]string) (*Snapshot, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if height != s.current.height+1 {
		return nil, errors.Errorf("cannot connect attributes of height %d on top of height %d", height, s.current.height)
	}
	for key := range live {
		if !strings.HasPrefix(key, LivePrefix) {
			return nil, errors.Errorf("live attribute %s is outside %s", key, LivePrefix)
		}
	}

	next := s.nextValues(height, live)
	delta := &Delta{Height: height, Previous: make(map[string]*string)}
	for key, value := range next {
		previous, ok := s.current.values[key]
		if ok && previous == value {
			continue
		}
		if ok {
			delta.Previous[key] = &previous
		} else {
			delta.Previous[key] = nil
		}
	}
	for key, previous := range s.current.values {
		if _, ok := next[key]; !ok {
			previous := previous
			delta.Previous[key] = &previous
		}
	}

	s.deltas = append(s.deltas, delta)
	s.current = &Snapshot{height: height, values: next}
	s.staged = make(map[string]string)
	if height == s.forkHeight {
		log.Infof("Populated network upgrade attribute defaults at height %d", height)
	}
	return s.current, nil
}

// Rollback reverts the attributes to their state at toHeight. Staged
// changes are kept and apply to the next connected block.
func (s *Store) Rollback(toHeight uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if toHeight > s.current.height {
		return errors.Errorf("cannot roll back attributes from height %d to %d", s.current.height, toHeight)
	}

	values := copyValues(s.current.values)
	for len(s.deltas) > 0 && s.deltas[len(s.deltas)-1].Height > toHeight {
		delta := s.deltas[len(s.deltas)-1]
		for key, previous := range delta.Previous {
			if previous == nil {
				delete(values, key)
			} else {
				values[key] = *previous
			}
		}
		s.deltas = s.deltas[:len(s.deltas)-1]
	}
	s.current = &Snapshot{height: toHeight, values: values}
	log.Debugf("Rolled back attributes to height %d", toHeight)
	return nil
}

// this function MUST be called with the store mutex locked
func (s *Store) nextValues(height uint64, live map[string]string) map[string]string {
	values := make(map[string]string, len(s.current.values)+len(s.staged))
	for key, value := range s.current.values {
		if live != nil && strings.HasPrefix(key, LivePrefix) {
			continue
		}
		values[key] = value
	}
	if height == s.forkHeight {
		applyForkDefaults(values)
	}
	for key, value := range s.staged {
		values[key] = value
	}
	for key, value := range live {
		values[key] = value
	}
	return values
}

func applyForkDefaults(values map[string]string) {
	for key, value := range forkDefaults {
		if _, ok := values[key]; !ok {
			values[key] = value
		}
	}
}
