package attributes

import (
	"sort"
	"strconv"
	"strings"
)

// Snapshot is an immutable view of all attributes as of a block height.
type Snapshot struct {
	height uint64
	values map[string]string
}

// NewSnapshot returns a snapshot holding a copy of values.
func NewSnapshot(height uint64, values map[string]string) *Snapshot {
	return &Snapshot{height: height, values: copyValues(values)}
}

// Height returns the block height the snapshot reflects.
func (s *Snapshot) Height() uint64 {
	return s.height
}

// Get returns the raw value of key.
func (s *Snapshot) Get(key string) (string, bool) {
	value, ok := s.values[key]
	return value, ok
}

// Bool returns the boolean value of key. Unset keys are false.
func (s *Snapshot) Bool(key string) bool {
	return s.values[key] == "true"
}

// Uint64 returns the integer value of key, or defaultValue when unset.
func (s *Snapshot) Uint64(key string, defaultValue uint64) uint64 {
	value, ok := s.values[key]
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// List returns the items of a list-valued key.
func (s *Snapshot) List(key string) []string {
	return splitList(s.values[key])
}

// Values returns a copy of all attributes.
func (s *Snapshot) Values() map[string]string {
	return copyValues(s.values)
}

// Live returns a copy of the attributes written by the node itself.
func (s *Snapshot) Live() map[string]string {
	live := make(map[string]string)
	for key, value := range s.values {
		if strings.HasPrefix(key, LivePrefix) {
			live[key] = value
		}
	}
	return live
}

// Keys returns all set keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func copyValues(values map[string]string) map[string]string {
	valuesCopy := make(map[string]string, len(values))
	for key, value := range values {
		valuesCopy[key] = value
	}
	return valuesCopy
}
