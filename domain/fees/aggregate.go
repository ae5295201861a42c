package fees

import (
	"github.com/holiman/uint256"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/model"
)

// Aggregate is the chain-lifetime fee accumulator with the per-block
// extrema and the hashes of the blocks holding them. The extrema are nil
// until a block with EVM transactions is connected.
type Aggregate struct {
	Burnt             *uint256.Int
	BurntMin          *uint256.Int
	BurntMinBlockHash model.Hash
	BurntMax          *uint256.Int
	BurntMaxBlockHash model.Hash

	Priority             *uint256.Int
	PriorityMin          *uint256.Int
	PriorityMinBlockHash model.Hash
	PriorityMax          *uint256.Int
	PriorityMaxBlockHash model.Hash
}

func newAggregate() *Aggregate {
	return &Aggregate{Burnt: new(uint256.Int), Priority: new(uint256.Int)}
}

// Clone returns a deep copy of a.
func (a *Aggregate) Clone() *Aggregate {
	clone := *a
	clone.Burnt = model.CloneInt(a.Burnt)
	clone.Priority = model.CloneInt(a.Priority)
	clone.BurntMin = cloneOptional(a.BurntMin)
	clone.BurntMax = cloneOptional(a.BurntMax)
	clone.PriorityMin = cloneOptional(a.PriorityMin)
	clone.PriorityMax = cloneOptional(a.PriorityMax)
	return &clone
}

// Equal returns whether both aggregates hold the same totals and extrema.
func (a *Aggregate) Equal(other *Aggregate) bool {
	return a.Burnt.Eq(other.Burnt) && a.Priority.Eq(other.Priority) &&
		optionalEqual(a.BurntMin, other.BurntMin) && a.BurntMinBlockHash == other.BurntMinBlockHash &&
		optionalEqual(a.BurntMax, other.BurntMax) && a.BurntMaxBlockHash == other.BurntMaxBlockHash &&
		optionalEqual(a.PriorityMin, other.PriorityMin) && a.PriorityMinBlockHash == other.PriorityMinBlockHash &&
		optionalEqual(a.PriorityMax, other.PriorityMax) && a.PriorityMaxBlockHash == other.PriorityMaxBlockHash
}

// connect adds a block to the totals and updates the extrema on strict
// improvement only, so ties keep the hash of the older block.
func (a *Aggregate) connect(hash model.Hash, blockFees *BlockFees) {
	a.Burnt.Add(a.Burnt, blockFees.Burnt)
	a.Priority.Add(a.Priority, blockFees.Priority)
	if blockFees.TransactionCount == 0 {
		return
	}
	if a.BurntMin == nil || blockFees.Burnt.Lt(a.BurntMin) {
		a.BurntMin, a.BurntMinBlockHash = model.CloneInt(blockFees.Burnt), hash
	}
	if a.BurntMax == nil || blockFees.Burnt.Gt(a.BurntMax) {
		a.BurntMax, a.BurntMaxBlockHash = model.CloneInt(blockFees.Burnt), hash
	}
	if a.PriorityMin == nil || blockFees.Priority.Lt(a.PriorityMin) {
		a.PriorityMin, a.PriorityMinBlockHash = model.CloneInt(blockFees.Priority), hash
	}
	if a.PriorityMax == nil || blockFees.Priority.Gt(a.PriorityMax) {
		a.PriorityMax, a.PriorityMaxBlockHash = model.CloneInt(blockFees.Priority), hash
	}
}

// Attributes returns the live governance keys describing a, with amounts
// formatted as coin decimals. The extrema keys are only present once a
// block with EVM transactions was connected.
func (a *Aggregate) Attributes() map[string]string {
	live := map[string]string{
		attributes.KeyLiveFeeBurnt:    formatWei(a.Burnt),
		attributes.KeyLiveFeePriority: formatWei(a.Priority),
	}
	if a.BurntMin == nil {
		return live
	}
	live[attributes.KeyLiveFeeBurntMin] = formatWei(a.BurntMin)
	live[attributes.KeyLiveFeeBurntMinHash] = a.BurntMinBlockHash.String()
	live[attributes.KeyLiveFeeBurntMax] = formatWei(a.BurntMax)
	live[attributes.KeyLiveFeeBurntMaxHash] = a.BurntMaxBlockHash.String()
	live[attributes.KeyLiveFeePriorityMin] = formatWei(a.PriorityMin)
	live[attributes.KeyLiveFeePriorityMinHash] = a.PriorityMinBlockHash.String()
	live[attributes.KeyLiveFeePriorityMax] = formatWei(a.PriorityMax)
	live[attributes.KeyLiveFeePriorityMaxHash] = a.PriorityMaxBlockHash.String()
	return live
}

// formatWei formats a wei amount in coins, truncated to DVM precision.
func formatWei(wei *uint256.Int) string {
	units, _ := model.WeiToUnits(wei)
	return model.FormatAmount(units)
}

func cloneOptional(x *uint256.Int) *uint256.Int {
	if x == nil {
		return nil
	}
	return new(uint256.Int).Set(x)
}

func optionalEqual(x, y *uint256.Int) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return x.Eq(y)
}
