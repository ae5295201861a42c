package attributes

import (
	"fmt"
	"strconv"
	"strings"
)

// Governance keys.
const (
	KeyFeatureEVM            = "v0/params/feature/evm"
	KeyFeatureTransferDomain = "v0/params/feature/transferdomain"
	KeyEVMFinalityCount      = "v0/evm/block/finality_count"
	KeyCoreOpReturnMaxSize   = "v0/rules/tx/core_op_return_max_size_bytes"
	KeyEVMOpReturnMaxSize    = "v0/rules/tx/evm_op_return_max_size_bytes"
	KeyDVMOpReturnMaxSize    = "v0/rules/tx/dvm_op_return_max_size_bytes"
)

// LivePrefix prefixes every key written by the node itself.
const LivePrefix = "v0/live/"

// Live fee keys, rewritten every block.
const (
	KeyLiveFeeBurnt           = "v0/live/economy/evm/block/fee_burnt"
	KeyLiveFeeBurntMin        = "v0/live/economy/evm/block/fee_burnt_min"
	KeyLiveFeeBurntMinHash    = "v0/live/economy/evm/block/fee_burnt_min_hash"
	KeyLiveFeeBurntMax        = "v0/live/economy/evm/block/fee_burnt_max"
	KeyLiveFeeBurntMaxHash    = "v0/live/economy/evm/block/fee_burnt_max_hash"
	KeyLiveFeePriority        = "v0/live/economy/evm/block/fee_priority"
	KeyLiveFeePriorityMin     = "v0/live/economy/evm/block/fee_priority_min"
	KeyLiveFeePriorityMinHash = "v0/live/economy/evm/block/fee_priority_min_hash"
	KeyLiveFeePriorityMax     = "v0/live/economy/evm/block/fee_priority_max"
	KeyLiveFeePriorityMaxHash = "v0/live/economy/evm/block/fee_priority_max_hash"
)

// Direction is a transfer-domain direction as named in governance keys.
type Direction string

// The two transfer-domain directions.
const (
	DirectionDVMToEVM Direction = "dvm-evm"
	DirectionEVMToDVM Direction = "evm-dvm"
)

// Transfer-domain policy fields, one key per direction.
const (
	FieldEnabled       = "enabled"
	FieldSrcFormats    = "src-formats"
	FieldDestFormats   = "dest-formats"
	FieldAuthFormats   = "auth-formats"
	FieldNativeEnabled = "native-enabled"
	FieldDATEnabled    = "dat-enabled"
)

// TransferDomainKey returns the governance key of a direction's policy field.
func TransferDomainKey(direction Direction, field string) string {
	return fmt.Sprintf("v0/transferdomain/%s/%s", direction, field)
}

// TokenCollateralFactorKey returns the dusd collateral factor key of a token.
func TokenCollateralFactorKey(tokenID uint32) string {
	return fmt.Sprintf("v0/token/%d/dusd_collateral_factor", tokenID)
}

type valueType int

const (
	typeBool valueType = iota
	typeUint64
	typeDecimal
	typeFormats
	typeAuthFormats
)

type keySpec struct {
	valueType valueType

	// gated keys cannot be written before the network upgrade height.
	gated bool
}

var keySpecs = map[string]keySpec{
	KeyFeatureEVM:            {valueType: typeBool, gated: true},
	KeyFeatureTransferDomain: {valueType: typeBool, gated: true},
	KeyEVMFinalityCount:      {valueType: typeUint64, gated: true},
	KeyCoreOpReturnMaxSize:   {valueType: typeUint64, gated: true},
	KeyEVMOpReturnMaxSize:    {valueType: typeUint64, gated: true},
	KeyDVMOpReturnMaxSize:    {valueType: typeUint64, gated: true},
}

func init() {
	for _, direction := range []Direction{DirectionDVMToEVM, DirectionEVMToDVM} {
		keySpecs[TransferDomainKey(direction, FieldEnabled)] = keySpec{valueType: typeBool, gated: true}
		keySpecs[TransferDomainKey(direction, FieldSrcFormats)] = keySpec{valueType: typeFormats, gated: true}
		keySpecs[TransferDomainKey(direction, FieldDestFormats)] = keySpec{valueType: typeFormats, gated: true}
		keySpecs[TransferDomainKey(direction, FieldAuthFormats)] = keySpec{valueType: typeAuthFormats, gated: true}
		keySpecs[TransferDomainKey(direction, FieldNativeEnabled)] = keySpec{valueType: typeBool, gated: true}
		keySpecs[TransferDomainKey(direction, FieldDATEnabled)] = keySpec{valueType: typeBool, gated: true}
	}
}

func lookupKeySpec(key string) (keySpec, bool) {
	if spec, ok := keySpecs[key]; ok {
		return spec, true
	}
	if rest := strings.TrimPrefix(key, "v0/token/"); rest != key {
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[1] == "dusd_collateral_factor" {
			if _, err := strconv.ParseUint(parts[0], 10, 32); err == nil {
				return keySpec{valueType: typeDecimal}, true
			}
		}
	}
	return keySpec{}, false
}

// forkDefaults are populated at the network upgrade height for every key
// not already set.
var forkDefaults = map[string]string{
	TransferDomainKey(DirectionDVMToEVM, FieldEnabled):       "true",
	TransferDomainKey(DirectionDVMToEVM, FieldSrcFormats):    "bech32,p2pkh",
	TransferDomainKey(DirectionDVMToEVM, FieldDestFormats):   "erc55",
	TransferDomainKey(DirectionDVMToEVM, FieldNativeEnabled): "true",
	TransferDomainKey(DirectionDVMToEVM, FieldDATEnabled):    "false",

	TransferDomainKey(DirectionEVMToDVM, FieldEnabled):       "true",
	TransferDomainKey(DirectionEVMToDVM, FieldSrcFormats):    "erc55",
	TransferDomainKey(DirectionEVMToDVM, FieldDestFormats):   "bech32,p2pkh",
	TransferDomainKey(DirectionEVMToDVM, FieldAuthFormats):   "bech32-erc55,p2pkh-erc55",
	TransferDomainKey(DirectionEVMToDVM, FieldNativeEnabled): "true",
	TransferDomainKey(DirectionEVMToDVM, FieldDATEnabled):    "false",

	KeyCoreOpReturnMaxSize: "1024",
	KeyEVMOpReturnMaxSize:  "65536",
	KeyDVMOpReturnMaxSize:  "4096",
}

// ForkDefaults returns a copy of the values populated at the network
// upgrade height.
func ForkDefaults() map[string]string {
	defaults := make(map[string]string, len(forkDefaults))
	for key, value := range forkDefaults {
		defaults[key] = value
	}
	return defaults
}
