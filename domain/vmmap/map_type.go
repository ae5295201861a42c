package vmmap

import (
	"strings"

	"github.com/pkg/errors"
)

// MapType selects which edge of the DVM/EVM graph a lookup follows.
type MapType uint8

// The supported map types. MapTypeAuto infers the type from the input.
const (
	MapTypeAuto MapType = iota
	BlockNumberDVMToEVM
	BlockNumberEVMToDVM
	BlockHashDVMToEVM
	BlockHashEVMToDVM
	TxHashDVMToEVM
	TxHashEVMToDVM
)

var mapTypeNames = map[MapType]string{
	MapTypeAuto:         "Auto",
	BlockNumberDVMToEVM: "BlockNumberDVMToEVM",
	BlockNumberEVMToDVM: "BlockNumberEVMToDVM",
	BlockHashDVMToEVM:   "BlockHashDVMToEVM",
	BlockHashEVMToDVM:   "BlockHashEVMToDVM",
	TxHashDVMToEVM:      "TxHashDVMToEVM",
	TxHashEVMToDVM:      "TxHashEVMToDVM",
}

func (t MapType) String() string {
	if name, ok := mapTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseMapType parses a map type by name, case insensitively.
func ParseMapType(s string) (MapType, error) {
	for mapType, name := range mapTypeNames {
		if strings.EqualFold(name, s) {
			return mapType, nil
		}
	}
	return 0, errors.Errorf("unknown map type %q", s)
}
