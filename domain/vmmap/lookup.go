package vmmap

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/infrastructure/db/database"
)

// ErrAutoNotViable is returned by Lookup when MapTypeAuto cannot infer
// the map type of its input.
var ErrAutoNotViable = errors.New("automatic detection not viable for input")

// LookupResult is the answer to a vmmap query.
type LookupResult struct {
	Input  string
	Type   MapType
	Output string
}

// Lookup maps input, a block number or a hex block or transaction hash,
// across the DVM/EVM boundary. EVM hashes are returned with a 0x prefix
// and accepted with or without one.
func (s *Store) Lookup(input string, mapType MapType) (*LookupResult, error) {
	stripped := strings.TrimPrefix(input, "0x")
	if mapType == MapTypeAuto {
		var err error
		mapType, err = s.inferMapType(stripped)
		if err != nil {
			return nil, err
		}
	}

	output, err := s.lookup(stripped, mapType)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Input: input, Type: mapType, Output: output}, nil
}

func (s *Store) lookup(input string, mapType MapType) (string, error) {
	switch mapType {
	case BlockNumberDVMToEVM, BlockNumberEVMToDVM:
		number, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return "", errors.Errorf("invalid block number %s", input)
		}
		bucket := numberDVMToEVM
		if mapType == BlockNumberEVMToDVM {
			bucket = numberEVMToDVM
		}
		value, err := s.get(bucket, heightBytes(number))
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(decodeHeight(value), 10), nil
	case BlockHashDVMToEVM, BlockHashEVMToDVM, TxHashDVMToEVM, TxHashEVMToDVM:
		key, err := hex.DecodeString(input)
		if err != nil || len(key) != 32 {
			return "", errors.Errorf("invalid hash %s", input)
		}
		value, err := s.get(hashBucket(mapType), key)
		if err != nil {
			return "", err
		}
		if mapType == BlockHashDVMToEVM || mapType == TxHashDVMToEVM {
			return "0x" + hex.EncodeToString(value), nil
		}
		return hex.EncodeToString(value), nil
	}
	return "", errors.Errorf("unknown map type %d", mapType)
}

// inferMapType resolves block numbers known on exactly one side, then
// hashes in the order dvm tx, evm tx, dvm block, evm block.
func (s *Store) inferMapType(input string) (MapType, error) {
	if number, err := strconv.ParseUint(input, 10, 64); err == nil {
		dvmKnown, err := s.db.Has(edgeBuckets[numberDVMToEVM].Key(heightBytes(number)))
		if err != nil {
			return 0, err
		}
		evmKnown, err := s.db.Has(edgeBuckets[numberEVMToDVM].Key(heightBytes(number)))
		if err != nil {
			return 0, err
		}
		switch {
		case dvmKnown && !evmKnown:
			return BlockNumberDVMToEVM, nil
		case evmKnown && !dvmKnown:
			return BlockNumberEVMToDVM, nil
		}
	}

	key, err := hex.DecodeString(input)
	if err == nil && len(key) == 32 {
		for _, mapType := range []MapType{TxHashDVMToEVM, TxHashEVMToDVM, BlockHashDVMToEVM, BlockHashEVMToDVM} {
			_, err := s.get(hashBucket(mapType), key)
			if err == nil {
				return mapType, nil
			}
			if !database.IsNotFoundError(err) {
				return 0, err
			}
		}
	}
	return 0, errors.Wrapf(ErrAutoNotViable, "cannot map %s", input)
}

func hashBucket(mapType MapType) edgeBucket {
	switch mapType {
	case BlockHashDVMToEVM:
		return blockDVMToEVM
	case BlockHashEVMToDVM:
		return blockEVMToDVM
	case TxHashDVMToEVM:
		return txDVMToEVM
	}
	return txEVMToDVM
}
