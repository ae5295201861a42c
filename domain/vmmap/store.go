// Package vmmap persists the edges between DVM blocks and transactions and
// their EVM counterparts.
package vmmap

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/infrastructure/db/database"
)

type edgeBucket uint8

const (
	blockDVMToEVM edgeBucket = iota
	blockEVMToDVM
	txDVMToEVM
	txEVMToDVM
	numberDVMToEVM
	numberEVMToDVM
)

var (
	vmmapBucket = database.MakeBucket([]byte("vmmap"))

	edgeBuckets = map[edgeBucket]*database.Bucket{
		blockDVMToEVM:  vmmapBucket.Bucket([]byte("block-dvm-evm")),
		blockEVMToDVM:  vmmapBucket.Bucket([]byte("block-evm-dvm")),
		txDVMToEVM:     vmmapBucket.Bucket([]byte("tx-dvm-evm")),
		txEVMToDVM:     vmmapBucket.Bucket([]byte("tx-evm-dvm")),
		numberDVMToEVM: vmmapBucket.Bucket([]byte("number-dvm-evm")),
		numberEVMToDVM: vmmapBucket.Bucket([]byte("number-evm-dvm")),
	}

	// undoBucket lists, per height, the edges written by the block at
	// that height. Keys are the big endian height, the edge bucket and
	// the edge key suffix.
	undoBucket = vmmapBucket.Bucket([]byte("undo"))
)

// Store reads and writes the DVM/EVM edges of connected blocks.
type Store struct {
	db database.Database
}

// New returns a Store over db.
func New(db database.Database) *Store {
	return &Store{db: db}
}

type edge struct {
	bucket edgeBucket
	key    []byte
	value  []byte
}

func blockEdges(block *model.Block) []edge {
	if block.XVM == nil {
		return nil
	}
	dvmHash := model.BlockHash(block)
	evmHash := block.XVM.BlockHash
	dvmNumber := heightBytes(block.Header.Height)
	evmNumber := heightBytes(block.XVM.BlockNumber)

	edges := []edge{
		{bucket: blockDVMToEVM, key: dvmHash[:], value: evmHash.Bytes()},
		{bucket: blockEVMToDVM, key: evmHash.Bytes(), value: dvmHash[:]},
		{bucket: numberDVMToEVM, key: dvmNumber, value: evmNumber},
		{bucket: numberEVMToDVM, key: evmNumber, value: dvmNumber},
	}
	for _, transaction := range block.Transactions {
		evmTxHash := model.TransactionHash(transaction)
		dvmTxHash := model.DVMTransactionHash(transaction)
		edges = append(edges,
			edge{bucket: txDVMToEVM, key: dvmTxHash[:], value: evmTxHash.Bytes()},
			edge{bucket: txEVMToDVM, key: evmTxHash.Bytes(), value: dvmTxHash[:]})
	}
	return edges
}

// ConnectBlock writes the edges of block. Blocks without an EVM section
// have no edges.
func (s *Store) ConnectBlock(block *model.Block) (err error) {
	edges := blockEdges(block)
	if len(edges) == 0 {
		return nil
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		rollbackErr := dbTx.RollbackUnlessClosed()
		if err == nil {
			err = rollbackErr
		}
	}()

	height := heightBytes(block.Header.Height)
	for _, e := range edges {
		err = dbTx.Put(edgeBuckets[e.bucket].Key(e.key), e.value)
		if err != nil {
			return err
		}
		err = dbTx.Put(undoBucket.Key(undoSuffix(height, e)), nil)
		if err != nil {
			return err
		}
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}
	log.Debugf("Connected %d vmmap edges at height %d", len(edges), block.Header.Height)
	return nil
}

// Rollback deletes the edges of every block above toHeight.
func (s *Store) Rollback(toHeight uint64) (err error) {
	cursor, err := s.db.Cursor(undoBucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		rollbackErr := dbTx.RollbackUnlessClosed()
		if err == nil {
			err = rollbackErr
		}
	}()

	removed := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, cursorErr := cursor.Key()
		if cursorErr != nil {
			return cursorErr
		}
		height, e, parseErr := parseUndoSuffix(key.Suffix())
		if parseErr != nil {
			return parseErr
		}
		if height <= toHeight {
			continue
		}
		err = dbTx.Delete(edgeBuckets[e.bucket].Key(e.key))
		if err != nil {
			return err
		}
		err = dbTx.Delete(undoBucket.Key(append([]byte(nil), key.Suffix()...)))
		if err != nil {
			return err
		}
		removed++
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}
	log.Debugf("Removed %d vmmap edges above height %d", removed, toHeight)
	return nil
}

func (s *Store) get(bucket edgeBucket, key []byte) ([]byte, error) {
	value, err := s.db.Get(edgeBuckets[bucket].Key(key))
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(err, "no %s edge for %x", bucketMapType(bucket), key)
	}
	return value, err
}

// EVMBlockHash returns the EVM block hash of the DVM block dvmHash.
func (s *Store) EVMBlockHash(dvmHash model.Hash) (common.Hash, error) {
	value, err := s.get(blockDVMToEVM, dvmHash[:])
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(value), nil
}

// DVMBlockHash returns the DVM block hash of the EVM block evmHash.
func (s *Store) DVMBlockHash(evmHash common.Hash) (model.Hash, error) {
	value, err := s.get(blockEVMToDVM, evmHash.Bytes())
	if err != nil {
		return model.Hash{}, err
	}
	var dvmHash model.Hash
	copy(dvmHash[:], value)
	return dvmHash, nil
}

// EVMTransactionHash returns the EVM hash of the DVM transaction dvmTxHash.
func (s *Store) EVMTransactionHash(dvmTxHash model.Hash) (common.Hash, error) {
	value, err := s.get(txDVMToEVM, dvmTxHash[:])
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(value), nil
}

// DVMTransactionHash returns the DVM hash of the EVM transaction evmTxHash.
func (s *Store) DVMTransactionHash(evmTxHash common.Hash) (model.Hash, error) {
	value, err := s.get(txEVMToDVM, evmTxHash.Bytes())
	if err != nil {
		return model.Hash{}, err
	}
	var dvmTxHash model.Hash
	copy(dvmTxHash[:], value)
	return dvmTxHash, nil
}

// EVMBlockNumber returns the EVM block number of the DVM block at height.
func (s *Store) EVMBlockNumber(height uint64) (uint64, error) {
	value, err := s.get(numberDVMToEVM, heightBytes(height))
	if err != nil {
		return 0, err
	}
	return decodeHeight(value), nil
}

// DVMHeight returns the height of the DVM block of the EVM block number.
func (s *Store) DVMHeight(number uint64) (uint64, error) {
	value, err := s.get(numberEVMToDVM, heightBytes(number))
	if err != nil {
		return 0, err
	}
	return decodeHeight(value), nil
}

func heightBytes(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return b
}

func decodeHeight(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func undoSuffix(height []byte, e edge) []byte {
	suffix := make([]byte, 0, len(height)+1+len(e.key))
	suffix = append(suffix, height...)
	suffix = append(suffix, byte(e.bucket))
	return append(suffix, e.key...)
}

func parseUndoSuffix(suffix []byte) (uint64, edge, error) {
	if len(suffix) < 9 {
		return 0, edge{}, errors.Errorf("malformed vmmap undo entry %x", suffix)
	}
	bucket := edgeBucket(suffix[8])
	if _, ok := edgeBuckets[bucket]; !ok {
		return 0, edge{}, errors.Errorf("unknown vmmap edge bucket %d", bucket)
	}
	e := edge{bucket: bucket, key: append([]byte(nil), suffix[9:]...)}
	return binary.BigEndian.Uint64(suffix[:8]), e, nil
}

func bucketMapType(bucket edgeBucket) MapType {
	switch bucket {
	case blockDVMToEVM:
		return BlockHashDVMToEVM
	case blockEVMToDVM:
		return BlockHashEVMToDVM
	case txDVMToEVM:
		return TxHashDVMToEVM
	case txEVMToDVM:
		return TxHashEVMToDVM
	case numberDVMToEVM:
		return BlockNumberDVMToEVM
	}
	return BlockNumberEVMToDVM
}
