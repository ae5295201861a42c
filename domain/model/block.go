package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
)

// ReceiptStatus is the outcome of applying a transaction.
type ReceiptStatus uint8

// Receipt statuses. A failed transaction is still part of its block and
// still pays for the gas it used.
const (
	ReceiptStatusFailed ReceiptStatus = iota
	ReceiptStatusSuccess
)

func (s ReceiptStatus) String() string {
	if s == ReceiptStatusSuccess {
		return "success"
	}
	return "failed"
}

// Receipt records how a transaction was applied.
type Receipt struct {
	TxHash            common.Hash
	Status            ReceiptStatus
	GasUsed           uint64
	EffectiveGasPrice *uint256.Int
	FeeBurnt          *uint256.Int
	FeePriority       *uint256.Int

	// Err is set when Status is ReceiptStatusFailed.
	Err error
}

// RejectedTransaction is a transaction which was drained from the mempool
// for a block but could not be applied at all. It is not part of the block.
type RejectedTransaction struct {
	Transaction *Transaction
	Err         error
}

// XVMRecord is the synthetic coinbase record summarizing the EVM block
// built alongside a DVM block.
type XVMRecord struct {
	BlockNumber      uint64
	BlockHash        common.Hash
	ParentHash       common.Hash
	Beneficiary      common.Address
	TotalPriorityFee *uint256.Int
	TotalBurntFee    *uint256.Int
	GasUsed          uint64
	GasLimit         uint64
	Timestamp        int64
}

// BlockHeader holds the DVM header fields of a block.
type BlockHeader struct {
	Height     uint64
	ParentHash Hash
	Timestamp  int64
	Proposer   []byte
}

// Block is a connected or template block. Transactions and Receipts are
// index-aligned.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
	Receipts     []*Receipt
	Rejected     []*RejectedTransaction
	GasUsed      uint64
	FeeBurnt     *uint256.Int
	FeePriority  *uint256.Int
	Beneficiary  common.Address

	// XVM is nil when the EVM feature was disabled for this block.
	XVM *XVMRecord
}

// HasEVMTransactions returns whether the block carries an EVM section with
// at least one transaction.
func (b *Block) HasEVMTransactions() bool {
	return b.XVM != nil && len(b.Transactions) > 0
}

// EVMBlockHash computes the keccak256 hash identifying the EVM block
// described by record and the given transactions.
func EVMBlockHash(record *XVMRecord, transactions []*Transaction) common.Hash {
	w := &hashWriter{buf: make([]byte, 0, 256)}
	w.writeUint64(record.BlockNumber)
	w.writeBytes(record.ParentHash.Bytes())
	w.writeBytes(record.Beneficiary.Bytes())
	w.writeUint64(record.GasUsed)
	w.writeUint64(record.GasLimit)
	w.writeUint64(uint64(record.Timestamp))
	w.writeInt(record.TotalBurntFee)
	w.writeInt(record.TotalPriorityFee)
	for _, tx := range transactions {
		txHash := TransactionHash(tx)
		w.writeBytes(txHash.Bytes())
	}
	return crypto.Keccak256Hash(w.buf)
}

// BlockHash computes the blake2b-256 hash of the DVM block.
func BlockHash(block *Block) Hash {
	w := &hashWriter{buf: make([]byte, 0, 256)}
	w.writeUint64(block.Header.Height)
	w.writeBytes(block.Header.ParentHash[:])
	w.writeUint64(uint64(block.Header.Timestamp))
	w.writeVarBytes(block.Header.Proposer)
	w.writeUint64(block.GasUsed)
	w.writeInt(block.FeeBurnt)
	w.writeInt(block.FeePriority)
	w.writeBytes(block.Beneficiary.Bytes())
	if block.XVM != nil {
		w.writeUint8(1)
		w.writeBytes(block.XVM.BlockHash.Bytes())
	} else {
		w.writeUint8(0)
	}
	w.writeUint64(uint64(len(block.Transactions)))
	for _, tx := range block.Transactions {
		txHash := TransactionHash(tx)
		w.writeBytes(txHash.Bytes())
	}
	return blake2b.Sum256(w.buf)
}
