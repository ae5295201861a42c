package model

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
)

// TxKind distinguishes regular EVM transactions from transfer-domain
// operations sharing the same per-sender nonce space.
type TxKind uint8

// The supported transaction kinds.
const (
	TxKindEVM TxKind = iota
	TxKindTransferDomain
)

func (k TxKind) String() string {
	switch k {
	case TxKindEVM:
		return "evm"
	case TxKindTransferDomain:
		return "transferdomain"
	}
	return "unknown"
}

// Transaction is a pending or applied transaction in the EVM nonce space.
// A transfer-domain operation is a Transaction of kind TxKindTransferDomain
// whose From is the EVM side of the transfer.
type Transaction struct {
	Kind     TxKind
	From     common.Address
	Nonce    uint64
	GasPrice *uint256.Int

	// MaxPriorityFeePerGas is nil for legacy-priced transactions.
	MaxPriorityFeePerGas *uint256.Int
	GasLimit             uint64
	To                   *common.Address
	Value                *uint256.Int
	Data                 []byte

	Transfer *TransferDomainMessage
}

// TransferDomainEndpoint is one side of a transfer-domain operation.
// Amount is always expressed in DVM base units.
type TransferDomainEndpoint struct {
	Address Address
	Amount  TokenAmount
	Data    []byte
}

// TransferDomainMessage moves a balance between the DVM and EVM domains.
// PubKey is the compressed secp256k1 key authorizing the transfer and Auth
// is the DVM address of that key presented as ownership proof. A zero Auth
// stands for the DVM endpoint of the message.
type TransferDomainMessage struct {
	Src    TransferDomainEndpoint
	Dst    TransferDomainEndpoint
	PubKey []byte
	Auth   Address
}

// Direction returns the source and destination domains of the message.
func (msg *TransferDomainMessage) Direction() (src VMDomain, dst VMDomain) {
	return msg.Src.Address.Domain, msg.Dst.Address.Domain
}

// DVMSide returns the DVM endpoint of the message.
func (msg *TransferDomainMessage) DVMSide() Address {
	if msg.Src.Address.Domain == DomainDVM {
		return msg.Src.Address
	}
	return msg.Dst.Address
}

// AuthAddress returns the DVM address presented as ownership proof.
func (msg *TransferDomainMessage) AuthAddress() Address {
	if msg.Auth.Value == "" {
		return msg.DVMSide()
	}
	return msg.Auth
}

// EVMSide returns the EVM endpoint of the message, which owns the nonce the
// operation consumes.
func (msg *TransferDomainMessage) EVMSide() Address {
	if msg.Src.Address.Domain == DomainEVM {
		return msg.Src.Address
	}
	return msg.Dst.Address
}

// Clone returns a deep copy of the transaction.
func (tx *Transaction) Clone() *Transaction {
	clone := *tx
	clone.GasPrice = CloneInt(tx.GasPrice)
	if tx.MaxPriorityFeePerGas != nil {
		clone.MaxPriorityFeePerGas = CloneInt(tx.MaxPriorityFeePerGas)
	}
	if tx.To != nil {
		to := *tx.To
		clone.To = &to
	}
	clone.Value = CloneInt(tx.Value)
	clone.Data = append([]byte(nil), tx.Data...)
	if tx.Transfer != nil {
		transfer := *tx.Transfer
		transfer.Src = cloneEndpoint(tx.Transfer.Src)
		transfer.Dst = cloneEndpoint(tx.Transfer.Dst)
		transfer.PubKey = append([]byte(nil), tx.Transfer.PubKey...)
		clone.Transfer = &transfer
	}
	return &clone
}

func cloneEndpoint(endpoint TransferDomainEndpoint) TransferDomainEndpoint {
	return TransferDomainEndpoint{
		Address: endpoint.Address,
		Amount:  endpoint.Amount.Clone(),
		Data:    append([]byte(nil), endpoint.Data...),
	}
}

// TransactionHash returns the keccak256 hash of the canonical encoding of
// tx. It identifies the transaction in the mempool and in blocks.
func TransactionHash(tx *Transaction) common.Hash {
	hasher := crypto.NewKeccakState()
	w := &hashWriter{buf: make([]byte, 0, 256)}
	w.writeUint8(uint8(tx.Kind))
	w.writeBytes(tx.From.Bytes())
	w.writeUint64(tx.Nonce)
	w.writeInt(tx.GasPrice)
	w.writeOptionalInt(tx.MaxPriorityFeePerGas)
	w.writeUint64(tx.GasLimit)
	if tx.To != nil {
		w.writeUint8(1)
		w.writeBytes(tx.To.Bytes())
	} else {
		w.writeUint8(0)
	}
	w.writeInt(tx.Value)
	w.writeVarBytes(tx.Data)
	if tx.Transfer != nil {
		w.writeUint8(1)
		w.writeEndpoint(tx.Transfer.Src)
		w.writeEndpoint(tx.Transfer.Dst)
		w.writeVarBytes(tx.Transfer.PubKey)
		w.writeUint8(uint8(tx.Transfer.Auth.Domain))
		w.writeVarBytes([]byte(tx.Transfer.Auth.Value))
	} else {
		w.writeUint8(0)
	}
	_, _ = hasher.Write(w.buf)

	var hash common.Hash
	_, _ = hasher.Read(hash[:])
	return hash
}

type hashWriter struct {
	buf []byte
}

func (w *hashWriter) writeUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *hashWriter) writeUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *hashWriter) writeBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *hashWriter) writeVarBytes(b []byte) {
	w.writeUint64(uint64(len(b)))
	w.writeBytes(b)
}

func (w *hashWriter) writeInt(x *uint256.Int) {
	bytes32 := CloneInt(x).Bytes32()
	w.writeBytes(bytes32[:])
}

func (w *hashWriter) writeOptionalInt(x *uint256.Int) {
	if x == nil {
		w.writeUint8(0)
		return
	}
	w.writeUint8(1)
	w.writeInt(x)
}

func (w *hashWriter) writeEndpoint(endpoint TransferDomainEndpoint) {
	w.writeUint8(uint8(endpoint.Address.Domain))
	w.writeVarBytes([]byte(endpoint.Address.Value))
	w.writeUint64(uint64(endpoint.Amount.Token))
	w.writeInt(endpoint.Amount.Amount)
	w.writeVarBytes(endpoint.Data)
}

// DVMTransactionHash returns the id of the DVM transaction carrying tx: the
// blake2b-256 hash of its EVM transaction hash.
func DVMTransactionHash(tx *Transaction) Hash {
	txHash := TransactionHash(tx)
	return blake2b.Sum256(txHash.Bytes())
}
