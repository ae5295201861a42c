package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// MempoolTransaction represents a transaction inside the main TransactionPool
type MempoolTransaction struct {
	transaction     *domainmodel.Transaction
	transactionID   common.Hash
	arrivalSequence uint64
}

// NewMempoolTransaction constructs a new MempoolTransaction
func NewMempoolTransaction(transaction *domainmodel.Transaction, arrivalSequence uint64) *MempoolTransaction {
	return &MempoolTransaction{
		transaction:     transaction,
		transactionID:   domainmodel.TransactionHash(transaction),
		arrivalSequence: arrivalSequence,
	}
}

// TransactionID returns the ID of this MempoolTransaction
func (mt *MempoolTransaction) TransactionID() common.Hash {
	return mt.transactionID
}

// Transaction returns the transaction inside this MempoolTransaction
func (mt *MempoolTransaction) Transaction() *domainmodel.Transaction {
	return mt.transaction
}

// Sender returns the account whose nonce the transaction consumes
func (mt *MempoolTransaction) Sender() common.Address {
	return mt.transaction.From
}

// Nonce returns the nonce of the transaction
func (mt *MempoolTransaction) Nonce() uint64 {
	return mt.transaction.Nonce
}

// ArrivalSequence returns the order in which the transaction's slot was
// first taken. A replacement inherits the sequence of the transaction it
// replaced.
func (mt *MempoolTransaction) ArrivalSequence() uint64 {
	return mt.arrivalSequence
}

// Fee returns the price compared when deciding on a replacement: the
// maximum price per gas the sender offers.
func (mt *MempoolTransaction) Fee() *uint256.Int {
	return domainmodel.CloneInt(mt.transaction.GasPrice)
}
