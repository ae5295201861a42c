package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// IDToTransaction maps transactionID to a MempoolTransaction
type IDToTransaction map[common.Hash]*MempoolTransaction

// SenderToQueue maps a sender to its queued transactions
type SenderToQueue map[common.Address]*SenderQueue
