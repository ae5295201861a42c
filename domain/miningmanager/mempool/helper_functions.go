package mempool

import (
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool/model"
	domainmodel "github.com/xvmnet/xvmd/domain/model"
)

// cloneTransactions copies transactions that leave the mempool.
func cloneTransactions(mempoolTransactions []*model.MempoolTransaction) []*domainmodel.Transaction {
	transactions := make([]*domainmodel.Transaction, 0, len(mempoolTransactions))
	for _, mempoolTransaction := range mempoolTransactions {
		transactions = append(transactions, mempoolTransaction.Transaction().Clone())
	}
	return transactions
}
