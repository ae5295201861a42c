package miningmanager_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/miningmanager"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/model"
)

type fakeConsensusState struct {
	ledger   *ledger.Ledger
	snapshot *attributes.Snapshot
}

func (fcs *fakeConsensusState) TipHeight() uint64                   { return fcs.ledger.Height() }
func (fcs *fakeConsensusState) TipHash() model.Hash                 { return model.Hash{} }
func (fcs *fakeConsensusState) TipEVMHash() common.Hash             { return common.Hash{} }
func (fcs *fakeConsensusState) TipAttributes() *attributes.Snapshot { return fcs.snapshot }
func (fcs *fakeConsensusState) AccountView() ledger.View            { return fcs.ledger }

func (fcs *fakeConsensusState) NextBlockAttributes() (*attributes.Snapshot, error) {
	return fcs.snapshot, nil
}

func (fcs *fakeConsensusState) NewWorkingState() *ledger.WorkingState {
	return fcs.ledger.NewWorkingState()
}

var (
	sender    = common.HexToAddress("0x9b8a4af42140d8a4c153a822f02571a1dd037e89")
	recipient = common.HexToAddress("0x6c34cbb9219d8caa428835d2073e8ec88ba0a110")
)

func setupMiningManager(t *testing.T) (miningmanager.MiningManager, *fakeConsensusState) {
	funds, err := model.UnitsToWei(uint256.NewInt(10 * model.UnitsPerCoin))
	if err != nil {
		t.Fatalf("UnitsToWei: %+v", err)
	}
	l, err := ledger.New([]chainparams.GenesisAlloc{{
		Address: model.NewEVMAddress(sender),
		Amount:  model.TokenAmount{Token: model.NativeTokenID, Amount: funds},
	}})
	if err != nil {
		t.Fatalf("ledger.New: %+v", err)
	}
	values := attributes.ForkDefaults()
	values[attributes.KeyFeatureEVM] = "true"
	consensusState := &fakeConsensusState{ledger: l, snapshot: attributes.NewSnapshot(1, values)}

	miningManager, err := miningmanager.NewFactory().NewMiningManager(
		&chainparams.RegressionNetParams, consensusState, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMiningManager: %+v", err)
	}
	return miningManager, consensusState
}

func createTransaction() *model.Transaction {
	return &model.Transaction{
		Kind:     model.TxKindEVM,
		From:     sender,
		GasPrice: uint256.NewInt(20 * ethparams.GWei),
		GasLimit: ethparams.TxGas,
		To:       &recipient,
		Value:    uint256.NewInt(ethparams.GWei),
	}
}

// TestBlockLifecycle verifies that transactions leave the mempool once their
// block is connected and come back once it is rolled back.
func TestBlockLifecycle(t *testing.T) {
	miningManager, consensusState := setupMiningManager(t)

	const transactionCount = 5
	for i := 0; i < transactionCount; i++ {
		_, err := miningManager.ValidateAndInsertTransaction(createTransaction(), true)
		if err != nil {
			t.Fatalf("ValidateAndInsertTransaction: %v", err)
		}
	}
	if miningManager.TransactionCount() != transactionCount ||
		miningManager.SenderTransactionCount(sender) != transactionCount {
		t.Fatalf("expected %d transactions in the mempool, got %d", transactionCount, miningManager.TransactionCount())
	}

	template, err := miningManager.BuildBlockTemplate(&miningmanagermodel.BlockTemplateRequest{})
	if err != nil {
		t.Fatalf("BuildBlockTemplate: %+v", err)
	}
	block := template.Block
	if len(block.Transactions) != transactionCount {
		t.Fatalf("expected %d transactions in the block, got %d", transactionCount, len(block.Transactions))
	}
	if block.Beneficiary != (common.Address{}) {
		t.Fatalf("expected the zero beneficiary without a proposer key, got %s", block.Beneficiary)
	}

	if _, err := consensusState.ledger.Connect(block.Header.Height, template.WorkingState); err != nil {
		t.Fatalf("Connect: %+v", err)
	}
	if err := miningManager.HandleNewBlock(block); err != nil {
		t.Fatalf("HandleNewBlock: %+v", err)
	}
	if miningManager.TransactionCount() != 0 {
		t.Fatalf("expected an empty mempool, got %d transactions", miningManager.TransactionCount())
	}

	transactionID, err := miningManager.ValidateAndInsertTransaction(createTransaction(), true)
	if err != nil {
		t.Fatalf("ValidateAndInsertTransaction: %v", err)
	}
	next, ok := miningManager.GetTransaction(transactionID)
	if !ok || next.Nonce != transactionCount {
		t.Fatalf("expected the next transaction at nonce %d", transactionCount)
	}

	if err := consensusState.ledger.Rollback(0); err != nil {
		t.Fatalf("Rollback: %+v", err)
	}
	requeued := miningManager.HandleRollback(block.Transactions)
	if requeued != transactionCount {
		t.Fatalf("expected %d requeued transactions, got %d", transactionCount, requeued)
	}
	if miningManager.TransactionCount() != transactionCount+1 {
		t.Fatalf("expected %d transactions after the rollback, got %d",
			transactionCount+1, miningManager.TransactionCount())
	}
	for i, transaction := range miningManager.AllTransactions() {
		if transaction.Nonce != uint64(i) {
			t.Fatalf("expected nonce %d at position %d, got %d", i, i, transaction.Nonce)
		}
	}
}

func TestClearMempool(t *testing.T) {
	miningManager, _ := setupMiningManager(t)

	transactionID, err := miningManager.ValidateAndInsertTransaction(createTransaction(), true)
	if err != nil {
		t.Fatalf("ValidateAndInsertTransaction: %v", err)
	}
	if _, err := miningManager.ValidateAndInsertTransaction(createTransaction(), true); err != nil {
		t.Fatalf("ValidateAndInsertTransaction: %v", err)
	}
	if err := miningManager.RemoveTransactions([]common.Hash{transactionID}); err != nil {
		t.Fatalf("RemoveTransactions: %+v", err)
	}
	if miningManager.TransactionCount() != 1 {
		t.Fatalf("expected 1 transaction left, got %d", miningManager.TransactionCount())
	}
	if evicted := miningManager.ClearMempool(); evicted != 1 {
		t.Fatalf("expected 1 evicted transaction, got %d", evicted)
	}
	if len(miningManager.AllTransactions()) != 0 {
		t.Fatalf("expected an empty mempool")
	}
}
