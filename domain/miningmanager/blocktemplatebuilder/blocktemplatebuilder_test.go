package blocktemplatebuilder

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/miningmanager/mempool"
	miningmanagermodel "github.com/xvmnet/xvmd/domain/miningmanager/model"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
	"github.com/xvmnet/xvmd/domain/transferdomain"
)

func gwei(amount uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(ethparams.GWei))
}

func coinsInWei(t *testing.T, coins uint64) *uint256.Int {
	wei, err := model.UnitsToWei(uint256.NewInt(coins * model.UnitsPerCoin))
	if err != nil {
		t.Fatalf("UnitsToWei: %+v", err)
	}
	return wei
}

type fakeConsensusState struct {
	ledger   *ledger.Ledger
	snapshot *attributes.Snapshot
}

func (fcs *fakeConsensusState) TipHeight() uint64                   { return fcs.ledger.Height() }
func (fcs *fakeConsensusState) TipHash() model.Hash                 { return model.Hash{1} }
func (fcs *fakeConsensusState) TipEVMHash() common.Hash             { return common.Hash{2} }
func (fcs *fakeConsensusState) TipAttributes() *attributes.Snapshot { return fcs.snapshot }
func (fcs *fakeConsensusState) AccountView() ledger.View            { return fcs.ledger }

func (fcs *fakeConsensusState) NextBlockAttributes() (*attributes.Snapshot, error) {
	return fcs.snapshot, nil
}

func (fcs *fakeConsensusState) NewWorkingState() *ledger.WorkingState {
	return fcs.ledger.NewWorkingState()
}

func enabledSnapshot(overrides map[string]string) *attributes.Snapshot {
	values := attributes.ForkDefaults()
	values[attributes.KeyFeatureEVM] = "true"
	values[attributes.KeyFeatureTransferDomain] = "true"
	for key, value := range overrides {
		values[key] = value
	}
	return attributes.NewSnapshot(1, values)
}

type testHarness struct {
	t              *testing.T
	params         *chainparams.Params
	consensusState *fakeConsensusState
	mempool        miningmanagermodel.Mempool
	builder        miningmanagermodel.BlockTemplateBuilder
	proposerKey    *ecdsa.PrivateKey
}

func newTestHarness(t *testing.T, allocs ...chainparams.GenesisAlloc) *testHarness {
	params := &chainparams.RegressionNetParams
	l, err := ledger.New(allocs)
	if err != nil {
		t.Fatalf("ledger.New: %+v", err)
	}
	consensusState := &fakeConsensusState{ledger: l, snapshot: enabledSnapshot(nil)}
	bridge := transferdomain.New(params)
	mp, err := mempool.New(mempool.DefaultConfig(params), consensusState, bridge, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("mempool.New: %+v", err)
	}
	proposerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	return &testHarness{
		t:              t,
		params:         params,
		consensusState: consensusState,
		mempool:        mp,
		builder:        New(params, consensusState, mp, bridge, NewValueTransferExecutor()),
		proposerKey:    proposerKey,
	}
}

func (th *testHarness) submit(transaction *model.Transaction) common.Hash {
	th.t.Helper()
	transactionID, err := th.mempool.ValidateAndInsertTransaction(transaction, false)
	if err != nil {
		th.t.Fatalf("ValidateAndInsertTransaction: %+v", err)
	}
	return transactionID
}

func (th *testHarness) build(maxGas uint64) *miningmanagermodel.BlockTemplate {
	th.t.Helper()
	template, err := th.builder.BuildBlockTemplate(&miningmanagermodel.BlockTemplateRequest{
		MaxGas:    maxGas,
		Proposer:  crypto.CompressPubkey(&th.proposerKey.PublicKey),
		Timestamp: 1_700_000_000,
	})
	if err != nil {
		th.t.Fatalf("BuildBlockTemplate: %+v", err)
	}
	return template
}

func (th *testHarness) beneficiary() common.Address {
	return crypto.PubkeyToAddress(th.proposerKey.PublicKey)
}

var (
	senderA = common.HexToAddress("0x9b8a4af42140d8a4c153a822f02571a1dd037e89")
	senderB = common.HexToAddress("0x6c34cbb9219d8caa428835d2073e8ec88ba0a110")
	senderC = common.HexToAddress("0xe5f10415861e8bd4bfe9c2ec576e0d0e1d9457f9")
	burn    = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
)

func funded(t *testing.T, coins uint64, senders ...common.Address) []chainparams.GenesisAlloc {
	allocs := make([]chainparams.GenesisAlloc, 0, len(senders))
	for _, sender := range senders {
		allocs = append(allocs, chainparams.GenesisAlloc{
			Address: model.NewEVMAddress(sender),
			Amount:  model.TokenAmount{Token: model.NativeTokenID, Amount: coinsInWei(t, coins)},
		})
	}
	return allocs
}

func evmTransaction(sender common.Address, nonce uint64, gasPriceGwei uint64, gasLimit uint64) *model.Transaction {
	return &model.Transaction{
		Kind:     model.TxKindEVM,
		From:     sender,
		Nonce:    nonce,
		GasPrice: gwei(gasPriceGwei),
		GasLimit: gasLimit,
		To:       &burn,
		Value:    gwei(1),
	}
}

func TestBlockOrderAndFees(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA)...)

	for _, nonce := range []uint64{0, 5, 4, 2, 1, 3} {
		th.submit(evmTransaction(senderA, nonce, 127, ethparams.TxGas))
	}
	template := th.build(0)
	block := template.Block

	if len(block.Transactions) != 6 || len(block.Receipts) != 6 {
		t.Fatalf("expected 6 transactions, got %d", len(block.Transactions))
	}
	for i, transaction := range block.Transactions {
		if transaction.Nonce != uint64(i) {
			t.Fatalf("expected nonce %d at position %d, got %d", i, i, transaction.Nonce)
		}
		if block.Receipts[i].Status != model.ReceiptStatusSuccess {
			t.Fatalf("transaction %d failed: %s", i, block.Receipts[i].Err)
		}
	}

	expectedBurnt := new(uint256.Int).Mul(uint256.NewInt(6*ethparams.TxGas), gwei(10))
	expectedPriority := new(uint256.Int).Mul(uint256.NewInt(6*ethparams.TxGas), gwei(117))
	if !block.FeeBurnt.Eq(expectedBurnt) || !template.Fees.Burnt.Eq(expectedBurnt) {
		t.Fatalf("expected burnt fee %s, got %s", expectedBurnt, block.FeeBurnt)
	}
	if !block.FeePriority.Eq(expectedPriority) || template.Fees.TransactionCount != 6 {
		t.Fatalf("expected priority fee %s over 6 transactions, got %s over %d",
			expectedPriority, block.FeePriority, template.Fees.TransactionCount)
	}
	if block.GasUsed != 6*ethparams.TxGas {
		t.Fatalf("expected %d gas used, got %d", 6*ethparams.TxGas, block.GasUsed)
	}

	workingState := template.WorkingState
	if workingState.Nonce(model.NewEVMAddress(senderA)) != 6 {
		t.Fatalf("expected sender nonce 6, got %d", workingState.Nonce(model.NewEVMAddress(senderA)))
	}
	if !workingState.Balance(model.NewEVMAddress(th.beneficiary()), model.NativeTokenID).Eq(expectedPriority) {
		t.Fatalf("beneficiary was not paid the priority fee")
	}
	spent := new(uint256.Int).Add(expectedBurnt, expectedPriority)
	spent.Add(spent, new(uint256.Int).Mul(gwei(1), uint256.NewInt(6)))
	expectedBalance := new(uint256.Int).Sub(coinsInWei(t, 100), spent)
	if !workingState.Balance(model.NewEVMAddress(senderA), model.NativeTokenID).Eq(expectedBalance) {
		t.Fatalf("expected sender balance %s, got %s", expectedBalance,
			workingState.Balance(model.NewEVMAddress(senderA), model.NativeTokenID))
	}

	record := block.XVM
	if record == nil {
		t.Fatalf("expected an EVM section")
	}
	if record.Beneficiary != th.beneficiary() || !record.TotalPriorityFee.Eq(expectedPriority) ||
		record.ParentHash != (common.Hash{2}) {
		t.Fatalf("unexpected XVM record %+v", record)
	}
	if record.BlockHash != model.EVMBlockHash(record, block.Transactions) {
		t.Fatalf("XVM record hash does not match its content")
	}
	if th.mempool.Count() != 6 {
		t.Fatalf("building a template must not remove transactions from the mempool")
	}
}

func TestGasLimitHaltsThePass(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA, senderB, senderC)...)

	for nonce := uint64(0); nonce < 3; nonce++ {
		th.submit(evmTransaction(senderA, nonce, 10, 40_000))
	}
	th.submit(evmTransaction(senderB, 0, 10, 40_000))
	th.submit(evmTransaction(senderC, 0, 10, ethparams.TxGas))

	block := th.build(100_000).Block
	if len(block.Transactions) != 3 {
		t.Fatalf("expected the pass to stop after 3 transactions, got %d", len(block.Transactions))
	}
	for _, transaction := range block.Transactions {
		if transaction.From != senderA {
			t.Fatalf("unexpected transaction of %s in the block", transaction.From)
		}
	}
	// senderC's transaction would fit in the remaining 37000 gas.
	if block.GasUsed != 3*ethparams.TxGas {
		t.Fatalf("expected %d gas used, got %d", 3*ethparams.TxGas, block.GasUsed)
	}
	if block.XVM.GasLimit != 100_000 {
		t.Fatalf("expected the requested gas limit in the XVM record, got %d", block.XVM.GasLimit)
	}
}

func TestFailedTransactionIsChargedAndIncluded(t *testing.T) {
	th := newTestHarness(t, funded(t, 1, senderA)...)

	halfCoin := new(uint256.Int).Div(coinsInWei(t, 1), uint256.NewInt(2))
	first := evmTransaction(senderA, 0, 20, ethparams.TxGas)
	first.Value = halfCoin
	second := evmTransaction(senderA, 1, 20, ethparams.TxGas)
	second.Value = new(uint256.Int).Sub(coinsInWei(t, 1), gwei(10_000_000))
	th.submit(first)
	th.submit(second)

	template := th.build(0)
	block := template.Block
	if len(block.Transactions) != 2 {
		t.Fatalf("expected both transactions in the block, got %d", len(block.Transactions))
	}
	if block.Receipts[0].Status != model.ReceiptStatusSuccess {
		t.Fatalf("first transaction failed: %s", block.Receipts[0].Err)
	}
	receipt := block.Receipts[1]
	if receipt.Status != model.ReceiptStatusFailed || !errors.Is(receipt.Err, ruleerrors.ErrInsufficientFunds) {
		t.Fatalf("expected the second transaction to fail with insufficient funds, got %s %v", receipt.Status, receipt.Err)
	}
	if receipt.GasUsed != ethparams.TxGas {
		t.Fatalf("expected the failed transaction to use %d gas, got %d", ethparams.TxGas, receipt.GasUsed)
	}
	perTransactionFee := new(uint256.Int).Mul(uint256.NewInt(ethparams.TxGas), gwei(20))
	if !receipt.FeeBurnt.Eq(new(uint256.Int).Mul(uint256.NewInt(ethparams.TxGas), gwei(10))) {
		t.Fatalf("unexpected burnt fee %s", receipt.FeeBurnt)
	}
	if !block.FeeBurnt.Eq(new(uint256.Int).Mul(uint256.NewInt(2*ethparams.TxGas), gwei(10))) {
		t.Fatalf("failed transaction fees are missing from the block totals: %s", block.FeeBurnt)
	}

	sender := model.NewEVMAddress(senderA)
	if template.WorkingState.Nonce(sender) != 2 {
		t.Fatalf("expected the failed transaction to consume its nonce")
	}
	expectedBalance := new(uint256.Int).Sub(coinsInWei(t, 1), halfCoin)
	expectedBalance.Sub(expectedBalance, perTransactionFee)
	expectedBalance.Sub(expectedBalance, perTransactionFee)
	if !template.WorkingState.Balance(sender, model.NativeTokenID).Eq(expectedBalance) {
		t.Fatalf("expected sender balance %s, got %s", expectedBalance,
			template.WorkingState.Balance(sender, model.NativeTokenID))
	}
	if !template.WorkingState.Balance(model.NewEVMAddress(burn), model.NativeTokenID).Eq(halfCoin) {
		t.Fatalf("only the successful value transfer may reach the recipient")
	}
}

func TestNonceGapSkipsSender(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA, senderB)...)

	th.submit(evmTransaction(senderA, 0, 10, ethparams.TxGas))
	th.submit(evmTransaction(senderA, 2, 10, ethparams.TxGas))
	th.submit(evmTransaction(senderB, 0, 10, ethparams.TxGas))

	template := th.build(0)
	block := template.Block
	if len(block.Transactions) != 2 || len(block.Rejected) != 0 {
		t.Fatalf("expected 2 transactions and no rejection, got %d and %d",
			len(block.Transactions), len(block.Rejected))
	}
	if block.Transactions[0].From != senderA || block.Transactions[1].From != senderB {
		t.Fatalf("unexpected block order")
	}

	if _, err := th.consensusState.ledger.Connect(block.Header.Height, template.WorkingState); err != nil {
		t.Fatalf("Connect: %+v", err)
	}
	if err := th.mempool.HandleNewBlock(block); err != nil {
		t.Fatalf("HandleNewBlock: %+v", err)
	}
	remaining := th.mempool.Transactions()
	if len(remaining) != 1 || remaining[0].Nonce != 2 {
		t.Fatalf("expected the gapped transaction to stay queued")
	}
}

func TestStaleNonceIsRejected(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA)...)
	th.submit(evmTransaction(senderA, 0, 10, ethparams.TxGas))

	// The nonce is consumed behind the mempool's back.
	workingState := th.consensusState.ledger.NewWorkingState()
	workingState.IncrementNonce(model.NewEVMAddress(senderA))
	if _, err := th.consensusState.ledger.Connect(1, workingState); err != nil {
		t.Fatalf("Connect: %+v", err)
	}

	block := th.build(0).Block
	if len(block.Transactions) != 0 || len(block.Rejected) != 1 {
		t.Fatalf("expected the transaction to be rejected, got %d included and %d rejected",
			len(block.Transactions), len(block.Rejected))
	}
	if !errors.Is(block.Rejected[0].Err, ruleerrors.ErrInvalidNonce) {
		t.Fatalf("expected %s, got %v", ruleerrors.ErrInvalidNonce, block.Rejected[0].Err)
	}
	if block.Header.Height != 2 {
		t.Fatalf("expected height 2, got %d", block.Header.Height)
	}
}

func TestEVMDisabled(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA)...)
	th.submit(evmTransaction(senderA, 0, 10, ethparams.TxGas))

	th.consensusState.snapshot = enabledSnapshot(map[string]string{attributes.KeyFeatureEVM: "false"})
	block := th.build(0).Block
	if block.XVM != nil || len(block.Transactions) != 0 {
		t.Fatalf("expected a block without an EVM section")
	}
	if th.mempool.Count() != 1 {
		t.Fatalf("expected the mempool to keep its transactions")
	}
}

func TestTransfersShareTheNonceSpace(t *testing.T) {
	params := &chainparams.RegressionNetParams
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	pubKey := crypto.CompressPubkey(&key.PublicKey)
	dvmAddress, err := addressformat.Bech32Address(params, pubKey)
	if err != nil {
		t.Fatalf("Bech32Address: %+v", err)
	}
	evmAddress, err := addressformat.ERC55Address(pubKey)
	if err != nil {
		t.Fatalf("ERC55Address: %+v", err)
	}

	allocs := append(funded(t, 1, evmAddress.EVM()), chainparams.GenesisAlloc{
		Address: dvmAddress,
		Amount:  model.NewTokenAmount(model.NativeTokenID, 10*model.UnitsPerCoin),
	})
	th := newTestHarness(t, allocs...)

	amount := model.NewTokenAmount(model.NativeTokenID, 2*model.UnitsPerCoin)
	msg := &model.TransferDomainMessage{
		Src:    model.TransferDomainEndpoint{Address: dvmAddress, Amount: amount},
		Dst:    model.TransferDomainEndpoint{Address: evmAddress, Amount: amount.Clone()},
		PubKey: pubKey,
	}
	// The evm transaction arrives first but uses the nonce after the
	// transfer.
	spend := evmTransaction(evmAddress.EVM(), 1, 10, ethparams.TxGas)
	spend.Value = coinsInWei(t, 2)
	if _, err := th.mempool.ValidateAndInsertTransaction(spend, false); err == nil {
		t.Fatalf("expected the spend to be above the tip balance")
	}
	spend.Value = gwei(1)
	th.submit(spend)
	th.submit(transferdomain.NewTransaction(msg, 0))

	template := th.build(0)
	block := template.Block
	if len(block.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d (rejected %d)", len(block.Transactions), len(block.Rejected))
	}
	if block.Transactions[0].Kind != model.TxKindTransferDomain || block.Transactions[1].Nonce != 1 {
		t.Fatalf("expected the transfer at nonce 0 followed by the evm transaction")
	}
	if template.Fees.TransactionCount != 1 {
		t.Fatalf("transfers pay no fee, expected 1 paying transaction, got %d", template.Fees.TransactionCount)
	}
	if template.WorkingState.Balance(dvmAddress, model.NativeTokenID).Uint64() != 8*model.UnitsPerCoin {
		t.Fatalf("transfer did not debit the DVM source")
	}
	if template.WorkingState.Nonce(evmAddress) != 2 {
		t.Fatalf("expected the evm endpoint at nonce 2, got %d", template.WorkingState.Nonce(evmAddress))
	}
}

func TestTransferRejectedAtBuildTime(t *testing.T) {
	params := &chainparams.RegressionNetParams
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %+v", err)
	}
	pubKey := crypto.CompressPubkey(&key.PublicKey)
	dvmAddress, err := addressformat.Bech32Address(params, pubKey)
	if err != nil {
		t.Fatalf("Bech32Address: %+v", err)
	}
	evmAddress, err := addressformat.ERC55Address(pubKey)
	if err != nil {
		t.Fatalf("ERC55Address: %+v", err)
	}
	th := newTestHarness(t, chainparams.GenesisAlloc{
		Address: dvmAddress,
		Amount:  model.NewTokenAmount(model.NativeTokenID, 10*model.UnitsPerCoin),
	})

	amount := model.NewTokenAmount(model.NativeTokenID, model.UnitsPerCoin)
	msg := &model.TransferDomainMessage{
		Src:    model.TransferDomainEndpoint{Address: dvmAddress, Amount: amount},
		Dst:    model.TransferDomainEndpoint{Address: evmAddress, Amount: amount.Clone()},
		PubKey: pubKey,
	}
	th.submit(transferdomain.NewTransaction(msg, 0))

	th.consensusState.snapshot = enabledSnapshot(map[string]string{
		attributes.TransferDomainKey(attributes.DirectionDVMToEVM, attributes.FieldEnabled): "false",
	})
	block := th.build(0).Block
	if len(block.Transactions) != 0 || len(block.Rejected) != 1 {
		t.Fatalf("expected the transfer to be rejected")
	}
	if !errors.Is(block.Rejected[0].Err, ruleerrors.ErrDirectionDisabled) {
		t.Fatalf("expected %s, got %v", ruleerrors.ErrDirectionDisabled, block.Rejected[0].Err)
	}
}

func TestNonceGapDoesNotCloseTheBlock(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA, senderB, senderC)...)

	th.submit(evmTransaction(senderB, 0, 10, 60_000))
	th.submit(evmTransaction(senderB, 1, 10, 60_000))
	th.submit(evmTransaction(senderA, 1, 10, 70_000))
	th.submit(evmTransaction(senderC, 0, 10, ethparams.TxGas))

	block := th.build(100_000).Block
	if len(block.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(block.Transactions))
	}
	if block.Transactions[2].From != senderC {
		t.Fatalf("expected senderC's transaction after the gapped one, got %s", block.Transactions[2].From)
	}
	if len(block.Rejected) != 0 {
		t.Fatalf("expected no rejection, got %d", len(block.Rejected))
	}
}

func TestTransactionAboveBlockMaxGasSkipsSender(t *testing.T) {
	th := newTestHarness(t, funded(t, 100, senderA, senderB)...)

	th.submit(evmTransaction(senderA, 0, 10, 80_000))
	th.submit(evmTransaction(senderA, 1, 10, ethparams.TxGas))
	th.submit(evmTransaction(senderB, 0, 10, ethparams.TxGas))

	block := th.build(50_000).Block
	if len(block.Transactions) != 1 || block.Transactions[0].From != senderB {
		t.Fatalf("expected only senderB's transaction, got %d transactions", len(block.Transactions))
	}
	if th.mempool.SenderCount(senderA) != 2 {
		t.Fatalf("expected senderA's transactions to stay queued")
	}

	block = th.build(0).Block
	var fromA int
	for _, transaction := range block.Transactions {
		if transaction.From == senderA {
			fromA++
		}
	}
	if fromA != 2 {
		t.Fatalf("expected both of senderA's transactions in a block with the full gas limit, got %d", fromA)
	}
}
