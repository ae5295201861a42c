package transferdomain

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

type testAccounts struct {
	pubKey  []byte
	bech32  model.Address
	p2pkh   model.Address
	erc55   model.Address
	otherPK []byte
}

func newTestAccounts(t *testing.T, params *chainparams.Params) *testAccounts {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	accounts := &testAccounts{
		pubKey:  crypto.CompressPubkey(&key.PublicKey),
		otherPK: crypto.CompressPubkey(&otherKey.PublicKey),
	}
	accounts.bech32, err = addressformat.Bech32Address(params, accounts.pubKey)
	require.NoError(t, err)
	accounts.p2pkh, err = addressformat.P2PKHAddress(params, accounts.pubKey)
	require.NoError(t, err)
	accounts.erc55, err = addressformat.ERC55Address(accounts.pubKey)
	require.NoError(t, err)
	return accounts
}

func enabledSnapshot(height uint64, overrides map[string]string) *attributes.Snapshot {
	values := attributes.ForkDefaults()
	values[attributes.KeyFeatureEVM] = "true"
	values[attributes.KeyFeatureTransferDomain] = "true"
	for key, value := range overrides {
		values[key] = value
	}
	return attributes.NewSnapshot(height, values)
}

func coins(amount uint64) model.TokenAmount {
	return model.NewTokenAmount(model.NativeTokenID, amount*model.UnitsPerCoin)
}

func transfer(src, dst model.Address, amount model.TokenAmount, pubKey []byte) *model.TransferDomainMessage {
	return &model.TransferDomainMessage{
		Src:    model.TransferDomainEndpoint{Address: src, Amount: amount},
		Dst:    model.TransferDomainEndpoint{Address: dst, Amount: amount.Clone()},
		PubKey: pubKey,
	}
}

func newTestLedger(t *testing.T, accounts *testAccounts) *ledger.Ledger {
	evmFunds, err := model.UnitsToWei(uint256.NewInt(50 * model.UnitsPerCoin))
	require.NoError(t, err)
	l, err := ledger.New([]chainparams.GenesisAlloc{
		{Address: accounts.bech32, Amount: coins(300)},
		{Address: accounts.p2pkh, Amount: coins(10)},
		{Address: accounts.erc55, Amount: model.TokenAmount{Token: model.NativeTokenID, Amount: evmFunds}},
	})
	require.NoError(t, err)
	return l
}

func TestExecuteDVMToEVM(t *testing.T) {
	params := &chainparams.RegressionNetParams
	accounts := newTestAccounts(t, params)
	l := newTestLedger(t, accounts)
	bridge := New(params)

	ws := l.NewWorkingState()
	err := bridge.Execute(enabledSnapshot(1, nil), 1, ws, transfer(accounts.bech32, accounts.erc55, coins(200), accounts.pubKey))
	require.NoError(t, err)

	require.Equal(t, uint64(100*model.UnitsPerCoin), ws.Balance(accounts.bech32, model.NativeTokenID).Uint64())
	expectedWei, err := model.UnitsToWei(uint256.NewInt(250 * model.UnitsPerCoin))
	require.NoError(t, err)
	require.True(t, expectedWei.Eq(ws.Balance(accounts.erc55, model.NativeTokenID)),
		"expected %s wei, got %s", expectedWei, ws.Balance(accounts.erc55, model.NativeTokenID))
}

func TestExecuteEVMToDVM(t *testing.T) {
	params := &chainparams.RegressionNetParams
	accounts := newTestAccounts(t, params)
	l := newTestLedger(t, accounts)
	bridge := New(params)

	ws := l.NewWorkingState()
	msg := transfer(accounts.erc55, accounts.bech32, coins(20), accounts.pubKey)
	require.NoError(t, bridge.Execute(enabledSnapshot(1, nil), 1, ws, msg))
	require.Equal(t, uint64(320*model.UnitsPerCoin), ws.Balance(accounts.bech32, model.NativeTokenID).Uint64())

	// An explicit p2pkh auth address of the same key may send elsewhere.
	msg = transfer(accounts.erc55, accounts.bech32, coins(5), accounts.pubKey)
	msg.Auth = accounts.p2pkh
	require.NoError(t, bridge.Execute(enabledSnapshot(1, nil), 1, ws, msg))
	remaining, err := model.UnitsToWei(uint256.NewInt(25 * model.UnitsPerCoin))
	require.NoError(t, err)
	require.True(t, remaining.Eq(ws.Balance(accounts.erc55, model.NativeTokenID)))
}

func TestValidateRejections(t *testing.T) {
	params := &chainparams.RegressionNetParams
	accounts := newTestAccounts(t, params)
	l := newTestLedger(t, accounts)
	bridge := New(params)
	dvmToEVM := attributes.DirectionDVMToEVM
	evmToDVM := attributes.DirectionEVMToDVM

	tests := []struct {
		name      string
		height    uint64
		overrides map[string]string
		msg       func() *model.TransferDomainMessage
		expected  error
	}{
		{
			name:   "before the upgrade",
			height: 0,
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrPreActivation,
		},
		{
			name:      "evm disabled",
			overrides: map[string]string{attributes.KeyFeatureEVM: "false"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrFeatureDisabled,
		},
		{
			name:      "transferdomain disabled",
			overrides: map[string]string{attributes.KeyFeatureTransferDomain: "false"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrFeatureDisabled,
		},
		{
			name: "same domain",
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.p2pkh, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrInvalidTransferDomain,
		},
		{
			name: "amount mismatch",
			msg: func() *model.TransferDomainMessage {
				msg := transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
				msg.Dst.Amount = coins(2)
				return msg
			},
			expected: ruleerrors.ErrAmountMismatch,
		},
		{
			name:      "direction disabled",
			overrides: map[string]string{attributes.TransferDomainKey(dvmToEVM, attributes.FieldEnabled): "false"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrDirectionDisabled,
		},
		{
			name:      "native token disabled",
			overrides: map[string]string{attributes.TransferDomainKey(evmToDVM, attributes.FieldNativeEnabled): "false"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.erc55, accounts.bech32, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrTokenDisabled,
		},
		{
			name: "dat disabled",
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, model.NewTokenAmount(1, 100), accounts.pubKey)
			},
			expected: ruleerrors.ErrTokenDisabled,
		},
		{
			name:      "bech32 source not allowed",
			overrides: map[string]string{attributes.TransferDomainKey(dvmToEVM, attributes.FieldSrcFormats): "p2pkh"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrInvalidSrcFormat,
		},
		{
			name:      "erc55 destination not allowed",
			overrides: map[string]string{attributes.TransferDomainKey(dvmToEVM, attributes.FieldDestFormats): "bech32"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrInvalidDstFormat,
		},
		{
			name: "malformed destination",
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, model.Address{Domain: model.DomainEVM, Value: "0x12"}, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrInvalidDstFormat,
		},
		{
			name: "foreign key",
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(1), accounts.otherPK)
			},
			expected: ruleerrors.ErrAuthFormatMismatch,
		},
		{
			name:      "bech32 auth not allowed",
			overrides: map[string]string{attributes.TransferDomainKey(evmToDVM, attributes.FieldAuthFormats): "p2pkh-erc55"},
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.erc55, accounts.bech32, coins(1), accounts.pubKey)
			},
			expected: ruleerrors.ErrAuthFormatMismatch,
		},
		{
			name: "erc55 source of another key",
			msg: func() *model.TransferDomainMessage {
				other, err := addressformat.ERC55Address(accounts.otherPK)
				require.NoError(t, err)
				msg := transfer(other, accounts.bech32, coins(1), accounts.pubKey)
				return msg
			},
			expected: ruleerrors.ErrAuthFormatMismatch,
		},
		{
			name: "insufficient funds",
			msg: func() *model.TransferDomainMessage {
				return transfer(accounts.bech32, accounts.erc55, coins(301), accounts.pubKey)
			},
			expected: ruleerrors.ErrInsufficientFunds,
		},
		{
			name:      "data too large",
			overrides: map[string]string{attributes.KeyEVMOpReturnMaxSize: "4"},
			msg: func() *model.TransferDomainMessage {
				msg := transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey)
				msg.Dst.Data = []byte{1, 2, 3, 4, 5}
				return msg
			},
			expected: ruleerrors.ErrOpReturnTooLarge,
		},
	}
	for _, test := range tests {
		height := test.height
		if test.name != "before the upgrade" {
			height = 1
		}
		err := bridge.Validate(enabledSnapshot(height, test.overrides), height, l, test.msg())
		if !errors.Is(err, test.expected) {
			t.Fatalf("%s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestFailedExecuteLeavesStateUntouched(t *testing.T) {
	params := &chainparams.RegressionNetParams
	accounts := newTestAccounts(t, params)
	l := newTestLedger(t, accounts)
	bridge := New(params)

	ws := l.NewWorkingState()
	err := bridge.Execute(enabledSnapshot(1, nil), 1, ws, transfer(accounts.erc55, accounts.bech32, coins(51), accounts.pubKey))
	require.True(t, errors.Is(err, ruleerrors.ErrInsufficientFunds), "unexpected error %v", err)
	require.Empty(t, ws.Touched())
}

func TestNewTransactionUsesEVMSideNonceSpace(t *testing.T) {
	params := &chainparams.RegressionNetParams
	accounts := newTestAccounts(t, params)

	tx := NewTransaction(transfer(accounts.bech32, accounts.erc55, coins(1), accounts.pubKey), 7)
	require.Equal(t, accounts.erc55.EVM(), tx.From)
	require.Equal(t, uint64(7), tx.Nonce)
	require.Equal(t, model.TxKindTransferDomain, tx.Kind)
	require.Zero(t, tx.GasLimit)

	tx = NewTransaction(transfer(accounts.erc55, accounts.bech32, coins(1), accounts.pubKey), 0)
	require.Equal(t, accounts.erc55.EVM(), tx.From)
}
