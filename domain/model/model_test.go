package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in        string
		expected  uint64
		expectErr bool
	}{
		{in: "1", expected: 100_000_000},
		{in: "0.5", expected: 50_000_000},
		{in: ".00000001", expected: 1},
		{in: "100", expected: 10_000_000_000},
		{in: "0", expected: 0},
		{in: "1.123456789", expectErr: true},
		{in: "1,5", expectErr: true},
		{in: "", expectErr: true},
	}
	for _, test := range tests {
		amount, err := ParseAmount(test.in)
		if test.expectErr {
			if err == nil {
				t.Fatalf("ParseAmount(%q): expected an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q): %+v", test.in, err)
		}
		if amount.Uint64() != test.expected {
			t.Fatalf("ParseAmount(%q): expected %d, got %s", test.in, test.expected, amount)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if s := FormatAmount(uint256.NewInt(150_000_000)); s != "1.50000000" {
		t.Fatalf("unexpected formatted amount %s", s)
	}
	if s := FormatAmount(uint256.NewInt(1)); s != "0.00000001" {
		t.Fatalf("unexpected formatted amount %s", s)
	}
}

func TestUnitsToWeiRoundTrip(t *testing.T) {
	wei, err := UnitsToWei(uint256.NewInt(3))
	if err != nil {
		t.Fatalf("UnitsToWei: %+v", err)
	}
	if wei.Uint64() != 3*WeiPerUnit {
		t.Fatalf("expected %d wei, got %s", 3*WeiPerUnit, wei)
	}
	units, remainder := WeiToUnits(new(uint256.Int).AddUint64(wei, 7))
	if units.Uint64() != 3 || remainder.Uint64() != 7 {
		t.Fatalf("expected 3 units and 7 wei remainder, got %s and %s", units, remainder)
	}
}

func TestTransactionHashDependsOnContent(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := &Transaction{
		Kind:     TxKindEVM,
		From:     common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Nonce:    1,
		GasPrice: uint256.NewInt(10),
		GasLimit: 21000,
		To:       &to,
		Value:    uint256.NewInt(5),
	}
	clone := tx.Clone()
	if TransactionHash(tx) != TransactionHash(clone) {
		t.Fatalf("a cloned transaction must have the same hash")
	}
	clone.GasPrice = uint256.NewInt(11)
	if TransactionHash(tx) == TransactionHash(clone) {
		t.Fatalf("changing the gas price must change the hash")
	}
	if tx.GasPrice.Uint64() != 10 {
		t.Fatalf("Clone shares the gas price with the original")
	}
}

func TestAddressCanonical(t *testing.T) {
	lower := Address{Domain: DomainEVM, Value: "0x9b8a4af42140d8a4c153a822f02571a1dd037e89"}
	canonical := lower.Canonical()
	if canonical != NewEVMAddress(lower.EVM()) {
		t.Fatalf("canonical address %s does not match %s", canonical, NewEVMAddress(lower.EVM()))
	}
}
