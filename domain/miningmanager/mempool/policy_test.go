package mempool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xvmnet/xvmd/domain/model"
)

// TestIntrinsicGas tests the IntrinsicGas API.
func TestIntrinsicGas(t *testing.T) {
	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	tests := []struct {
		name        string // test description.
		transaction *model.Transaction
		want        uint64
	}{
		{
			"plain value transfer",
			&model.Transaction{Kind: model.TxKindEVM, To: &to},
			21000,
		},
		{
			"calldata with zero and non-zero bytes",
			&model.Transaction{Kind: model.TxKindEVM, To: &to, Data: []byte{0, 0, 1, 2}},
			21000 + 2*4 + 2*16,
		},
		{
			"contract creation",
			&model.Transaction{Kind: model.TxKindEVM},
			53000,
		},
		{
			"transfer domain",
			&model.Transaction{Kind: model.TxKindTransferDomain, Data: []byte{1, 2, 3}},
			0,
		},
	}

	for _, test := range tests {
		got, err := IntrinsicGas(test.transaction)
		if err != nil {
			t.Fatalf("TestIntrinsicGas test '%s' failed: %+v", test.name, err)
		}
		if got != test.want {
			t.Errorf("TestIntrinsicGas test '%s' failed: got %v want %v",
				test.name, got, test.want)
		}
	}
}

func TestUpfrontCost(t *testing.T) {
	transaction := &model.Transaction{
		Kind:     model.TxKindEVM,
		GasLimit: 21000,
		GasPrice: gwei(10),
		Value:    gwei(1),
	}
	cost, ok := upfrontCost(transaction)
	if !ok {
		t.Fatalf("upfrontCost unexpectedly overflowed")
	}
	if !cost.Eq(gwei(210_001)) {
		t.Fatalf("expected %s, got %s", gwei(210_001), cost)
	}
}
