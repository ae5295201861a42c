package chainparams

import (
	"testing"

	"github.com/pkg/errors"
)

// TestMustRegisterPanic ensures the mustRegister function panics when used to
// register an invalid network.
func TestMustRegisterPanic(t *testing.T) {
	t.Parallel()

	defer func() {
		if err := recover(); err == nil {
			t.Error("mustRegister did not panic as expected")
		}
	}()

	// Intentionally try to register duplicate params to force a panic.
	mustRegister(&MainNetParams)
}

func TestParamsByName(t *testing.T) {
	params, err := ParamsByName("regtest")
	if err != nil {
		t.Fatalf("ParamsByName: %+v", err)
	}
	if params != &RegressionNetParams {
		t.Fatalf("ParamsByName returned %s", params.Name)
	}
	_, err = ParamsByName("nonet")
	if !errors.Is(err, ErrUnknownNet) {
		t.Fatalf("expected ErrUnknownNet, got %v", err)
	}
}

func TestBaseFeeIsTenGwei(t *testing.T) {
	if RegressionNetParams.BaseFee.Uint64() != 10_000_000_000 {
		t.Fatalf("unexpected base fee %s", RegressionNetParams.BaseFee)
	}
	if RegressionNetParams.BlockGasLimit != 30_000_000 {
		t.Fatalf("unexpected block gas limit %d", RegressionNetParams.BlockGasLimit)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	clone := RegressionNetParams.Clone()
	clone.BaseFee.SetUint64(1)
	clone.Tokens["NEW"] = 99
	if RegressionNetParams.BaseFee.Uint64() == 1 {
		t.Fatalf("Clone shares its base fee with the registered params")
	}
	if _, ok := RegressionNetParams.TokenID("NEW"); ok {
		t.Fatalf("Clone shares its token map with the registered params")
	}
}

func TestIsUpgradeActive(t *testing.T) {
	params := RegressionNetParams.Clone()
	params.NextNetworkUpgradeHeight = 150
	if params.IsUpgradeActive(149) || !params.IsUpgradeActive(150) {
		t.Fatalf("upgrade must activate exactly at height 150")
	}
}
