package config

import (
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/chainparams"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                  bool   `long:"testnet" description:"Use the test network"`
	RegressionTest           bool   `long:"regtest" description:"Use the regression test network"`
	NextNetworkUpgradeHeight uint64 `long:"nextnetworkupgradeheight" description:"Override the network upgrade height (allowed only on regtest)"`

	ActiveNetParams *chainparams.Params
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. It returns an error if more than one network
// was selected. The default network is mainnet.
func (networkFlags *NetworkFlags) ResolveNetwork() error {
	params := &chainparams.MainNetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = &chainparams.TestNetParams
	}
	if networkFlags.RegressionTest {
		numNets++
		params = &chainparams.RegressionNetParams
	}
	if numNets > 1 {
		return errors.New("multiple network parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network")
	}

	// The active parameters are a copy so that overrides never leak into
	// the package level networks.
	networkFlags.ActiveNetParams = params.Clone()
	if networkFlags.NextNetworkUpgradeHeight != 0 {
		if !networkFlags.RegressionTest {
			return errors.New("nextnetworkupgradeheight is allowed only on regtest")
		}
		networkFlags.ActiveNetParams.NextNetworkUpgradeHeight = networkFlags.NextNetworkUpgradeHeight
	}
	return nil
}

// NetParams returns the selected network parameters.
func (networkFlags *NetworkFlags) NetParams() *chainparams.Params {
	return networkFlags.ActiveNetParams
}
