package chainparams

import (
	"time"

	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
)

const (
	defaultBlockGasLimit            = 30_000_000
	defaultMaxTransactionsPerSender = 64
	defaultTargetTimePerBlock       = 30 * time.Second
	defaultBaseFeeGwei              = 10
)

// GenesisAlloc funds an account in the genesis state.
type GenesisAlloc struct {
	Address model.Address
	Amount  model.TokenAmount
}

// Params defines an xvmd network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses and
// keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// ChainID is the EIP-155 chain id of the embedded EVM.
	ChainID uint64

	// Human-readable part for bech32 encoded DVM addresses
	Bech32HRP string

	// Version byte of base58check pay-to-pubkey-hash DVM addresses
	PubKeyHashAddrID byte

	// NextNetworkUpgradeHeight is the height from which the EVM and
	// transfer-domain rules are active.
	NextNetworkUpgradeHeight uint64

	// BlockGasLimit is the EVM gas limit of every block.
	BlockGasLimit uint64

	// BaseFee is the protocol base fee per gas, in wei. It is burnt.
	BaseFee *uint256.Int

	// MaxTransactionsPerSender bounds the pending transactions of a single
	// sender in the mempool.
	MaxTransactionsPerSender int

	// TargetTimePerBlock is the block interval used by the block generator.
	TargetTimePerBlock time.Duration

	// GenesisTimestamp is the timestamp of the genesis block.
	GenesisTimestamp int64

	// GenesisAllocs are the balances present at height 0.
	GenesisAllocs []GenesisAlloc

	// Tokens maps token symbols to their ids.
	Tokens map[string]model.TokenID
}

// TokenID returns the id of the token with the given symbol.
func (p *Params) TokenID(symbol string) (model.TokenID, bool) {
	id, ok := p.Tokens[symbol]
	return id, ok
}

// IsUpgradeActive returns whether the network upgrade rules apply at
// the given height.
func (p *Params) IsUpgradeActive(height uint64) bool {
	return height >= p.NextNetworkUpgradeHeight
}

// Clone returns a copy of p that can be modified without affecting the
// registered network.
func (p *Params) Clone() *Params {
	clone := *p
	clone.BaseFee = model.CloneInt(p.BaseFee)
	clone.GenesisAllocs = append([]GenesisAlloc(nil), p.GenesisAllocs...)
	clone.Tokens = make(map[string]model.TokenID, len(p.Tokens))
	for symbol, id := range p.Tokens {
		clone.Tokens[symbol] = id
	}
	return &clone
}

func gwei(amount uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(ethparams.GWei))
}

var defaultTokens = map[string]model.TokenID{
	"DFI":  model.NativeTokenID,
	"BTC":  1,
	"ETH":  2,
	"USDT": 3,
	"DUSD": 15,
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:                     "mainnet",
	ChainID:                  1130,
	Bech32HRP:                "df",
	PubKeyHashAddrID:         0x12,
	NextNetworkUpgradeHeight: 3_462_000,
	BlockGasLimit:            defaultBlockGasLimit,
	BaseFee:                  gwei(defaultBaseFeeGwei),
	MaxTransactionsPerSender: defaultMaxTransactionsPerSender,
	TargetTimePerBlock:       defaultTargetTimePerBlock,
	GenesisTimestamp:         1587883831,
	Tokens:                   defaultTokens,
}

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name:                     "testnet",
	ChainID:                  1131,
	Bech32HRP:                "tf",
	PubKeyHashAddrID:         0x0f,
	NextNetworkUpgradeHeight: 1_150_000,
	BlockGasLimit:            defaultBlockGasLimit,
	BaseFee:                  gwei(defaultBaseFeeGwei),
	MaxTransactionsPerSender: defaultMaxTransactionsPerSender,
	TargetTimePerBlock:       defaultTargetTimePerBlock,
	GenesisTimestamp:         1586099762,
	Tokens:                   defaultTokens,
}

// RegressionNetParams defines the network parameters for the regression
// test network. The upgrade is active from the first block.
var RegressionNetParams = Params{
	Name:                     "regtest",
	ChainID:                  1133,
	Bech32HRP:                "bcrt",
	PubKeyHashAddrID:         0x6f,
	NextNetworkUpgradeHeight: 1,
	BlockGasLimit:            defaultBlockGasLimit,
	BaseFee:                  gwei(defaultBaseFeeGwei),
	MaxTransactionsPerSender: defaultMaxTransactionsPerSender,
	TargetTimePerBlock:       time.Second,
	GenesisTimestamp:         1579045065,
	Tokens:                   defaultTokens,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where a network name does not match
	// any registered network.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a network. This may error
// with ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsByName returns the registered network with the given name.
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&RegressionNetParams)
}
