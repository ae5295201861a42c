// Package addressformat classifies DVM and EVM address encodings and checks
// whether addresses in different encodings belong to the same key.
package addressformat

import (
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/model"
)

// Format is the encoding of an address.
type Format string

// The address formats known to the transfer-domain policy.
const (
	FormatUnknown Format = ""
	FormatBech32  Format = "bech32"
	FormatP2PKH   Format = "p2pkh"
	FormatERC55   Format = "erc55"
)

const (
	hash160Size        = 20
	witnessVersionZero = 0
)

// DVMFormats are the formats of DVM addresses.
var DVMFormats = []Format{FormatBech32, FormatP2PKH}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatBech32, FormatP2PKH, FormatERC55:
		return Format(s), nil
	}
	return FormatUnknown, errors.Errorf("unknown address format %q", s)
}

// AuthPairing returns the name of the ownership proof that ties a DVM
// address of the given format to an erc55 address of the same key, such as
// "bech32-erc55".
func AuthPairing(dvmFormat Format) string {
	return string(dvmFormat) + "-" + string(FormatERC55)
}

// ParseAuthPairing validates an auth pairing name and returns the DVM format
// it pairs with erc55.
func ParseAuthPairing(s string) (Format, error) {
	suffix := "-" + string(FormatERC55)
	if !strings.HasSuffix(s, suffix) {
		return FormatUnknown, errors.Errorf("unknown auth format %q", s)
	}
	format, err := ParseFormat(strings.TrimSuffix(s, suffix))
	if err != nil || format == FormatERC55 {
		return FormatUnknown, errors.Errorf("unknown auth format %q", s)
	}
	return format, nil
}

// Classify returns the format of address on the given network, or
// FormatUnknown if the address is malformed for its domain.
func Classify(params *chainparams.Params, address model.Address) Format {
	switch address.Domain {
	case model.DomainEVM:
		if common.IsHexAddress(address.Value) {
			return FormatERC55
		}
	case model.DomainDVM:
		if isBech32PubKeyHash(params, address.Value) {
			return FormatBech32
		}
		if isBase58PubKeyHash(params, address.Value) {
			return FormatP2PKH
		}
	}
	return FormatUnknown
}

func isBech32PubKeyHash(params *chainparams.Params, encoded string) bool {
	hrp, data, err := bech32.Decode(encoded)
	if err != nil || hrp != params.Bech32HRP || len(data) == 0 || data[0] != witnessVersionZero {
		return false
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	return err == nil && len(program) == hash160Size
}

func isBase58PubKeyHash(params *chainparams.Params, encoded string) bool {
	payload, version, err := base58.CheckDecode(encoded)
	return err == nil && version == params.PubKeyHashAddrID && len(payload) == hash160Size
}

// Bech32Address returns the native segwit pubkey-hash address of pubKey.
func Bech32Address(params *chainparams.Params, pubKey []byte) (model.Address, error) {
	if _, err := crypto.DecompressPubkey(pubKey); err != nil {
		return model.Address{}, errors.Wrap(err, "invalid public key")
	}
	converted, err := bech32.ConvertBits(btcutil.Hash160(pubKey), 8, 5, true)
	if err != nil {
		return model.Address{}, errors.WithStack(err)
	}
	encoded, err := bech32.Encode(params.Bech32HRP, append([]byte{witnessVersionZero}, converted...))
	if err != nil {
		return model.Address{}, errors.WithStack(err)
	}
	return model.NewDVMAddress(encoded), nil
}

// P2PKHAddress returns the base58check pay-to-pubkey-hash address of pubKey.
func P2PKHAddress(params *chainparams.Params, pubKey []byte) (model.Address, error) {
	if _, err := crypto.DecompressPubkey(pubKey); err != nil {
		return model.Address{}, errors.Wrap(err, "invalid public key")
	}
	return model.NewDVMAddress(base58.CheckEncode(btcutil.Hash160(pubKey), params.PubKeyHashAddrID)), nil
}

// ERC55Address returns the EVM address of pubKey.
func ERC55Address(pubKey []byte) (model.Address, error) {
	publicKey, err := crypto.DecompressPubkey(pubKey)
	if err != nil {
		return model.Address{}, errors.Wrap(err, "invalid public key")
	}
	return model.NewEVMAddress(crypto.PubkeyToAddress(*publicKey)), nil
}

// AddressForFormat derives the address of pubKey in the given format.
func AddressForFormat(params *chainparams.Params, format Format, pubKey []byte) (model.Address, error) {
	switch format {
	case FormatBech32:
		return Bech32Address(params, pubKey)
	case FormatP2PKH:
		return P2PKHAddress(params, pubKey)
	case FormatERC55:
		return ERC55Address(pubKey)
	}
	return model.Address{}, errors.Errorf("cannot derive an address of format %q", format)
}

// MatchesKey returns whether address is the encoding of pubKey in the
// address's own format.
func MatchesKey(params *chainparams.Params, address model.Address, pubKey []byte) bool {
	format := Classify(params, address)
	if format == FormatUnknown {
		return false
	}
	derived, err := AddressForFormat(params, format, pubKey)
	if err != nil {
		return false
	}
	return derived == address.Canonical()
}
