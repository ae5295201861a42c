package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a domain-qualified account identifier. DVM addresses keep
// their encoded string form (bech32 or base58check), EVM addresses are kept
// in their erc55 checksummed hex form so that equal accounts compare equal.
type Address struct {
	Domain VMDomain
	Value  string
}

// NewDVMAddress returns the DVM address with the given encoded form.
func NewDVMAddress(encoded string) Address {
	return Address{Domain: DomainDVM, Value: encoded}
}

// NewEVMAddress returns the EVM address of the given account.
func NewEVMAddress(address common.Address) Address {
	return Address{Domain: DomainEVM, Value: address.Hex()}
}

// EVM returns the EVM account of an EVM address. The result is the zero
// address for DVM addresses.
func (a Address) EVM() common.Address {
	if a.Domain != DomainEVM {
		return common.Address{}
	}
	return common.HexToAddress(a.Value)
}

// Canonical returns a normalized copy of a. EVM addresses given in any hex
// casing are converted to their checksummed form.
func (a Address) Canonical() Address {
	if a.Domain == DomainEVM && common.IsHexAddress(a.Value) {
		return NewEVMAddress(common.HexToAddress(a.Value))
	}
	return a
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.Domain, a.Value)
}
