package model

import "fmt"

// VMDomain identifies which of the two ledgers an address or balance
// belongs to.
type VMDomain uint8

// The supported ledger domains. The values match the wire encoding used by
// transfer-domain messages.
const (
	DomainDVM VMDomain = 2
	DomainEVM VMDomain = 3
)

var domainStrings = map[VMDomain]string{
	DomainDVM: "DVM",
	DomainEVM: "EVM",
}

// String returns the VMDomain in human-readable form.
func (d VMDomain) String() string {
	if s, ok := domainStrings[d]; ok {
		return s
	}
	return fmt.Sprintf("Unknown VMDomain (%d)", uint8(d))
}

// IsValid returns whether d is one of the supported domains.
func (d VMDomain) IsValid() bool {
	_, ok := domainStrings[d]
	return ok
}
