package transferdomain

import (
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/attributes"
)

// Policy is the governance policy of one transfer direction.
type Policy struct {
	Enabled       bool
	SrcFormats    []addressformat.Format
	DestFormats   []addressformat.Format
	AuthFormats   []string
	NativeEnabled bool
	DATEnabled    bool
}

// PolicyFor reads the policy of direction from snapshot.
func PolicyFor(snapshot *attributes.Snapshot, direction attributes.Direction) *Policy {
	return &Policy{
		Enabled:       snapshot.Bool(attributes.TransferDomainKey(direction, attributes.FieldEnabled)),
		SrcFormats:    formats(snapshot.List(attributes.TransferDomainKey(direction, attributes.FieldSrcFormats))),
		DestFormats:   formats(snapshot.List(attributes.TransferDomainKey(direction, attributes.FieldDestFormats))),
		AuthFormats:   snapshot.List(attributes.TransferDomainKey(direction, attributes.FieldAuthFormats)),
		NativeEnabled: snapshot.Bool(attributes.TransferDomainKey(direction, attributes.FieldNativeEnabled)),
		DATEnabled:    snapshot.Bool(attributes.TransferDomainKey(direction, attributes.FieldDATEnabled)),
	}
}

func formats(names []string) []addressformat.Format {
	result := make([]addressformat.Format, 0, len(names))
	for _, name := range names {
		result = append(result, addressformat.Format(name))
	}
	return result
}

func (p *Policy) allowsSrc(format addressformat.Format) bool {
	return containsFormat(p.SrcFormats, format)
}

func (p *Policy) allowsDest(format addressformat.Format) bool {
	return containsFormat(p.DestFormats, format)
}

func (p *Policy) allowsAuth(pairing string) bool {
	for _, allowed := range p.AuthFormats {
		if allowed == pairing {
			return true
		}
	}
	return false
}

func containsFormat(allowed []addressformat.Format, format addressformat.Format) bool {
	for _, candidate := range allowed {
		if candidate == format {
			return true
		}
	}
	return false
}
