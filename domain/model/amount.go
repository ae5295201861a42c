package model

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// TokenID identifies a token. TokenID 0 is the native token.
type TokenID uint32

// NativeTokenID is the id of the chain's native token.
const NativeTokenID TokenID = 0

const (
	// AmountDecimals is the number of decimal places of DVM amounts.
	AmountDecimals = 8

	// UnitsPerCoin is the number of DVM base units in one coin.
	UnitsPerCoin = 100_000_000

	// WeiPerUnit is the number of EVM wei in one DVM base unit.
	WeiPerUnit = 10_000_000_000
)

var weiPerUnit = uint256.NewInt(WeiPerUnit)

// TokenAmount is an amount of a single token, expressed in DVM base units.
type TokenAmount struct {
	Token  TokenID
	Amount *uint256.Int
}

// NewTokenAmount returns a TokenAmount of the given number of base units.
func NewTokenAmount(token TokenID, units uint64) TokenAmount {
	return TokenAmount{Token: token, Amount: uint256.NewInt(units)}
}

// Clone returns a deep copy of ta.
func (ta TokenAmount) Clone() TokenAmount {
	return TokenAmount{Token: ta.Token, Amount: CloneInt(ta.Amount)}
}

// Equal returns whether both amounts are of the same token and value.
func (ta TokenAmount) Equal(other TokenAmount) bool {
	return ta.Token == other.Token && CloneInt(ta.Amount).Eq(CloneInt(other.Amount))
}

func (ta TokenAmount) String() string {
	return fmt.Sprintf("%s@%d", FormatAmount(ta.Amount), ta.Token)
}

// CloneInt returns a copy of x, treating nil as zero.
func CloneInt(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}

// UnitsToWei converts DVM base units into EVM wei.
func UnitsToWei(units *uint256.Int) (*uint256.Int, error) {
	wei, overflow := new(uint256.Int).MulOverflow(CloneInt(units), weiPerUnit)
	if overflow {
		return nil, errors.Errorf("amount %s overflows when converted to wei", units)
	}
	return wei, nil
}

// WeiToUnits converts EVM wei into DVM base units, returning the remainder
// that is smaller than one unit.
func WeiToUnits(wei *uint256.Int) (units *uint256.Int, remainder *uint256.Int) {
	units, remainder = new(uint256.Int), new(uint256.Int)
	units.DivMod(CloneInt(wei), weiPerUnit, remainder)
	return units, remainder
}

// ParseAmount parses a decimal string with up to AmountDecimals fractional
// digits, such as "1.5", into DVM base units.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	whole, fraction := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		whole, fraction = s[:dot], s[dot+1:]
	}
	if len(fraction) > AmountDecimals {
		return nil, errors.Errorf("amount %s has more than %d decimal places", s, AmountDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + fraction + strings.Repeat("0", AmountDecimals-len(fraction))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, errors.Errorf("invalid amount %s", s)
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %s", s)
	}
	return amount, nil
}

// FormatAmount formats DVM base units as a decimal string with
// AmountDecimals fractional digits.
func FormatAmount(units *uint256.Int) string {
	digits := CloneInt(units).Dec()
	if len(digits) <= AmountDecimals {
		digits = strings.Repeat("0", AmountDecimals-len(digits)+1) + digits
	}
	split := len(digits) - AmountDecimals
	return digits[:split] + "." + digits[split:]
}
