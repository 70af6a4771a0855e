package cmn

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Placeholder is shown for values that have not been read yet.
const Placeholder = "--"

const Decimals = 18

var (
	ErrAmountEmpty       = errors.New("enter an amount")
	ErrAmountInvalid     = errors.New("amount is not a number")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountPrecision   = errors.New("too many decimal places")
)

// FormatBalance renders a decimal string with a fixed number of fraction
// digits (2 by default), rounding half to even. Anything that does not
// parse as a number renders as "0".
func FormatBalance(value string, decimals ...int) string {
	d := int32(2)
	if len(decimals) > 0 && decimals[0] >= 0 {
		d = int32(decimals[0])
	}

	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "0"
	}
	return v.RoundBank(d).StringFixed(d)
}

// FormatUnits is the exact decimal string of v scaled down by decimals.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrAmountEmpty
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrAmountInvalid
	}
	if d.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	if !d.Equal(d.Truncate(int32(decimals))) {
		return nil, ErrAmountPrecision
	}

	return d.Shift(int32(decimals)).BigInt(), nil
}

// DisplayAmount formats an 18-decimal on-chain value, or the placeholder
// when the value is still unknown.
func DisplayAmount(v *big.Int, known bool) string {
	if !known || v == nil {
		return Placeholder
	}
	return FormatBalance(FormatUnits(v, Decimals))
}

func ShortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "..." + h[len(h)-4:]
}
