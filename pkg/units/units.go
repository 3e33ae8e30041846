// Package units converts between integer base units and decimal display strings.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the decimal count of the chain's native currency
const EtherDecimals int32 = 18

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrExcessPrecision = errors.New("amount has more decimals than the currency allows")
)

// FormatUnits renders amount (in base units) as a minimal decimal string.
// 1500000000000000000 with 18 decimals is "1.5"; nil is "0".
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits is the inverse of FormatUnits.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("parse amount: empty value")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrExcessPrecision
	}
	return scaled.BigInt(), nil
}

// FormatEther formats wei as ether
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// ParseEther parses an ether amount into wei
func ParseEther(value string) (*big.Int, error) {
	return ParseUnits(value, EtherDecimals)
}

// WithSymbol appends the currency symbol with a single space
func WithSymbol(amount, symbol string) string {
	return amount + " " + symbol
}

// StripSymbol removes a trailing " SYMBOL" from a display price
func StripSymbol(display, symbol string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(display), " "+symbol))
}
