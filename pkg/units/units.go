package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

var ErrInvalidAmount = errors.New("units: invalid amount")

// ParseEther converts "1.5" (ether) into wei.
func ParseEther(s string) (*big.Int, error) {
	return parseUnits(s, EtherDecimals)
}

// ParseGwei converts "30" (gwei) into wei.
func ParseGwei(s string) (*big.Int, error) {
	return parseUnits(s, GweiDecimals)
}

// FormatEther renders wei as an ether amount without trailing zeros.
func FormatEther(wei *big.Int) string {
	return formatUnits(wei, EtherDecimals)
}

// FormatGwei renders wei as a gwei amount without trailing zeros.
func FormatGwei(wei *big.Int) string {
	return formatUnits(wei, GweiDecimals)
}

// parseUnits 金额 * 10^decimals，结果必须是非负整数
func parseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	wei := d.Shift(decimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	return wei.BigInt(), nil
}

func formatUnits(wei *big.Int, decimals int32) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -decimals).String()
}
