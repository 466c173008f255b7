package currency

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of base units in one SOL.
const LamportsPerSOL = 1_000_000_000

type CurrencyUtils struct{}

func NewCurrencyUtils() *CurrencyUtils {
	return &CurrencyUtils{}
}

// BankersRound applies banker's rounding to a float64 dollar value and
// returns cents.
func (u *CurrencyUtils) BankersRound(value float64) int64 {
	cents := value * 100
	rounded := math.Round(cents)

	// Exactly halfway between two integers: round to nearest even.
	if math.Abs(cents-rounded) == 0.5 {
		if int64(rounded)%2 == 0 {
			return int64(rounded)
		}
		return int64(rounded) - 1
	}

	return int64(math.Round(cents))
}

// LamportsToSOL converts base units to whole SOL.
func (u *CurrencyUtils) LamportsToSOL(lamports int64) float64 {
	return float64(lamports) / float64(LamportsPerSOL)
}

// LamportsToUSDCents converts base units to USD cents at the given SOL/USD
// rate, using banker's rounding.
func (u *CurrencyUtils) LamportsToUSDCents(lamports int64, rate float64) int64 {
	return u.BankersRound(u.LamportsToSOL(lamports) * rate)
}

// LamportsToUSD converts base units to a USD float for client responses.
func (u *CurrencyUtils) LamportsToUSD(lamports int64, rate float64) float64 {
	return u.LamportsToSOL(lamports) * rate
}

// USDWireString renders the balance as the provider's two-decimal USD
// string. Decimal arithmetic keeps the wire value free of float drift.
func (u *CurrencyUtils) USDWireString(lamports int64, rate float64) string {
	sol := decimal.NewFromInt(lamports).Div(decimal.NewFromInt(LamportsPerSOL))
	return sol.Mul(decimal.NewFromFloat(rate)).StringFixed(2)
}

// CentsToDollars converts cents to dollars for display.
func (u *CurrencyUtils) CentsToDollars(cents int64) float64 {
	return float64(cents) / 100.0
}

// FormatUSD formats cents as a USD string.
func (u *CurrencyUtils) FormatUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", u.CentsToDollars(cents))
}
