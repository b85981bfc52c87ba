// Package money is the single normalization boundary for gateway prices.
// The hosted platform returns prices as raw strings, bare numbers, or
// {amount, currencyCode} objects depending on API version; everything the
// rest of the codebase sees has already passed through Normalize.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Price carries a normalized amount plus the currency the gateway reported.
type Price struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// Normalize converts any price shape the gateway may emit into a decimal.
// Null, absent, and non-numeric inputs normalize to zero; it never panics.
func Normalize(value any) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case Price:
		return v.Amount
	case *Price:
		if v == nil {
			return decimal.Zero
		}
		return v.Amount
	case string:
		return parseString(v)
	case json.Number:
		return parseString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case float32:
		return Normalize(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case map[string]any:
		if amount, ok := v["amount"]; ok {
			return Normalize(amount)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func parseString(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnmarshalJSON tolerates every price shape observed on the wire. Malformed
// shapes normalize to a zero amount rather than failing the whole decode.
func (p *Price) UnmarshalJSON(data []byte) error {
	p.Amount = decimal.Zero
	p.CurrencyCode = ""

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if structured, ok := raw.(map[string]any); ok {
		if code, ok := structured["currencyCode"].(string); ok {
			p.CurrencyCode = code
		} else if code, ok := structured["currency_code"].(string); ok {
			p.CurrencyCode = code
		}
	}

	p.Amount = Normalize(raw)
	return nil
}

// MarshalJSON always emits the structured shape.
func (p Price) MarshalJSON() ([]byte, error) {
	out := struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode,omitempty"`
	}{
		Amount:       p.Amount.StringFixed(2),
		CurrencyCode: p.CurrencyCode,
	}
	return json.Marshal(out)
}

// IsPositive reports whether the normalized amount is strictly above zero.
func (p Price) IsPositive() bool {
	return p.Amount.IsPositive()
}

// FromFloat builds a Price for tests and fixtures.
func FromFloat(amount float64) Price {
	return Price{Amount: decimal.NewFromFloat(amount)}
}
