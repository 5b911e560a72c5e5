package currency

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FxRate is how many base-currency units one unit of Currency costs.
type FxRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

var one = decimal.NewFromInt(1)

// RateFor returns the rate of code in table. A missing row, or a rate that
// is zero, negative or not finite, yields 1.
func RateFor(table []FxRate, code string) decimal.Decimal {
	code = strings.TrimSpace(code)
	for _, row := range table {
		if !strings.EqualFold(strings.TrimSpace(row.Currency), code) {
			continue
		}
		if math.IsNaN(row.Rate) || math.IsInf(row.Rate, 0) || row.Rate <= 0 {
			return one
		}
		return decimal.NewFromFloat(row.Rate)
	}
	return one
}

// Convert expresses a base-currency amount in code.
func Convert(amount int64, code string, table []FxRate) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(RateFor(table, code))
}
