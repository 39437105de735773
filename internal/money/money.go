package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies whose remote amounts are already whole units.
var zeroDecimal = map[string]struct{}{
	"JPY": {},
	"KRW": {},
}

var hundred = decimal.NewFromInt(100)

// IsZeroDecimal reports whether amounts in currency carry no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimal[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// ToAmount converts an integer amount as sent by the source API into a
// decimal value in the given currency.
func ToAmount(currency string, value int64) decimal.Decimal {
	amount := decimal.NewFromInt(value)
	if IsZeroDecimal(currency) {
		return amount
	}
	return amount.Div(hundred)
}

// Sum adds values. An empty input sums to zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
