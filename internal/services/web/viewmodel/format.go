package viewmodel

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatAmount renders a money amount with two decimals using the digit
// grouping of tag.
func FormatAmount(tag language.Tag, amount decimal.Decimal) string {
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}
