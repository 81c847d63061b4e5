package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/shopspring/decimal"
)

// Locale selects the rendering language for report amounts. French is the
// default for the back office; English is available for exports.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"
)

func (l Locale) tag() language.Tag {
	if l == LocaleEN {
		return language.English
	}
	return language.French
}

// formatAmount renders a decimal with locale digit grouping and the dinar
// suffix, e.g. "12 500,50 DA" in French.
func formatAmount(l Locale, amount decimal.Decimal) string {
	p := message.NewPrinter(l.tag())
	f, _ := amount.Float64()
	return p.Sprintf("%v DA", number.Decimal(f, number.MaxFractionDigits(2)))
}
