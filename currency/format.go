// Package currency renders base-currency prices in a visitor's display
// currency and locale.
package currency

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	xcurrency "golang.org/x/text/currency"
)

const (
	// BaseCurrency denominates every stored price. It has no fractional
	// subunit.
	BaseCurrency  = "IDR"
	DefaultLocale = "id-ID"
)

// Formatter holds the locale rule table. The zero value is not usable; use
// NewFormatter.
type Formatter struct {
	rules         map[string]Rules
	base          string
	defaultLocale string
}

// NewFormatter merges overrides over DefaultRules.
func NewFormatter(overrides map[string]Rules) *Formatter {
	rules := DefaultRules()
	for lang, r := range overrides {
		rules[strings.ToLower(lang)] = r
	}
	return &Formatter{rules: rules, base: BaseCurrency, defaultLocale: DefaultLocale}
}

var defaultFormatter = NewFormatter(nil)

// Format renders amount, held in the base currency, in target for locale
// using the default rule table.
func Format(amount int64, target string, table []FxRate, locale string) string {
	return defaultFormatter.Format(amount, target, table, locale)
}

// Format converts amount with the table rate for target and renders it
// with the locale's separators, symbol and pattern.
func (f *Formatter) Format(amount int64, target string, table []FxRate, locale string) string {
	if strings.TrimSpace(locale) == "" {
		locale = f.defaultLocale
	}
	code := strings.ToUpper(strings.TrimSpace(target))
	if code == "" {
		code = f.base
	}

	digits := f.digits(code)
	value := Convert(amount, code, table).Round(int32(digits))

	r := f.rulesFor(locale)
	return render(r, r.symbol(code), value, digits)
}

// Digits is the number of fractional digits code is displayed with.
func (f *Formatter) Digits(code string) int {
	return f.digits(strings.ToUpper(strings.TrimSpace(code)))
}

func (f *Formatter) digits(code string) int {
	if code == f.base {
		return 0
	}
	unit, err := xcurrency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := xcurrency.Standard.Rounding(unit)
	return scale
}

func (f *Formatter) rulesFor(locale string) Rules {
	if r, ok := f.rules[baseLanguage(locale)]; ok {
		return r
	}
	return f.rules[baseLanguage(f.defaultLocale)]
}

func render(r Rules, symbol string, value decimal.Decimal, digits int) string {
	neg := value.IsNegative()
	text := value.Abs().StringFixed(int32(digits))

	intPart, frac, _ := strings.Cut(text, ".")
	amount := group(intPart, r.ThousandSep)
	if frac != "" {
		amount += r.DecimalSep + frac
	}
	if neg {
		amount = "-" + amount
	}

	pattern := r.Pattern
	if pattern == "" {
		pattern = "{symbol} {amount}"
	}
	// Letter-final symbols such as "IDR" need a gap before the digits.
	if strings.Contains(pattern, "{symbol}{amount}") {
		if last, _ := utf8.DecodeLastRuneInString(symbol); unicode.IsLetter(last) {
			symbol += " "
		}
	}
	return strings.NewReplacer("{symbol}", symbol, "{amount}", amount).Replace(pattern)
}

func group(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
