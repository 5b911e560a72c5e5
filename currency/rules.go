package currency

import (
	"strings"

	"golang.org/x/text/language"
)

// Rules describe how one language renders a currency amount.
type Rules struct {
	// Pattern uses the placeholders {symbol} and {amount}.
	Pattern     string            `yaml:"pattern"`
	DecimalSep  string            `yaml:"decimal_separator"`
	ThousandSep string            `yaml:"thousand_separator"`
	Symbols     map[string]string `yaml:"symbols"`
}

// symbols used when a language has no entry of its own.
var defaultSymbols = map[string]string{
	"IDR": "Rp",
	"USD": "US$",
	"JPY": "¥",
	"EUR": "€",
	"GBP": "£",
	"AUD": "A$",
	"SGD": "S$",
}

// DefaultRules is keyed by base language. The "id" row doubles as the
// fallback for languages without a row.
func DefaultRules() map[string]Rules {
	return map[string]Rules{
		"id": {
			Pattern:     "{symbol} {amount}",
			DecimalSep:  ",",
			ThousandSep: ".",
			Symbols:     map[string]string{"IDR": "Rp"},
		},
		"en": {
			Pattern:     "{symbol}{amount}",
			DecimalSep:  ".",
			ThousandSep: ",",
			Symbols:     map[string]string{"USD": "$", "IDR": "IDR"},
		},
		"ja": {
			Pattern:     "{symbol}{amount}",
			DecimalSep:  ".",
			ThousandSep: ",",
			Symbols:     map[string]string{"JPY": "￥", "USD": "$", "IDR": "IDR"},
		},
	}
}

func (r Rules) symbol(code string) string {
	if s, ok := r.Symbols[code]; ok && s != "" {
		return s
	}
	if s, ok := defaultSymbols[code]; ok {
		return s
	}
	return code
}

// baseLanguage reduces "en-US", "en_us" or "EN" to "en". Unparseable input
// yields "".
func baseLanguage(locale string) string {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
