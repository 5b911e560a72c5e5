package currency

import "strings"

// Display is the currency and locale prices are shown in.
type Display struct {
	Currency string `json:"currency" yaml:"currency"`
	Locale   string `json:"locale" yaml:"locale"`
}

// DisplayTable maps a UI language to its Display. Languages without an
// entry use the fallback.
type DisplayTable struct {
	entries  map[string]Display
	fallback Display
}

func DefaultDisplayTable() DisplayTable {
	return DisplayTable{
		entries: map[string]Display{
			"ja": {Currency: "JPY", Locale: "ja-JP"},
			"en": {Currency: "USD", Locale: "en-US"},
		},
		fallback: Display{Currency: BaseCurrency, Locale: DefaultLocale},
	}
}

// With returns a copy of t where lang resolves to d.
func (t DisplayTable) With(lang string, d Display) DisplayTable {
	out := t.clone()
	key := baseLanguage(lang)
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(lang))
	}
	out.entries[key] = d
	return out
}

// WithFallback returns a copy of t whose unmatched languages resolve to d.
func (t DisplayTable) WithFallback(d Display) DisplayTable {
	out := t.clone()
	out.fallback = d
	return out
}

func (t DisplayTable) clone() DisplayTable {
	entries := make(map[string]Display, len(t.entries)+1)
	for k, v := range t.entries {
		entries[k] = v
	}
	return DisplayTable{entries: entries, fallback: t.fallback}
}

func (t DisplayTable) Resolve(lang string) Display {
	if d, ok := t.entries[baseLanguage(lang)]; ok {
		return d
	}
	return t.fallback
}

func (t DisplayTable) Fallback() Display { return t.fallback }
