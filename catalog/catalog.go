// Package catalog resolves tour packages and page sections for a visitor's
// language and keeps read-through copies of them fresh.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultLang is tried when a record has no text in the active language.
const DefaultLang = "id"

var (
	ErrNotFound = errors.New("not found")
	ErrNoPrice  = errors.New("no price tier")
)

const (
	AudienceDomestic = "domestic"
	AudienceForeign  = "foreign"
)

type PriceTier struct {
	Pax      int    `json:"pax"`
	Audience string `json:"audience"`
	Price    int64  `json:"price"`
}

type PackageText struct {
	Lang      string   `json:"lang"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Spots     []string `json:"spots"`
	Itinerary []string `json:"itinerary"`
	Included  []string `json:"included"`
	Notes     string   `json:"notes"`
}

type Package struct {
	ID           string        `json:"id"`
	IsActive     bool          `json:"is_active"`
	DefaultImage string        `json:"default_image"`
	Prices       []PriceTier   `json:"prices"`
	Texts        []PackageText `json:"texts"`
}

// PriceFor returns the tier quoted for exactly pax travellers of audience.
func (p Package) PriceFor(pax int, audience string) (PriceTier, bool) {
	for _, tier := range p.Prices {
		if tier.Pax == pax && strings.EqualFold(tier.Audience, audience) {
			return tier, true
		}
	}
	return PriceTier{}, false
}

// Quote is the tier a booking of pax travellers of audience is charged at.
// pax below 1 counts as 1 and an empty audience as domestic.
func (p Package) Quote(pax int, audience string) (PriceTier, error) {
	pax = max(pax, 1)
	audience = strings.ToLower(strings.TrimSpace(audience))
	if audience == "" {
		audience = AudienceDomestic
	}
	tier, ok := p.PriceFor(pax, audience)
	if !ok {
		return PriceTier{}, fmt.Errorf("%w for %d pax (%s) on package %q", ErrNoPrice, pax, audience, p.ID)
	}
	return tier, nil
}

// FromPrice is the lowest tier for audience, or across all tiers when
// audience is empty.
func (p Package) FromPrice(audience string) (PriceTier, bool) {
	var (
		best  PriceTier
		found bool
	)
	for _, tier := range p.Prices {
		if audience != "" && !strings.EqualFold(tier.Audience, audience) {
			continue
		}
		if !found || tier.Price < best.Price {
			best, found = tier, true
		}
	}
	return best, found
}

type SectionText struct {
	Lang  string         `json:"lang"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Extra map[string]any `json:"extra,omitempty"`
}

type Section struct {
	Page      string        `json:"page"`
	Key       string        `json:"key"`
	SortOrder int           `json:"sort_order"`
	Texts     []SectionText `json:"texts"`
}

// Source reads catalog records from the backend.
type Source interface {
	ListPackages(ctx context.Context) ([]Package, error)
	ListSections(ctx context.Context, page string) ([]Section, error)
}

// Subscription delivers change signals until Unsubscribe is called.
type Subscription interface {
	OnChange(fn func())
	Unsubscribe() error
}

// Notifier opens subscriptions to remote catalog changes.
type Notifier interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// PickLocale returns the variant in lang, else in fallback, else the first
// one. ok is false only when variants is empty.
func PickLocale[T any](variants []T, langOf func(T) string, lang, fallback string) (v T, ok bool) {
	if len(variants) == 0 {
		return v, false
	}
	for _, want := range []string{lang, fallback} {
		want = normalizeLang(want)
		if want == "" {
			continue
		}
		for _, candidate := range variants {
			if normalizeLang(langOf(candidate)) == want {
				return candidate, true
			}
		}
	}
	return variants[0], true
}

// normalizeLang keeps the primary subtag: "en-US" and "EN" both become "en".
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// LocalizedPackage is a package with its text resolved for one language.
type LocalizedPackage struct {
	ID           string      `json:"id"`
	IsActive     bool        `json:"is_active"`
	DefaultImage string      `json:"default_image"`
	Prices       []PriceTier `json:"prices"`
	PackageText
}

func (p LocalizedPackage) Quote(pax int, audience string) (PriceTier, error) {
	return Package{ID: p.ID, Prices: p.Prices}.Quote(pax, audience)
}

func Localize(p Package, lang string) LocalizedPackage {
	text, _ := PickLocale(p.Texts, func(t PackageText) string { return t.Lang }, lang, DefaultLang)
	return LocalizedPackage{
		ID:           p.ID,
		IsActive:     p.IsActive,
		DefaultImage: p.DefaultImage,
		Prices:       p.Prices,
		PackageText:  text,
	}
}

type LocalizedSection struct {
	Page      string `json:"page"`
	Key       string `json:"key"`
	SortOrder int    `json:"sort_order"`
	SectionText
}

func LocalizeSection(s Section, lang string) LocalizedSection {
	text, _ := PickLocale(s.Texts, func(t SectionText) string { return t.Lang }, lang, DefaultLang)
	return LocalizedSection{Page: s.Page, Key: s.Key, SortOrder: s.SortOrder, SectionText: text}
}

// LocalizeSections resolves and orders sections by sort order, then key.
func LocalizeSections(sections []Section, lang string) []LocalizedSection {
	out := make([]LocalizedSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, LocalizeSection(s, lang))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Key < out[j].Key
	})
	return out
}
