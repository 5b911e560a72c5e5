package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Item is one line of a cart or wishlist. Price is in the base currency,
// which has no fractional subunit.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Pax      int    `json:"pax"`
	Qty      int    `json:"qty"`
	Audience string `json:"audience,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Upper bounds of the multipliers of one line.
const (
	MaxQty = 999
	MaxPax = 99
)

// Normalized returns a copy with negative numeric fields clamped to 0 and
// pax and qty capped at MaxPax and MaxQty.
func (it Item) Normalized() Item {
	it.Price = max(it.Price, 0)
	it.Pax = min(max(it.Pax, 0), MaxPax)
	it.Qty = min(max(it.Qty, 0), MaxQty)
	return it
}

// EffectivePax is the party size used as a multiplier, never below 1.
func (it Item) EffectivePax() int64 {
	if it.Pax < 1 {
		return 1
	}
	return int64(it.Pax)
}

// EffectiveQty is the quantity used as a multiplier, never below 1.
func (it Item) EffectiveQty() int64 {
	if it.Qty < 1 {
		return 1
	}
	return int64(it.Qty)
}

// UnmarshalJSON accepts the numeric fields as numbers, numeric strings or
// null. Anything that does not parse to a finite non-negative number
// becomes 0, so a partly corrupted entry is kept instead of rejected.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Title    string          `json:"title"`
		Price    json.RawMessage `json:"price"`
		Pax      json.RawMessage `json:"pax"`
		Qty      json.RawMessage `json:"qty"`
		Audience string          `json:"audience"`
		Image    string          `json:"image"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*it = Item{
		ID:    coerceID(raw.ID),
		Title: raw.Title,
		Price: coerceInt(raw.Price),
		Pax:   int(coerceInt(raw.Pax)),
		Qty:   int(coerceInt(raw.Qty)),

		Audience: raw.Audience,
		Image:    raw.Image,
	}
	return nil
}

// maxExactFloat is the largest integer a float64 holds without loss.
const maxExactFloat = 1 << 53

func coerceID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// numeric ids written by older clients
	return string(raw)
}

func coerceInt(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > maxExactFloat {
		return maxExactFloat
	}
	return int64(f)
}
