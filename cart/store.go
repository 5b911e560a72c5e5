// Package cart holds the per-visitor cart and wishlist collections.
//
// A Store owns its items; the Mirror it was opened with only receives a
// full copy after every mutation and is read once, when the store opens.
package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

// Policy selects how a line contributes to a collection total.
type Policy int

const (
	// PerUnit sums price*qty.
	PerUnit Policy = iota
	// PerPax sums price*pax*qty, for prices quoted per traveller.
	PerPax
)

func (p Policy) String() string {
	switch p {
	case PerPax:
		return "per_pax"
	default:
		return "per_unit"
	}
}

// Surface names a collection and the total policy its drawer displays.
type Surface struct {
	Name   string
	Policy Policy
}

var (
	// CartSurface totals price*qty.
	CartSurface = Surface{Name: "cart", Policy: PerUnit}
	// WishlistSurface totals price*pax*qty.
	WishlistSurface = Surface{Name: "wishlist", Policy: PerPax}
)

// Mirror is the durable copy of a collection, keyed by session.
type Mirror interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type Store struct {
	mu      sync.Mutex
	items   []Item
	mirror  Mirror
	key     string
	surface Surface
	log     *slog.Logger
}

// Open rehydrates the collection stored under key. A missing, unreadable
// or corrupt copy yields an empty collection.
func Open(ctx context.Context, mirror Mirror, key string, surface Surface, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		mirror:  mirror,
		key:     key,
		surface: surface,
		log:     log.With("surface", surface.Name),
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Item {
	if s.mirror == nil {
		return nil
	}
	data, err := s.mirror.Load(ctx, s.key)
	if err != nil {
		s.log.Warn("load persisted collection failed", slog.String("key", s.key), slog.Any("err", err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("discarding corrupt persisted collection", slog.String("key", s.key), slog.Any("err", err))
		return nil
	}

	// Coalesce duplicates a hand-edited copy may contain.
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = addTo(out, it.Normalized(), it.Qty)
	}
	return out
}

// persist writes the full collection. Failures are logged and dropped; the
// in-memory copy stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.mirror == nil {
		return
	}
	items := s.items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.log.Warn("encode collection failed", slog.Any("err", err))
		return
	}
	if err := s.mirror.Save(ctx, s.key, data); err != nil {
		s.log.Warn("persist collection failed", slog.String("key", s.key), slog.Any("err", err))
	}
}

func (s *Store) Key() string { return s.key }

func (s *Store) Surface() Surface { return s.surface }

// AddItem appends item, or adds item.Qty (default 1) to the existing entry
// with the same ID.
func (s *Store) AddItem(ctx context.Context, item Item) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = item.Normalized()
	s.items = addTo(s.items, item, item.Qty)
	s.persist(ctx)
	return s.snapshot()
}

func addTo(items []Item, item Item, qty int) []Item {
	qty = min(max(qty, 1), MaxQty)
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Qty = min(items[i].Qty+qty, MaxQty)
			return items
		}
	}
	if item.Pax < 1 {
		item.Pax = 1
	}
	item.Qty = qty
	return append(items, item)
}

// RemoveItem drops the entry with the given ID. Removing an absent ID is a
// no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	s.items = out
	s.persist(ctx)
	return s.snapshot()
}

// SetQty replaces the quantity of an existing entry, capped at MaxQty; qty
// below 1 removes it.
func (s *Store) SetQty(ctx context.Context, id string, qty int) []Item {
	if qty < 1 {
		return s.RemoveItem(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Qty = min(qty, MaxQty)
			s.persist(ctx)
			break
		}
	}
	return s.snapshot()
}

// Merge folds other into the collection, summing quantities per ID.
func (s *Store) Merge(ctx context.Context, other []Item) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range other {
		it = it.Normalized()
		s.items = addTo(s.items, it, it.Qty)
	}
	s.persist(ctx)
	return s.snapshot()
}

func (s *Store) Clear(ctx context.Context) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
	return s.snapshot()
}

// Items returns a copy of the collection.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += int(it.EffectiveQty())
	}
	return n
}

// Total sums the collection with the surface's policy.
func (s *Store) Total() int64 {
	return s.TotalBy(s.surface.Policy)
}

func (s *Store) TotalBy(p Policy) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items, p)
}

// Total sums items with the given policy. Sums saturate at math.MaxInt64.
func Total(items []Item, p Policy) int64 {
	var total int64
	for _, it := range items {
		total = addCapped(total, LineTotal(it, p))
	}
	return total
}

func LineTotal(it Item, p Policy) int64 {
	it = it.Normalized()
	switch p {
	case PerPax:
		return mulCapped(mulCapped(it.Price, it.EffectivePax()), it.EffectiveQty())
	default:
		return mulCapped(it.Price, it.EffectiveQty())
	}
}

// mulCapped and addCapped take non-negative operands.
func mulCapped(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

func addCapped(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
