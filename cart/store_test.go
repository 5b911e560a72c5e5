package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"tourbook/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingMirror struct {
	loadErr error
	saveErr error
	saves   int
}

func (m *failingMirror) Load(context.Context, string) ([]byte, error) { return nil, m.loadErr }

func (m *failingMirror) Save(context.Context, string, []byte) error {
	m.saves++
	return m.saveErr
}

func TestAddItemCoalescesByID(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory(), "cart:1", CartSurface, quiet)

	s.AddItem(ctx, Item{ID: "p1", Title: "Tour A", Price: 250000, Qty: 1})
	items := s.AddItem(ctx, Item{ID: "p1", Title: "Tour A", Price: 250000, Qty: 2})

	if len(items) != 1 {
		t.Fatalf("expected 1 line, got %d: %+v", len(items), items)
	}
	if items[0].Qty != 3 || items[0].Price != 250000 {
		t.Fatalf("got %+v", items[0])
	}
	if got := s.Total(); got != 750000 {
		t.Fatalf("cart total = %d, want 750000", got)
	}
}

func TestAddItemQtyDefaultsToOne(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, nil, "k", CartSurface, quiet)

	const calls = 5
	for i := 0; i < calls; i++ {
		s.AddItem(ctx, Item{ID: "p1", Price: 10})
	}
	s.AddItem(ctx, Item{ID: "p1", Price: 10, Qty: 4})

	items := s.Items()
	if len(items) != 1 || items[0].Qty != calls+4 {
		t.Fatalf("got %+v", items)
	}
	if items[0].Pax != 1 {
		t.Fatalf("pax should default to 1, got %d", items[0].Pax)
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory(), "k", CartSurface, quiet)
	s.AddItem(ctx, Item{ID: "p1", Price: 1})
	s.AddItem(ctx, Item{ID: "p2", Price: 2})

	t.Run("absent id is a no-op", func(t *testing.T) {
		before := s.Items()
		after := s.RemoveItem(ctx, "nope")
		if !reflect.DeepEqual(before, after) {
			t.Fatalf("before %+v, after %+v", before, after)
		}
	})

	t.Run("present id", func(t *testing.T) {
		items := s.RemoveItem(ctx, "p1")
		if len(items) != 1 || items[0].ID != "p2" {
			t.Fatalf("got %+v", items)
		}
	})
}

func TestClearPersistsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := Open(ctx, kv, "cart:1", CartSurface, quiet)
	s.AddItem(ctx, Item{ID: "p1", Price: 1})

	if items := s.Clear(ctx); len(items) != 0 {
		t.Fatalf("got %+v", items)
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d", s.Len())
	}

	reloaded := Open(ctx, kv, "cart:1", CartSurface, quiet)
	if reloaded.Len() != 0 {
		t.Fatalf("reloaded %+v", reloaded.Items())
	}
	raw, _ := kv.Load(ctx, "cart:1")
	if string(raw) != "[]" {
		t.Fatalf("persisted %q, want []", raw)
	}
}

func TestReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := storage.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	s := Open(ctx, kv, "wishlist:abc", WishlistSurface, quiet)
	s.AddItem(ctx, Item{ID: "p1", Title: "Bromo Sunrise", Price: 250000, Pax: 2, Qty: 1, Image: "/uploads/bromo.jpg"})
	s.AddItem(ctx, Item{ID: "p2", Title: "Ijen Blue Fire", Price: 400000, Pax: 4, Qty: 2})
	want := s.Items()

	got := Open(ctx, kv, "wishlist:abc", WishlistSurface, quiet).Items()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded %+v, want %+v", got, want)
	}
}

func TestCorruptStateDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":   "{{{",
		"object":     `{"id":"p1"}`,
		"number row": `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := storage.NewMemory()
			_ = kv.Save(ctx, "k", []byte(raw))
			s := Open(ctx, kv, "k", CartSurface, quiet)
			if s.Len() != 0 {
				t.Fatalf("got %+v", s.Items())
			}
		})
	}

	t.Run("load error", func(t *testing.T) {
		s := Open(ctx, &failingMirror{loadErr: errors.New("quota")}, "k", CartSurface, quiet)
		if s.Len() != 0 {
			t.Fatalf("got %+v", s.Items())
		}
	})
}

func TestMalformedNumbersAreCoerced(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	raw := `[
		{"id":"p1","title":"A","price":"250000","pax":null,"qty":"2"},
		{"id":"p2","title":"B","price":-5,"pax":"x","qty":0},
		{"id":7,"title":"C","price":100.9,"pax":3,"qty":1}
	]`
	_ = kv.Save(ctx, "k", []byte(raw))

	s := Open(ctx, kv, "k", CartSurface, quiet)
	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("got %+v", items)
	}
	if items[0].Price != 250000 || items[0].Qty != 2 || items[0].Pax != 1 {
		t.Fatalf("p1 = %+v", items[0])
	}
	if items[1].Price != 0 || items[1].Qty != 1 {
		t.Fatalf("p2 = %+v", items[1])
	}
	if items[2].ID != "7" || items[2].Price != 100 {
		t.Fatalf("p3 = %+v", items[2])
	}
	if got := s.Total(); got != 250000*2+0+100 {
		t.Fatalf("total = %d", got)
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	m := &failingMirror{saveErr: errors.New("quota exceeded")}
	s := Open(ctx, m, "k", CartSurface, quiet)

	items := s.AddItem(ctx, Item{ID: "p1", Price: 5, Qty: 2})
	if len(items) != 1 || s.Total() != 10 {
		t.Fatalf("got %+v total %d", items, s.Total())
	}
	if m.saves != 1 {
		t.Fatalf("expected one write attempt, got %d", m.saves)
	}
}

func TestTotalPolicies(t *testing.T) {
	items := []Item{{ID: "p1", Price: 250000, Pax: 2, Qty: 1}}

	if got := Total(items, PerUnit); got != 250000 {
		t.Fatalf("per unit = %d", got)
	}
	if got := Total(items, PerPax); got != 500000 {
		t.Fatalf("per pax = %d", got)
	}

	t.Run("zero pax and qty floor at one", func(t *testing.T) {
		got := Total([]Item{{Price: 100, Pax: 0, Qty: 0}}, PerPax)
		if got != 100 {
			t.Fatalf("got %d", got)
		}
	})
}

func TestWishlistSurfaceUsesPerPax(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, nil, "k", WishlistSurface, quiet)
	s.AddItem(ctx, Item{ID: "p1", Price: 250000, Pax: 2, Qty: 1})

	if got := s.Total(); got != 500000 {
		t.Fatalf("wishlist total = %d", got)
	}
	if got := s.TotalBy(PerUnit); got != 250000 {
		t.Fatalf("cart-policy total = %d", got)
	}
}

func TestSetQtyAndMerge(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory(), "k", CartSurface, quiet)
	s.AddItem(ctx, Item{ID: "p1", Price: 10})

	items := s.SetQty(ctx, "p1", 5)
	if items[0].Qty != 5 {
		t.Fatalf("got %+v", items)
	}

	items = s.Merge(ctx, []Item{{ID: "p1", Price: 10, Qty: 2}, {ID: "p2", Price: 20}})
	if len(items) != 2 || items[0].Qty != 7 || items[1].Qty != 1 {
		t.Fatalf("got %+v", items)
	}
	if s.Count() != 8 {
		t.Fatalf("count = %d", s.Count())
	}

	items = s.SetQty(ctx, "p2", 0)
	if len(items) != 1 || items[0].ID != "p1" {
		t.Fatalf("got %+v", items)
	}
}

func TestLineBoundsAndSaturatedTotals(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, storage.NewMemory(), "k", WishlistSurface, quiet)

	s.AddItem(ctx, Item{ID: "p1", Price: 250000, Pax: 1_000_000, Qty: 1_000_000_000})
	items := s.AddItem(ctx, Item{ID: "p1", Price: 250000, Qty: 5})
	if items[0].Qty != MaxQty || items[0].Pax != MaxPax {
		t.Fatalf("line not bounded: %+v", items[0])
	}
	if got := s.Total(); got != 250000*MaxPax*MaxQty {
		t.Fatalf("total = %d", got)
	}

	items = s.SetQty(ctx, "p1", 1<<40)
	if items[0].Qty != MaxQty {
		t.Fatalf("SetQty not bounded: %+v", items[0])
	}

	huge := []Item{{Price: maxExactFloat, Pax: MaxPax, Qty: MaxQty}, {Price: maxExactFloat, Qty: MaxQty}}
	for _, p := range []Policy{PerUnit, PerPax} {
		if got := Total(huge, p); got <= 0 {
			t.Fatalf("%v total overflowed: %d", p, got)
		}
	}
	if got := Total(huge, PerPax); got != math.MaxInt64 {
		t.Fatalf("PerPax total = %d, want saturation", got)
	}
}
