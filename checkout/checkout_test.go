package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"tourbook/cart"
	"tourbook/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakePlacer struct {
	err    error
	calls  int
	got    OrderRequest
	during func()
}

func (p *fakePlacer) PlaceOrder(_ context.Context, req OrderRequest) (Confirmation, error) {
	p.calls++
	p.got = req
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return Confirmation{}, p.err
	}
	return Confirmation{Code: "TRV-1A2B3C4D"}, nil
}

func filledCart(ctx context.Context, surface cart.Surface) *cart.Store {
	s := cart.Open(ctx, storage.NewMemory(), "cart:test", surface, quiet)
	s.AddItem(ctx, cart.Item{ID: "bromo", Title: "Bromo Sunrise", Price: 250000, Pax: 2, Qty: 1})
	s.AddItem(ctx, cart.Item{ID: "ijen", Title: "Ijen Blue Fire", Price: 400000, Pax: 1, Qty: 2})
	return s
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	ctx := context.Background()
	store := filledCart(ctx, cart.CartSurface)
	placer := &fakePlacer{}
	svc := NewService(placer, quiet)

	conf, err := svc.Checkout(ctx, store, OrderRequest{Date: "2026-11-02", Name: "Sari", Email: "sari@example.com", Phone: "0812"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if conf.Code != "TRV-1A2B3C4D" {
		t.Fatalf("code = %q", conf.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("cart not cleared: %+v", store.Items())
	}

	req := placer.got
	if len(req.Items) != 2 || req.Total() != 1050000 {
		t.Fatalf("line items = %+v total %d", req.Items, req.Total())
	}
	if req.PackageID != "bromo" || req.Pax != 2 || req.Audience != "domestic" {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if first := req.Items[0]; first.PackageID != "bromo" || first.Pax != 2 {
		t.Fatalf("line does not name its package: %+v", first)
	}
}

func TestCheckoutClearsLinesAddedWhilePlacing(t *testing.T) {
	ctx := context.Background()
	store := filledCart(ctx, cart.CartSurface)
	placer := &fakePlacer{during: func() {
		store.AddItem(ctx, cart.Item{ID: "tumpak-sewu", Title: "Tumpak Sewu", Price: 350000})
	}}

	if _, err := NewService(placer, quiet).Checkout(ctx, store, OrderRequest{Date: "2026-11-02"}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(placer.got.Items) != 2 {
		t.Fatalf("late line was ordered: %+v", placer.got.Items)
	}
	if store.Len() != 0 {
		t.Fatalf("cart not cleared: %+v", store.Items())
	}
}

func TestCheckoutBoundsExplicitLines(t *testing.T) {
	ctx := context.Background()
	placer := &fakePlacer{}
	req := OrderRequest{Date: "2026-11-02", Items: []LineItem{{Name: "Bromo", PackageID: "bromo", Pax: 1 << 30, Qty: 1 << 30, Audience: " FOREIGN "}}}

	if _, err := NewService(placer, quiet).Checkout(ctx, nil, req); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	got := placer.got.Items[0]
	if got.Qty != cart.MaxQty || got.Pax != cart.MaxPax || got.Audience != "foreign" {
		t.Fatalf("line = %+v", got)
	}
}

func TestCheckoutFailureKeepsCartAndRawError(t *testing.T) {
	ctx := context.Background()
	store := filledCart(ctx, cart.CartSurface)
	backendErr := errors.New("duplicate key value violates unique constraint \"orders_code_key\"")
	placer := &fakePlacer{err: backendErr}
	svc := NewService(placer, quiet)

	_, err := svc.Checkout(ctx, store, OrderRequest{Date: "2026-11-02"})
	if err != backendErr {
		t.Fatalf("error was altered: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("cart changed on failure: %+v", store.Items())
	}
	if placer.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", placer.calls)
	}
}

func TestCheckoutEmptyOrder(t *testing.T) {
	ctx := context.Background()
	store := cart.Open(ctx, storage.NewMemory(), "empty", cart.CartSurface, quiet)
	placer := &fakePlacer{}

	_, err := NewService(placer, quiet).Checkout(ctx, store, OrderRequest{Date: "2026-11-02"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
	if placer.calls != 0 {
		t.Fatal("placer called for an empty order")
	}
}

func TestCheckoutExplicitItemsWin(t *testing.T) {
	ctx := context.Background()
	store := filledCart(ctx, cart.CartSurface)
	placer := &fakePlacer{}

	req := OrderRequest{
		PackageID: "custom",
		Date:      "2026-12-24",
		Audience:  " Foreign ",
		Items: []LineItem{
			{Name: "Private jeep", Qty: 1, UnitPrice: 900000},
			{Name: "dropped", Qty: 0, UnitPrice: 5},
		},
	}
	if _, err := NewService(placer, quiet).Checkout(ctx, store, req); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	got := placer.got
	if len(got.Items) != 1 || got.Items[0].Name != "Private jeep" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.PackageID != "custom" || got.Audience != "foreign" || got.Pax != 1 {
		t.Fatalf("request = %+v", got)
	}
}

func TestLineItemsFromMatchesSurfaceTotal(t *testing.T) {
	ctx := context.Background()
	for _, surface := range []cart.Surface{cart.CartSurface, cart.WishlistSurface} {
		t.Run(surface.Name, func(t *testing.T) {
			store := filledCart(ctx, surface)
			req := OrderRequest{Items: LineItemsFrom(store.Items(), surface.Policy)}
			if req.Total() != store.Total() {
				t.Fatalf("order total %d != surface total %d", req.Total(), store.Total())
			}
		})
	}
}
