package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"reflect"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"tourbook/catalog"
	"tourbook/checkout"
	"tourbook/currency"
	"tourbook/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPackageMappingRoundTrip(t *testing.T) {
	p := catalog.Package{
		ID:           "bromo-sunrise",
		IsActive:     true,
		DefaultImage: "/uploads/bromo.jpg",
		Prices: []catalog.PriceTier{
			{Pax: 2, Audience: "domestic", Price: 300000},
			{Pax: 2, Audience: "foreign", Price: 550000},
		},
		Texts: []catalog.PackageText{{
			Lang:      "en",
			Title:     "Bromo Sunrise",
			Summary:   "Jeep tour to Penanjakan",
			Spots:     []string{"Penanjakan", "Sea of Sand"},
			Itinerary: []string{"01:00 pickup", "04:30 sunrise"},
			Included:  []string{},
			Notes:     "Bring a jacket",
		}},
	}

	got := toPackage(fromPackage(p))
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", got, p)
	}
}

func TestFromPackageNormalizesKeys(t *testing.T) {
	row := fromPackage(catalog.Package{
		ID:     "ijen",
		Prices: []catalog.PriceTier{{Pax: 1, Audience: "Foreign", Price: 1}},
		Texts:  []catalog.PackageText{{Lang: "EN"}},
	})
	if row.Prices[0].Audience != "foreign" || row.Prices[0].PackageID != "ijen" {
		t.Fatalf("price row = %+v", row.Prices[0])
	}
	if row.Translations[0].Lang != "en" || string(row.Translations[0].Spots) != "[]" {
		t.Fatalf("translation row = %+v", row.Translations[0])
	}
}

func TestDecodeTolerantColumns(t *testing.T) {
	if got := decodeList(nil); len(got) != 0 {
		t.Fatalf("nil column = %v", got)
	}
	if got := decodeList(datatypes.JSON(`{"not":"a list"}`)); got != nil {
		t.Fatalf("malformed column = %v", got)
	}
	if got := decodeObject(datatypes.JSON(`[1,2]`)); got != nil {
		t.Fatalf("malformed object = %v", got)
	}
	if encodeObject(nil) != nil {
		t.Fatal("empty extra should be stored as NULL")
	}
}

func TestSectionMapping(t *testing.T) {
	texts := []catalog.SectionText{
		{Lang: "ID", Title: "Halo", Body: "Selamat datang", Extra: map[string]any{"cta": "Pesan"}},
		{Lang: "en", Title: "Hello"},
	}
	rows := fromSectionTexts(7, texts)
	if rows[0].SectionID != 7 || rows[0].Lang != "id" {
		t.Fatalf("row = %+v", rows[0])
	}

	s := toSection(models.PageSection{Page: "home", Key: "hero", SortOrder: 1, Translations: rows})
	if s.Texts[0].Extra["cta"] != "Pesan" || s.Texts[1].Extra != nil {
		t.Fatalf("section = %+v", s)
	}
}

func TestNewOrderCode(t *testing.T) {
	pattern := regexp.MustCompile(`^TRV-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewOrderCode()
		if !pattern.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 99 {
		t.Fatalf("codes collide too often: %d unique of 100", len(seen))
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"pending", "confirmed", "cancelled"} {
		if !ValidStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "Pending", "shipped"} {
		if ValidStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestPriceLinesIgnoresClientPrices(t *testing.T) {
	active := map[string]catalog.Package{
		"bromo": {ID: "bromo", IsActive: true, Prices: []catalog.PriceTier{
			{Pax: 1, Audience: catalog.AudienceDomestic, Price: 250000},
			{Pax: 2, Audience: catalog.AudienceForeign, Price: 550000},
		}},
	}
	req := checkout.OrderRequest{
		PackageID: "bromo",
		Pax:       1,
		Audience:  catalog.AudienceDomestic,
		Items: []checkout.LineItem{
			{Name: "Bromo", Qty: 2, UnitPrice: 1},
			{Name: "Bromo foreign", PackageID: "bromo", Pax: 2, Audience: "foreign", Qty: 1, UnitPrice: 1},
		},
	}

	items, total, err := priceLines(req, active)
	if err != nil {
		t.Fatalf("priceLines: %v", err)
	}
	if items[0].UnitPrice != 250000 || items[1].UnitPrice != 550000 || items[1].Pax != 2 {
		t.Fatalf("items = %+v", items)
	}
	if total != 2*250000+550000 {
		t.Fatalf("total = %d", total)
	}
	if got := orderedPackageIDs(req); !reflect.DeepEqual(got, []string{"bromo"}) {
		t.Fatalf("package ids = %v", got)
	}
}

func TestPriceLinesRejectsUnbookableLines(t *testing.T) {
	active := map[string]catalog.Package{
		"bromo": {ID: "bromo", Prices: []catalog.PriceTier{{Pax: 1, Audience: catalog.AudienceDomestic, Price: 250000}}},
	}
	cases := map[string]checkout.OrderRequest{
		"no package":       {Items: []checkout.LineItem{{Name: "loose", Qty: 1}}},
		"inactive package": {Items: []checkout.LineItem{{Name: "closed", PackageID: "closed", Qty: 1}}},
		"no tier":          {Pax: 5, Audience: "domestic", Items: []checkout.LineItem{{Name: "Bromo", PackageID: "bromo", Qty: 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := priceLines(req, active); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	_, _, err := priceLines(cases["no tier"], active)
	if !errors.Is(err, catalog.ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
}

// redisClient connects to TOUR_TEST_REDIS_ADDR or skips the test.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TOUR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TOUR_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type countingLister struct {
	packages []catalog.Package
	calls    int
}

func (l *countingLister) ListPackages(context.Context) ([]catalog.Package, error) {
	l.calls++
	return l.packages, nil
}

func TestPackageCacheFillsOnMiss(t *testing.T) {
	ctx := context.Background()
	rdb := redisClient(t)

	next := &countingLister{packages: []catalog.Package{{ID: "b"}, {ID: "a"}}}
	cache := NewPackageCache(next, rdb, quiet)
	cache.key = "test:" + t.Name()
	t.Cleanup(func() { rdb.Del(ctx, cache.key) })

	for i := 0; i < 3; i++ {
		got, err := cache.ListPackages(ctx)
		if err != nil {
			t.Fatalf("ListPackages: %v", err)
		}
		if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
			t.Fatalf("order not preserved: %+v", got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one database read, got %d", next.calls)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := cache.ListPackages(ctx); err != nil {
		t.Fatalf("ListPackages: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected a refill after invalidate, got %d reads", next.calls)
	}
}

func TestRedisNotifierDeliversChanges(t *testing.T) {
	ctx := context.Background()
	rdb := redisClient(t)

	n := NewRedisNotifier(rdb, quiet)
	n.channel = "test:" + t.Name()

	sub, err := n.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	var fired atomic.Int32
	got := make(chan struct{}, 1)
	sub.OnChange(func() {
		fired.Add(1)
		select {
		case got <- struct{}{}:
		default:
		}
	})

	if err := n.Publish(ctx, "packages"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("change was not delivered")
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("second Unsubscribe: %v", err)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired %d times", fired.Load())
	}
}

type stubRates struct {
	rates []currency.FxRate
	err   error
	calls int
}

func (s *stubRates) ListRates(context.Context) ([]currency.FxRate, error) {
	s.calls++
	return s.rates, s.err
}

func TestRateCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	next := &stubRates{err: errors.New("db down")}
	cache := NewRateCache(next, time.Minute)
	cache.now = func() time.Time { return now }

	if _, err := cache.ListRates(ctx); err == nil {
		t.Fatal("expected error")
	}
	next.err, next.rates = nil, []currency.FxRate{{Currency: "USD", Rate: 15000}}
	if got, err := cache.ListRates(ctx); err != nil || len(got) != 1 {
		t.Fatalf("got (%v, %v)", got, err)
	}
	cache.ListRates(ctx)
	if next.calls != 2 {
		t.Fatalf("failed read was cached or hit was missed: %d calls", next.calls)
	}

	now = now.Add(2 * time.Minute)
	cache.ListRates(ctx)
	cache.Invalidate()
	cache.ListRates(ctx)
	if next.calls != 4 {
		t.Fatalf("expiry or invalidate ignored: %d calls", next.calls)
	}
}

type countingRefresher struct{ calls int }

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls++
	return nil
}

func TestChangesWithoutNotifierRefreshesLocally(t *testing.T) {
	local := &countingRefresher{}
	rates := NewRateCache(&stubRates{}, time.Hour)
	rates.ListRates(context.Background())

	c := &Changes{Rates: rates, Local: local, Log: quiet}
	c.Changed(context.Background(), "fx-rates")
	if local.calls != 1 {
		t.Fatalf("local refresh calls = %d", local.calls)
	}
	if !rates.fetched.IsZero() {
		t.Fatal("rate cache not invalidated")
	}
}
