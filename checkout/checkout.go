// Package checkout turns a visitor's cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tourbook/cart"
	"tourbook/catalog"
)

var ErrEmptyOrder = errors.New("order has no line items")

// LineItem is one booked package. UnitPrice is what the visitor was shown;
// the placer charges the package's current tier for Pax and Audience.
type LineItem struct {
	Name      string `json:"name" binding:"required"`
	PackageID string `json:"package_id"`
	Pax       int    `json:"pax"`
	Audience  string `json:"audience"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderRequest struct {
	PackageID string     `json:"package_id"`
	Date      string     `json:"date" binding:"required"`
	Pax       int        `json:"pax"`
	Audience  string     `json:"audience"`
	Name      string     `json:"name" binding:"required"`
	Email     string     `json:"email" binding:"required,email"`
	Phone     string     `json:"phone" binding:"required"`
	Notes     string     `json:"notes"`
	Items     []LineItem `json:"items"`

	// UserID is set by the server for logged-in visitors.
	UserID *uint `json:"-"`
}

// Total is the sum of qty*unit price over the line items.
func (r OrderRequest) Total() int64 {
	var sum int64
	for _, it := range r.Items {
		sum += int64(it.Qty) * it.UnitPrice
	}
	return sum
}

// Confirmation is the placed order's code and the total it was charged.
type Confirmation struct {
	Code  string `json:"code"`
	Total int64  `json:"total"`
}

// Placer submits an order to the backend and returns its confirmation.
type Placer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (Confirmation, error)
}

type Service struct {
	placer Placer
	log    *slog.Logger
}

func NewService(placer Placer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{placer: placer, log: log.With("component", "checkout")}
}

// Checkout places req. Missing line items are taken from store. The store is
// cleared only when the order was accepted; on failure the placer's error is
// returned unchanged and nothing is retried. Lines added to store while the
// order is being placed are cleared with it.
func (s *Service) Checkout(ctx context.Context, store *cart.Store, req OrderRequest) (Confirmation, error) {
	if store != nil && len(req.Items) == 0 {
		items := store.Items()
		req.Items = LineItemsFrom(items, store.Surface().Policy)
		if req.PackageID == "" && len(items) > 0 {
			req.PackageID = items[0].ID
			if req.Pax < 1 {
				req.Pax = int(items[0].EffectivePax())
			}
		}
	}
	req = normalize(req)
	if len(req.Items) == 0 {
		return Confirmation{}, ErrEmptyOrder
	}

	conf, err := s.placer.PlaceOrder(ctx, req)
	if err != nil {
		s.log.Warn("order rejected", slog.String("package", req.PackageID), slog.Any("err", err))
		return Confirmation{}, err
	}

	if store != nil {
		store.Clear(ctx)
	}
	s.log.Info("order placed", slog.String("code", conf.Code), slog.Int64("total", conf.Total))
	return conf, nil
}

// LineItemsFrom converts cart lines to order lines. Under PerPax the unit
// price already includes the party size so the order total matches the
// surface total.
func LineItemsFrom(items []cart.Item, policy cart.Policy) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		unit := it.Normalized().Price
		if policy == cart.PerPax {
			unit *= it.EffectivePax()
		}
		out = append(out, LineItem{
			Name:      it.Title,
			PackageID: it.ID,
			Pax:       int(it.EffectivePax()),
			Audience:  it.Audience,
			Qty:       int(it.EffectiveQty()),
			UnitPrice: unit,
		})
	}
	return out
}

func normalize(req OrderRequest) OrderRequest {
	if req.Pax < 1 {
		req.Pax = 1
	}
	req.Audience = strings.ToLower(strings.TrimSpace(req.Audience))
	if req.Audience == "" {
		req.Audience = catalog.AudienceDomestic
	}

	items := req.Items[:0:0]
	for _, it := range req.Items {
		if it.Qty < 1 || it.UnitPrice < 0 {
			continue
		}
		it.Audience = strings.ToLower(strings.TrimSpace(it.Audience))
		it.Qty = min(it.Qty, cart.MaxQty)
		it.Pax = min(it.Pax, cart.MaxPax)
		items = append(items, it)
	}
	req.Items = items
	return req
}
