package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/cart"
	"tourbook/catalog"
	"tourbook/checkout"
	"tourbook/currency"
	"tourbook/middleware"
	"tourbook/models"
)

type PackageFeed interface {
	Packages(ctx context.Context, lang string, activeOnly bool) ([]catalog.LocalizedPackage, error)
	Package(ctx context.Context, id, lang string) (catalog.LocalizedPackage, error)
}

type SectionFeed interface {
	Sections(ctx context.Context, page, lang string) ([]catalog.LocalizedSection, error)
}

type RateSource interface {
	ListRates(ctx context.Context) ([]currency.FxRate, error)
}

type Checkouter interface {
	Checkout(ctx context.Context, store *cart.Store, req checkout.OrderRequest) (checkout.Confirmation, error)
}

type Users interface {
	ByUsername(ctx context.Context, username string) (models.User, error)
	ByID(ctx context.Context, id uint) (models.User, error)
	Taken(ctx context.Context, username, email string) (bool, bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, id uint, role string) error
	SaveToken(ctx context.Context, token string, userID uint, role string, exp time.Time) error
	RevokeToken(ctx context.Context, token string) error
}

type TokenIssuer interface {
	GenerateToken(userID uint, role string) (string, time.Time, error)
}

type Orders interface {
	ListOrders(ctx context.Context, userID *uint, limit, offset int) ([]models.Order, int64, error)
	GetOrder(ctx context.Context, code string) (models.Order, error)
	UpdateStatus(ctx context.Context, code, status string) error
}

// CatalogAdmin is the write side behind the admin console.
type CatalogAdmin interface {
	GetPackage(ctx context.Context, id string) (catalog.Package, error)
	SavePackage(ctx context.Context, p catalog.Package) error
	SetActive(ctx context.Context, id string, active bool) error
	DeletePackage(ctx context.Context, id string) error
	ListSections(ctx context.Context, page string) ([]catalog.Section, error)
	SaveSection(ctx context.Context, s catalog.Section) error
	DeleteSection(ctx context.Context, page, key string) error
	UpsertRate(ctx context.Context, rate currency.FxRate) error
	DeleteRate(ctx context.Context, code string) error
}

// Changes is told about every catalog write so caches and feeds catch up.
type Changes interface {
	Changed(ctx context.Context, what string)
}

// Handler carries the collaborators every route needs. Routers builds one
// at startup; tests fill only the fields they exercise.
type Handler struct {
	Packages  PackageFeed
	Sections  SectionFeed
	Rates     RateSource
	Display   currency.DisplayTable
	Formatter *currency.Formatter

	Carts    cart.Mirror
	Checkout Checkouter
	Orders   Orders

	Users  Users
	Tokens TokenIssuer

	Admin     CatalogAdmin
	Changes   Changes
	UploadDir string

	SecureCookies bool
	Log           *slog.Logger
}

func (h *Handler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

// pricing is the display context of one request.
type pricing struct {
	display currency.Display
	rates   []currency.FxRate
	format  *currency.Formatter
}

func (p pricing) price(amount int64) string {
	return p.format.Format(amount, p.display.Currency, p.rates, p.display.Locale)
}

// pricingFor resolves the request language to a currency and loads the fx
// table. A failed rate read degrades to rate 1, which the formatter handles.
func (h *Handler) pricingFor(c *gin.Context) pricing {
	p := pricing{display: h.Display.Resolve(middleware.Lang(c)), format: h.Formatter}
	if p.format == nil {
		p.format = currency.NewFormatter(nil)
	}
	if h.Rates != nil && p.display.Currency != currency.BaseCurrency {
		rates, err := h.Rates.ListRates(c.Request.Context())
		if err != nil {
			h.log().Warn("list fx rates", slog.Any("err", err))
		}
		p.rates = rates
	}
	return p
}

func pagination(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid limit",
		})
		return 0, 0, false
	}
	// at most 50 per page
	if limit > 50 {
		limit = 50
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid offset",
		})
		return 0, 0, false
	}
	return limit, offset, true
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
