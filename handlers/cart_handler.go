package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourbook/cart"
	"tourbook/catalog"
	"tourbook/middleware"
)

const (
	visitorCookie = "visitor_id"
	visitorMaxAge = 30 * 24 * 60 * 60
)

func generateVisitorID() string {
	return uuid.New().String()
}

// visitorID reads the anonymous session id, issuing one when absent or
// malformed.
func (h *Handler) visitorID(c *gin.Context) string {
	if v, err := c.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	id := generateVisitorID()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   visitorMaxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// storeKey names the collection of the caller: per user once logged in,
// per visitor cookie before that.
func (h *Handler) storeKey(c *gin.Context, surface cart.Surface) string {
	if userID, ok := middleware.UserID(c); ok {
		return fmt.Sprintf("%s:user:%d", surface.Name, userID)
	}
	return fmt.Sprintf("%s:visitor:%s", surface.Name, h.visitorID(c))
}

func (h *Handler) openStore(c *gin.Context, surface cart.Surface) *cart.Store {
	return cart.Open(c.Request.Context(), h.Carts, h.storeKey(c, surface), surface, h.log())
}

func (h *Handler) respondStore(c *gin.Context, status int, store *cart.Store) {
	pr := h.pricingFor(c)
	items := store.Items()

	lines := make([]gin.H, 0, len(items))
	for _, it := range items {
		line := cart.LineTotal(it, store.Surface().Policy)
		lines = append(lines, gin.H{
			"item":          it,
			"lineTotal":     line,
			"formattedLine": pr.price(line),
		})
	}

	total := store.Total()
	c.JSON(status, gin.H{
		"surface":        store.Surface().Name,
		"items":          items,
		"lines":          lines,
		"count":          store.Count(),
		"total":          total,
		"formattedTotal": pr.price(total),
		"display":        pr.display,
	})
}

func (h *Handler) GetCartHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.respondStore(c, http.StatusOK, h.openStore(c, surface))
	}
}

// AddToCartHandler adds one line or bumps the quantity of an existing line
// with the same id. Title, image and price are copied from the package and
// its tier for the requested pax and audience; the body only picks them.
func (h *Handler) AddToCartHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item cart.Item
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "invalid item",
				"error":   err.Error(),
			})
			return
		}
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "item id is required",
			})
			return
		}

		if !h.quoteItem(c, &item) {
			return
		}

		store := h.openStore(c, surface)
		store.AddItem(c.Request.Context(), item)
		h.respondStore(c, http.StatusOK, store)
	}
}

// quoteItem fills item from the live catalog. It writes the error response
// and returns false when the package cannot be booked.
func (h *Handler) quoteItem(c *gin.Context, item *cart.Item) bool {
	p, err := h.Packages.Package(c.Request.Context(), item.ID, middleware.Lang(c))
	if errors.Is(err, catalog.ErrNotFound) || (err == nil && !p.IsActive) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "package not found",
		})
		return false
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "could not load package",
			"error":   err.Error(),
		})
		return false
	}

	tier, err := p.Quote(item.Pax, item.Audience)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "no price for this party size",
			"error":   err.Error(),
		})
		return false
	}

	item.Title = p.Title
	item.Image = p.DefaultImage
	item.Price = tier.Price
	item.Pax = tier.Pax
	item.Audience = tier.Audience
	return true
}

func (h *Handler) UpdateCartItemQuantityHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Qty int `json:"qty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "invalid quantity",
				"error":   err.Error(),
			})
			return
		}

		store := h.openStore(c, surface)
		store.SetQty(c.Request.Context(), c.Param("itemID"), req.Qty)
		h.respondStore(c, http.StatusOK, store)
	}
}

func (h *Handler) DeleteCartItemHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := h.openStore(c, surface)
		store.RemoveItem(c.Request.Context(), c.Param("itemID"))
		h.respondStore(c, http.StatusOK, store)
	}
}

func (h *Handler) ClearCartHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := h.openStore(c, surface)
		store.Clear(c.Request.Context())
		h.respondStore(c, http.StatusOK, store)
	}
}

// MergeCartHandler folds the anonymous visitor collection into the logged-in
// user's one and empties the visitor collection. Call after login.
func (h *Handler) MergeCartHandler(surface cart.Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		visitorKey := fmt.Sprintf("%s:visitor:%s", surface.Name, h.visitorID(c))

		guest := cart.Open(ctx, h.Carts, visitorKey, surface, h.log())
		store := h.openStore(c, surface)
		if guest.Len() > 0 {
			store.Merge(ctx, guest.Items())
			guest.Clear(ctx)
		}
		h.respondStore(c, http.StatusOK, store)
	}
}
