package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"tourbook/catalog"
	"tourbook/currency"
	"tourbook/middleware"
)

type packageSummary struct {
	catalog.LocalizedPackage
	FromPrice          int64  `json:"from_price"`
	FormattedFromPrice string `json:"formatted_from_price"`
}

func summarize(p catalog.LocalizedPackage, audience string, pr pricing) packageSummary {
	s := packageSummary{LocalizedPackage: p}
	tier, ok := catalog.Package{Prices: p.Prices}.FromPrice(audience)
	if ok {
		s.FromPrice = tier.Price
		s.FormattedFromPrice = pr.price(tier.Price)
	}
	return s
}

// GetPackageListHandler lists active packages in the visitor's language with
// a formatted "from" price. A failed catalog read answers 503 with an empty
// list and the error.
func (h *Handler) GetPackageListHandler(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	lang := middleware.Lang(c)
	audience := c.Query("audience")

	var (
		packages []catalog.LocalizedPackage
		listErr  error
		pr       pricing
	)
	var g errgroup.Group
	g.Go(func() error {
		packages, listErr = h.Packages.Packages(c.Request.Context(), lang, true)
		return nil
	})
	g.Go(func() error {
		pr = h.pricingFor(c)
		return nil
	})
	_ = g.Wait()

	if listErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message":    "could not load packages",
			"error":      listErr.Error(),
			"packages":   []packageSummary{},
			"totalCount": 0,
		})
		return
	}

	summaries := make([]packageSummary, 0, len(packages))
	for _, p := range packages {
		summaries = append(summaries, summarize(p, audience, pr))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "ok",
		"packages":   page(summaries, limit, offset),
		"totalCount": len(summaries),
		"display":    pr.display,
	})
}

// GetPackageDataHandler returns one package. Inactive packages are only
// visible through the admin routes.
func (h *Handler) GetPackageDataHandler(c *gin.Context) {
	p, err := h.Packages.Package(c.Request.Context(), c.Param("packageID"), middleware.Lang(c))
	if err == nil && !p.IsActive {
		err = catalog.ErrNotFound
	}
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"message": "package not found",
		})
		return
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "could not load package",
			"error":   err.Error(),
		})
		return
	}

	pr := h.pricingFor(c)
	prices := make([]gin.H, 0, len(p.Prices))
	for _, tier := range p.Prices {
		prices = append(prices, gin.H{
			"pax":       tier.Pax,
			"audience":  tier.Audience,
			"price":     tier.Price,
			"formatted": pr.price(tier.Price),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
		"package": summarize(p, c.Query("audience"), pr),
		"prices":  prices,
		"display": pr.display,
	})
}

// GetPageSectionsHandler returns the ordered content blocks of a page.
func (h *Handler) GetPageSectionsHandler(c *gin.Context) {
	sections, err := h.Sections.Sections(c.Request.Context(), c.Param("page"), middleware.Lang(c))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message":  "could not load page sections",
			"error":    err.Error(),
			"sections": []catalog.LocalizedSection{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "ok",
		"sections": sections,
	})
}

func (h *Handler) GetFxRatesHandler(c *gin.Context) {
	rates, err := h.Rates.ListRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "could not load exchange rates",
			"error":   err.Error(),
			"rates":   []currency.FxRate{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
		"base":    currency.BaseCurrency,
		"rates":   rates,
	})
}

// GetDisplayHandler tells the storefront which currency and locale the
// current language implies, with a sample rendering.
func (h *Handler) GetDisplayHandler(c *gin.Context) {
	pr := h.pricingFor(c)
	c.JSON(http.StatusOK, gin.H{
		"lang":     middleware.Lang(c),
		"currency": pr.display.Currency,
		"locale":   pr.display.Locale,
		"digits":   pr.format.Digits(pr.display.Currency),
		"sample":   pr.price(1000000),
	})
}
