package routers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourbook/cart"
	"tourbook/catalog"
	"tourbook/handlers"
	"tourbook/middleware"
)

// SupportedLanguages are the UI languages the storefront ships.
var SupportedLanguages = []string{"id", "en", "ja"}

type Options struct {
	Tokens         middleware.TokenVerifier
	LoginPath      string
	AllowOrigin    string
	TrustedProxies []string
	UploadDir      string
	DefaultLang    string
	Log            *slog.Logger
}

func SetupRouters(h *handlers.Handler, opts Options) (*gin.Engine, error) {
	if opts.DefaultLang == "" {
		opts.DefaultLang = catalog.DefaultLang
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(opts.Log), middleware.CORS(opts.AllowOrigin))
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	// uploaded package images
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	router.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := router.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(opts.Tokens, opts.Log),
		middleware.LanguageMiddleware(opts.DefaultLang, SupportedLanguages...),
	)
	{
		api.GET("/packages", h.GetPackageListHandler)
		api.GET("/packages/:packageID", h.GetPackageDataHandler)
		api.GET("/pages/:page/sections", h.GetPageSectionsHandler)
		api.GET("/fx-rates", h.GetFxRatesHandler)
		api.GET("/display", h.GetDisplayHandler)

		api.POST("/register", h.RegisterHandler)
		api.POST("/login", h.LoginHandler)
		api.GET("/session", h.GetSessionHandler)

		for _, surface := range []cart.Surface{cart.CartSurface, cart.WishlistSurface} {
			g := api.Group("/" + surface.Name)
			g.GET("", h.GetCartHandler(surface))
			g.POST("/items", h.AddToCartHandler(surface))
			g.PATCH("/items/:itemID", h.UpdateCartItemQuantityHandler(surface))
			g.DELETE("/items/:itemID", h.DeleteCartItemHandler(surface))
			g.DELETE("", h.ClearCartHandler(surface))
		}

		api.POST("/orders", h.SendOrderHandler)

		loginRequired := api.Group("/user")
		loginRequired.Use(middleware.CheckLoginMiddleware())
		{
			loginRequired.GET("/profile", h.GetUserProfileHandler)
			loginRequired.PATCH("/profile", h.UpdateUserProfileHandler)
			// merge the visitor cart or wishlist into the account after login
			loginRequired.POST("/cart/merge", h.MergeCartHandler(cart.CartSurface))
			loginRequired.POST("/wishlist/merge", h.MergeCartHandler(cart.WishlistSurface))
			loginRequired.GET("/orders", h.GetOrderListHandler)
			loginRequired.GET("/orders/:code", h.GetOrderDataHandler)
			loginRequired.POST("/logout", h.LogOutHandler)
		}

		adminRequired := api.Group("/admin")
		adminRequired.Use(middleware.CheckAdminPermissionMiddleware(opts.LoginPath))
		{
			adminRequired.GET("/users", h.GetUserListHandler)
			adminRequired.PATCH("/users/:userID/role", h.UpdateUserRoleHandler)
			adminRequired.POST("/image", h.UploadImageHandler)

			adminRequired.GET("/packages/:packageID", h.GetPackageAllDataHandler)
			adminRequired.POST("/packages", h.SavePackageHandler)
			adminRequired.PUT("/packages/:packageID", h.SavePackageHandler)
			adminRequired.PATCH("/packages/:packageID/active", h.SetPackageActiveHandler)
			adminRequired.DELETE("/packages/:packageID", h.DeletePackageHandler)

			adminRequired.GET("/pages/:page/sections", h.GetAllSectionsHandler)
			adminRequired.PUT("/pages/:page/sections/:key", h.SaveSectionHandler)
			adminRequired.DELETE("/pages/:page/sections/:key", h.DeleteSectionHandler)

			adminRequired.PUT("/fx-rates/:code", h.UpsertFxRateHandler)
			adminRequired.DELETE("/fx-rates/:code", h.DeleteFxRateHandler)

			adminRequired.GET("/orders", h.GetAllOrdersHandler)
			adminRequired.GET("/orders/:code", h.GetOrderDataHandler)
			adminRequired.PATCH("/orders/:code/status", h.UpdateOrderStatusHandler)
		}
	}

	return router, nil
}
