package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourbook/cart"
	"tourbook/checkout"
	"tourbook/middleware"
	"tourbook/models"
	"tourbook/repository"
)

// SendOrderHandler places an order from the caller's cart. Guests may book;
// a logged-in user's id is attached. On failure the backend's message is
// passed through untouched and the cart is kept.
func (h *Handler) SendOrderHandler(c *gin.Context) {
	var req checkout.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid order",
			"error":   err.Error(),
		})
		return
	}
	if userID, ok := middleware.UserID(c); ok {
		req.UserID = &userID
	}

	store := h.openStore(c, cart.CartSurface)
	conf, err := h.Checkout.Checkout(c.Request.Context(), store, req)
	if errors.Is(err, checkout.ErrEmptyOrder) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "order is empty",
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "order failed",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "order placed",
		"code":    conf.Code,
		"total":   conf.Total,
	})
}

func (h *Handler) GetOrderListHandler(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "login required",
		})
		return
	}
	h.listOrders(c, &userID)
}

func (h *Handler) listOrders(c *gin.Context, userID *uint) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	orders, total, err := h.Orders.ListOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not list orders",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "ok",
		"orders":     orders,
		"totalCount": total,
	})
}

// GetOrderDataHandler shows one of the caller's orders; admins may see any.
func (h *Handler) GetOrderDataHandler(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Request.Context(), c.Param("code"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "order not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not load order",
			"error":   err.Error(),
		})
		return
	}

	userID, _ := middleware.UserID(c)
	owner := order.UserID != nil && *order.UserID == userID
	if !owner && middleware.Role(c) != models.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "order not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
		"order":   order,
	})
}
