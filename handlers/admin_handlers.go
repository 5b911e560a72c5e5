package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/catalog"
	"tourbook/currency"
	"tourbook/repository"
)

func isValidImageExtensions(file *multipart.FileHeader) bool {
	allowExtensions := []string{".jpg", ".jpeg", ".png", ".webp"}
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowExt := range allowExtensions {
		if fileExt == allowExt {
			return true
		}
	}
	return false
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	fileBase := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	return fmt.Sprintf("%s_%d%s", fileBase, time.Now().UnixNano(), fileExt)
}

// writeFailed maps repository errors onto a response.
func writeFailed(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, catalog.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"message": message,
		"error":   err.Error(),
	})
}

func (h *Handler) changed(c *gin.Context, what string) {
	if h.Changes != nil {
		h.Changes.Changed(c.Request.Context(), what)
	}
}

func (h *Handler) GetUserListHandler(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		writeFailed(c, "could not list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "ok",
		"userList": users,
	})
}

func (h *Handler) UpdateUserRoleHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid role",
			"error":   err.Error(),
		})
		return
	}
	if err := h.Users.SetRole(c.Request.Context(), uint(id), req.Role); err != nil {
		writeFailed(c, "could not update role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

func (h *Handler) UploadImageHandler(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "image field missing",
			"error":   err.Error(),
		})
		return
	}
	if !isValidImageExtensions(file) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "unsupported image type",
		})
		return
	}

	uploadsDir := h.UploadDir
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		writeFailed(c, "could not create upload directory", err)
		return
	}

	imageName := makeUniqueFileName(file)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadsDir, imageName)); err != nil {
		writeFailed(c, "could not save image", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "image uploaded",
		"imagePath": "/uploads/" + imageName,
	})
}

// GetPackageAllDataHandler returns the package with every translation and
// tier, active or not.
func (h *Handler) GetPackageAllDataHandler(c *gin.Context) {
	p, err := h.Admin.GetPackage(c.Request.Context(), c.Param("packageID"))
	if err != nil {
		writeFailed(c, "could not load package", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
		"package": p,
	})
}

// SavePackageHandler creates (POST) or replaces (PUT /:packageID) a package.
func (h *Handler) SavePackageHandler(c *gin.Context) {
	var p catalog.Package
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid package",
			"error":   err.Error(),
		})
		return
	}
	if id := c.Param("packageID"); id != "" {
		p.ID = id
	}
	if strings.TrimSpace(p.ID) == "" || len(p.Texts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "package needs an id and at least one translation",
		})
		return
	}
	for _, tier := range p.Prices {
		if tier.Pax < 1 || tier.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "price tiers need pax >= 1 and a non-negative price",
			})
			return
		}
	}

	if err := h.Admin.SavePackage(c.Request.Context(), p); err != nil {
		writeFailed(c, "could not save package", err)
		return
	}
	h.changed(c, "packages")

	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"message": "package saved",
		"id":      p.ID,
	})
}

func (h *Handler) SetPackageActiveHandler(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}
	if err := h.Admin.SetActive(c.Request.Context(), c.Param("packageID"), *req.IsActive); err != nil {
		writeFailed(c, "could not update package", err)
		return
	}
	h.changed(c, "packages")
	c.JSON(http.StatusOK, gin.H{"message": "package updated"})
}

func (h *Handler) DeletePackageHandler(c *gin.Context) {
	if err := h.Admin.DeletePackage(c.Request.Context(), c.Param("packageID")); err != nil {
		writeFailed(c, "could not delete package", err)
		return
	}
	h.changed(c, "packages")
	c.JSON(http.StatusOK, gin.H{"message": "package deleted"})
}

// GetAllSectionsHandler returns a page's sections with every translation.
func (h *Handler) GetAllSectionsHandler(c *gin.Context) {
	sections, err := h.Admin.ListSections(c.Request.Context(), c.Param("page"))
	if err != nil {
		writeFailed(c, "could not load sections", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "ok",
		"sections": sections,
	})
}

func (h *Handler) SaveSectionHandler(c *gin.Context) {
	var s catalog.Section
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid section",
			"error":   err.Error(),
		})
		return
	}
	s.Page, s.Key = c.Param("page"), c.Param("key")

	if err := h.Admin.SaveSection(c.Request.Context(), s); err != nil {
		writeFailed(c, "could not save section", err)
		return
	}
	h.changed(c, "sections:"+s.Page)
	c.JSON(http.StatusOK, gin.H{"message": "section saved"})
}

func (h *Handler) DeleteSectionHandler(c *gin.Context) {
	page := c.Param("page")
	if err := h.Admin.DeleteSection(c.Request.Context(), page, c.Param("key")); err != nil {
		writeFailed(c, "could not delete section", err)
		return
	}
	h.changed(c, "sections:"+page)
	c.JSON(http.StatusOK, gin.H{"message": "section deleted"})
}

func (h *Handler) UpsertFxRateHandler(c *gin.Context) {
	var req struct {
		Rate float64 `json:"rate" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid rate",
			"error":   err.Error(),
		})
		return
	}
	rate := currency.FxRate{Currency: c.Param("code"), Rate: req.Rate}
	if err := h.Admin.UpsertRate(c.Request.Context(), rate); err != nil {
		writeFailed(c, "could not save rate", err)
		return
	}
	h.changed(c, "fx-rates")
	c.JSON(http.StatusOK, gin.H{"message": "rate saved"})
}

func (h *Handler) DeleteFxRateHandler(c *gin.Context) {
	if err := h.Admin.DeleteRate(c.Request.Context(), c.Param("code")); err != nil {
		writeFailed(c, "could not delete rate", err)
		return
	}
	h.changed(c, "fx-rates")
	c.JSON(http.StatusOK, gin.H{"message": "rate deleted"})
}

func (h *Handler) GetAllOrdersHandler(c *gin.Context) {
	h.listOrders(c, nil)
}

func (h *Handler) UpdateOrderStatusHandler(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid status",
			"error":   err.Error(),
		})
		return
	}
	if !repository.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown status " + req.Status})
		return
	}
	if err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("code"), req.Status); err != nil {
		writeFailed(c, "could not update order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order updated"})
}
