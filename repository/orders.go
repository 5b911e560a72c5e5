package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourbook/catalog"
	"tourbook/checkout"
	"tourbook/models"
)

// codePrefix marks confirmation codes handed to customers.
const codePrefix = "TRV-"

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// NewOrderCode returns a short shareable code such as TRV-3F9A0C1B.
func NewOrderCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return codePrefix + strings.ToUpper(id[:8])
}

// PlaceOrder stores req and its line items in one transaction. Every line
// must reference an active package and is charged that package's tier for
// the line's pax and audience, whatever unit price the request carries.
func (r *OrderRepo) PlaceOrder(ctx context.Context, req checkout.OrderRequest) (checkout.Confirmation, error) {
	order := models.Order{
		Code:       NewOrderCode(),
		UserID:     req.UserID,
		PackageID:  req.PackageID,
		TravelDate: req.Date,
		Pax:        req.Pax,
		Audience:   req.Audience,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Notes:      req.Notes,
		Status:     models.OrderStatusPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.TourPackage
		err := tx.Preload("Prices").
			Where("id IN ? AND is_active = ?", orderedPackageIDs(req), true).
			Find(&rows).
			Error
		if err != nil {
			return err
		}
		active := make(map[string]catalog.Package, len(rows))
		for _, row := range rows {
			active[row.ID] = toPackage(row)
		}

		if req.PackageID != "" {
			if _, ok := active[req.PackageID]; !ok {
				return fmt.Errorf("package %q is not available", req.PackageID)
			}
		}
		order.OrderItems, order.Total, err = priceLines(req, active)
		if err != nil {
			return err
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return checkout.Confirmation{}, err
	}
	return checkout.Confirmation{Code: order.Code, Total: order.Total}, nil
}

func orderedPackageIDs(req checkout.OrderRequest) []string {
	seen := map[string]bool{}
	ids := []string{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(req.PackageID)
	for _, it := range req.Items {
		add(linePackage(req, it))
	}
	return ids
}

// linePackage is the line's own package, else the order's.
func linePackage(req checkout.OrderRequest, it checkout.LineItem) string {
	if it.PackageID != "" {
		return it.PackageID
	}
	return req.PackageID
}

// priceLines charges every line the tier of its package. Lines inherit the
// order's pax and audience when they carry none.
func priceLines(req checkout.OrderRequest, active map[string]catalog.Package) ([]models.OrderItem, int64, error) {
	items := make([]models.OrderItem, 0, len(req.Items))
	var total int64
	for _, it := range req.Items {
		id := linePackage(req, it)
		if id == "" {
			return nil, 0, fmt.Errorf("line %q names no package", it.Name)
		}
		p, ok := active[id]
		if !ok {
			return nil, 0, fmt.Errorf("package %q is not available", id)
		}

		pax := it.Pax
		if pax < 1 {
			pax = req.Pax
		}
		audience := it.Audience
		if audience == "" {
			audience = req.Audience
		}
		tier, err := p.Quote(pax, audience)
		if err != nil {
			return nil, 0, err
		}

		items = append(items, models.OrderItem{
			Name:      it.Name,
			PackageID: id,
			Pax:       tier.Pax,
			Audience:  tier.Audience,
			Quantity:  it.Qty,
			UnitPrice: tier.Price,
		})
		total += int64(it.Qty) * tier.Price
	}
	return items, total, nil
}

// ListOrders returns the newest orders first. A nil userID lists everyone's.
func (r *OrderRepo) ListOrders(ctx context.Context, userID *uint, limit, offset int) ([]models.Order, int64, error) {
	scope := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Order{})
		if userID != nil {
			query = query.Where("user_id = ?", *userID)
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := scope().
		Preload("OrderItems").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).
		Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, code string) (models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("OrderItems").
		First(&order, "code = ?", strings.ToUpper(code)).
		Error
	if err != nil {
		return models.Order{}, notFound(err)
	}
	return order, nil
}

func ValidStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusCancelled:
		return true
	}
	return false
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, code, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid order status %q", status)
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("code = ?", strings.ToUpper(code)).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
