package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourbook/currency"
	"tourbook/models"
)

type FxRateRepo struct {
	db *gorm.DB
}

func NewFxRateRepo(db *gorm.DB) *FxRateRepo {
	return &FxRateRepo{db: db}
}

func (r *FxRateRepo) ListRates(ctx context.Context) ([]currency.FxRate, error) {
	var rows []models.FxRate
	if err := r.db.WithContext(ctx).Order("currency").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]currency.FxRate, 0, len(rows))
	for _, row := range rows {
		out = append(out, currency.FxRate{Currency: row.Currency, Rate: row.Rate})
	}
	return out, nil
}

// UpsertRate stores rate under its upper-cased code. Non-positive and
// non-finite rates are rejected here even though the formatter would
// tolerate them.
func (r *FxRateRepo) UpsertRate(ctx context.Context, rate currency.FxRate) error {
	code := strings.ToUpper(strings.TrimSpace(rate.Currency))
	if len(code) != 3 {
		return fmt.Errorf("invalid currency code %q", rate.Currency)
	}
	if rate.Rate <= 0 || math.IsNaN(rate.Rate) || math.IsInf(rate.Rate, 0) {
		return fmt.Errorf("invalid rate %v for %s", rate.Rate, code)
	}

	row := models.FxRate{Currency: code, Rate: rate.Rate}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(&row).Error
}

func (r *FxRateRepo) DeleteRate(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Delete(&models.FxRate{}, "currency = ?", strings.ToUpper(code))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
