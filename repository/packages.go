package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"tourbook/catalog"
	"tourbook/models"
)

type PackageRepo struct {
	db *gorm.DB
}

func NewPackageRepo(db *gorm.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	var rows []models.TourPackage
	err := r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("pax, audience") }).
		Preload("Translations").
		Order("id").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Package, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPackage(row))
	}
	return out, nil
}

func (r *PackageRepo) GetPackage(ctx context.Context, id string) (catalog.Package, error) {
	var row models.TourPackage
	err := r.db.WithContext(ctx).
		Preload("Prices").
		Preload("Translations").
		First(&row, "id = ?", id).
		Error
	if err != nil {
		return catalog.Package{}, notFound(err)
	}
	return toPackage(row), nil
}

// SavePackage creates or replaces p together with all of its tiers and texts.
func (r *PackageRepo) SavePackage(ctx context.Context, p catalog.Package) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return errors.New("package id is required")
	}
	row := fromPackage(p)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Prices", "Translations").Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", row.ID).Delete(&models.PackagePrice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", row.ID).Delete(&models.PackageTranslation{}).Error; err != nil {
			return err
		}
		if len(row.Prices) > 0 {
			if err := tx.Create(&row.Prices).Error; err != nil {
				return err
			}
		}
		if len(row.Translations) > 0 {
			if err := tx.Create(&row.Translations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PackageRepo) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.TourPackage{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PackageRepo) DeletePackage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("package_id = ?", id).Delete(&models.PackagePrice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", id).Delete(&models.PackageTranslation{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TourPackage{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func toPackage(row models.TourPackage) catalog.Package {
	p := catalog.Package{
		ID:           row.ID,
		IsActive:     row.IsActive,
		DefaultImage: row.DefaultImage,
		Prices:       make([]catalog.PriceTier, 0, len(row.Prices)),
		Texts:        make([]catalog.PackageText, 0, len(row.Translations)),
	}
	for _, price := range row.Prices {
		p.Prices = append(p.Prices, catalog.PriceTier{Pax: price.Pax, Audience: price.Audience, Price: price.Price})
	}
	for _, tr := range row.Translations {
		p.Texts = append(p.Texts, catalog.PackageText{
			Lang:      tr.Lang,
			Title:     tr.Title,
			Summary:   tr.Summary,
			Spots:     decodeList(tr.Spots),
			Itinerary: decodeList(tr.Itinerary),
			Included:  decodeList(tr.Included),
			Notes:     tr.Notes,
		})
	}
	return p
}

func fromPackage(p catalog.Package) models.TourPackage {
	row := models.TourPackage{
		ID:           p.ID,
		IsActive:     p.IsActive,
		DefaultImage: p.DefaultImage,
	}
	for _, tier := range p.Prices {
		row.Prices = append(row.Prices, models.PackagePrice{
			PackageID: p.ID,
			Pax:       tier.Pax,
			Audience:  strings.ToLower(tier.Audience),
			Price:     tier.Price,
		})
	}
	for _, text := range p.Texts {
		row.Translations = append(row.Translations, models.PackageTranslation{
			PackageID: p.ID,
			Lang:      strings.ToLower(text.Lang),
			Title:     text.Title,
			Summary:   text.Summary,
			Spots:     encodeList(text.Spots),
			Itinerary: encodeList(text.Itinerary),
			Included:  encodeList(text.Included),
			Notes:     text.Notes,
		})
	}
	return row
}
