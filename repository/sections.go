package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"tourbook/catalog"
	"tourbook/models"
)

type SectionRepo struct {
	db *gorm.DB
}

func NewSectionRepo(db *gorm.DB) *SectionRepo {
	return &SectionRepo{db: db}
}

func (r *SectionRepo) ListSections(ctx context.Context, page string) ([]catalog.Section, error) {
	var rows []models.PageSection
	err := r.db.WithContext(ctx).
		Preload("Translations").
		Where("page = ?", page).
		Order("sort_order, section_key").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Section, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSection(row))
	}
	return out, nil
}

// SaveSection upserts the section identified by (page, key) and replaces
// its translations.
func (r *SectionRepo) SaveSection(ctx context.Context, s catalog.Section) error {
	s.Page, s.Key = strings.TrimSpace(s.Page), strings.TrimSpace(s.Key)
	if s.Page == "" || s.Key == "" {
		return errors.New("section page and key are required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PageSection
		err := tx.Where("page = ? AND section_key = ?", s.Page, s.Key).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.PageSection{Page: s.Page, Key: s.Key, SortOrder: s.SortOrder}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&row).Update("sort_order", s.SortOrder).Error; err != nil {
				return err
			}
			if err := tx.Where("section_id = ?", row.ID).Delete(&models.PageSectionTranslation{}).Error; err != nil {
				return err
			}
		}

		translations := fromSectionTexts(row.ID, s.Texts)
		if len(translations) == 0 {
			return nil
		}
		return tx.Create(&translations).Error
	})
}

func (r *SectionRepo) DeleteSection(ctx context.Context, page, key string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PageSection
		if err := tx.Where("page = ? AND section_key = ?", page, key).First(&row).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("section_id = ?", row.ID).Delete(&models.PageSectionTranslation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}

func toSection(row models.PageSection) catalog.Section {
	s := catalog.Section{
		Page:      row.Page,
		Key:       row.Key,
		SortOrder: row.SortOrder,
		Texts:     make([]catalog.SectionText, 0, len(row.Translations)),
	}
	for _, tr := range row.Translations {
		s.Texts = append(s.Texts, catalog.SectionText{
			Lang:  tr.Lang,
			Title: tr.Title,
			Body:  tr.Body,
			Extra: decodeObject(tr.Extra),
		})
	}
	return s
}

func fromSectionTexts(sectionID uint, texts []catalog.SectionText) []models.PageSectionTranslation {
	out := make([]models.PageSectionTranslation, 0, len(texts))
	for _, text := range texts {
		out = append(out, models.PageSectionTranslation{
			SectionID: sectionID,
			Lang:      strings.ToLower(text.Lang),
			Title:     text.Title,
			Body:      text.Body,
			Extra:     encodeObject(text.Extra),
		})
	}
	return out
}
