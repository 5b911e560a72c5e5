package models

import (
	"time"

	"gorm.io/datatypes"
)

type PageSection struct {
	ID           uint   `gorm:"primaryKey"`
	Page         string `gorm:"size:64;not null;uniqueIndex:idx_page_key"`
	Key          string `gorm:"column:section_key;size:64;not null;uniqueIndex:idx_page_key"`
	SortOrder    int    `gorm:"not null;default:0"`
	Translations []PageSectionTranslation `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
	UpdatedAt    time.Time
}

type PageSectionTranslation struct {
	ID        uint   `gorm:"primaryKey"`
	SectionID uint   `gorm:"uniqueIndex:idx_section_lang"`
	Lang      string `gorm:"size:8;not null;uniqueIndex:idx_section_lang"`
	Title     string
	Body      string `gorm:"type:text"`
	Extra     datatypes.JSON
}
