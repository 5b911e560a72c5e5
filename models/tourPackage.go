package models

import (
	"time"

	"gorm.io/datatypes"
)

// TourPackage ids are assigned by the content team (slugs), not the database.
type TourPackage struct {
	ID           string `gorm:"primaryKey;size:64"`
	IsActive     bool   `gorm:"not null;default:true"`
	DefaultImage string
	Prices       []PackagePrice       `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	Translations []PackageTranslation `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PackagePrice struct {
	ID        uint   `gorm:"primaryKey"`
	PackageID string `gorm:"size:64;uniqueIndex:idx_package_tier"`
	Pax       int    `gorm:"not null;uniqueIndex:idx_package_tier"`
	Audience  string `gorm:"size:16;not null;uniqueIndex:idx_package_tier"`
	Price     int64  `gorm:"not null"`
}

type PackageTranslation struct {
	ID        uint   `gorm:"primaryKey"`
	PackageID string `gorm:"size:64;uniqueIndex:idx_package_lang"`
	Lang      string `gorm:"size:8;not null;uniqueIndex:idx_package_lang"`
	Title     string `gorm:"not null"`
	Summary   string `gorm:"type:text"`
	Spots     datatypes.JSON
	Itinerary datatypes.JSON
	Included  datatypes.JSON
	Notes     string `gorm:"type:text"`
}
