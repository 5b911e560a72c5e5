package models

import "gorm.io/gorm"

// OrderItem records the tier a line was charged at.
type OrderItem struct {
	gorm.Model
	OrderID   uint   `gorm:"index"`
	Name      string `gorm:"not null"`
	PackageID string `gorm:"size:64;index"`
	Pax       int    `gorm:"not null;default:1"`
	Audience  string `gorm:"size:16"`
	Quantity  int    `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"`
}
