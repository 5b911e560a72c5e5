package models

import "gorm.io/gorm"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	gorm.Model
	Code       string `gorm:"uniqueIndex;size:16;not null"`
	UserID     *uint
	PackageID  string `gorm:"size:64;not null"`
	TravelDate string `gorm:"size:10;not null"`
	Pax        int    `gorm:"not null"`
	Audience   string `gorm:"size:16;not null"`
	Name       string `gorm:"not null"`
	Email      string `gorm:"not null"`
	Phone      string `gorm:"not null"`
	Notes      string `gorm:"type:text"`
	Total      int64  `gorm:"not null"`
	Status     string `gorm:"not null;size:16"`
	OrderItems []OrderItem
}
