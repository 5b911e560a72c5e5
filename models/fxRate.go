package models

import "time"

// FxRate is the price of one unit of Currency in the base currency.
type FxRate struct {
	Currency  string  `gorm:"primaryKey;size:3"`
	Rate      float64 `gorm:"not null"`
	UpdatedAt time.Time
}
