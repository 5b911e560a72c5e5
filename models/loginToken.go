package models

import (
	"time"

	"gorm.io/gorm"
)

// LoginToken records an issued session token; deleting the row revokes it.
type LoginToken struct {
	gorm.Model
	Token          string `gorm:"uniqueIndex;size:1024"`
	ExpirationTime time.Time
	UserID         uint
	Role           string
}
