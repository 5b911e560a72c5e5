package models

import "gorm.io/gorm"

const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username    string `gorm:"unique;not null;size:64"`
	Email       string `gorm:"unique;not null;size:191"`
	Password    string `gorm:"not null" json:"-"`
	Name        string
	Phone       string
	Role        string `gorm:"not null;default:user;size:16"`
	Orders      []Order
	LoginTokens []LoginToken `json:"-"`
}
