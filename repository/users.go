package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tourbook/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (r *UserRepo) ByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// Taken reports whether username or email is already registered.
func (r *UserRepo) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var users []models.User
	err = r.db.WithContext(ctx).
		Select("username", "email").
		Where("username = ? OR email = ?", username, email).
		Find(&users).
		Error
	if err != nil {
		return false, false, err
	}
	for _, u := range users {
		usernameTaken = usernameTaken || u.Username == username
		emailTaken = emailTaken || u.Email == email
	}
	return usernameTaken, emailTaken, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "email", "name", "role", "created_at").
		Order("id").
		Find(&users).
		Error
	return users, err
}

func (r *UserRepo) SetRole(ctx context.Context, id uint, role string) error {
	switch role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return fmt.Errorf("invalid role %q", role)
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) SaveToken(ctx context.Context, token string, userID uint, role string, exp time.Time) error {
	return r.db.WithContext(ctx).Create(&models.LoginToken{
		Token:          token,
		ExpirationTime: exp,
		UserID:         userID,
		Role:           role,
	}).Error
}

// TokenActive reports whether token is still on record and unexpired.
func (r *UserRepo) TokenActive(ctx context.Context, token string) (bool, error) {
	var row models.LoginToken
	err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.ExpirationTime.After(time.Now()), nil
}

func (r *UserRepo) RevokeToken(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).Delete(&models.LoginToken{}, "token = ?", token)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
