// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model,
// used by the credentials auth flow.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/domain"
)

// CreateUser inserts a new user row. Unique violations on (university_id,
// email) or name are reported as ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	err := db.WithContext(ctx).Create(u).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUserByName fetches a user by login name with the university preloaded,
// or ErrNotFound.
func GetUserByName(ctx context.Context, db *gorm.DB, name string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Preload("University").
		Where("name = ?", name).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by ID with the university preloaded, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Preload("University").
		First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the number of registered users for a university.
// Feeds the aggregate section of the chat prompt.
func CountUsers(ctx context.Context, db *gorm.DB, universityID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("university_id = ?", universityID).
		Count(&total).Error
	return total, err
}

// TouchLastSignIn records a successful login timestamp. Best-effort; callers
// may ignore the error.
func TouchLastSignIn(ctx context.Context, db *gorm.DB, id uint, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_sign_in_at", at.UTC()).Error
}
