// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the University
// model. Universities are reference data: created at seeding or via the admin
// surface, then read-only.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListUniversities returns every university ordered by phonetic reading,
// so alphabetic (kana) browsing needs no client-side sort.
func ListUniversities(ctx context.Context, db *gorm.DB) ([]domain.University, error) {
	var out []domain.University
	err := db.WithContext(ctx).
		Order("reading asc, id asc").
		Find(&out).Error
	return out, err
}

// ListUniversitiesByReadingPrefix returns universities whose reading starts
// with the given (pre-normalized) kana prefix, ordered by reading.
func ListUniversitiesByReadingPrefix(ctx context.Context, db *gorm.DB, prefix string) ([]domain.University, error) {
	var out []domain.University
	err := db.WithContext(ctx).
		Where("reading LIKE ?", prefix+"%").
		Order("reading asc, id asc").
		Find(&out).Error
	return out, err
}

// GetUniversity fetches a university by ID, or ErrNotFound if missing.
func GetUniversity(ctx context.Context, db *gorm.DB, id uint) (*domain.University, error) {
	var u domain.University
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUniversity inserts a new university row.
func CreateUniversity(ctx context.Context, db *gorm.DB, u *domain.University) error {
	return db.WithContext(ctx).Create(u).Error
}
