// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Club model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a club is not found, functions return gorm.ErrRecordNotFound
//     (exported in this package as ErrNotFound).
//   - Unique-name violations surface as ErrDuplicate from CreateClub.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/domain"
)

// ListActiveClubs returns the active clubs of a university ordered by member
// count descending, then creation time descending. This is the ordering the
// chat pipeline embeds into the prompt inventory.
func ListActiveClubs(ctx context.Context, db *gorm.DB, universityID uint) ([]domain.Club, error) {
	var out []domain.Club
	err := db.WithContext(ctx).
		Where("university_id = ? AND is_active = ?", universityID, true).
		Order("member_count desc, created_at desc").
		Find(&out).Error
	return out, err
}

// ListClubsPage returns a page of a university's active clubs with images
// preloaded, most popular first. Use CountActiveClubs for pagination totals.
func ListClubsPage(ctx context.Context, db *gorm.DB, universityID uint, offset, limit int) ([]domain.Club, error) {
	var out []domain.Club
	err := db.WithContext(ctx).
		Preload("Images", func(q *gorm.DB) *gorm.DB { return q.Order("position asc") }).
		Where("university_id = ? AND is_active = ?", universityID, true).
		Order("member_count desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountActiveClubs returns the number of active clubs for a university.
func CountActiveClubs(ctx context.Context, db *gorm.DB, universityID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Club{}).
		Where("university_id = ? AND is_active = ?", universityID, true).
		Count(&total).Error
	return total, err
}

// GetClub fetches a club by ID with images preloaded, or ErrNotFound.
// Inactive clubs are still returned; visibility rules belong to the service.
func GetClub(ctx context.Context, db *gorm.DB, id uint) (*domain.Club, error) {
	var c domain.Club
	err := db.WithContext(ctx).
		Preload("Images", func(q *gorm.DB) *gorm.DB { return q.Order("position asc") }).
		Preload("University").
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClubsByOwner returns every club owned by userID, newest first.
func ListClubsByOwner(ctx context.Context, db *gorm.DB, ownerID uint) ([]domain.Club, error) {
	var out []domain.Club
	err := db.WithContext(ctx).
		Preload("Images", func(q *gorm.DB) *gorm.DB { return q.Order("position asc") }).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateClub inserts a club together with its image rows in one transaction.
// A (university_id, name) unique violation is reported as ErrDuplicate.
func CreateClub(ctx context.Context, db *gorm.DB, c *domain.Club) error {
	err := db.WithContext(ctx).Create(c).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateClub persists changes to the given fields of a club owned by ownerID.
// Returns ErrNotFound when the club is missing or owned by someone else.
func UpdateClub(ctx context.Context, db *gorm.DB, id, ownerID uint, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Club{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceClubImages swaps a club's ordered image list inside a transaction.
func ReplaceClubImages(ctx context.Context, db *gorm.DB, clubID uint, urls []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("club_id = ?", clubID).Delete(&domain.ClubImage{}).Error; err != nil {
			return err
		}
		for i, u := range urls {
			img := domain.ClubImage{ClubID: clubID, Position: i, URL: u}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteClub deactivates a club owned by ownerID by clearing is_active. The
// row is retained so the owner keeps seeing it in their own listings.
// Returns ErrNotFound when no matching row exists.
func DeleteClub(ctx context.Context, db *gorm.DB, id, ownerID uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Club{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation recognizes unique-index violations across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
// mysql reports error 1062 in the message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "error 1062") ||
		strings.Contains(low, "duplicate entry")
}
