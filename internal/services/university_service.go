// Package services – UniversityService
//
// This file implements UniversityService, which serves the university
// directory: the full listing, kana-prefix browsing, and detail lookup.
// Universities are reference data, so listings are cached aggressively.
//
// Prefix lookups normalize caller input before hitting the store: full-width
// and half-width forms are folded (NFKC), and katakana is converted to
// hiragana so that "ﾄｳｷｮｳ", "トウキョウ", and "とうきょう" all match a
// reading stored in hiragana.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/cache"
	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UniversityService provides read access to the university directory.
type UniversityService struct {
	DB *gorm.DB
	// Listings caches directory responses. Optional; nil disables caching.
	Listings *cache.Directory
}

// List returns every university ordered by reading. The full listing is
// cached under a single key.
func (s *UniversityService) List(ctx context.Context) ([]domain.University, error) {
	tr := otel.Tracer("services/UniversityService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	const key = "universities:all"
	if s.Listings != nil {
		if v, ok := s.Listings.Get(key); ok {
			if out, ok := v.([]domain.University); ok {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return out, nil
			}
		}
	}

	out, err := repo.ListUniversities(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if s.Listings != nil {
		s.Listings.Set(key, out)
	}
	return out, nil
}

// ListByPrefix returns universities whose reading starts with the normalized
// kana prefix. An empty prefix falls back to the full listing.
func (s *UniversityService) ListByPrefix(ctx context.Context, prefix string) ([]domain.University, error) {
	tr := otel.Tracer("services/UniversityService")
	ctx, span := tr.Start(ctx, "ListByPrefix",
		trace.WithAttributes(attribute.String("prefix", prefix)),
	)
	defer span.End()

	p := NormalizeKana(prefix)
	if p == "" {
		return s.List(ctx)
	}
	return repo.ListUniversitiesByReadingPrefix(ctx, s.DB, p)
}

// Get returns one university by id, or ErrUniversityNotFound.
func (s *UniversityService) Get(ctx context.Context, id uint) (*domain.University, error) {
	tr := otel.Tracer("services/UniversityService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int("university.id", int(id))),
	)
	defer span.End()

	u, err := repo.GetUniversity(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUniversityNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a university (admin/seeding surface) and invalidates the
// cached listing. Name and reading are required; the reading is normalized.
func (s *UniversityService) Create(ctx context.Context, name, reading string, domainName *string) (*domain.University, error) {
	tr := otel.Tracer("services/UniversityService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	name = strings.TrimSpace(name)
	reading = NormalizeKana(reading)
	if name == "" || reading == "" {
		return nil, ErrInvalidRegistration
	}

	u := &domain.University{Name: name, Reading: reading, Domain: domainName}
	if err := repo.CreateUniversity(ctx, s.DB, u); err != nil {
		return nil, err
	}
	if s.Listings != nil {
		s.Listings.Flush()
	}
	return u, nil
}

// NormalizeKana folds width variants (NFKC), converts katakana to hiragana,
// and lowercases any latin remainder. Readings and prefix queries pass
// through the same function so comparisons are consistent.
func NormalizeKana(s string) string {
	s = norm.NFKC.String(width.Fold.String(strings.TrimSpace(s)))
	runes := []rune(s)
	for i, r := range runes {
		// Katakana block (ァ..ヶ) sits 0x60 above hiragana.
		if r >= 'ァ' && r <= 'ヶ' {
			runes[i] = r - 0x60
		}
	}
	return strings.ToLower(string(runes))
}
