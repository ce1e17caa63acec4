// Package services – ClubService
//
// This file implements ClubService, which owns the club directory lifecycle:
// listing a university's active clubs with pagination, fetching club detail,
// and the owner-scoped create/update/deactivate operations. It validates
// attributes, enforces ownership, and coordinates repository calls; the
// repositories stay free of business rules.
//
// Service-level errors (ErrClubNotFound, ErrDuplicateClub, ErrInvalidClub)
// are returned for predictable cases so handlers can map them to HTTP
// results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/cache"
	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// validCategories are the owner-declared category tags.
var validCategories = map[string]bool{
	"SPORTS":  true,
	"CULTURE": true,
	"OTHER":   true,
}

// ClubInput carries the caller-supplied club attributes for create/update.
type ClubInput struct {
	Name        string
	MemberCount int
	Description string
	Category    *string
	ImageURLs   []string
}

// ClubService provides directory and owner operations for clubs.
type ClubService struct {
	DB *gorm.DB
	// Listings is the TTL cache for per-university directory pages.
	// Optional; nil disables caching.
	Listings *cache.Directory

	// NameMaxLen caps club names by rune length.
	NameMaxLen int
}

// ClubPage is one page of a university's directory listing.
type ClubPage struct {
	Items    []domain.Club `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int64         `json:"total"`
}

// ListClubs returns a page of a university's active clubs, most popular
// first. Pages are cached per (university, page, size) for the configured
// TTL; mutations flush the cache.
func (s *ClubService) ListClubs(ctx context.Context, universityID uint, page, pageSize int) (*ClubPage, error) {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "ListClubs",
		trace.WithAttributes(
			attribute.Int("university.id", int(universityID)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := repo.GetUniversity(ctx, s.DB, universityID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUniversityNotFound
		}
		return nil, err
	}

	key := listingKey(universityID, page, pageSize)
	if s.Listings != nil {
		if v, ok := s.Listings.Get(key); ok {
			if p, ok := v.(*ClubPage); ok {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return p, nil
			}
		}
	}

	total, err := repo.CountActiveClubs(ctx, s.DB, universityID)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListClubsPage(ctx, s.DB, universityID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	p := &ClubPage{Items: items, Page: page, PageSize: pageSize, Total: total}
	if s.Listings != nil {
		s.Listings.Set(key, p)
	}
	return p, nil
}

// GetClub returns club detail by id. Inactive clubs are only visible to
// their owner; pass viewerID 0 for anonymous callers.
func (s *ClubService) GetClub(ctx context.Context, id, viewerID uint) (*domain.Club, error) {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "GetClub",
		trace.WithAttributes(attribute.Int("club.id", int(id))),
	)
	defer span.End()

	c, err := repo.GetClub(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	if !c.IsActive && c.OwnerID != viewerID {
		return nil, ErrClubNotFound
	}
	return c, nil
}

// ListOwn returns every club owned by userID, newest first.
func (s *ClubService) ListOwn(ctx context.Context, userID uint) ([]domain.Club, error) {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "ListOwn",
		trace.WithAttributes(attribute.Int("user.id", int(userID))),
	)
	defer span.End()

	return repo.ListClubsByOwner(ctx, s.DB, userID)
}

// Create registers a club at the owner's university.
func (s *ClubService) Create(ctx context.Context, ownerID, universityID uint, in ClubInput) (*domain.Club, error) {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int("user.id", int(ownerID)),
			attribute.Int("university.id", int(universityID)),
		),
	)
	defer span.End()

	if err := s.validate(&in); err != nil {
		return nil, err
	}

	c := &domain.Club{
		UniversityID: universityID,
		OwnerID:      ownerID,
		Name:         in.Name,
		MemberCount:  in.MemberCount,
		Description:  in.Description,
		IsActive:     true,
		Category:     in.Category,
	}
	for i, u := range in.ImageURLs {
		c.Images = append(c.Images, domain.ClubImage{Position: i, URL: u})
	}

	if err := repo.CreateClub(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateClub
		}
		return nil, err
	}
	s.flushListings()
	return c, nil
}

// Update applies the input to a club owned by ownerID and replaces its image
// list. Returns ErrClubNotFound when the club is missing or not owned.
func (s *ClubService) Update(ctx context.Context, id, ownerID uint, in ClubInput) (*domain.Club, error) {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int("club.id", int(id)),
			attribute.Int("user.id", int(ownerID)),
		),
	)
	defer span.End()

	if err := s.validate(&in); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"name":         in.Name,
		"member_count": in.MemberCount,
		"description":  in.Description,
		"category":     in.Category,
	}
	if err := repo.UpdateClub(ctx, s.DB, id, ownerID, fields); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrClubNotFound
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrDuplicateClub
		default:
			return nil, err
		}
	}
	if err := repo.ReplaceClubImages(ctx, s.DB, id, in.ImageURLs); err != nil {
		return nil, err
	}
	s.flushListings()
	return repo.GetClub(ctx, s.DB, id)
}

// Deactivate soft-deletes a club owned by ownerID.
func (s *ClubService) Deactivate(ctx context.Context, id, ownerID uint) error {
	tr := otel.Tracer("services/ClubService")
	ctx, span := tr.Start(ctx, "Deactivate",
		trace.WithAttributes(
			attribute.Int("club.id", int(id)),
			attribute.Int("user.id", int(ownerID)),
		),
	)
	defer span.End()

	if err := repo.DeleteClub(ctx, s.DB, id, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrClubNotFound
		}
		return err
	}
	s.flushListings()
	return nil
}

// validate normalizes and checks caller-supplied attributes.
func (s *ClubService) validate(in *ClubInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.MemberCount < 1 {
		return ErrInvalidClub
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(in.Name) > s.NameMaxLen {
		return ErrInvalidClub
	}
	if len(in.ImageURLs) > domain.MaxClubImages {
		return ErrInvalidClub
	}
	for _, u := range in.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return ErrInvalidClub
		}
	}
	if in.Category != nil {
		up := strings.ToUpper(strings.TrimSpace(*in.Category))
		if up == "" {
			in.Category = nil
		} else if !validCategories[up] {
			return ErrInvalidClub
		} else {
			in.Category = &up
		}
	}
	return nil
}

func (s *ClubService) flushListings() {
	if s.Listings != nil {
		s.Listings.Flush()
	}
}

func listingKey(universityID uint, page, pageSize int) string {
	return fmt.Sprintf("clubs:%d:%d:%d", universityID, page, pageSize)
}
