// Package handlers provides HTTP handler implementations for the public API.
//
// This file wires handler dependencies. Handlers depend on abstract service
// interfaces (declared next to the endpoints that consume them) to keep
// transport concerns separate from business logic.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/utils"
)

// Handlers groups the HTTP endpoints for chat, universities, clubs, and auth.
type Handlers struct {
	chatSvc ChatService
	uniSvc  UniversityService
	clubSvc ClubService
	authSvc AuthService

	// db powers ETag stat pre-checks and idempotency replays; optional.
	db *gorm.DB
	// idemTTL is how long a club registration stays replayable.
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(chatSvc ChatService, uniSvc UniversityService, clubSvc ClubService, authSvc AuthService, db *gorm.DB, idemTTL time.Duration) *Handlers {
	return &Handlers{
		chatSvc: chatSvc,
		uniSvc:  uniSvc,
		clubSvc: clubSvc,
		authSvc: authSvc,
		db:      db,
		idemTTL: idemTTL,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor builds response metadata from a total row count.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
