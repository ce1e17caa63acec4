// University HTTP handlers.
//
// This file exposes REST endpoints for the university directory:
//   - GET  /universities                 (list, optional kana prefix filter)
//   - POST /universities                 (create, admin/seeding surface)
//   - GET  /universities/{id}/clubs      (club listing, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/repo"
	"github.com/clubnavi/go-club-backend/internal/services"
	"github.com/clubnavi/go-club-backend/internal/utils"
)

// UniversityService defines the directory operations consumed by HTTP
// handlers. Implementations must honor the provided context.
type UniversityService interface {
	// List returns every university ordered by reading.
	List(ctx context.Context) ([]domain.University, error)
	// ListByPrefix filters the listing by normalized kana prefix.
	ListByPrefix(ctx context.Context, prefix string) ([]domain.University, error)
	// Get returns one university by id.
	Get(ctx context.Context, id uint) (*domain.University, error)
	// Create inserts a new university.
	Create(ctx context.Context, name, reading string, domainName *string) (*domain.University, error)
}

// CreateUniversityRequest is the JSON payload for creating a university.
type CreateUniversityRequest struct {
	Name    string  `json:"name" binding:"required" example:"東京大学"`
	Reading string  `json:"reading" binding:"required" example:"とうきょうだいがく"`
	Domain  *string `json:"domain,omitempty" example:"u-tokyo.ac.jp"`
}

// ListUniversitiesResponse wraps the directory listing.
type ListUniversitiesResponse struct {
	Universities []domain.University `json:"universities"`
}

// ListUniversityClubsResponse wraps a page of a university's clubs.
type ListUniversityClubsResponse struct {
	Clubs      []domain.Club `json:"clubs"`
	Pagination Pagination    `json:"pagination"`
}

// ListUniversities godoc
// @ID          listUniversities
// @Summary     List universities
// @Description Returns all universities ordered by kana reading. The optional prefix query filters by reading prefix (width/kana variants are normalized).
// @Tags        Universities
// @Produce     json
//
// @Param       prefix  query  string  false  "Kana reading prefix"  example(とう)
//
// @Success     200  {object}  handlers.ListUniversitiesResponse
// @Header      200  {string}  ETag  "Weak ETag for current directory"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /universities [get]
func (h *Handlers) ListUniversities(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort). Universities are near-immutable reference
	// data, so the stat-derived tag rarely changes.
	if h.db != nil {
		count, maxTS, err := repo.UniversitiesStats(ctx, h.db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"universities:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	var (
		items []domain.University
		err   error
	)
	if prefix := c.Query("prefix"); prefix != "" {
		items, err = h.uniSvc.ListByPrefix(ctx, prefix)
	} else {
		items, err = h.uniSvc.List(ctx)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, MsgInternalError)
		return
	}
	ok(c, http.StatusOK, ListUniversitiesResponse{Universities: items})
}

// CreateUniversity godoc
// @ID          createUniversity
// @Summary     Register a university
// @Description Inserts a university into the directory. Intended for seeding and administrative use.
// @Tags        Universities
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateUniversityRequest  true  "University payload"
//
// @Success     201  {object}  domain.University
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /universities [post]
func (h *Handlers) CreateUniversity(c *gin.Context) {
	var req CreateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "大学名と読みがなは必須です")
		return
	}

	u, err := h.uniSvc.Create(c.Request.Context(), req.Name, req.Reading, req.Domain)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRegistration) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "大学名と読みがなは必須です")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, MsgInternalError)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUniversityClubs godoc
// @ID          listUniversityClubs
// @Summary     List a university's clubs (paginated)
// @Description Returns a page of the university's active clubs, most popular first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Universities
// @Produce     json
//
// @Param       id             path    int     true  "University ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListUniversityClubsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "University not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /universities/{id}/clubs [get]
func (h *Handlers) ListUniversityClubs(c *gin.Context) {
	ctx := c.Request.Context()

	id := utils.AtoiDefault(c.Param("id"), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "大学IDが不正です")
		return
	}
	universityID := uint(id)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.ClubsStats(ctx, h.db, universityID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"clubs:%d:%d:%d"`, universityID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	pageData, err := h.clubSvc.ListClubs(ctx, universityID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrUniversityNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "大学が見つかりません")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, MsgInternalError)
		return
	}

	ok(c, http.StatusOK, ListUniversityClubsResponse{
		Clubs:      pageData.Items,
		Pagination: paginationFor(page, pageSize, pageData.Total),
	})
}
