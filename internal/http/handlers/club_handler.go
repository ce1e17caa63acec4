// Club HTTP handlers.
//
// This file exposes REST endpoints for club resources:
//   - GET    /clubs        (own clubs, auth required)
//   - POST   /clubs        (register, auth required, Idempotency-Key replay)
//   - GET    /clubs/{id}   (public detail)
//   - PUT    /clubs/{id}   (owner update, auth required)
//   - DELETE /clubs/{id}   (owner deactivate, auth required)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/http/middleware"
	"github.com/clubnavi/go-club-backend/internal/repo"
	"github.com/clubnavi/go-club-backend/internal/services"
	"github.com/clubnavi/go-club-backend/internal/utils"
)

// ClubService defines club lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClubService interface {
	// ListClubs returns a page of a university's active clubs.
	ListClubs(ctx context.Context, universityID uint, page, pageSize int) (*services.ClubPage, error)
	// GetClub returns club detail; inactive clubs only for their owner.
	GetClub(ctx context.Context, id, viewerID uint) (*domain.Club, error)
	// ListOwn returns the caller's clubs.
	ListOwn(ctx context.Context, userID uint) ([]domain.Club, error)
	// Create registers a club at the owner's university.
	Create(ctx context.Context, ownerID, universityID uint, in services.ClubInput) (*domain.Club, error)
	// Update modifies a club owned by the caller.
	Update(ctx context.Context, id, ownerID uint, in services.ClubInput) (*domain.Club, error)
	// Deactivate soft-deletes a club owned by the caller.
	Deactivate(ctx context.Context, id, ownerID uint) error
}

// ClubRequest is the JSON payload for creating or updating a club.
type ClubRequest struct {
	Name        string   `json:"name" binding:"required" example:"テニスサークル"`
	MemberCount int      `json:"member_count" binding:"required,min=1" example:"25"`
	Description string   `json:"description" example:"初心者歓迎！週2回活動しています"`
	Category    *string  `json:"category,omitempty" example:"SPORTS"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

// ListOwnClubsResponse wraps the caller's club list.
type ListOwnClubsResponse struct {
	Clubs []domain.Club `json:"clubs"`
}

func (r ClubRequest) input() services.ClubInput {
	return services.ClubInput{
		Name:        r.Name,
		MemberCount: r.MemberCount,
		Description: r.Description,
		Category:    r.Category,
		ImageURLs:   r.ImageURLs,
	}
}

// ListOwnClubs godoc
// @ID          listOwnClubs
// @Summary     List own clubs
// @Description Returns every club owned by the authenticated user, newest first.
// @Tags        Clubs
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListOwnClubsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clubs [get]
func (h *Handlers) ListOwnClubs(c *gin.Context) {
	clubs, err := h.clubSvc.ListOwn(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, MsgInternalError)
		return
	}
	ok(c, http.StatusOK, ListOwnClubsResponse{Clubs: clubs})
}

// CreateClub godoc
// @ID          createClub
// @Summary     Register a club
// @Description Creates a club at the caller's university. Resending the same Idempotency-Key within its TTL replays the originally created club instead of failing on the duplicate name.
// @Tags        Clubs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Safe-retry key"
// @Param       body             body    handlers.ClubRequest  true  "Club payload"
//
// @Success     200  {object}  domain.Club  "Replay of a previous registration"
// @Success     201  {object}  domain.Club
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate club name"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clubs [post]
func (h *Handlers) CreateClub(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	// Serve replays from the idempotency record.
	if middleware.IsReplay(c) && h.db != nil {
		if key, okKey := middleware.GetIdempotencyKey(c); okKey {
			rec, err := repo.GetIdempotency(ctx, h.db, uid, key, time.Now().UTC())
			if err == nil && rec != nil {
				if club, err := h.clubSvc.GetClub(ctx, rec.ClubID, uid); err == nil {
					ok(c, rec.Status, club)
					return
				}
			}
		}
	}

	var req ClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークル名と人数は必須です")
		return
	}

	club, err := h.clubSvc.Create(ctx, uid, middleware.UniversityID(c), req.input())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidClub):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークル情報が不正です")
		case errors.Is(err, services.ErrDuplicateClub):
			fail(c, http.StatusConflict, ErrCodeConflict, "同じ名前のサークルが既に存在します")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, MsgInternalError)
		}
		return
	}

	// Record the outcome for future replays. Best-effort.
	if key, okKey := middleware.GetIdempotencyKey(c); okKey && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, uid, key, club.ID, http.StatusCreated, h.idemTTL)
	}

	ok(c, http.StatusCreated, club)
}

// GetClub godoc
// @ID          getClub
// @Summary     Club detail
// @Description Returns a club with its ordered image list. Inactive clubs are visible only to their owner.
// @Tags        Clubs
// @Produce     json
//
// @Param       id  path  int  true  "Club ID"
//
// @Success     200  {object}  domain.Club
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Club not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clubs/{id} [get]
func (h *Handlers) GetClub(c *gin.Context) {
	id := utils.AtoiDefault(c.Param("id"), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークルIDが不正です")
		return
	}

	club, err := h.clubSvc.GetClub(c.Request.Context(), uint(id), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, services.ErrClubNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "サークルが見つかりません")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternalError)
		return
	}
	ok(c, http.StatusOK, club)
}

// UpdateClub godoc
// @ID          updateClub
// @Summary     Update a club
// @Description Replaces the attributes and image list of a club owned by the caller.
// @Tags        Clubs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                   true  "Club ID"
// @Param       body  body  handlers.ClubRequest  true  "Club payload"
//
// @Success     200  {object}  domain.Club
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Club not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate club name"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clubs/{id} [put]
func (h *Handlers) UpdateClub(c *gin.Context) {
	id := utils.AtoiDefault(c.Param("id"), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークルIDが不正です")
		return
	}

	var req ClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークル名と人数は必須です")
		return
	}

	club, err := h.clubSvc.Update(c.Request.Context(), uint(id), middleware.UserID(c), req.input())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidClub):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークル情報が不正です")
		case errors.Is(err, services.ErrClubNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "サークルが見つかりません")
		case errors.Is(err, services.ErrDuplicateClub):
			fail(c, http.StatusConflict, ErrCodeConflict, "同じ名前のサークルが既に存在します")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternalError)
		}
		return
	}
	ok(c, http.StatusOK, club)
}

// DeleteClub godoc
// @ID          deleteClub
// @Summary     Deactivate a club
// @Description Soft-deletes a club owned by the caller; it disappears from listings and chat recommendations.
// @Tags        Clubs
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Club ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Club not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /clubs/{id} [delete]
func (h *Handlers) DeleteClub(c *gin.Context) {
	id := utils.AtoiDefault(c.Param("id"), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "サークルIDが不正です")
		return
	}

	if err := h.clubSvc.Deactivate(c.Request.Context(), uint(id), middleware.UserID(c)); err != nil {
		if errors.Is(err, services.ErrClubNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "サークルが見つかりません")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternalError)
		return
	}
	noContent(c)
}
