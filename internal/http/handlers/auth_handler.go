// Auth HTTP handlers.
//
// This file exposes the credentials flow:
//   - POST /auth/register   (create account)
//   - POST /auth/login      (issue session token)
//
// Login failures are uniform: unknown account and wrong password are not
// distinguishable from the response.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/services"
)

// AuthService defines the credentials operations consumed by HTTP handlers.
type AuthService interface {
	// Register creates an account at the given university.
	Register(ctx context.Context, name, email, password string, universityID uint) (*domain.User, error)
	// Login verifies credentials and returns a signed session token.
	Login(ctx context.Context, name, password string) (string, *domain.User, error)
	// Parse verifies a session token. Used by the auth middleware.
	Parse(token string) (*services.Claims, error)
}

// RegisterRequest is the JSON payload for account creation.
type RegisterRequest struct {
	Name         string `json:"name" binding:"required" example:"tanaka"`
	Email        string `json:"email" binding:"required" example:"tanaka@example.ac.jp"`
	Password     string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
	UniversityID uint   `json:"university_id" binding:"required" example:"1"`
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Name     string `json:"name" binding:"required" example:"tanaka"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// SessionResponse carries the issued token and the authenticated user.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a user at a university. The password is stored as a bcrypt digest.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Account already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "名前・メールアドレス・パスワード（8文字以上）は必須です")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.UniversityID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRegistration):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "登録内容が不正です")
		case errors.Is(err, services.ErrDuplicateUser):
			fail(c, http.StatusConflict, ErrCodeConflict, "このアカウントは既に登録されています")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, MsgInternalError)
		}
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a session token carrying the user's university context.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "名前とパスワードは必須です")
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "名前またはパスワードが正しくありません")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternalError)
		return
	}
	ok(c, http.StatusOK, SessionResponse{Token: token, User: u})
}
