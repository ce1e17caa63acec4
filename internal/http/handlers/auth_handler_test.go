package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/services"
)

// stubAuthService implements AuthService via function fields.
type stubAuthService struct {
	registerFn func(name, email, password string, universityID uint) (*domain.User, error)
	loginFn    func(name, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string, universityID uint) (*domain.User, error) {
	if s.registerFn == nil {
		return nil, errUnexpectedCall
	}
	return s.registerFn(name, email, password, universityID)
}

func (s *stubAuthService) Login(ctx context.Context, name, password string) (string, *domain.User, error) {
	if s.loginFn == nil {
		return "", nil, errUnexpectedCall
	}
	return s.loginFn(name, password)
}

func (s *stubAuthService) Parse(token string) (*services.Claims, error) {
	return nil, errUnexpectedCall
}

func newAuthRouter(svc AuthService) *gin.Engine {
	r := gin.New()
	h := New(nil, nil, nil, svc, nil, 0)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &stubAuthService{
			registerFn: func(name, email, password string, universityID uint) (*domain.User, error) {
				if name != "taro" || email != "taro@example.ac.jp" || universityID != 1 {
					t.Errorf("register args = %q/%q/%d", name, email, universityID)
				}
				return &domain.User{ID: 7, Name: name, Email: email, UniversityID: universityID}, nil
			},
		}
		r := newAuthRouter(svc)
		w := postJSON(t, r, "/auth/register",
			`{"name":"taro","email":"taro@example.ac.jp","password":"s3cret-pass","university_id":1}`, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if !strings.Contains(body, `"name":"taro"`) {
			t.Errorf("body = %s, want created user", body)
		}
		if strings.Contains(body, "password_digest") || strings.Contains(body, "s3cret-pass") {
			t.Errorf("body leaks credentials: %s", body)
		}
	})

	t.Run("short password rejected at bind", func(t *testing.T) {
		r := newAuthRouter(&stubAuthService{})
		w := postJSON(t, r, "/auth/register",
			`{"name":"taro","email":"taro@example.ac.jp","password":"short","university_id":1}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "8文字以上") {
			t.Errorf("body = %s, want password-length hint", w.Body.String())
		}
	})

	t.Run("service errors", func(t *testing.T) {
		cases := map[string]struct {
			err      error
			wantCode int
			wantMsg  string
		}{
			"invalid":   {services.ErrInvalidRegistration, http.StatusBadRequest, "登録内容が不正です"},
			"duplicate": {services.ErrDuplicateUser, http.StatusConflict, "このアカウントは既に登録されています"},
			"internal":  {errors.New("boom"), http.StatusInternalServerError, MsgInternalError},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				svc := &stubAuthService{
					registerFn: func(name, email, password string, universityID uint) (*domain.User, error) {
						return nil, tc.err
					},
				}
				r := newAuthRouter(svc)
				w := postJSON(t, r, "/auth/register",
					`{"name":"taro","email":"taro@example.ac.jp","password":"s3cret-pass","university_id":1}`, nil)
				if w.Code != tc.wantCode {
					t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
				}
				if !strings.Contains(w.Body.String(), tc.wantMsg) {
					t.Errorf("body = %s, want %q", w.Body.String(), tc.wantMsg)
				}
			})
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("issues session", func(t *testing.T) {
		svc := &stubAuthService{
			loginFn: func(name, password string) (string, *domain.User, error) {
				if name != "taro" || password != "s3cret-pass" {
					t.Errorf("login args = %q/%q", name, password)
				}
				return "signed-token", &domain.User{ID: 7, Name: "taro", UniversityID: 1}, nil
			},
		}
		r := newAuthRouter(svc)
		w := postJSON(t, r, "/auth/login", `{"name":"taro","password":"s3cret-pass"}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if !strings.Contains(body, `"token":"signed-token"`) || !strings.Contains(body, `"name":"taro"`) {
			t.Errorf("body = %s, want token and user", body)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := &stubAuthService{
			loginFn: func(name, password string) (string, *domain.User, error) {
				return "", nil, services.ErrInvalidCredentials
			},
		}
		r := newAuthRouter(svc)
		w := postJSON(t, r, "/auth/login", `{"name":"taro","password":"wrong-pass"}`, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if !strings.Contains(w.Body.String(), "名前またはパスワードが正しくありません") {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newAuthRouter(&stubAuthService{})
		w := postJSON(t, r, "/auth/login", `{"name":"taro"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "名前とパスワードは必須です") {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}
