package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/http/middleware"
	"github.com/clubnavi/go-club-backend/internal/repo"
	"github.com/clubnavi/go-club-backend/internal/services"
)

// newHandlersDB opens a throwaway file-backed sqlite database with the full
// schema migrated.
func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("handlers_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// stubClubService implements ClubService via per-method function fields.
// Unset methods report an unexpected call.
type stubClubService struct {
	listClubsFn  func(universityID uint, page, pageSize int) (*services.ClubPage, error)
	getClubFn    func(id, viewerID uint) (*domain.Club, error)
	listOwnFn    func(userID uint) ([]domain.Club, error)
	createFn     func(ownerID, universityID uint, in services.ClubInput) (*domain.Club, error)
	updateFn     func(id, ownerID uint, in services.ClubInput) (*domain.Club, error)
	deactivateFn func(id, ownerID uint) error
}

var errUnexpectedCall = errors.New("unexpected service call")

func (s *stubClubService) ListClubs(ctx context.Context, universityID uint, page, pageSize int) (*services.ClubPage, error) {
	if s.listClubsFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listClubsFn(universityID, page, pageSize)
}

func (s *stubClubService) GetClub(ctx context.Context, id, viewerID uint) (*domain.Club, error) {
	if s.getClubFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getClubFn(id, viewerID)
}

func (s *stubClubService) ListOwn(ctx context.Context, userID uint) ([]domain.Club, error) {
	if s.listOwnFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listOwnFn(userID)
}

func (s *stubClubService) Create(ctx context.Context, ownerID, universityID uint, in services.ClubInput) (*domain.Club, error) {
	if s.createFn == nil {
		return nil, errUnexpectedCall
	}
	return s.createFn(ownerID, universityID, in)
}

func (s *stubClubService) Update(ctx context.Context, id, ownerID uint, in services.ClubInput) (*domain.Club, error) {
	if s.updateFn == nil {
		return nil, errUnexpectedCall
	}
	return s.updateFn(id, ownerID, in)
}

func (s *stubClubService) Deactivate(ctx context.Context, id, ownerID uint) error {
	if s.deactivateFn == nil {
		return errUnexpectedCall
	}
	return s.deactivateFn(id, ownerID)
}

// sessionParser accepts any token as user 7 at university 3 (東京大学).
func sessionParser(token string) (*services.Claims, error) {
	return &services.Claims{UserID: 7, UniversityID: 3, UniversityName: "東京大学"}, nil
}

// newClubRouter mounts the owner-facing club routes behind RequireAuth. When
// db is non-nil the idempotency validator runs with a DB-backed lookup, same
// shape as production wiring.
func newClubRouter(svc ClubService, db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequireAuth(sessionParser))
	if db != nil {
		lookup := func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		}
		r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	}
	h := New(nil, nil, svc, nil, db, time.Hour)
	r.GET("/clubs", h.ListOwnClubs)
	r.POST("/clubs", h.CreateClub)
	r.PUT("/clubs/:id", h.UpdateClub)
	r.DELETE("/clubs/:id", h.DeleteClub)
	return r
}

func authedRequest(t *testing.T, r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer session-token")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateClub_Created(t *testing.T) {
	var gotOwner, gotUni uint
	var gotIn services.ClubInput
	svc := &stubClubService{
		createFn: func(ownerID, universityID uint, in services.ClubInput) (*domain.Club, error) {
			gotOwner, gotUni, gotIn = ownerID, universityID, in
			return &domain.Club{ID: 9, Name: in.Name, MemberCount: in.MemberCount, IsActive: true}, nil
		},
	}
	r := newClubRouter(svc, nil)

	w := authedRequest(t, r, http.MethodPost, "/clubs",
		`{"name":"将棋研究会","member_count":12,"description":"初心者歓迎"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"name":"将棋研究会"`) {
		t.Errorf("body = %s, want created club", w.Body.String())
	}
	if gotOwner != 7 || gotUni != 3 {
		t.Errorf("owner/university = %d/%d, want claims 7/3", gotOwner, gotUni)
	}
	if gotIn.MemberCount != 12 || gotIn.Description != "初心者歓迎" {
		t.Errorf("input = %+v", gotIn)
	}
}

func TestCreateClub_Errors(t *testing.T) {
	cases := map[string]struct {
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		"missing required fields": {`{"description":"x"}`, nil, http.StatusBadRequest, "サークル名と人数は必須です"},
		"invalid input":           {`{"name":"x","member_count":1}`, services.ErrInvalidClub, http.StatusBadRequest, "サークル情報が不正です"},
		"duplicate name":          {`{"name":"x","member_count":1}`, services.ErrDuplicateClub, http.StatusConflict, "同じ名前のサークルが既に存在します"},
		"internal":                {`{"name":"x","member_count":1}`, errors.New("boom"), http.StatusInternalServerError, MsgInternalError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubClubService{
				createFn: func(ownerID, universityID uint, in services.ClubInput) (*domain.Club, error) {
					return nil, tc.err
				},
			}
			r := newClubRouter(svc, nil)
			w := authedRequest(t, r, http.MethodPost, "/clubs", tc.body, nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			if !strings.Contains(w.Body.String(), tc.wantMsg) {
				t.Errorf("body = %s, want %q", w.Body.String(), tc.wantMsg)
			}
		})
	}
}

func TestCreateClub_IdempotentReplay(t *testing.T) {
	db := newHandlersDB(t)
	if _, err := repo.CreateIdempotency(context.Background(), db, 7, "retry-1", 42, http.StatusCreated, time.Hour); err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}

	svc := &stubClubService{
		// createFn left unset: a replay must never reach Create.
		getClubFn: func(id, viewerID uint) (*domain.Club, error) {
			if id != 42 || viewerID != 7 {
				t.Errorf("replay fetched club %d as user %d", id, viewerID)
			}
			return &domain.Club{ID: 42, Name: "将棋研究会", MemberCount: 12, IsActive: true}, nil
		},
	}
	r := newClubRouter(svc, db)

	w := authedRequest(t, r, http.MethodPost, "/clubs",
		`{"name":"将棋研究会","member_count":12}`,
		map[string]string{middleware.HeaderIdempotencyKey: "retry-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want replayed 201: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":42`) {
		t.Errorf("body = %s, want original club", w.Body.String())
	}
}

func TestCreateClub_RecordsIdempotencyOutcome(t *testing.T) {
	db := newHandlersDB(t)
	svc := &stubClubService{
		createFn: func(ownerID, universityID uint, in services.ClubInput) (*domain.Club, error) {
			return &domain.Club{ID: 9, Name: in.Name, MemberCount: in.MemberCount, IsActive: true}, nil
		},
	}
	r := newClubRouter(svc, db)

	w := authedRequest(t, r, http.MethodPost, "/clubs",
		`{"name":"落語研究会","member_count":8}`,
		map[string]string{middleware.HeaderIdempotencyKey: "retry-2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	rec, err := repo.GetIdempotency(context.Background(), db, 7, "retry-2", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if rec.ClubID != 9 || rec.Status != http.StatusCreated {
		t.Errorf("record = club %d status %d, want 9/201", rec.ClubID, rec.Status)
	}
}

func TestGetClub_Public(t *testing.T) {
	svc := &stubClubService{
		getClubFn: func(id, viewerID uint) (*domain.Club, error) {
			if id == 1 {
				return &domain.Club{ID: 1, Name: "バスケットボール部", MemberCount: 26, IsActive: true}, nil
			}
			return nil, services.ErrClubNotFound
		},
	}
	r := gin.New()
	h := New(nil, nil, svc, nil, nil, 0)
	r.GET("/clubs/:id", h.GetClub)

	cases := map[string]struct {
		path     string
		wantCode int
		wantBody string
	}{
		"found":      {"/clubs/1", http.StatusOK, `"name":"バスケットボール部"`},
		"missing":    {"/clubs/99", http.StatusNotFound, "サークルが見つかりません"},
		"invalid id": {"/clubs/abc", http.StatusBadRequest, "サークルIDが不正です"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Errorf("body = %s, want %q", w.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestUpdateClub(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &stubClubService{
			updateFn: func(id, ownerID uint, in services.ClubInput) (*domain.Club, error) {
				if id != 5 || ownerID != 7 {
					t.Errorf("update id/owner = %d/%d", id, ownerID)
				}
				return &domain.Club{ID: 5, Name: in.Name, MemberCount: in.MemberCount, IsActive: true}, nil
			},
		}
		r := newClubRouter(svc, nil)
		w := authedRequest(t, r, http.MethodPut, "/clubs/5",
			`{"name":"合唱団","member_count":30}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"name":"合唱団"`) {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("not owner", func(t *testing.T) {
		svc := &stubClubService{
			updateFn: func(id, ownerID uint, in services.ClubInput) (*domain.Club, error) {
				return nil, services.ErrClubNotFound
			},
		}
		r := newClubRouter(svc, nil)
		w := authedRequest(t, r, http.MethodPut, "/clubs/5", `{"name":"合唱団","member_count":30}`, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc := &stubClubService{
			updateFn: func(id, ownerID uint, in services.ClubInput) (*domain.Club, error) {
				return nil, services.ErrDuplicateClub
			},
		}
		r := newClubRouter(svc, nil)
		w := authedRequest(t, r, http.MethodPut, "/clubs/5", `{"name":"合唱団","member_count":30}`, nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", w.Code)
		}
	})

	t.Run("bind error", func(t *testing.T) {
		r := newClubRouter(&stubClubService{}, nil)
		w := authedRequest(t, r, http.MethodPut, "/clubs/5", `{"member_count":0}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestDeleteClub(t *testing.T) {
	t.Run("deactivated", func(t *testing.T) {
		svc := &stubClubService{
			deactivateFn: func(id, ownerID uint) error {
				if id != 5 || ownerID != 7 {
					t.Errorf("deactivate id/owner = %d/%d", id, ownerID)
				}
				return nil
			},
		}
		r := newClubRouter(svc, nil)
		w := authedRequest(t, r, http.MethodDelete, "/clubs/5", "", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubClubService{
			deactivateFn: func(id, ownerID uint) error { return services.ErrClubNotFound },
		}
		r := newClubRouter(svc, nil)
		w := authedRequest(t, r, http.MethodDelete, "/clubs/99", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestListOwnClubs(t *testing.T) {
	svc := &stubClubService{
		listOwnFn: func(userID uint) ([]domain.Club, error) {
			if userID != 7 {
				t.Errorf("listOwn userID = %d, want 7", userID)
			}
			return []domain.Club{
				{ID: 2, Name: "落語研究会", MemberCount: 12, IsActive: true},
				{ID: 1, Name: "バスケットボール部", MemberCount: 26, IsActive: false},
			}, nil
		},
	}
	r := newClubRouter(svc, nil)
	w := authedRequest(t, r, http.MethodGet, "/clubs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "落語研究会") || !strings.Contains(w.Body.String(), "バスケットボール部") {
		t.Errorf("body = %s, want both clubs", w.Body.String())
	}
}

func TestClubRoutes_RequireAuth(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequireAuth(func(string) (*services.Claims, error) {
		return nil, errors.New("bad token")
	}))
	h := New(nil, nil, &stubClubService{}, nil, nil, 0)
	r.GET("/clubs", h.ListOwnClubs)

	req := httptest.NewRequest(http.MethodGet, "/clubs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "認証が必要です") {
		t.Errorf("body = %s, want auth message", w.Body.String())
	}
}
