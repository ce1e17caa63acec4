package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, uid uint) *gin.Engine {
	r := gin.New()
	if uid != 0 {
		r.Use(func(c *gin.Context) { c.Set(ctxKeyUserID, uid) })
	}
	r.POST("/clubs", IdempotencyValidator(opts, lookup), func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{
			"key":    key,
			"replay": IsReplay(c),
			"bypass": IsRateBypass(c),
		})
	})
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/clubs", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	r := idemRouter(IdempotencyOptions{}, nil, 0)
	w := postWithKey(r, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	r := idemRouter(IdempotencyOptions{MaxLen: 10}, nil, 0)
	for _, key := range []string{
		"has space",
		"ünïcode",
		"trailing/slash",
		strings.Repeat("a", 11), // over MaxLen
	} {
		w := postWithKey(r, key)
		if w.Code != http.StatusBadRequest {
			t.Errorf("key %q: status %d; want 400", key, w.Code)
		}
		if !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Errorf("key %q: body %s", key, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_AcceptsTokenChars(t *testing.T) {
	r := idemRouter(IdempotencyOptions{}, nil, 0)
	w := postWithKey(r, "order-2025.06:retry_1~x")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"key":"order-2025.06:retry_1~x"`) {
		t.Fatalf("key not stashed: %s", w.Body.String())
	}
}

func TestIdempotencyValidator_ReplayMarksBypass(t *testing.T) {
	lookup := func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
		return userID == 7 && key == "known", nil
	}

	r := idemRouter(IdempotencyOptions{}, lookup, 7)
	w := postWithKey(r, "known")
	body := w.Body.String()
	if !strings.Contains(body, `"replay":true`) || !strings.Contains(body, `"bypass":true`) {
		t.Fatalf("replay flags not set: %s", body)
	}

	w = postWithKey(r, "fresh")
	body = w.Body.String()
	if !strings.Contains(body, `"replay":false`) {
		t.Fatalf("fresh key flagged as replay: %s", body)
	}
}

func TestIdempotencyValidator_AnonymousSkipsLookup(t *testing.T) {
	called := false
	lookup := func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
		called = true
		return true, nil
	}

	r := idemRouter(IdempotencyOptions{}, lookup, 0)
	w := postWithKey(r, "some-key")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if called {
		t.Error("lookup must not run for anonymous requests")
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}
