package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubnavi/go-club-backend/internal/cache"
	"github.com/clubnavi/go-club-backend/internal/repo"
)

func newUniversityService(t *testing.T) *UniversityService {
	t.Helper()
	db := newServiceDB(t)
	if err := repo.SeedUniversities(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &UniversityService{DB: db, Listings: cache.NewDirectory(time.Minute)}
}

func TestNormalizeKana(t *testing.T) {
	cases := map[string]string{
		"とうきょう":      "とうきょう",
		"トウキョウ":      "とうきょう", // katakana folds to hiragana
		"ﾄｳｷｮｳ":      "とうきょう", // half-width katakana
		"  とうきょう  ":  "とうきょう",
		"ＴＯＫＹＯ":      "tokyo", // full-width latin folds and lowercases
		"Tokyo":      "tokyo",
		"":           "",
		"   ":        "",
		"ヴ":          "ゔ",
		"わせだＷａｓｅｄａ": "わせだwaseda",
	}
	for in, want := range cases {
		if got := NormalizeKana(in); got != want {
			t.Errorf("NormalizeKana(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestUniversityList_OrderedAndCached(t *testing.T) {
	s := newUniversityService(t)
	ctx := context.Background()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d universities; want 5", len(got))
	}
	// おおさか sorts first among the seeded readings.
	if got[0].Name != "大阪大学" {
		t.Fatalf("first = %s", got[0].Name)
	}

	// Second call is served from cache and identical.
	again, err := s.List(ctx)
	if err != nil || len(again) != len(got) {
		t.Fatalf("cached List: %v (%d items)", err, len(again))
	}
}

func TestUniversityListByPrefix(t *testing.T) {
	s := newUniversityService(t)
	ctx := context.Background()

	// Katakana input matches hiragana readings after normalization.
	got, err := s.ListByPrefix(ctx, "トウキョウ")
	if err != nil {
		t.Fatalf("ListByPrefix: %v", err)
	}
	if len(got) != 1 || got[0].Name != "東京大学" {
		t.Fatalf("prefix result = %+v", got)
	}

	// Blank prefix falls back to the full list.
	got, err = s.ListByPrefix(ctx, "  ")
	if err != nil || len(got) != 5 {
		t.Fatalf("blank prefix: %v (%d items)", err, len(got))
	}
}

func TestUniversityGet(t *testing.T) {
	s := newUniversityService(t)
	ctx := context.Background()

	u, err := s.Get(ctx, 1)
	if err != nil || u == nil {
		t.Fatalf("Get(1): %v", err)
	}
	if _, err := s.Get(ctx, 999); !errors.Is(err, ErrUniversityNotFound) {
		t.Fatalf("Get(999) = %v; want ErrUniversityNotFound", err)
	}
}

func TestUniversityCreate(t *testing.T) {
	s := newUniversityService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "北海道大学", "ホッカイドウダイガク", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Reading != "ほっかいどうだいがく" {
		t.Fatalf("reading not normalized: %q", u.Reading)
	}

	// Listing cache was flushed; the new entry shows up.
	all, err := s.List(ctx)
	if err != nil || len(all) != 6 {
		t.Fatalf("List after create: %v (%d items)", err, len(all))
	}

	if _, err := s.Create(ctx, " ", "よみ", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("blank name: %v", err)
	}
	if _, err := s.Create(ctx, "名前", "  ", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("blank reading: %v", err)
	}
}
