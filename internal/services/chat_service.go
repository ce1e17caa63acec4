// Package services – ChatService
//
// This file implements ChatService, the application-level component that owns
// the chat recommendation pipeline: fetch the university's active clubs and
// aggregate counts, partition the clubs into category buckets, compose the
// system instruction document, call the completion service with the bounded
// conversation history, and post-check the generated reply against the
// inventory.
//
// Failure policy: data-fetch failures degrade to a context-free prompt;
// completion failures degrade to a fixed friendly reply; neither surfaces as
// an error to the caller. Only input validation produces errors.
//
// Observability: the public method is OpenTelemetry-instrumented; degraded
// branches are logged through the request-scoped zerolog logger and counted
// in a Prometheus counter by outcome.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clubnavi/go-club-backend/internal/classify"
	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/guard"
	"github.com/clubnavi/go-club-backend/internal/llm"
	"github.com/clubnavi/go-club-backend/internal/prompt"
	"github.com/clubnavi/go-club-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Canned user-facing replies. Always Japanese, always polite, never a raw
// provider error.
const (
	replyNoCompletionFmt  = "%sのサークルについてですね。申し訳ありませんが、現在AI機能は利用できません。"
	replyUpstreamErrorFmt = "%sのサークル情報についてお答えします。どのようなサークルをお探しですか？スポーツ系、文化系、ボランティア系など、様々なサークルがありますよ！"
	replyEmptyCompletion  = "申し訳ありません、応答を生成できませんでした。"
)

// chatReplies counts pipeline outcomes: ok, filtered (guard replaced the
// reply), degraded_data (no club context), degraded_upstream (completion
// failed), disabled (no API key).
var chatReplies = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_replies_total",
		Help: "Total chat replies by pipeline outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(chatReplies)
}

// ChatRequest is the validated input to Reply.
type ChatRequest struct {
	Message        string
	UniversityName string
	UniversityID   uint // 0 when the caller did not supply one
	History        []domain.ConversationTurn
}

// ChatResult carries the final reply plus flags describing how it was made.
type ChatResult struct {
	Reply string
	// Degraded is true when the pipeline ran without club context or the
	// completion call failed.
	Degraded bool
	// Filtered is true when the guard replaced the generated reply.
	Filtered bool
}

// ChatService runs the recommendation pipeline.
type ChatService struct {
	DB        *gorm.DB
	Completer llm.Completer

	// MaxMessageRunes caps the user message; longer input is rejected.
	MaxMessageRunes int
	// Enabled is false when no completion API key is configured; the
	// pipeline then answers with a fixed "AI unavailable" reply.
	Enabled bool
}

// Reply validates the request and runs the pipeline end to end.
//
// Error semantics: ErrMissingFields and ErrMessageTooLong are the only
// errors; every upstream failure is absorbed into a degraded 200-class
// result per the endpoint contract.
func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("university.name", req.UniversityName),
			attribute.Int("university.id", int(req.UniversityID)),
			attribute.Int("history.turns", len(req.History)),
		),
	)
	defer span.End()

	req.Message = strings.TrimSpace(req.Message)
	req.UniversityName = strings.TrimSpace(req.UniversityName)
	if req.Message == "" || req.UniversityName == "" {
		return nil, ErrMissingFields
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(req.Message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	clubs, stats := s.fetchContext(ctx, req.UniversityID)
	span.SetAttributes(attribute.Int("clubs.count", len(clubs)))

	pctx := prompt.Context{
		UniversityName: req.UniversityName,
		Stats:          stats,
		Buckets:        classify.Categorize(clubs),
		HasInventory:   len(clubs) > 0,
	}
	system := prompt.Compose(pctx)

	if !s.Enabled {
		chatReplies.WithLabelValues("disabled").Inc()
		return &ChatResult{
			Reply:    fmt.Sprintf(replyNoCompletionFmt, req.UniversityName),
			Degraded: true,
		}, nil
	}

	text, err := s.Completer.Complete(ctx, system, req.History, req.Message)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("university", req.UniversityName).
			Msg("completion failed; returning canned reply")
		chatReplies.WithLabelValues("degraded_upstream").Inc()
		return &ChatResult{
			Reply:    fmt.Sprintf(replyUpstreamErrorFmt, req.UniversityName),
			Degraded: true,
		}, nil
	}
	if text == "" {
		text = replyEmptyCompletion
	}

	res := guard.Validate(text, clubs, req.UniversityName)
	if res.Replaced {
		zerolog.Ctx(ctx).Warn().
			Strs("violations", res.Violations).
			Str("university", req.UniversityName).
			Msg("generated reply failed inventory check; substituted fallback")
		chatReplies.WithLabelValues("filtered").Inc()
		return &ChatResult{Reply: res.Text, Filtered: true}, nil
	}

	if len(clubs) == 0 {
		chatReplies.WithLabelValues("degraded_data").Inc()
		return &ChatResult{Reply: res.Text, Degraded: true}, nil
	}
	chatReplies.WithLabelValues("ok").Inc()
	return &ChatResult{Reply: res.Text}, nil
}

// fetchContext loads the active clubs and aggregate counts for the prompt.
// Lookup failures are logged and reduced to "no contextual data"; the caller
// proceeds with the degraded prompt branch.
func (s *ChatService) fetchContext(ctx context.Context, universityID uint) ([]domain.Club, prompt.Stats) {
	if universityID == 0 {
		return nil, prompt.Stats{}
	}

	clubs, err := repo.ListActiveClubs(ctx, s.DB, universityID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Uint("university_id", universityID).
			Msg("club lookup failed; continuing without context")
		return nil, prompt.Stats{}
	}

	stats := prompt.Stats{ActiveClubs: int64(len(clubs))}
	if users, err := repo.CountUsers(ctx, s.DB, universityID); err == nil {
		stats.RegisteredUsers = users
	}
	return clubs, stats
}
