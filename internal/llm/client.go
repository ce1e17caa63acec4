// Package llm – completion client
//
// This file wraps the OpenAI-compatible chat completion API behind a small
// Completer interface so services can be tested with fakes. The client sends
// {system instructions, bounded conversation history, new user message} with
// fixed sampling parameters and returns the generated text. The base URL is
// configurable, so any OpenAI-compatible endpoint works.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clubnavi/go-club-backend/internal/config"
	"github.com/clubnavi/go-club-backend/internal/domain"
)

// ErrNoChoices indicates the upstream returned a response without any
// completion choice.
var ErrNoChoices = errors.New("llm: completion returned no choices")

// Completer is the minimal contract services depend on.
type Completer interface {
	// Complete generates a reply for the user message given the system
	// instructions and prior conversation turns (oldest first).
	Complete(ctx context.Context, system string, history []domain.ConversationTurn, message string) (string, error)
}

// Client talks to an OpenAI-compatible completion endpoint.
type Client struct {
	api          *openai.Client
	model        string
	temperature  float32
	maxTokens    int
	timeout      time.Duration
	historyLimit int
}

// NewClient builds a Client from configuration. An empty BaseURL keeps the
// library default (api.openai.com).
func NewClient(cfg config.CompletionConfig, historyLimit int) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:          openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
		historyLimit: historyLimit,
	}
}

// Complete implements Completer. History is capped to the most recent
// historyLimit turns before dispatch; turns with unknown roles are skipped.
// The call inherits cancellation from ctx and additionally enforces the
// configured timeout.
func (c *Client) Complete(ctx context.Context, system string, history []domain.ConversationTurn, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, t := range capHistory(history, c.historyLimit) {
		role, ok := apiRole(t.Role)
		if !ok {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// capHistory keeps the most recent limit turns.
func capHistory(history []domain.ConversationTurn, limit int) []domain.ConversationTurn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

func apiRole(role string) (string, bool) {
	switch role {
	case domain.RoleUser:
		return openai.ChatMessageRoleUser, true
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant, true
	default:
		return "", false
	}
}
