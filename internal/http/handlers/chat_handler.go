// Chat HTTP handler.
//
// This file exposes the conversational endpoint:
//   - POST /chat
//
// The handler is transport-thin: it validates the payload, resolves the
// university context (payload fields win; session claims fill the gaps for
// logged-in users), calls the chat service, and translates results into HTTP
// responses. Upstream generation failures never surface as errors here; the
// service absorbs them into degraded 200 replies.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/http/middleware"
	"github.com/clubnavi/go-club-backend/internal/services"
)

// ChatService is the pipeline contract consumed by the chat handler.
type ChatService interface {
	// Reply runs the recommendation pipeline for one user message.
	Reply(ctx context.Context, req services.ChatRequest) (*services.ChatResult, error)
}

// ChatRequest is the JSON payload for POST /chat.
type ChatRequest struct {
	// Message is the user's question (1–500 characters).
	Message string `json:"message" example:"スポーツ系のサークルはありますか？"`
	// UniversityName scopes the assistant persona. Optional for logged-in
	// users; their session provides it.
	UniversityName string `json:"university_name" example:"東京大学"`
	// UniversityID selects the club inventory. Optional; without it the
	// assistant answers without club context.
	UniversityID uint `json:"university_id,omitempty" example:"1"`
	// ConversationHistory carries prior turns, oldest first.
	ConversationHistory []domain.ConversationTurn `json:"conversation_history,omitempty"`
}

// ChatResponse is the reply payload for POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
	// Debug is populated only when the server runs in debug mode.
	Debug *ChatDebug `json:"debug,omitempty"`
}

// ChatDebug exposes pipeline flags for local debugging. Never emitted in
// release mode.
type ChatDebug struct {
	Degraded bool `json:"degraded"`
	Filtered bool `json:"filtered"`
}

// Chat godoc
// @ID          chat
// @Summary     Ask the club recommendation assistant
// @Description Sends a message to the assistant scoped to a university's club inventory. Upstream failures degrade to a canned 200 reply.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields or message too long"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgMissingChatFields)
		return
	}

	// Session claims fill in university context the payload omitted.
	if req.UniversityName == "" {
		req.UniversityName = middleware.UniversityName(c)
	}
	if req.UniversityID == 0 {
		req.UniversityID = middleware.UniversityID(c)
	}

	res, err := h.chatSvc.Reply(c.Request.Context(), services.ChatRequest{
		Message:        req.Message,
		UniversityName: req.UniversityName,
		UniversityID:   req.UniversityID,
		History:        req.ConversationHistory,
	})
	switch {
	case errors.Is(err, services.ErrMissingFields):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgMissingChatFields)
		return
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgMessageTooLong)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternalError)
		return
	}

	resp := ChatResponse{Response: res.Reply}
	if gin.Mode() == gin.DebugMode {
		resp.Debug = &ChatDebug{Degraded: res.Degraded, Filtered: res.Filtered}
	}
	ok(c, http.StatusOK, resp)
}
