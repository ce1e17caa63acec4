// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the fail() helper in this package). Codes are lowercase
// snake_case and stable; clients branch on them for programmatic error
// handling while messages stay localized and human-readable.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "同じ名前のサークルが既に存在します"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// User-facing messages, localized. Error messages surfaced to end users are
// short and polite; raw provider or database errors never leave the server.
const (
	MsgMissingChatFields = "メッセージと大学名は必須です"
	MsgMessageTooLong    = "メッセージは500文字以内で入力してください"
	MsgInternalError     = "内部エラーが発生しました"
)
