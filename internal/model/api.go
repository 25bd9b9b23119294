package model

import "time"

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Navigation intents a client sends over the view stream.
const (
	IntentNext   = "next"
	IntentPrev   = "prev"
	IntentGoTo   = "goto"
	IntentResize = "resize"
	IntentPing   = "ping"
)

// ViewIntent is a navigation request received from a client.
type ViewIntent struct {
	Type         string `json:"type"`
	Page         int    `json:"page,omitempty"`
	ItemsPerPage int    `json:"items_per_page,omitempty"`
}

// NavigationResult is the reply to a navigation request.
type NavigationResult struct {
	View    ViewState `json:"view"`
	Outcome string    `json:"outcome"`
}

// WebSocket message types sent by the server.
const (
	WSMessageTypePage  = "page"
	WSMessageTypePong  = "pong"
	WSMessageTypeError = "error"
)

// WebSocketMessage represents a message sent over WebSocket connection.
type WebSocketMessage struct {
	Type      string     `json:"type"`
	View      *ViewState `json:"view,omitempty"`
	Outcome   string     `json:"outcome,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewPageMessage creates a message carrying the current view state.
func NewPageMessage(state ViewState, outcome string) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypePage,
		View:      &state,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorMessage creates an error message.
func NewErrorMessage(errMsg string) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeError,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
}

// NewPongMessage creates a reply to a client ping.
func NewPongMessage() WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypePong,
		Timestamp: time.Now().UTC(),
	}
}
