// Package server defines the wire protocol: every WebSocket frame is a JSON
// envelope carrying an event name and an event-specific payload.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/chatflow/internal/chat"
)

// Inbound event names, sent by clients.
const (
	EventJoin       = "join"
	EventNewMessage = "newMessage"
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
	EventLeaveChat  = "leaveChat"
)

// Outbound event names, produced by the server.
const (
	EventMessageHistory    = "messageHistory"
	EventUserJoined        = "userJoined"
	EventUsersList         = "usersList"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventUserLeft          = "userLeft"
	EventError             = "error"
)

// Envelope is the frame format exchanged over the WebSocket. Data holds the
// event payload: a bare JSON string for join, an object for everything else.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// messageRequest is the newMessage payload. Emptiness of the body is checked
// by the coordinator so the wording of the error matches the chat domain;
// the validate tags only guard against oversized input.
type messageRequest struct {
	Username string `json:"username" validate:"max=32"`
	Message  string `json:"message" validate:"max=500"`
}

// presenceRequest is the payload of typing, stopTyping, and leaveChat.
type presenceRequest struct {
	Username string `json:"username" validate:"max=32"`
}

// joinRequest wraps the join payload so it can run through the validator.
type joinRequest struct {
	Username string `validate:"max=32"`
}

// userEvent is the userJoined/userLeft payload: the affected username plus a
// full roster snapshot.
type userEvent struct {
	Username string      `json:"username"`
	Users    []chat.User `json:"users"`
}

// chatMessageEvent is the outbound newMessage payload.
type chatMessageEvent struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// typingEvent is the userTyping/userStoppedTyping payload.
type typingEvent struct {
	Username string `json:"username"`
}

// errorEvent carries a human-readable failure description to the
// originating connection.
type errorEvent struct {
	Message string `json:"message"`
}

// encodeEvent marshals an outbound event into its wire envelope.
func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

var validate = validator.New()

// validatePayload runs the struct validator and converts failures into
// chat.ValidationError so the coordinator surfaces them like any other
// validation failure.
func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &chat.ValidationError{Reason: fieldError(ve[0])}
	}
	return &chat.ValidationError{Reason: err.Error()}
}

// fieldError converts a single validator error into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
