// Package server implements the session coordinator: the per-connection
// state machine that mediates between the transport and the chat room state.
// Every handler in this file runs on the hub's event loop, so registry and
// log mutations are serialized by construction.
package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Tyrowin/chatflow/internal/chat"
)

// sessionPhase is the lifecycle phase of one connection. There is no
// transition out of phaseTerminated.
type sessionPhase int

const (
	phaseAnonymous sessionPhase = iota
	phaseJoined
	phaseTerminated
)

// session is the per-connection state owned by the coordinator: the current
// phase, the canonical username once joined, and the join timestamp used as
// the history visibility cutoff.
type session struct {
	phase    sessionPhase
	username string
	joinedAt time.Time
}

// dispatch decodes one inbound frame and routes it to the matching handler.
func (h *Hub) dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		eventsRejectedTotal.WithLabelValues("bad_frame").Inc()
		c.log.Warn().Err(err).Msg("invalid frame")
		return
	}

	switch env.Event {
	case EventJoin:
		var username string
		if err := json.Unmarshal(env.Data, &username); err != nil {
			h.rejectEvent(c, "bad_frame", "join payload must be a username string")
			return
		}
		h.handleJoin(c, username)

	case EventNewMessage:
		var req messageRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.rejectEvent(c, "bad_frame", "invalid newMessage payload")
			return
		}
		h.handleNewMessage(c, req)

	case EventTyping, EventStopTyping:
		var req presenceRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			eventsRejectedTotal.WithLabelValues("bad_frame").Inc()
			c.log.Warn().Err(err).Str("event", env.Event).Msg("invalid typing payload")
			return
		}
		h.handleTyping(c, req.Username, env.Event == EventStopTyping)

	case EventLeaveChat:
		var req presenceRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			eventsRejectedTotal.WithLabelValues("bad_frame").Inc()
			c.log.Warn().Err(err).Msg("invalid leaveChat payload")
			return
		}
		h.handleLeave(c, req.Username)

	default:
		eventsRejectedTotal.WithLabelValues("unknown_event").Inc()
		c.log.Warn().Str("event", env.Event).Msg("unknown event")
	}
}

// rejectEvent reports a failure to the originating connection only. Errors
// are never broadcast and never terminate the connection.
func (h *Hub) rejectEvent(c *Client, reason, message string) {
	eventsRejectedTotal.WithLabelValues(reason).Inc()
	h.toOne(c, EventError, errorEvent{Message: message})
}

// errorReason maps a chat domain error onto a metrics label.
func errorReason(err error) string {
	var conflict *chat.ConflictError
	var notFound *chat.NotFoundError
	switch {
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &notFound):
		return "not_found"
	default:
		return "validation"
	}
}

// handleJoin registers the connection's user. Only valid while Anonymous; on
// any failure an error event goes back to this connection and nothing is
// broadcast. On success the joiner privately receives its permitted history
// and the current roster, and everyone is notified of the join.
func (h *Hub) handleJoin(c *Client, rawUsername string) {
	if c.session.phase != phaseAnonymous {
		h.rejectEvent(c, "wrong_state", "already joined the chat")
		return
	}

	if err := validatePayload(joinRequest{Username: rawUsername}); err != nil {
		h.rejectEvent(c, "validation", err.Error())
		return
	}

	user, err := h.room.Users.Add(rawUsername)
	if err != nil {
		c.log.Warn().Err(err).Str("username", rawUsername).Msg("join rejected")
		h.rejectEvent(c, errorReason(err), err.Error())
		return
	}

	h.room.Users.Bind(user.Username, c.id)
	c.session.phase = phaseJoined
	c.session.username = user.Username
	c.session.joinedAt = user.JoinedAt

	// History is computed before the join notice is appended, so a joiner
	// never sees their own join in the replay.
	history := h.room.History.HistoryFor(h.room.Messages, user.Username, user.JoinedAt)
	if history == nil {
		history = []chat.Message{}
	}
	h.toOne(c, EventMessageHistory, history)

	h.room.Messages.AppendSystem(user.Username + " joined the chat")
	messagesTotal.WithLabelValues(string(chat.KindSystem)).Inc()

	roster := h.room.Users.List()
	usersActive.Set(float64(len(roster)))
	h.toAll(EventUserJoined, userEvent{Username: user.Username, Users: roster})
	h.toOne(c, EventUsersList, roster)

	c.log.Info().Str("username", user.Username).Int("active_users", len(roster)).Msg("user joined")
}

// handleNewMessage appends a chat message and broadcasts it to everyone.
// The claimed sender is re-validated against the registry first; failures go
// back to the sender only.
func (h *Hub) handleNewMessage(c *Client, req messageRequest) {
	if c.session.phase != phaseJoined {
		h.rejectEvent(c, "wrong_state", "join the chat before sending messages")
		return
	}

	if err := validatePayload(req); err != nil {
		h.rejectEvent(c, "validation", err.Error())
		return
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		h.rejectEvent(c, "validation", "Message cannot be empty")
		return
	}

	user, err := h.room.Users.Touch(req.Username)
	if err != nil {
		c.log.Warn().Err(err).Msg("message from unregistered user")
		h.rejectEvent(c, errorReason(err), err.Error())
		return
	}

	msg := h.room.Messages.AppendChat(user.Username, body, h.room.Users.Usernames())
	messagesTotal.WithLabelValues(string(chat.KindChat)).Inc()

	h.toAll(EventNewMessage, chatMessageEvent{
		ID:        msg.ID,
		Username:  user.Username,
		Message:   msg.Body,
		Timestamp: msg.SentAt,
	})

	c.log.Debug().Str("username", user.Username).Int("message_id", msg.ID).Msg("chat message")
}

// handleTyping relays a typing or stopped-typing notice to every other
// connection. Typing is best-effort: failures are logged and swallowed, with
// no error event and no broadcast.
func (h *Hub) handleTyping(c *Client, username string, stopped bool) {
	if c.session.phase != phaseJoined {
		eventsRejectedTotal.WithLabelValues("wrong_state").Inc()
		c.log.Debug().Msg("typing notice before join; ignored")
		return
	}

	user, err := h.room.Users.Touch(username)
	if err != nil {
		eventsRejectedTotal.WithLabelValues(errorReason(err)).Inc()
		c.log.Warn().Err(err).Msg("typing notice from unregistered user")
		return
	}

	event := EventUserTyping
	if stopped {
		event = EventUserStoppedTyping
	}
	h.toAllExcept(c, event, typingEvent{Username: user.Username})
}

// handleLeave processes an explicit leave. A failed removal (already gone,
// duplicate signal) is logged and swallowed; the session still terminates.
func (h *Hub) handleLeave(c *Client, username string) {
	if c.session.phase != phaseJoined {
		c.log.Debug().Msg("leave request before join; ignored")
		return
	}

	c.session.phase = phaseTerminated

	removed, err := h.room.Users.Remove(username)
	if err != nil {
		eventsRejectedTotal.WithLabelValues(errorReason(err)).Inc()
		c.log.Warn().Err(err).Str("username", username).Msg("leave request for unknown user")
		return
	}

	h.room.Messages.AppendSystem(removed.Username + " left the chat")
	messagesTotal.WithLabelValues(string(chat.KindSystem)).Inc()

	roster := h.room.Users.List()
	usersActive.Set(float64(len(roster)))
	h.toAll(EventUserLeft, userEvent{Username: removed.Username, Users: roster})

	c.log.Info().Str("username", removed.Username).Int("active_users", len(roster)).Msg("user left")
}

// handleDisconnect treats a transport close as an implicit leave. It runs
// before the client is removed from the set, so remaining connections get
// the userLeft broadcast. Errors are swallowed: the session is terminal
// either way.
func (h *Hub) handleDisconnect(c *Client) {
	if c == nil || c.session.phase != phaseJoined {
		return
	}

	c.session.phase = phaseTerminated

	removed, err := h.room.Users.Remove(c.session.username)
	if err != nil {
		c.log.Warn().Err(err).Str("username", c.session.username).Msg("disconnect for already removed user")
		return
	}

	h.room.Messages.AppendSystem(removed.Username + " disconnected")
	messagesTotal.WithLabelValues(string(chat.KindSystem)).Inc()

	roster := h.room.Users.List()
	usersActive.Set(float64(len(roster)))
	h.toAllExcept(c, EventUserLeft, userEvent{Username: removed.Username, Users: roster})

	c.log.Info().Str("username", removed.Username).Int("active_users", len(roster)).Msg("user disconnected")
}
