// Package chat provides the Log, an append-only ordered record of chat and
// system messages with per-message participant snapshots.
package chat

import (
	"sync"
	"time"
)

// Kind distinguishes user chat messages from server-generated notices. The
// values are the wire values sent to clients inside history payloads.
type Kind string

const (
	// KindChat is a message authored by a user.
	KindChat Kind = "message"
	// KindSystem is a server-generated notice such as a join or leave.
	KindSystem Kind = "system"
)

// Message is one immutable log entry. ID is assigned at insertion and is
// strictly increasing for the lifetime of the process. Participants records
// which usernames were registered at the moment a chat message was sent; it
// is empty for system messages.
type Message struct {
	ID           int       `json:"id"`
	Kind         Kind      `json:"type"`
	Username     string    `json:"username,omitempty"`
	Body         string    `json:"message"`
	SentAt       time.Time `json:"timestamp"`
	Participants []string  `json:"participants,omitempty"`
}

// Log is the append-only message log. Entries are never mutated or removed;
// the log lives exactly as long as the process. Appends take the write lock,
// snapshot reads the read lock.
type Log struct {
	mu      sync.RWMutex
	entries []Message
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// AppendChat records a chat message. The author's existence is the caller's
// responsibility; the log never validates it. The present slice is copied so
// later roster changes cannot alter the snapshot.
func (l *Log) AppendChat(author, body string, present []string) Message {
	participants := make([]string, len(present))
	copy(participants, present)

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := Message{
		ID:           len(l.entries) + 1,
		Kind:         KindChat,
		Username:     author,
		Body:         body,
		SentAt:       time.Now(),
		Participants: participants,
	}
	l.entries = append(l.entries, msg)
	return msg
}

// AppendSystem records a server-generated notice. System messages have no
// author and no participant snapshot.
func (l *Log) AppendSystem(body string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := Message{
		ID:     len(l.entries) + 1,
		Kind:   KindSystem,
		Body:   body,
		SentAt: time.Now(),
	}
	l.entries = append(l.entries, msg)
	return msg
}

// Tail returns the last limit messages in insertion order, or every message
// when the log is shorter. A non-positive limit yields an empty slice.
func (l *Log) Tail(limit int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	start := len(l.entries) - limit
	if start < 0 {
		start = 0
	}

	out := make([]Message, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Since returns, in insertion order, every message relevant to the given
// user: system messages, messages whose participant snapshot contains the
// username, and messages sent at or after the cutoff. The three predicates
// are a union evaluated in one pass, so each entry appears at most once and
// the original order is preserved.
func (l *Log) Since(cutoff time.Time, username string) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Message
	for _, msg := range l.entries {
		if msg.Kind == KindSystem || containsParticipant(msg.Participants, username) || !msg.SentAt.Before(cutoff) {
			out = append(out, msg)
		}
	}
	return out
}

// Len returns the number of messages appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func containsParticipant(participants []string, username string) bool {
	for _, p := range participants {
		if p == username {
			return true
		}
	}
	return false
}
