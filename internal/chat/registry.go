// Package chat provides the Registry, the authoritative mapping of active
// usernames to session metadata with case-insensitive uniqueness.
package chat

import (
	"strings"
	"sync"
	"time"
)

// Status is the presence state of a registered user.
type Status string

// StatusOnline is the only status an active session can have; a user that is
// not online has no registry entry at all.
const StatusOnline Status = "online"

// User is the session metadata for one registered username. Username holds
// the canonical casing, i.e. exactly what the user typed when they joined.
type User struct {
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
	LastSeen time.Time `json:"lastSeen"`
	Status   Status    `json:"status"`

	// ConnID is the opaque handle of the connection that owns this session,
	// used to correlate disconnects. It is not serialized to clients.
	ConnID string `json:"-"`
}

// Registry is the authoritative set of active users. Entries are keyed by the
// normalized (lower-cased, trimmed) username so that "Alice" and "alice" are
// the same identity, while the canonical casing is preserved for display.
// Mutations take the write lock; snapshot reads take the read lock.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*User
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*User),
	}
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Add registers a new user. The raw username is trimmed; registration fails
// with a ValidationError when it is empty after trimming and with a
// ConflictError when another session holds the same name in any casing.
// On success the stored User is returned by value.
func (r *Registry) Add(rawUsername string) (User, error) {
	trimmed := strings.TrimSpace(rawUsername)
	if trimmed == "" {
		return User{}, &ValidationError{Reason: "Username must be a non-empty string"}
	}

	key := strings.ToLower(trimmed)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[key]; ok {
		return User{}, &ConflictError{Username: existing.Username}
	}

	now := time.Now()
	user := &User{
		Username: trimmed,
		JoinedAt: now,
		LastSeen: now,
		Status:   StatusOnline,
	}
	r.users[key] = user
	r.order = append(r.order, key)

	return *user, nil
}

// Remove deletes the session for the given username, matched
// case-insensitively. The removed entry is returned so callers can use its
// canonical casing. Fails with a NotFoundError when no session exists.
func (r *Registry) Remove(username string) (User, error) {
	key := normalizeUsername(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[key]
	if !ok {
		return User{}, &NotFoundError{Username: strings.TrimSpace(username)}
	}

	delete(r.users, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return *user, nil
}

// Touch re-validates that the claimed username has an active session and
// updates its last-seen timestamp. Fails with a NotFoundError otherwise.
func (r *Registry) Touch(username string) (User, error) {
	key := normalizeUsername(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[key]
	if !ok {
		return User{}, &NotFoundError{Username: strings.TrimSpace(username)}
	}

	user.LastSeen = time.Now()
	return *user, nil
}

// Bind associates a connection handle with a registered user. It is
// best-effort: it returns false silently when the user is not found, since
// the join flow calls Add immediately before it.
func (r *Registry) Bind(username, connID string) bool {
	key := normalizeUsername(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[key]
	if !ok {
		return false
	}
	user.ConnID = connID
	return true
}

// List returns a snapshot of all active users in registration order.
func (r *Registry) List() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.order))
	for _, key := range r.order {
		users = append(users, *r.users[key])
	}
	return users
}

// Usernames returns the canonical usernames of all active users in
// registration order.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.users[key].Username)
	}
	return names
}

// Len returns the number of active users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
