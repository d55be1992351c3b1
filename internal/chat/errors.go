// Package chat implements the core chat room state: the authoritative user
// registry, the append-only message log, and the history visibility policy.
// It has no knowledge of the transport; the server package drives it.
package chat

import "fmt"

// ValidationError reports malformed input such as an empty username or an
// empty message body. It is surfaced to the originating connection only.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConflictError reports an attempt to register a username that already has an
// active session, compared case-insensitively. Username carries the canonical
// casing of the existing session.
type ConflictError struct {
	Username string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("User '%s' already has an active session", e.Username)
}

// NotFoundError reports an action attributed to a username with no active
// session.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("User '%s' has no active login", e.Username)
}
