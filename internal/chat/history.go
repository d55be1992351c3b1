package chat

import "time"

// DefaultHistoryLimit caps how many historical messages a new joiner may
// receive when no explicit limit is configured.
const DefaultHistoryLimit = 50

// HistoryPolicy decides which part of the message log a newly joined user is
// permitted to see. The zero value is the privacy-first default: new users
// see nothing.
type HistoryPolicy struct {
	// ShowToNewUsers enables history replay on join. Off by default.
	ShowToNewUsers bool
	// MaxForNewUsers caps the replay length. Values below 1 fall back to
	// DefaultHistoryLimit.
	MaxForNewUsers int
}

// HistoryFor computes the messages the given user may see when joining at
// joinedAt. With replay disabled it returns nothing regardless of log
// contents. With replay enabled it returns the log's relevant subset for the
// user, truncated to the most recent MaxForNewUsers entries. The result is
// recomputed from the log on every join; nothing is cached.
func (p HistoryPolicy) HistoryFor(log *Log, username string, joinedAt time.Time) []Message {
	if !p.ShowToNewUsers {
		return nil
	}

	limit := p.MaxForNewUsers
	if limit < 1 {
		limit = DefaultHistoryLimit
	}

	msgs := log.Since(joinedAt, username)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}
