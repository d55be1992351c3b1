package chat

// Room bundles the process-wide chat state: the user registry, the message
// log, and the history policy. It is constructed once at process start and
// passed explicitly to everything that needs it. The state is intentionally
// volatile; nothing survives a restart.
type Room struct {
	Users    *Registry
	Messages *Log
	History  HistoryPolicy
}

// NewRoom creates a Room with an empty registry and log under the given
// history policy.
func NewRoom(policy HistoryPolicy) *Room {
	return &Room{
		Users:    NewRegistry(),
		Messages: NewLog(),
		History:  policy,
	}
}
