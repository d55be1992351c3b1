package chat

import (
	"testing"
	"time"
)

// TestLogSequenceIDsStrictlyIncreasing verifies that IDs are assigned at
// insertion, strictly increase, and are never reused across interleaved chat
// and system messages.
func TestLogSequenceIDsStrictlyIncreasing(t *testing.T) {
	l := NewLog()

	ids := []int{
		l.AppendChat("Alice", "one", []string{"Alice"}).ID,
		l.AppendSystem("Bob joined the chat").ID,
		l.AppendChat("Bob", "two", []string{"Alice", "Bob"}).ID,
		l.AppendSystem("Bob left the chat").ID,
		l.AppendChat("Alice", "three", []string{"Alice"}).ID,
	}

	for i, id := range ids {
		if id != i+1 {
			t.Errorf("Message %d has id %d, want %d", i, id, i+1)
		}
	}
	if l.Len() != len(ids) {
		t.Errorf("Log length = %d, want %d", l.Len(), len(ids))
	}
}

// TestLogAppendKinds verifies the fields stamped onto chat and system
// entries: authors and participants on chat messages, neither on system.
func TestLogAppendKinds(t *testing.T) {
	l := NewLog()

	chatMsg := l.AppendChat("Alice", "hello", []string{"Alice", "Bob"})
	if chatMsg.Kind != KindChat {
		t.Errorf("Chat message kind = %q, want %q", chatMsg.Kind, KindChat)
	}
	if chatMsg.Username != "Alice" || chatMsg.Body != "hello" {
		t.Errorf("Unexpected chat message %+v", chatMsg)
	}
	if len(chatMsg.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %v", chatMsg.Participants)
	}
	if chatMsg.SentAt.IsZero() {
		t.Error("Chat message has zero SentAt")
	}

	sysMsg := l.AppendSystem("Alice joined the chat")
	if sysMsg.Kind != KindSystem {
		t.Errorf("System message kind = %q, want %q", sysMsg.Kind, KindSystem)
	}
	if sysMsg.Username != "" || len(sysMsg.Participants) != 0 {
		t.Errorf("System message should have no author or participants, got %+v", sysMsg)
	}
}

// TestLogAppendChatCopiesParticipants verifies that the participant snapshot
// is immutable: mutating the caller's slice after the append must not change
// the stored entry.
func TestLogAppendChatCopiesParticipants(t *testing.T) {
	l := NewLog()

	present := []string{"Alice", "Bob"}
	l.AppendChat("Alice", "hello", present)
	present[1] = "Mallory"

	stored := l.Tail(1)[0]
	if stored.Participants[1] != "Bob" {
		t.Errorf("Participant snapshot mutated: %v", stored.Participants)
	}
}

// TestLogTail verifies that Tail returns the most recent messages in
// original order, the whole log when shorter than the limit, and nothing for
// a non-positive limit.
func TestLogTail(t *testing.T) {
	l := NewLog()
	for i := 0; i < 5; i++ {
		l.AppendSystem("notice")
	}

	tail := l.Tail(3)
	if len(tail) != 3 {
		t.Fatalf("Tail(3) returned %d messages, want 3", len(tail))
	}
	if tail[0].ID != 3 || tail[1].ID != 4 || tail[2].ID != 5 {
		t.Errorf("Tail(3) ids = %d,%d,%d, want 3,4,5", tail[0].ID, tail[1].ID, tail[2].ID)
	}

	if got := len(l.Tail(10)); got != 5 {
		t.Errorf("Tail(10) returned %d messages, want all 5", got)
	}
	if got := len(l.Tail(0)); got != 0 {
		t.Errorf("Tail(0) returned %d messages, want 0", got)
	}
	if got := len(l.Tail(-1)); got != 0 {
		t.Errorf("Tail(-1) returned %d messages, want 0", got)
	}
}

// TestLogSinceUnionPredicates verifies the relevance filter: a message is
// returned when it is a system message, when the user appears in its
// participant snapshot, or when it was sent at or after the cutoff, and in
// no other case. Order is preserved and nothing is duplicated.
func TestLogSinceUnionPredicates(t *testing.T) {
	l := NewLog()

	// Before the cutoff: one chat Bob is not part of, one system notice,
	// one chat with Bob in the snapshot.
	excluded := l.AppendChat("Alice", "private", []string{"Alice"})
	system := l.AppendSystem("Alice joined the chat")
	participant := l.AppendChat("Alice", "hey Bob", []string{"Alice", "Bob"})

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()

	// After the cutoff: included even though Bob is not in the snapshot.
	after := l.AppendChat("Alice", "anyone here?", []string{"Alice"})

	got := l.Since(cutoff, "Bob")
	wantIDs := []int{system.ID, participant.ID, after.ID}

	if len(got) != len(wantIDs) {
		t.Fatalf("Since returned %d messages, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("Since[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
	for _, msg := range got {
		if msg.ID == excluded.ID {
			t.Error("Since returned a message Bob should not see")
		}
	}
}

// TestLogSinceSystemAlwaysVisible verifies that system messages are relevant
// to every user regardless of cutoff.
func TestLogSinceSystemAlwaysVisible(t *testing.T) {
	l := NewLog()
	l.AppendSystem("Alice joined the chat")
	l.AppendSystem("Alice left the chat")

	got := l.Since(time.Now().Add(time.Hour), "Bob")
	if len(got) != 2 {
		t.Errorf("Since returned %d messages, want 2 system messages", len(got))
	}
}
