package thread

import "fmt"

// Log is an append-only, time-ordered collection of turns for one
// conversation thread. Turns are only ever appended or bulk-removed by id,
// never edited in place. A Log is owned by exactly one conversation; it is
// not safe for concurrent use.
type Log struct {
	threadID string
	turns    []Turn
	index    map[string]struct{}
}

// NewLog creates an empty log for the given thread id.
func NewLog(threadID string) *Log {
	return &Log{
		threadID: threadID,
		index:    make(map[string]struct{}),
	}
}

// ThreadID returns the owning thread's identifier.
func (l *Log) ThreadID() string {
	return l.threadID
}

// Append adds a turn to the tail of the log.
// The only rejection is a malformed turn with an empty id.
func (l *Log) Append(turn Turn) error {
	if turn.ID == "" {
		return fmt.Errorf("turn has no id")
	}
	l.turns = append(l.turns, turn)
	l.index[turn.ID] = struct{}{}
	return nil
}

// Remove deletes all turns whose id appears in the decision, preserving the
// relative order of the remainder. Ids already absent are silently skipped,
// so applying the same decision twice is a no-op the second time.
func (l *Log) Remove(decision Decision) {
	if decision.Empty() {
		return
	}
	kept := l.turns[:0]
	for _, turn := range l.turns {
		if decision.Contains(turn.ID) {
			delete(l.index, turn.ID)
			continue
		}
		kept = append(kept, turn)
	}
	// Zero the tail so removed turns don't linger in the backing array.
	for i := len(kept); i < len(l.turns); i++ {
		l.turns[i] = Turn{}
	}
	l.turns = kept
}

// Turns returns a read-only ordered view of the log.
// Callers must not mutate the returned slice.
func (l *Log) Turns() []Turn {
	return l.turns
}

// Len returns the number of turns currently in the log.
func (l *Log) Len() int {
	return len(l.turns)
}

// Contains reports whether a turn with the given id is present.
func (l *Log) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Clear removes every turn. Used when a new conversation replaces the thread.
func (l *Log) Clear() {
	l.turns = nil
	l.index = make(map[string]struct{})
}
