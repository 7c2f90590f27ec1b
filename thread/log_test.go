package thread

import "testing"

func TestLogAppendAndTurns(t *testing.T) {
	log := NewLog("thread-1")

	if err := log.Append(NewTurn(RoleUser, "hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append(NewTurn(RoleAssistant, "hi")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns := log.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "hello" {
		t.Errorf("expected 'hello', got '%s'", turns[0].Content)
	}
	if turns[1].Role != RoleAssistant {
		t.Errorf("expected assistant role, got '%s'", turns[1].Role)
	}
}

func TestLogAppendRejectsMissingID(t *testing.T) {
	log := NewLog("thread-1")

	if err := log.Append(Turn{Role: RoleUser, Content: "no id"}); err == nil {
		t.Error("expected error for turn without id")
	}
	if log.Len() != 0 {
		t.Errorf("expected empty log, got %d turns", log.Len())
	}
}

func TestLogRemovePreservesOrder(t *testing.T) {
	log := NewLog("thread-1")
	a := NewTurn(RoleUser, "first")
	b := NewTurn(RoleAssistant, "second")
	c := NewTurn(RoleUser, "third")
	for _, turn := range []Turn{a, b, c} {
		if err := log.Append(turn); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	decision := NewDecision()
	decision.Add(b.ID)
	log.Remove(decision)

	turns := log.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].ID != a.ID || turns[1].ID != c.ID {
		t.Errorf("order not preserved after removal")
	}
	if log.Contains(b.ID) {
		t.Error("removed turn still reported present")
	}
}

func TestLogRemoveIsIdempotent(t *testing.T) {
	log := NewLog("thread-1")
	a := NewTurn(RoleUser, "keep")
	b := NewTurn(RoleAssistant, "drop")
	for _, turn := range []Turn{a, b} {
		if err := log.Append(turn); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	decision := NewDecision()
	decision.Add(b.ID)

	log.Remove(decision)
	first := len(log.Turns())

	// Applying the same decision again must change nothing.
	log.Remove(decision)
	if len(log.Turns()) != first {
		t.Errorf("second application changed the log: %d vs %d", len(log.Turns()), first)
	}
	if log.Turns()[0].ID != a.ID {
		t.Error("surviving turn changed after second application")
	}
}

func TestLogClear(t *testing.T) {
	log := NewLog("thread-1")
	if err := log.Append(NewTurn(RoleUser, "x")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	log.Clear()

	if log.Len() != 0 {
		t.Errorf("expected empty log after Clear, got %d turns", log.Len())
	}
}
