package thread

import "testing"

func TestWindowPolicyKeepsRecentInvocations(t *testing.T) {
	log := NewLog("thread-1")
	var pairs [][2]Turn
	for i := 0; i < 5; i++ {
		ai, tool := buildCallPair(t, log, "analyze")
		pairs = append(pairs, [2]Turn{ai, tool})
	}

	policy := NewWindowPolicy(2)
	decision := policy.BeforeReasoningStep(log.Turns())
	log.Remove(decision)

	// Only the 2 most recent invocation pairs remain.
	count := 0
	for _, turn := range log.Turns() {
		if turn.CallsTool("analyze") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 surviving invocations, got %d", count)
	}
	for _, pair := range pairs[3:] {
		if !log.Contains(pair[0].ID) || !log.Contains(pair[1].ID) {
			t.Error("a recent invocation pair was evicted")
		}
	}
	assertNoOrphans(t, log.Turns())
}

func TestWindowPolicyUnderLimitIsNoop(t *testing.T) {
	log := NewLog("thread-1")
	buildCallPair(t, log, "analyze")
	buildCallPair(t, log, "save")

	policy := NewWindowPolicy(3)
	decision := policy.BeforeReasoningStep(log.Turns())

	if !decision.Empty() {
		t.Errorf("expected empty decision under the window, got %d ids", decision.Len())
	}
}

func TestWindowPolicyCountsPerToolName(t *testing.T) {
	log := NewLog("thread-1")
	for i := 0; i < 3; i++ {
		buildCallPair(t, log, "analyze")
	}
	for i := 0; i < 3; i++ {
		buildCallPair(t, log, "save")
	}

	policy := NewWindowPolicy(2)
	decision := policy.BeforeReasoningStep(log.Turns())
	log.Remove(decision)

	for _, name := range []string{"analyze", "save"} {
		count := 0
		for _, turn := range log.Turns() {
			if turn.CallsTool(name) {
				count++
			}
		}
		if count != 2 {
			t.Errorf("expected 2 surviving %s invocations, got %d", name, count)
		}
	}
}

func TestWindowPolicySkipsUnpairableAssistant(t *testing.T) {
	log := NewLog("thread-1")

	// Three invocations, the oldest from an assistant turn without an id.
	// The policy must leave it alone rather than remove something it
	// cannot pair.
	broken, _ := NewAssistantCall("calling analyze", "analyze")
	broken.ID = ""
	log.turns = append(log.turns, broken)
	buildCallPair(t, log, "analyze")
	buildCallPair(t, log, "analyze")

	policy := NewWindowPolicy(2)
	decision := policy.BeforeReasoningStep(log.Turns())

	if !decision.Empty() {
		t.Errorf("expected empty decision, got %d ids", decision.Len())
	}
}

func TestWindowPolicyEvictsAllResponsesToCall(t *testing.T) {
	log := NewLog("thread-1")

	// The oldest invocation has two tool turns answering the same call id,
	// as happens when a retried tool appends a duplicate response. Evicting
	// the assistant turn must take both responses with it.
	assistant, callID := NewAssistantCall("calling analyze", "analyze")
	first := NewToolResponse("result of analyze", callID, "analyze")
	second := NewToolResponse("result of analyze (retry)", callID, "analyze")
	for _, turn := range []Turn{assistant, first, second} {
		if err := log.Append(turn); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	buildCallPair(t, log, "analyze")
	buildCallPair(t, log, "analyze")

	policy := NewWindowPolicy(2)
	decision := policy.BeforeReasoningStep(log.Turns())
	log.Remove(decision)

	for _, id := range []string{assistant.ID, first.ID, second.ID} {
		if log.Contains(id) {
			t.Errorf("turn %s should have been evicted", id)
		}
	}
	assertNoOrphans(t, log.Turns())
}

func TestWindowPolicyKeepRecentFloor(t *testing.T) {
	policy := NewWindowPolicy(0)
	if policy.KeepRecent() != 1 {
		t.Errorf("expected keep_recent floor of 1, got %d", policy.KeepRecent())
	}
}

func TestWindowPolicyBoundHolds(t *testing.T) {
	log := NewLog("thread-1")
	for i := 0; i < 7; i++ {
		buildCallPair(t, log, "analyze")
	}

	policy := NewWindowPolicy(3)
	log.Remove(policy.BeforeReasoningStep(log.Turns()))

	// Applying again after more appends still respects the bound.
	buildCallPair(t, log, "analyze")
	log.Remove(policy.BeforeReasoningStep(log.Turns()))

	count := 0
	for _, turn := range log.Turns() {
		if turn.CallsTool("analyze") {
			count++
		}
	}
	if count > 3 {
		t.Errorf("window bound violated: %d invocations remain", count)
	}
}
