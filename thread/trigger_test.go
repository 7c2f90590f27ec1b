package thread

import "testing"

// buildCallPair appends an assistant turn invoking toolName and its tool
// response, returning both turns.
func buildCallPair(t *testing.T, log *Log, toolName string) (Turn, Turn) {
	t.Helper()
	assistant, callID := NewAssistantCall("calling "+toolName, toolName)
	response := NewToolResponse("result of "+toolName, callID, toolName)
	if err := log.Append(assistant); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append(response); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return assistant, response
}

func TestTriggerPolicyEvictsCleanupPairs(t *testing.T) {
	log := NewLog("thread-1")
	analyzeAI, analyzeTool := buildCallPair(t, log, "analyze")
	saveAI, saveTool := buildCallPair(t, log, "save")

	policy := NewTriggerPolicy(map[string][]string{"save": {"analyze"}})
	decision := policy.AfterToolCall("save", log.Turns())

	if decision.Len() != 2 {
		t.Fatalf("expected 2 ids in decision, got %d", decision.Len())
	}
	if !decision.Contains(analyzeAI.ID) || !decision.Contains(analyzeTool.ID) {
		t.Error("analyze call/response pair not selected")
	}
	if decision.Contains(saveAI.ID) || decision.Contains(saveTool.ID) {
		t.Error("trigger's own turns must not be selected")
	}
}

func TestTriggerPolicyNonTriggerIsNoop(t *testing.T) {
	log := NewLog("thread-1")
	buildCallPair(t, log, "analyze")

	policy := NewTriggerPolicy(map[string][]string{"save": {"analyze"}})
	decision := policy.AfterToolCall("analyze", log.Turns())

	if !decision.Empty() {
		t.Errorf("expected empty decision for non-trigger tool, got %d ids", decision.Len())
	}
}

func TestTriggerPolicyMatchesToolTurnByName(t *testing.T) {
	log := NewLog("thread-1")

	// Tool response whose call id resolves to nothing, but whose declared
	// tool name matches the cleanup list.
	stray := NewToolResponse("late result", "call-gone", "analyze")
	if err := log.Append(stray); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	policy := NewTriggerPolicy(map[string][]string{"save": {"analyze"}})
	decision := policy.AfterToolCall("save", log.Turns())

	if !decision.Contains(stray.ID) {
		t.Error("tool turn matching cleanup name should be selected")
	}
}

func TestTriggerPolicyNoOrphans(t *testing.T) {
	log := NewLog("thread-1")
	for i := 0; i < 3; i++ {
		buildCallPair(t, log, "analyze")
	}
	buildCallPair(t, log, "save")

	policy := NewTriggerPolicy(map[string][]string{"save": {"analyze"}})
	decision := policy.AfterToolCall("save", log.Turns())
	log.Remove(decision)

	assertNoOrphans(t, log.Turns())
}

func TestTriggerPolicySkipsUnrelatedUserTurns(t *testing.T) {
	log := NewLog("thread-1")
	user := NewTurn(RoleUser, "extract questions from images/")
	if err := log.Append(user); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	buildCallPair(t, log, "analyze")

	policy := NewTriggerPolicy(map[string][]string{"save": {"analyze"}})
	decision := policy.AfterToolCall("save", log.Turns())

	if decision.Contains(user.ID) {
		t.Error("user turn must never be selected")
	}
}

// assertNoOrphans fails if any surviving tool turn responds to a call id no
// surviving assistant turn emitted.
func assertNoOrphans(t *testing.T, turns []Turn) {
	t.Helper()
	emitted := make(map[string]struct{})
	for _, turn := range turns {
		for _, call := range turn.ToolCalls {
			emitted[call.CallID] = struct{}{}
		}
	}
	for _, turn := range turns {
		if turn.Role != RoleTool || turn.RespondsTo == "" {
			continue
		}
		if _, ok := emitted[turn.RespondsTo]; !ok {
			t.Errorf("orphaned tool turn %s responding to %s", turn.ID, turn.RespondsTo)
		}
	}
}
