package thread

// WindowPolicy evicts before every reasoning step, keeping only the most
// recent invocations of each tool. Old call/response pairs are dropped from
// the front so the context stays focused on the current work.
type WindowPolicy struct {
	keepRecent int
}

// NewWindowPolicy creates a sliding-window policy keeping the given number
// of recent invocations per tool name. Values below 1 are raised to 1.
func NewWindowPolicy(keepRecent int) *WindowPolicy {
	if keepRecent < 1 {
		keepRecent = 1
	}
	return &WindowPolicy{keepRecent: keepRecent}
}

// KeepRecent returns the configured window size.
func (p *WindowPolicy) KeepRecent() int {
	return p.keepRecent
}

// AfterToolCall is a no-op for window-based eviction.
func (p *WindowPolicy) AfterToolCall(toolName string, turns []Turn) Decision {
	return NewDecision()
}

// BeforeReasoningStep selects, for every tool name whose invocation count
// exceeds the window, the oldest surplus invocations for removal.
//
// A removal unit is the assistant turn plus the tool turns answering its
// call ids. An assistant turn is only removed when every one of its calls
// falls outside the window; anything that cannot be paired safely is left
// in place (under-evict rather than orphan).
func (p *WindowPolicy) BeforeReasoningStep(turns []Turn) Decision {
	decision := NewDecision()
	pairing := pairCalls(turns)

	type invocation struct {
		assistantID string
		callID      string
	}

	// Invocations per tool, in thread order, with their assistant turn.
	invocationsByTool := make(map[string][]invocation)
	callsByAssistant := make(map[string][]string)
	for _, turn := range turns {
		if turn.Role != RoleAssistant {
			continue
		}
		for _, call := range turn.ToolCalls {
			if call.CallID == "" || call.Name == "" {
				continue
			}
			invocationsByTool[call.Name] = append(invocationsByTool[call.Name], invocation{
				assistantID: turn.ID,
				callID:      call.CallID,
			})
			callsByAssistant[turn.ID] = append(callsByAssistant[turn.ID], call.CallID)
		}
	}

	// Oldest surplus call ids across all tools.
	surplus := make(map[string]struct{})
	for _, invocations := range invocationsByTool {
		if len(invocations) <= p.keepRecent {
			continue
		}
		for _, inv := range invocations[:len(invocations)-p.keepRecent] {
			if inv.assistantID == "" {
				// Cannot pair a removal without the assistant turn's id.
				continue
			}
			surplus[inv.callID] = struct{}{}
		}
	}

	// Remove an assistant turn only when all of its calls are surplus, and
	// always take the matching responses with it.
	for assistantID, callIDs := range callsByAssistant {
		all := true
		for _, callID := range callIDs {
			if _, ok := surplus[callID]; !ok {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		decision.Add(assistantID)
		for _, callID := range callIDs {
			for _, responseID := range pairing.responsesByCall[callID] {
				decision.Add(responseID)
			}
		}
	}

	return decision
}
