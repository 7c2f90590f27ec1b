package thread

// TriggerPolicy evicts after a specific tool completes. It is configured
// with a mapping of trigger tool name to the tool names whose turns become
// obsolete once the trigger has run. Once a save completes, the analysis
// turns it persisted no longer need to stay in context.
type TriggerPolicy struct {
	rules map[string][]string
}

// NewTriggerPolicy creates a trigger-based policy from cleanup rules.
// The map is copied; later mutation of the argument has no effect.
func NewTriggerPolicy(rules map[string][]string) *TriggerPolicy {
	copied := make(map[string][]string, len(rules))
	for trigger, cleanup := range rules {
		copied[trigger] = append([]string(nil), cleanup...)
	}
	return &TriggerPolicy{rules: copied}
}

// AfterToolCall returns the turns made obsolete by the completed tool.
// If the tool is not a trigger, the decision is empty.
//
// For every assistant turn invoking a cleanup tool, the assistant turn and
// all tool turns responding to its call ids are selected as one unit, which
// preserves the no-orphan invariant. Tool turns whose declared tool name
// matches a cleanup name are also selected even when their call id no longer
// resolves, since their pairing assistant turn is being removed by name too.
func (p *TriggerPolicy) AfterToolCall(toolName string, turns []Turn) Decision {
	decision := NewDecision()

	cleanup, ok := p.rules[toolName]
	if !ok || len(cleanup) == 0 {
		return decision
	}
	cleanupSet := make(map[string]struct{}, len(cleanup))
	for _, name := range cleanup {
		cleanupSet[name] = struct{}{}
	}

	// First pass: assistant turns calling a cleanup tool, collecting the
	// call ids whose responses must go with them.
	callIDs := make(map[string]struct{})
	for _, turn := range turns {
		if turn.Role != RoleAssistant {
			continue
		}
		selected := false
		for _, call := range turn.ToolCalls {
			if _, ok := cleanupSet[call.Name]; ok {
				selected = true
				if call.CallID != "" {
					callIDs[call.CallID] = struct{}{}
				}
			}
		}
		if selected {
			decision.Add(turn.ID)
		}
	}

	// Second pass: tool turns answering a collected call id, or declaring
	// a cleanup tool name directly.
	for _, turn := range turns {
		if turn.Role != RoleTool {
			continue
		}
		if _, ok := callIDs[turn.RespondsTo]; ok {
			decision.Add(turn.ID)
			continue
		}
		if _, ok := cleanupSet[turn.ToolName]; ok {
			decision.Add(turn.ID)
		}
	}

	return decision
}

// BeforeReasoningStep is a no-op for trigger-based eviction.
func (p *TriggerPolicy) BeforeReasoningStep(turns []Turn) Decision {
	return NewDecision()
}
