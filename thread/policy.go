package thread

// Decision is the set of turn ids an eviction policy selected for removal.
// A decision is computed as a pure function of thread state and is applied
// atomically: an assistant turn and its respondent tool turns always appear
// together or not at all.
type Decision struct {
	ids map[string]struct{}
}

// NewDecision creates an empty decision.
func NewDecision() Decision {
	return Decision{ids: make(map[string]struct{})}
}

// Add records a turn id for removal. Empty ids are ignored: a turn that
// cannot be identified cannot be safely removed.
func (d Decision) Add(id string) {
	if id == "" {
		return
	}
	d.ids[id] = struct{}{}
}

// Contains reports whether the id is part of the decision.
func (d Decision) Contains(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// Empty reports whether the decision removes nothing.
func (d Decision) Empty() bool {
	return len(d.ids) == 0
}

// Len returns the number of turns selected for removal.
func (d Decision) Len() int {
	return len(d.ids)
}

// IDs returns the selected ids in unspecified order.
func (d Decision) IDs() []string {
	out := make([]string, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	return out
}

// Policy computes which turns are safe to evict from a thread.
//
// Policies are pure: they never mutate the turns they inspect, never return
// an error, and under-evict rather than risk corrupting history. An empty
// decision means "remove nothing".
type Policy interface {
	// AfterToolCall is invoked once per completed tool call with the name
	// of the tool that just finished and the full ordered turn list.
	AfterToolCall(toolName string, turns []Turn) Decision

	// BeforeReasoningStep is invoked once before every agent reasoning step.
	BeforeReasoningStep(turns []Turn) Decision
}

// pairCalls indexes every tool invocation in the thread: for each call id it
// records the assistant turn that emitted it, and every tool turn that
// answered it. A call id may have more than one response (a retried tool can
// append a duplicate), and all of them must travel with the assistant turn.
type callPairing struct {
	// callID -> id of the assistant turn that emitted it
	assistantByCall map[string]string
	// callID -> ids of the tool turns responding to it
	responsesByCall map[string][]string
	// calls per tool name in thread order
	callsByTool map[string][]ToolCallRef
}

func pairCalls(turns []Turn) callPairing {
	p := callPairing{
		assistantByCall: make(map[string]string),
		responsesByCall: make(map[string][]string),
		callsByTool:     make(map[string][]ToolCallRef),
	}
	for _, turn := range turns {
		switch turn.Role {
		case RoleAssistant:
			for _, call := range turn.ToolCalls {
				if call.CallID == "" {
					continue
				}
				p.assistantByCall[call.CallID] = turn.ID
				p.callsByTool[call.Name] = append(p.callsByTool[call.Name], call)
			}
		case RoleTool:
			if turn.RespondsTo != "" {
				p.responsesByCall[turn.RespondsTo] = append(p.responsesByCall[turn.RespondsTo], turn.ID)
			}
		}
	}
	return p
}
