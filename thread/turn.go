// Package thread provides the conversation thread model: an ordered,
// append-only log of turns with stable ids, plus eviction policies that
// bound context growth without breaking tool call/response pairing.
//
// Information Hiding:
// - Log storage layout hidden behind append/remove/view methods
// - Eviction decision computation hidden behind the Policy interface
// - Call/response pairing rules internalized in the policies
package thread

import "github.com/google/uuid"

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallRef identifies a single tool invocation made by an assistant turn.
type ToolCallRef struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
}

// Turn is one message in a conversation thread.
//
// Assistant turns that invoke tools carry ToolCalls; tool turns carry
// RespondsTo, the call id of the invocation they answer. A tool turn whose
// RespondsTo matches no surviving assistant turn is orphaned; eviction must
// never produce one.
type Turn struct {
	ID         string        `json:"id"`
	Role       Role          `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []ToolCallRef `json:"tool_calls,omitempty"`
	RespondsTo string        `json:"responds_to,omitempty"`
	ToolName   string        `json:"tool_name,omitempty"`
}

// NewTurn creates a turn with a fresh unique id.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:      uuid.New().String(),
		Role:    role,
		Content: content,
	}
}

// NewAssistantCall creates an assistant turn that invokes the named tool,
// returning the turn together with the generated call id.
func NewAssistantCall(content, toolName string) (Turn, string) {
	callID := uuid.New().String()
	turn := NewTurn(RoleAssistant, content)
	turn.ToolCalls = []ToolCallRef{{CallID: callID, Name: toolName}}
	return turn, callID
}

// NewToolResponse creates a tool turn answering the given call id.
func NewToolResponse(content, callID, toolName string) Turn {
	turn := NewTurn(RoleTool, content)
	turn.RespondsTo = callID
	turn.ToolName = toolName
	return turn
}

// CallsTool reports whether the turn invokes the named tool.
func (t Turn) CallsTool(name string) bool {
	for _, call := range t.ToolCalls {
		if call.Name == name {
			return true
		}
	}
	return false
}
