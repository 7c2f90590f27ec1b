package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/promer94/image2questions/llm"
	"github.com/promer94/image2questions/storage"
	"github.com/promer94/image2questions/thread"
	"github.com/promer94/image2questions/tools"
)

// scriptedProvider replays a fixed sequence of responses.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-model" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	if p.calls >= len(p.responses) {
		return llm.LLMResponse{}, fmt.Errorf("no scripted response for call %d", p.calls+1)
	}
	response := p.responses[p.calls]
	p.calls++
	return llm.LLMResponse{
		Content: response,
		Usage:   &llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (p *scriptedProvider) ChatWithFormat(ctx context.Context, messages []llm.ChatMessage, format *llm.ResponseFormat) (llm.LLMResponse, error) {
	return p.Chat(ctx, messages)
}

func (p *scriptedProvider) ChatWithTools(ctx context.Context, messages []llm.ChatMessage, defs []llm.ToolDefinition) (llm.LLMResponse, error) {
	return p.Chat(ctx, messages)
}

func (p *scriptedProvider) StreamChat(ctx context.Context, messages []llm.ChatMessage, chunks chan<- string) (*llm.TokenUsage, error) {
	resp, err := p.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	chunks <- resp.Content
	return resp.Usage, nil
}

// stubTool returns a canned output and counts invocations.
type stubTool struct {
	tools.BaseTool
	name   string
	output string
	fail   error
	calls  int
}

func (t *stubTool) Metadata() tools.ToolMetadata {
	return tools.ToolMetadata{Name: t.name, Description: "stub tool for tests"}
}

func (t *stubTool) Execute(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
	t.calls++
	if t.fail != nil {
		return tools.FailureResult(t.fail), nil
	}
	return tools.SuccessResult(t.output), nil
}

func actionDecision(tool string) string {
	return fmt.Sprintf(`{"thought": "use %s", "action": {"tool": %q, "input": {}}, "is_final": false}`, tool, tool)
}

func finalDecision(answer string) string {
	return fmt.Sprintf(`{"thought": "done", "action": null, "is_final": true, "final_answer": %q}`, answer)
}

func TestExecuteCompletesWithFinalAnswer(t *testing.T) {
	tool := &stubTool{name: "scan", output: "3 files found"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("scan"),
		finalDecision("found 3 files"),
	}}

	a := New(Config{Name: "test-agent", SystemPrompt: "You scan things.", Tools: []tools.Tool{tool}}, provider)
	response := a.Execute(context.Background(), "scan the directory", 5)

	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}
	if response.ResultText() != "found 3 files" {
		t.Errorf("unexpected result %q", response.ResultText())
	}
	if tool.calls != 1 {
		t.Errorf("expected 1 tool call, got %d", tool.calls)
	}
	if len(response.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(response.Steps))
	}
	if response.Metadata.LLMCalls != 2 {
		t.Errorf("expected 2 LLM calls, got %d", response.Metadata.LLMCalls)
	}
}

func TestExecuteRecordsToolFailureAsObservation(t *testing.T) {
	tool := &stubTool{name: "scan", fail: fmt.Errorf("disk unreadable")}
	provider := &scriptedProvider{responses: []string{
		actionDecision("scan"),
		finalDecision("could not scan"),
	}}

	a := New(Config{Name: "test-agent", Tools: []tools.Tool{tool}}, provider)
	response := a.Execute(context.Background(), "scan the directory", 5)

	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}
	if response.Steps[0].Observation == nil || !strings.Contains(*response.Steps[0].Observation, "Tool failed") {
		t.Errorf("expected failure observation, got %+v", response.Steps[0].Observation)
	}

	// The failed call still leaves a paired tool response in the thread.
	var toolTurns int
	for _, turn := range a.Thread() {
		if turn.Role == thread.RoleTool && turn.ToolName == "scan" {
			toolTurns++
			if turn.RespondsTo == "" {
				t.Error("tool turn missing responds_to")
			}
		}
	}
	if toolTurns != 1 {
		t.Errorf("expected 1 tool turn, got %d", toolTurns)
	}
}

func TestExecuteReturnsToolOutput(t *testing.T) {
	tool := &stubTool{name: "scan", output: "RAW TOOL OUTPUT"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("scan"),
		finalDecision("summarized answer"),
	}}

	a := New(Config{Name: "test-agent", Tools: []tools.Tool{tool}, ReturnToolOutput: true}, provider)
	response := a.Execute(context.Background(), "scan", 5)

	if response.ResultText() != "RAW TOOL OUTPUT" {
		t.Errorf("expected raw tool output, got %q", response.ResultText())
	}
}

func TestExecuteTimesOutAfterMaxIterations(t *testing.T) {
	tool := &stubTool{name: "scan", output: "ok"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("scan"),
		actionDecision("scan"),
	}}

	a := New(Config{Name: "test-agent", Tools: []tools.Tool{tool}}, provider)
	response := a.Execute(context.Background(), "scan forever", 2)

	if response.IsSuccess() {
		t.Fatal("expected timeout, got success")
	}
	if tool.calls != 2 {
		t.Errorf("expected 2 tool calls, got %d", tool.calls)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{responses: []string{finalDecision("never reached")}}
	a := New(Config{Name: "test-agent"}, provider)
	response := a.Execute(ctx, "anything", 5)

	if response.IsSuccess() {
		t.Fatal("expected failure for cancelled context")
	}
	if provider.calls != 0 {
		t.Errorf("expected no LLM calls, got %d", provider.calls)
	}
}

func TestNonJSONResponseTreatedAsThought(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I am just musing without any structure.",
		finalDecision("done musing"),
	}}

	a := New(Config{Name: "test-agent"}, provider)
	response := a.Execute(context.Background(), "think", 5)

	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}
	if response.Steps[0].Observation == nil || *response.Steps[0].Observation != "No action specified" {
		t.Errorf("unexpected first step: %+v", response.Steps[0])
	}
}

func TestTriggerPolicyEvictsAnalysisTurns(t *testing.T) {
	analyze := &stubTool{name: "analyze_images", output: "extracted 4 questions"}
	status := &stubTool{name: "batch_status", output: "2 pending"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("analyze_images"),
		actionDecision("batch_status"),
		finalDecision("all done"),
	}}

	policy := thread.NewTriggerPolicy(map[string][]string{
		"batch_status": {"analyze_images"},
	})
	a := New(Config{
		Name:     "test-agent",
		Tools:    []tools.Tool{analyze, status},
		Policies: []thread.Policy{policy},
	}, provider)

	response := a.Execute(context.Background(), "process the batch", 5)
	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}

	for _, turn := range a.Thread() {
		if turn.CallsTool("analyze_images") {
			t.Error("analyze assistant turn should have been evicted")
		}
		if turn.Role == thread.RoleTool && turn.ToolName == "analyze_images" {
			t.Error("analyze tool turn should have been evicted")
		}
	}
	// The trigger pair itself survives.
	var statusTurns int
	for _, turn := range a.Thread() {
		if turn.Role == thread.RoleTool && turn.ToolName == "batch_status" {
			statusTurns++
		}
	}
	if statusTurns != 1 {
		t.Errorf("expected batch_status turn to survive, got %d", statusTurns)
	}
}

func TestWindowPolicyBoundsToolTurns(t *testing.T) {
	tool := &stubTool{name: "analyze_images", output: "ok"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("analyze_images"),
		actionDecision("analyze_images"),
		actionDecision("analyze_images"),
		finalDecision("done"),
	}}

	a := New(Config{
		Name:     "test-agent",
		Tools:    []tools.Tool{tool},
		Policies: []thread.Policy{thread.NewWindowPolicy(1)},
	}, provider)

	response := a.Execute(context.Background(), "analyze repeatedly", 5)
	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}

	var invocations int
	for _, turn := range a.Thread() {
		if turn.CallsTool("analyze_images") {
			invocations++
		}
	}
	if invocations != 1 {
		t.Errorf("expected 1 surviving invocation, got %d", invocations)
	}
}

func TestExecuteWithHistoryResumes(t *testing.T) {
	systemTurn := thread.NewTurn(thread.RoleSystem, "You are resuming.")
	userTurn := thread.NewTurn(thread.RoleUser, "Task: earlier task")
	history := []thread.Turn{systemTurn, userTurn}

	provider := &scriptedProvider{responses: []string{finalDecision("resumed")}}
	a := New(Config{Name: "test-agent"}, provider)
	response := a.ExecuteWithHistory(context.Background(), "continue where we left off", history, 5)

	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}

	turns := a.Thread()
	if turns[0].ID != systemTurn.ID {
		t.Error("expected history to lead the thread")
	}
	var systemTurns int
	for _, turn := range turns {
		if turn.Role == thread.RoleSystem {
			systemTurns++
		}
	}
	if systemTurns != 1 {
		t.Errorf("expected no second system prompt, got %d system turns", systemTurns)
	}
}

func TestExecutePersistsThread(t *testing.T) {
	store := storage.NewInMemoryStorage()
	tool := &stubTool{name: "scan", output: "ok"}
	provider := &scriptedProvider{responses: []string{
		actionDecision("scan"),
		finalDecision("done"),
	}}

	a := New(Config{Name: "test-agent", Tools: []tools.Tool{tool}}, provider).
		WithStorage(store, "session-1")
	response := a.Execute(context.Background(), "scan", 5)
	if !response.IsSuccess() {
		t.Fatalf("expected success, got %+v", response)
	}

	saved, err := store.Load(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(saved) != len(a.Thread()) {
		t.Errorf("expected %d persisted turns, got %d", len(a.Thread()), len(saved))
	}
}

func TestDecisionUnmarshalStructuredFinalAnswer(t *testing.T) {
	raw := `{"thought": "t", "is_final": true, "final_answer": {"count": 2}}`
	var decision Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decision.FinalAnswer == nil || !strings.Contains(*decision.FinalAnswer, `"count": 2`) {
		t.Errorf("unexpected final answer: %v", decision.FinalAnswer)
	}
}
