package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/questions"
)

// stubAnalyzer returns one canned question per image.
type stubAnalyzer struct {
	err   error
	calls int
}

func (s *stubAnalyzer) Analyze(_ context.Context, imagePaths []string, questionType questions.Type) (ledger.Entry, error) {
	s.calls++
	if s.err != nil {
		return ledger.Entry{}, s.err
	}
	entry := ledger.Entry{Type: questionType}
	for i, path := range imagePaths {
		entry.MultipleChoice = append(entry.MultipleChoice, ledger.MultipleChoiceRecord{
			Title:   fmt.Sprintf("question %d", i+1),
			Options: questions.Options{A: "a", B: "b"},
			Source:  path,
		})
		entry.ProcessedImages = append(entry.ProcessedImages, path)
	}
	return entry, nil
}

func writeImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	tool := NewListImagesTool()

	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(tool); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if !registry.Has("list_images") {
		t.Error("expected list_images to be registered")
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Error("expected lookup of unknown tool to fail")
	}
}

func TestWithDefaultsRegistersExtractionTools(t *testing.T) {
	registry, err := WithDefaults(&stubAnalyzer{}, "out.json", 5)
	if err != nil {
		t.Fatalf("WithDefaults failed: %v", err)
	}

	want := []string{"analyze_images", "batch_status", "list_images", "load_questions", "validate_questions"}
	names := registry.Names()
	if len(names) != len(want) {
		t.Fatalf("expected %d tools, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("expected tool %s at position %d, got %s", name, i, names[i])
		}
	}
}

func TestAnalyzeImagesToolMergesIntoLedger(t *testing.T) {
	dir := t.TempDir()
	images := writeImages(t, dir, "a.png", "b.png")
	output := filepath.Join(dir, "questions.json")

	tool := NewAnalyzeImagesTool(&stubAnalyzer{}, output)
	args, _ := json.Marshal(map[string]any{"image_paths": images})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %v", result.Error)
	}

	entry, err := ledger.Load(output)
	if err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	if entry.TotalQuestions() != 2 || len(entry.ProcessedImages) != 2 {
		t.Errorf("unexpected ledger: %d questions, %v processed", entry.TotalQuestions(), entry.ProcessedImages)
	}
}

func TestAnalyzeImagesToolRejectsBadType(t *testing.T) {
	tool := NewAnalyzeImagesTool(&stubAnalyzer{}, "out.json")
	args, _ := json.Marshal(map[string]any{"image_paths": []string{"x.png"}, "question_type": "essay"})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success() {
		t.Error("expected failure for invalid question type")
	}
}

func TestBatchStatusToolReportsProgress(t *testing.T) {
	dir := t.TempDir()
	images := writeImages(t, dir, "a.png", "b.png", "c.png")
	output := filepath.Join(dir, "questions.json")

	if _, err := ledger.Update(output, ledger.Entry{ProcessedImages: images[:1]}); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	tool := NewBatchStatusTool(output, 2)
	args, _ := json.Marshal(map[string]any{"directory": dir})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %v", result.Error)
	}
	if !strings.Contains(result.Output, "Next Batch to Process (Batch Size: 2):") {
		t.Errorf("report missing next batch section:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "Images processed:  1") {
		t.Errorf("report missing processed count:\n%s", result.Output)
	}
}

func TestBatchStatusToolEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	tool := NewBatchStatusTool(filepath.Join(dir, "questions.json"), 5)
	args, _ := json.Marshal(map[string]any{"directory": dir})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(result.Output, "No images found") {
		t.Errorf("unexpected output: %s", result.Output)
	}
}

func TestListImagesTool(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, "b.png", "a.jpg")
	writeImages(t, dir, "notes.txt")

	tool := NewListImagesTool()
	args, _ := json.Marshal(map[string]any{"directory": dir})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(result.Output, "Found 2 image(s)") {
		t.Errorf("unexpected output: %s", result.Output)
	}
	if strings.Contains(result.Output, "notes.txt") {
		t.Errorf("non-image listed: %s", result.Output)
	}
}

func TestLoadQuestionsToolMissingFile(t *testing.T) {
	tool := NewLoadQuestionsTool(filepath.Join(t.TempDir(), "questions.json"))

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success() || !strings.Contains(result.Output, "No existing questions") {
		t.Errorf("unexpected result: %v %s", result.Error, result.Output)
	}
}

func TestLoadQuestionsToolUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	tool := NewLoadQuestionsTool(path)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success() {
		t.Error("expected failure for unreadable ledger")
	}
	if !strings.Contains(result.Error.Error(), "not a readable question ledger") {
		t.Errorf("unexpected error: %v", result.Error)
	}
}

func TestValidateQuestionsTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	entry := ledger.Entry{
		Type: questions.TypeMultipleChoice,
		MultipleChoice: []ledger.MultipleChoiceRecord{
			{Title: "什么是光合作用的主要产物", Options: questions.Options{A: "氧气", B: "氮气"}},
			{Title: "", Options: questions.Options{A: "x"}},
		},
	}
	if err := ledger.Save(path, entry); err != nil {
		t.Fatalf("failed to save ledger: %v", err)
	}

	tool := NewValidateQuestionsTool(path)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %v", result.Error)
	}
	if !strings.Contains(result.Output, "Validation FAILED") {
		t.Errorf("expected failed validation, got:\n%s", result.Output)
	}
	if !strings.Contains(result.Output, "empty_title") {
		t.Errorf("expected empty_title issue in report:\n%s", result.Output)
	}
}

func TestExecutorRetriesTransientFailure(t *testing.T) {
	attempts := 0
	tool := &flakyTool{fail: 2, attempts: &attempts}
	executor := NewExecutor(ToolConfig{MaxRetries: 3})

	result, err := executor.Execute(context.Background(), tool, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected eventual success, got %v", result.Error)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecutorDoesNotRetryValidationFailure(t *testing.T) {
	attempts := 0
	tool := &flakyTool{fail: 100, attempts: &attempts, message: "validation failed: bad args"}
	executor := NewExecutor(ToolConfig{MaxRetries: 3})

	result, err := executor.Execute(context.Background(), tool, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success() {
		t.Error("expected failure")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable failure, got %d", attempts)
	}
}

// flakyTool fails the first `fail` executions.
type flakyTool struct {
	BaseTool
	fail     int
	attempts *int
	message  string
}

func (f *flakyTool) Metadata() ToolMetadata {
	return ToolMetadata{Name: "flaky", Description: "test tool"}
}

func (f *flakyTool) Execute(_ context.Context, _ json.RawMessage) (ToolResult, error) {
	*f.attempts++
	if *f.attempts <= f.fail {
		msg := f.message
		if msg == "" {
			msg = "connection reset"
		}
		return FailureResultf("%s", msg), nil
	}
	return SuccessResult("ok"), nil
}
