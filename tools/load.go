// Ledger loading tool.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/promer94/image2questions/ledger"
)

// LoadQuestionsTool reads a question ledger and summarizes its contents.
type LoadQuestionsTool struct {
	BaseTool
	outputPath string
}

// NewLoadQuestionsTool creates the loading tool with a default ledger path.
func NewLoadQuestionsTool(outputPath string) *LoadQuestionsTool {
	return &LoadQuestionsTool{outputPath: outputPath}
}

// Metadata returns the tool metadata.
func (t *LoadQuestionsTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "load_questions",
		Description: "Load previously extracted questions from the question ledger and show them as JSON",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Ledger file to load (defaults to the configured path)", Required: false},
		},
	}
}

type loadArgs struct {
	Path string `json:"path"`
}

// Execute loads the ledger.
func (t *LoadQuestionsTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a loadArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
		}
	}

	path := t.outputPath
	if a.Path != "" {
		path = a.Path
	}

	entry, err := ledger.Load(path)
	if errors.Is(err, ledger.ErrUnreadable) {
		return FailureResultf("the file %s exists but is not a readable question ledger; fix or remove it before continuing", path), nil
	}
	if err != nil {
		return FailureResult(err), nil
	}

	if entry.Empty() {
		return SuccessResult(fmt.Sprintf("No existing questions at %s.", path)), nil
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return FailureResult(fmt.Errorf("failed to encode ledger: %w", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Loaded %d question(s) covering %d processed image(s) from %s:\n",
		entry.TotalQuestions(), len(entry.ProcessedImages), path)
	sb.Write(raw)

	return SuccessResult(sb.String()), nil
}
