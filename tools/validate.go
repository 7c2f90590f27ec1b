// Question validation tool.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/questions"
)

// ValidateQuestionsTool checks extracted questions for quality problems.
type ValidateQuestionsTool struct {
	BaseTool
	outputPath string
}

// NewValidateQuestionsTool creates the validation tool with a default
// ledger path.
func NewValidateQuestionsTool(outputPath string) *ValidateQuestionsTool {
	return &ValidateQuestionsTool{outputPath: outputPath}
}

// Metadata returns the tool metadata.
func (t *ValidateQuestionsTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "validate_questions",
		Description: "Validate extracted questions for quality issues: empty or short titles, missing or duplicate options. Returns a report with a confidence score",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Ledger file to validate (defaults to the configured path)", Required: false},
		},
	}
}

type validateArgs struct {
	Path string `json:"path"`
}

// Execute validates the ledger contents.
func (t *ValidateQuestionsTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a validateArgs
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
		return FailureResultf("the file %s exists but is not a readable question ledger", path), nil
	}
	if err != nil {
		return FailureResult(err), nil
	}

	if entry.TotalQuestions() == 0 {
		return SuccessResult(fmt.Sprintf("No questions to validate at %s.", path)), nil
	}

	multipleChoice := make([]questions.MultipleChoice, len(entry.MultipleChoice))
	for i, r := range entry.MultipleChoice {
		multipleChoice[i] = questions.MultipleChoice{Title: r.Title, Options: r.Options}
	}
	trueFalse := make([]questions.TrueFalse, len(entry.TrueFalse))
	for i, r := range entry.TrueFalse {
		trueFalse[i] = questions.TrueFalse{Title: r.Title}
	}

	report := questions.Validate(multipleChoice, trueFalse)

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return FailureResult(fmt.Errorf("failed to encode report: %w", err)), nil
	}

	var sb strings.Builder
	verdict := "PASSED"
	if !report.Valid {
		verdict = "FAILED"
	}
	fmt.Fprintf(&sb, "Validation %s: %d question(s), %d error(s), %d warning(s), confidence %.2f\n",
		verdict, report.TotalQuestions, report.ErrorCount, report.WarningCount, report.ConfidenceScore)
	sb.Write(raw)

	return SuccessResult(sb.String()), nil
}
