// Image analysis tool: extracts questions from images and appends them
// to the question ledger.
//
// Information Hiding:
// - Vision provider interaction hidden behind batch.Analyzer
// - Ledger locking and merge discipline hidden in the ledger package

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promer94/image2questions/batch"
	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/questions"
)

// AnalyzeImagesTool extracts questions from the given images and merges
// the result into the ledger at the configured output path.
type AnalyzeImagesTool struct {
	BaseTool
	analyzer   batch.Analyzer
	outputPath string
}

// NewAnalyzeImagesTool creates the analysis tool. Results are merged into
// the ledger at outputPath unless the call overrides it.
func NewAnalyzeImagesTool(analyzer batch.Analyzer, outputPath string) *AnalyzeImagesTool {
	return &AnalyzeImagesTool{analyzer: analyzer, outputPath: outputPath}
}

// Metadata returns the tool metadata.
func (t *AnalyzeImagesTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "analyze_images",
		Description: "Extract exam questions from image files using a vision model and save them to the question ledger. Supported formats: jpg, jpeg, png, gif, webp, bmp",
		Parameters: []ToolParameter{
			{Name: "image_paths", ParamType: "array", Description: "Paths of the image files to analyze", Required: true},
			{Name: "question_type", ParamType: "string", Description: "Type of questions to extract: multiple_choice, true_false or mixed", Required: false},
			{Name: "output_path", ParamType: "string", Description: "Ledger file to merge results into (defaults to the configured path)", Required: false},
		},
	}
}

type analyzeArgs struct {
	ImagePaths   []string `json:"image_paths"`
	QuestionType string   `json:"question_type"`
	OutputPath   string   `json:"output_path"`
}

// Validate validates the arguments.
func (t *AnalyzeImagesTool) Validate(args json.RawMessage) error {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if len(a.ImagePaths) == 0 {
		return fmt.Errorf("image_paths cannot be empty")
	}
	return nil
}

// Execute analyzes the images and merges the extracted questions.
func (t *AnalyzeImagesTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	if len(a.ImagePaths) == 0 {
		return FailureResultf("image_paths cannot be empty"), nil
	}

	questionType := questions.TypeMultipleChoice
	if a.QuestionType != "" {
		parsed, err := questions.ParseType(a.QuestionType)
		if err != nil {
			return FailureResult(err), nil
		}
		questionType = parsed
	}

	outputPath := t.outputPath
	if a.OutputPath != "" {
		outputPath = a.OutputPath
	}

	entry, err := t.analyzer.Analyze(ctx, a.ImagePaths, questionType)
	if err != nil {
		return FailureResult(fmt.Errorf("analysis failed: %w", err)), nil
	}

	merged, err := ledger.Render(entry, outputPath, ledger.ModeAppend)
	if err != nil {
		return FailureResult(fmt.Errorf("failed to save results: %w", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d image(s), extracted %d question(s).\n", len(a.ImagePaths), entry.TotalQuestions())
	fmt.Fprintf(&sb, "Ledger now holds %d question(s) across %d processed image(s): %s",
		merged.TotalQuestions(), len(merged.ProcessedImages), outputPath)

	return SuccessResult(sb.String()), nil
}
