// Batch status tool: reports processing progress for a directory of
// images against the question ledger. Acts as the checkpoint step of a
// long extraction run, so it doubles as the trigger for context cleanup.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promer94/image2questions/batch"
	"github.com/promer94/image2questions/ledger"
)

// BatchStatusTool computes the processing plan for a directory.
type BatchStatusTool struct {
	BaseTool
	outputPath string
	batchSize  int
}

// NewBatchStatusTool creates the status tool with defaults for the ledger
// path and batch size.
func NewBatchStatusTool(outputPath string, batchSize int) *BatchStatusTool {
	return &BatchStatusTool{outputPath: outputPath, batchSize: batchSize}
}

// Metadata returns the tool metadata.
func (t *BatchStatusTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "batch_status",
		Description: "Show batch processing progress for a directory of images: how many are processed, how many are pending, and which images to analyze next",
		Parameters: []ToolParameter{
			{Name: "directory", ParamType: "string", Description: "Directory containing the images", Required: true},
			{Name: "recursive", ParamType: "boolean", Description: "Also scan subdirectories", Required: false},
			{Name: "batch_size", ParamType: "number", Description: "Number of images per batch (default from configuration)", Required: false},
			{Name: "output_path", ParamType: "string", Description: "Ledger file to check progress against (defaults to the configured path)", Required: false},
		},
	}
}

type statusArgs struct {
	Directory  string `json:"directory"`
	Recursive  bool   `json:"recursive"`
	BatchSize  int    `json:"batch_size"`
	OutputPath string `json:"output_path"`
}

// Validate validates the arguments.
func (t *BatchStatusTool) Validate(args json.RawMessage) error {
	var a statusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Directory == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	return nil
}

// Execute computes and renders the plan.
func (t *BatchStatusTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a statusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	if a.Directory == "" {
		return FailureResultf("directory cannot be empty"), nil
	}

	discovered, err := batch.FindImages(a.Directory, a.Recursive)
	if err != nil {
		return FailureResult(err), nil
	}
	if len(discovered) == 0 {
		return SuccessResult(fmt.Sprintf("No images found in %s. Supported formats: %s",
			a.Directory, strings.Join(batch.SupportedExtensions(), ", "))), nil
	}

	outputPath := t.outputPath
	if a.OutputPath != "" {
		outputPath = a.OutputPath
	}

	entry, err := ledger.Load(outputPath)
	if err != nil {
		return FailureResult(fmt.Errorf("cannot read existing ledger %s: %w", outputPath, err)), nil
	}

	batchSize := t.batchSize
	if a.BatchSize > 0 {
		batchSize = a.BatchSize
	}

	plan := batch.ComputePlan(discovered, entry, batchSize)
	return SuccessResult(plan.Report(a.Directory)), nil
}
