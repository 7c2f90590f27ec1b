// Image listing tool.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/promer94/image2questions/batch"
)

// ListImagesTool lists image files in a directory.
type ListImagesTool struct {
	BaseTool
}

// NewListImagesTool creates the listing tool.
func NewListImagesTool() *ListImagesTool {
	return &ListImagesTool{}
}

// Metadata returns the tool metadata.
func (t *ListImagesTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "list_images",
		Description: "List image files in a directory, useful for previewing what a batch run would process",
		Parameters: []ToolParameter{
			{Name: "directory", ParamType: "string", Description: "Directory to scan", Required: true},
			{Name: "recursive", ParamType: "boolean", Description: "Also scan subdirectories", Required: false},
		},
	}
}

type listImagesArgs struct {
	Directory string `json:"directory"`
	Recursive bool   `json:"recursive"`
}

// Validate validates the arguments.
func (t *ListImagesTool) Validate(args json.RawMessage) error {
	var a listImagesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Directory == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	return nil
}

// Execute lists the images.
func (t *ListImagesTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a listImagesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	if a.Directory == "" {
		return FailureResultf("directory cannot be empty"), nil
	}

	images, err := batch.FindImages(a.Directory, a.Recursive)
	if err != nil {
		return FailureResult(err), nil
	}

	if len(images) == 0 {
		return SuccessResult(fmt.Sprintf("No images found in %s. Supported formats: %s",
			a.Directory, strings.Join(batch.SupportedExtensions(), ", "))), nil
	}

	recursive := "No"
	if a.Recursive {
		recursive = "Yes"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d image(s) in %s\n", len(images), a.Directory)
	fmt.Fprintf(&sb, "Recursive: %s\n\nImages:\n", recursive)
	base := batch.Canonical(a.Directory)
	for _, img := range images {
		rel, err := filepath.Rel(base, img)
		if err != nil {
			rel = img
		}
		fmt.Fprintf(&sb, "  - %s\n", rel)
	}

	return SuccessResult(sb.String()), nil
}
