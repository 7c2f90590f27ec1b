// Extraction agent configuration for CLI commands.
//
// Information Hiding:
// - Agent creation details hidden
// - Tool and eviction policy wiring hidden

package cli

import (
	"github.com/rs/zerolog"

	"github.com/promer94/image2questions/agent"
	"github.com/promer94/image2questions/batch"
	"github.com/promer94/image2questions/config"
	"github.com/promer94/image2questions/llm"
	"github.com/promer94/image2questions/thread"
	"github.com/promer94/image2questions/tools"
)

const extractionSystemPrompt = `You are a professional question extraction assistant. Your task is to help users extract exam questions from images and save them as JSON.

## Your Capabilities

1. **analyze_images** - Extract questions from one or more images
   - Supports multiple-choice, true/false, and mixed extraction
   - Results are merged into the question ledger automatically

2. **batch_status** - Report batch progress for a directory
   - Shows processed, pending, and the next batch to work on

3. **list_images** - List all image files in a directory

4. **load_questions** - Load previously extracted questions from the ledger

5. **validate_questions** - Check question completeness and quality
   - Flags empty titles and incomplete options
   - Provides a confidence score

## Workflow

1. User provides image paths or a directory
2. Use batch_status to see what still needs processing
3. Analyze pending images in small batches
4. Optional: validate the extraction quality
5. Report results to the user

## Guidelines

- Always confirm image files exist before processing
- If the user does not specify a question type, use mixed
- Already-processed images are skipped automatically; never re-analyze them
- If errors occur, explain the issue and suggest solutions

## Response Style

- Use clear and concise responses
- Provide a brief summary after completing tasks`

// extractionTools builds the standard tool set over one output ledger.
func extractionTools(analyzer batch.Analyzer, outputPath string, batchSize int) []tools.Tool {
	return []tools.Tool{
		tools.NewAnalyzeImagesTool(analyzer, outputPath),
		tools.NewBatchStatusTool(outputPath, batchSize),
		tools.NewListImagesTool(),
		tools.NewLoadQuestionsTool(outputPath),
		tools.NewValidateQuestionsTool(outputPath),
	}
}

// evictionPolicies builds thread eviction from settings: trigger rules evict
// verbose analysis output once a status check confirms it is persisted, and
// a sliding window bounds repeated tool invocations.
func evictionPolicies(settings config.Settings) []thread.Policy {
	return []thread.Policy{
		thread.NewTriggerPolicy(settings.Thread.CleanupRules),
		thread.NewWindowPolicy(settings.Thread.KeepRecent),
	}
}

// NewExtractionAgent assembles the question extraction agent: the vision
// analyzer behind the tools, the agent LLM driving the loop, and the
// eviction policies keeping the thread bounded.
func NewExtractionAgent(settings config.Settings, analyzer batch.Analyzer, agentProvider llm.Provider, toolConfig tools.ToolConfig, logger zerolog.Logger) *agent.Agent {
	cfg := agent.NewBuilder("extractor").
		Description("Extracts exam questions from images into a JSON ledger").
		SystemPrompt(extractionSystemPrompt).
		Tools(extractionTools(analyzer, settings.Batch.OutputPath, settings.Batch.BatchSize)).
		Policies(evictionPolicies(settings)).
		Build()

	return agent.New(cfg, agentProvider).
		WithToolConfig(toolConfig).
		WithLogger(logger)
}
