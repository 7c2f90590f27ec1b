// Command execution for CLI commands.
//
// Information Hiding:
// - Command dispatch logic hidden
// - Provider and analyzer setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/promer94/image2questions/agent"
	"github.com/promer94/image2questions/batch"
	"github.com/promer94/image2questions/config"
	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/llm"
	"github.com/promer94/image2questions/questions"
	"github.com/promer94/image2questions/storage"
	"github.com/promer94/image2questions/thread"
	"github.com/promer94/image2questions/tools"
	"github.com/promer94/image2questions/vision"
)

// Options holds CLI execution options. Zero values mean "use settings".
type Options struct {
	QuestionType string
	OutputPath   string
	BatchSize    int
	Recursive    bool
	MaxIter      int
	ToolRetries  uint32
	Verbose      bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		QuestionType: string(questions.TypeMixed),
		MaxIter:      10,
		ToolRetries:  3,
		Verbose:      false,
	}
}

// loadSettings reads environment configuration and applies CLI overrides.
func loadSettings(opts Options) (config.Settings, error) {
	settings, err := config.New()
	if err != nil {
		return config.Settings{}, err
	}
	if opts.OutputPath != "" {
		settings.Batch.OutputPath = opts.OutputPath
	}
	if opts.BatchSize > 0 {
		settings.Batch.BatchSize = opts.BatchSize
	}
	settings.Batch.Recursive = opts.Recursive
	return settings, nil
}

// newLogger builds the CLI logger. Verbose runs show debug-level events
// (evictions, merges); normal runs only warnings.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// newAnalyzer builds the vision analyzer against the configured endpoint.
func newAnalyzer(settings config.Settings, logger zerolog.Logger) (*vision.Analyzer, error) {
	if settings.Vision.APIKey == "" {
		return nil, fmt.Errorf("DOUBAO_API_KEY environment variable not set")
	}
	provider, err := llm.ProviderOpenAI.
		Model(settings.Vision.Model).
		BaseURL(settings.Vision.BaseURL).
		MaxTokens(settings.Vision.MaxTokens).
		Temperature(float32(settings.Vision.Temperature)).
		APIKey(settings.Vision.APIKey)
	if err != nil {
		return nil, err
	}
	return vision.NewAnalyzer(provider, logger), nil
}

// agentLLMProvider builds the provider driving the agent loop.
func agentLLMProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.Agent.Provider)
	if err != nil {
		return nil, err
	}
	if settings.Agent.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for agent provider %q", settings.Agent.Provider)
	}
	builder := providerType.
		Model(settings.Agent.Model).
		Temperature(float32(settings.Agent.Temperature))
	if settings.Agent.BaseURL != "" {
		builder = builder.BaseURL(settings.Agent.BaseURL)
	}
	return builder.APIKey(settings.Agent.APIKey)
}

// Extract analyzes the given images directly, without the agent loop, and
// merges the results into the question ledger.
func Extract(ctx context.Context, images []string, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	questionType, err := questions.ParseType(opts.QuestionType)
	if err != nil {
		return err
	}

	valid, pathErrs := vision.ValidatePaths(images)
	for _, msg := range pathErrs {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
	if len(valid) == 0 {
		return fmt.Errorf("no readable images among %d path(s)", len(images))
	}

	// Skip images the ledger already covers.
	entry, err := ledger.Load(settings.Batch.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", settings.Batch.OutputPath, err)
	}
	plan := batch.ComputePlan(valid, entry, settings.Batch.BatchSize)
	if len(plan.Pending) == 0 {
		fmt.Printf("All %d image(s) already processed. Output: %s\n", len(valid), settings.Batch.OutputPath)
		return nil
	}
	if skipped := len(valid) - len(plan.Pending); skipped > 0 {
		fmt.Printf("Skipping %d already-processed image(s).\n", skipped)
	}

	logger := newLogger(opts.Verbose)
	analyzer, err := newAnalyzer(settings, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Extracting %s questions from %d image(s)...\n", questionType, len(plan.Pending))

	runner := batch.NewRunner(analyzer, logger)
	summary, err := runner.Run(ctx, plan.Pending, questionType, settings.Batch.OutputPath, settings.Batch.BatchSize)
	if err != nil {
		return err
	}

	printSummary(summary, settings.Batch.OutputPath)
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d image(s) failed extraction", len(summary.Failed))
	}
	return nil
}

// ProcessBatch discovers images in a directory and processes everything the
// ledger has not covered yet. Safe to interrupt and re-run.
func ProcessBatch(ctx context.Context, directory string, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	questionType, err := questions.ParseType(opts.QuestionType)
	if err != nil {
		return err
	}

	discovered, err := batch.FindImages(directory, settings.Batch.Recursive)
	if err != nil {
		return err
	}
	if len(discovered) == 0 {
		fmt.Printf("No images found in %s.\n", directory)
		return nil
	}

	entry, err := ledger.Load(settings.Batch.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", settings.Batch.OutputPath, err)
	}
	plan := batch.ComputePlan(discovered, entry, settings.Batch.BatchSize)
	if plan.Status == batch.StatusCompleted {
		fmt.Printf("All %d image(s) in %s already processed. Output: %s\n",
			len(plan.Discovered), directory, settings.Batch.OutputPath)
		return nil
	}

	logger := newLogger(opts.Verbose)
	analyzer, err := newAnalyzer(settings, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d pending image(s) from %s in batches of %d...\n",
		len(plan.Pending), directory, settings.Batch.BatchSize)

	runner := batch.NewRunner(analyzer, logger)
	summary, err := runner.Run(ctx, plan.Pending, questionType, settings.Batch.OutputPath, settings.Batch.BatchSize)
	if err != nil {
		return err
	}

	printSummary(summary, settings.Batch.OutputPath)
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d image(s) failed extraction; re-run to retry them", len(summary.Failed))
	}
	return nil
}

// Status prints the batch progress report for a directory.
func Status(directory string, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	discovered, err := batch.FindImages(directory, settings.Batch.Recursive)
	if err != nil {
		return err
	}

	entry, err := ledger.Load(settings.Batch.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", settings.Batch.OutputPath, err)
	}

	plan := batch.ComputePlan(discovered, entry, settings.Batch.BatchSize)
	fmt.Print(plan.Report(directory))
	return nil
}

// RunAgent executes a single task with the extraction agent.
func RunAgent(ctx context.Context, task, sessionID, dbPath string, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	logger := newLogger(opts.Verbose)
	analyzer, err := newAnalyzer(settings, logger)
	if err != nil {
		return err
	}
	provider, err := agentLLMProvider(settings)
	if err != nil {
		return err
	}

	toolConfig := tools.ToolConfig{MaxRetries: opts.ToolRetries}
	a := NewExtractionAgent(settings, analyzer, provider, toolConfig, logger).
		Verbose(opts.Verbose)

	var history []thread.Turn
	if sessionID != "" {
		store, err := storage.OpenSqlite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		a = a.WithStorage(store, sessionID)

		history, err = store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if len(history) > 0 {
			fmt.Printf("Resuming session '%s' (%d turns)\n\n", sessionID, len(history))
		}
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = settings.Agent.MaxIterations
	}

	fmt.Printf("Running task with extraction agent...\n\n")
	response := a.ExecuteWithHistory(ctx, task, history, maxIter)
	return printResponse(response, opts.Verbose)
}

// Chat starts an interactive session with the extraction agent.
func Chat(ctx context.Context, sessionID, dbPath string, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	logger := newLogger(opts.Verbose)
	analyzer, err := newAnalyzer(settings, logger)
	if err != nil {
		return err
	}
	provider, err := agentLLMProvider(settings)
	if err != nil {
		return err
	}

	toolConfig := tools.ToolConfig{MaxRetries: opts.ToolRetries}
	a := NewExtractionAgent(settings, analyzer, provider, toolConfig, logger).
		Verbose(opts.Verbose)

	session := sessionID
	if session == "" {
		session = "default"
	}

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	a = a.WithStorage(store, session)

	history, err := store.Load(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) > 0 {
		fmt.Printf("Resuming session '%s' (%d turns)\n\n", session, len(history))
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = settings.Agent.MaxIterations
	}

	fmt.Printf("Chat with the extraction agent. Type 'exit' to quit.\n\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		response := a.ExecuteWithHistory(ctx, input, history, maxIter)

		switch response.Type {
		case agent.ResponseSuccess:
			fmt.Printf("\n%s\n\n", response.Result)
			// Carry the whole thread forward, including evictions applied.
			history = a.Thread()
		case agent.ResponseFailure:
			fmt.Fprintf(os.Stderr, "\nError: %s\n\n", response.Error)
		case agent.ResponseTimeout:
			fmt.Printf("\nTimeout: %s\n\n", response.PartialResult)
			history = a.Thread()
		}
	}

	return scanner.Err()
}

// ListTools prints the standard extraction tool set.
func ListTools(verbose bool) {
	registry, err := tools.WithDefaults(nil, "questions.json", 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Println("Available tools:")
	fmt.Println()

	for _, meta := range registry.List() {
		fmt.Printf("  %s\n", meta.Name)
		fmt.Printf("    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Println("    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Printf("      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Println()
	}
}

// Output helpers

func printResponse(response agent.Response, verbose bool) error {
	switch response.Type {
	case agent.ResponseSuccess:
		if verbose {
			printAgentSteps(response.Steps)
		}
		fmt.Printf("%s\n\n", response.Result)
		if len(response.Steps) > 0 {
			fmt.Printf("(%d steps)\n", len(response.Steps))
		}
		printTokenStats(response.Metadata)
		return nil
	case agent.ResponseFailure:
		fmt.Fprintf(os.Stderr, "Error: %s\n", response.Error)
		return fmt.Errorf("task failed: %s", response.Error)
	case agent.ResponseTimeout:
		fmt.Printf("Timeout. Partial result:\n%s\n", response.PartialResult)
		return fmt.Errorf("task timed out")
	default:
		return fmt.Errorf("unknown response type: %v", response.Type)
	}
}

func printSummary(summary batch.Summary, outputPath string) {
	fmt.Printf("\nProcessed: %d image(s)\n", len(summary.Processed))
	fmt.Printf("Extracted: %d question(s)\n", summary.Questions)
	if len(summary.Failed) > 0 {
		fmt.Printf("Failed:    %d image(s)\n", len(summary.Failed))
		for _, msg := range summary.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
	fmt.Printf("Output:    %s\n", outputPath)
}

const maxAgentObservationLen = 400

func printAgentSteps(steps []agent.Step) {
	fmt.Println("--- Steps ---")
	for _, step := range steps {
		fmt.Printf("[%d] %s\n", step.Iteration, step.Thought)
		if step.Action != nil {
			fmt.Printf("    Action: %s\n", *step.Action)
		}
		if step.Observation != nil {
			obs := truncateString(*step.Observation, maxAgentObservationLen)
			fmt.Printf("    Observation: %s\n", obs)
		}
		fmt.Println()
	}
	fmt.Println("-------------")
	fmt.Println()
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func printTokenStats(meta agent.Metadata) {
	if meta.TokenUsage == nil {
		return
	}
	fmt.Printf("\nToken Usage:\n")
	fmt.Printf("  LLM calls: %d\n", meta.LLMCalls)
	fmt.Printf("  Prompt tokens: %d\n", meta.TokenUsage.PromptTokens)
	fmt.Printf("  Completion tokens: %d\n", meta.TokenUsage.CompletionTokens)
	fmt.Printf("  Total tokens: %d\n", meta.TokenUsage.TotalTokens)
}
