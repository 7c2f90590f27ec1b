// Package main provides the image2questions CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/promer94/image2questions/cli"
)

var (
	// Global flags
	questionType string
	outputPath   string
	batchSize    int
	maxIter      int
	toolRetries  uint32
	verbose      bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "image2questions",
		Short: "Extract exam questions from images into a resumable JSON ledger",
		Long: `Extract multiple-choice and true/false questions from images using a
vision model, with batch processing that survives interruption.

Progress is tracked in the output JSON itself: re-running a command skips
images that were already processed, and partial batch failures never lose
the results of their siblings.`,
	}

	rootCmd.PersistentFlags().StringVarP(&questionType, "type", "t", "mixed", "Question type: multiple_choice, true_false, mixed")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output JSON path (default from OUTPUT_PATH)")
	rootCmd.PersistentFlags().IntVarP(&batchSize, "batch-size", "b", 0, "Images per analysis call (default from BATCH_SIZE)")
	rootCmd.PersistentFlags().IntVarP(&maxIter, "max-iter", "m", 0, "Maximum agent iterations (default from AGENT_MAX_ITERATIONS)")
	rootCmd.PersistentFlags().Uint32Var(&toolRetries, "tool-retries", 3, "Maximum retries for tool execution")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options(recursive bool) cli.Options {
	opts := cli.DefaultOptions()
	opts.QuestionType = questionType
	opts.OutputPath = outputPath
	opts.BatchSize = batchSize
	opts.Recursive = recursive
	opts.MaxIter = maxIter
	opts.ToolRetries = toolRetries
	opts.Verbose = verbose
	return opts
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [images...]",
		Short: "Extract questions from specific images",
		Long: `Extract questions from the given image files and merge the results
into the output JSON. Images already recorded as processed are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Extract(context.Background(), args, options(false))
		},
	}
}

func batchCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "batch [directory]",
		Short: "Process all pending images in a directory",
		Long: `Discover images in a directory and process everything the output
ledger has not covered yet. Interruptions are safe: re-running resumes
from where the last run stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ProcessBatch(context.Background(), args[0], options(recursive))
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Search subdirectories for images")

	return cmd
}

func statusCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "status [directory]",
		Short: "Show batch progress for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Status(args[0], options(recursive))
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Search subdirectories for images")

	return cmd
}

func agentCmd() *cobra.Command {
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "agent [task]",
		Short: "Run a task with the extraction agent",
		Long: `Run a free-form task with the tool-calling extraction agent, e.g.:

  image2questions agent "process all images in ./exams and validate the results"

The agent decides which tools to call; its conversation thread is bounded
by context eviction so long batch runs do not overflow the model window.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunAgent(context.Background(), args[0], sessionID, dbPath, options(false))
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", ".image2questions/sessions.db", "Database path for session storage")

	return cmd
}

func chatCmd() *cobra.Command {
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with the extraction agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), sessionID, dbPath, options(false))
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", ".image2questions/sessions.db", "Database path for session storage")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.ListTools(verboseTools)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show tool parameters")

	return cmd
}
