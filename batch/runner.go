package batch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/questions"
)

// Analyzer extracts questions from a set of images. The returned entry
// carries the extracted records with their source provenance and the
// images it covered in ProcessedImages.
type Analyzer interface {
	Analyze(ctx context.Context, imagePaths []string, questionType questions.Type) (ledger.Entry, error)
}

// Summary reports the outcome of one batch run.
type Summary struct {
	Processed []string
	Failed    []string
	Errors    []string
	Questions int
}

// Runner processes pending images in sub-batches, merging every successful
// increment into the ledger so an interruption never loses finished work.
type Runner struct {
	analyzer Analyzer
	logger   zerolog.Logger
}

// NewRunner creates a batch runner over the given analyzer.
func NewRunner(analyzer Analyzer, logger zerolog.Logger) *Runner {
	return &Runner{analyzer: analyzer, logger: logger}
}

// Run processes the items in sub-batches of the given size against one
// output ledger path.
//
// A sub-batch is first attempted as a single analysis call. If that fails,
// the runner falls back to analyzing each image of the sub-batch on its
// own, so one bad image never discards results extracted for its siblings.
// Every success, batched or individual, is merged into the ledger under
// the path lock before the next unit starts; failed items simply stay out
// of the processed set and reappear in the next plan.
func (r *Runner) Run(ctx context.Context, items []string, questionType questions.Type, outputPath string, subBatchSize int) (Summary, error) {
	if subBatchSize < 1 {
		subBatchSize = 1
	}

	var summary Summary
	for start := 0; start < len(items); start += subBatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := start + subBatchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		entry, err := r.analyzer.Analyze(ctx, chunk, questionType)
		if err == nil {
			merged, mergeErr := ledger.Update(outputPath, entry)
			if mergeErr != nil {
				return summary, fmt.Errorf("merge batch results: %w", mergeErr)
			}
			summary.Processed = append(summary.Processed, chunk...)
			summary.Questions += entry.TotalQuestions()
			r.logger.Info().
				Int("images", len(chunk)).
				Int("questions", entry.TotalQuestions()).
				Int("ledger_total", merged.TotalQuestions()).
				Msg("merged sub-batch")
			continue
		}

		r.logger.Warn().Err(err).Int("images", len(chunk)).Msg("sub-batch failed, retrying individually")
		summary.Errors = append(summary.Errors, fmt.Sprintf("batch of %d images failed: %v", len(chunk), err))

		for _, item := range chunk {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			entry, err := r.analyzer.Analyze(ctx, []string{item}, questionType)
			if err != nil {
				summary.Failed = append(summary.Failed, item)
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", item, err))
				r.logger.Warn().Err(err).Str("image", item).Msg("image failed")
				continue
			}
			if _, mergeErr := ledger.Update(outputPath, entry); mergeErr != nil {
				return summary, fmt.Errorf("merge result for %s: %w", item, mergeErr)
			}
			summary.Processed = append(summary.Processed, item)
			summary.Questions += entry.TotalQuestions()
		}
	}
	return summary, nil
}
