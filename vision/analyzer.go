// Package vision extracts exam questions from images through a vision
// capable LLM provider. The analyzer sends images inline with a question
// type specific prompt, requests structured JSON output, and maps the
// response into ledger entries.
//
// Information Hiding:
// - Prompt wording and output schemas per question type
// - Image encoding and MIME detection
// - Response parsing tolerance (markdown fences, surrounding prose)
package vision

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/promer94/image2questions/batch"
	jsonutil "github.com/promer94/image2questions/internal/json"
	"github.com/promer94/image2questions/ledger"
	"github.com/promer94/image2questions/llm"
	"github.com/promer94/image2questions/questions"
)

// Analyzer extracts questions from images via an LLM provider.
type Analyzer struct {
	client *llm.Client
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer backed by the given provider.
func NewAnalyzer(provider llm.Provider, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		client: llm.NewClient(provider),
		logger: logger.With().Str("component", "vision").Logger(),
	}
}

// multipleChoiceResponse is the structured output for multiple_choice.
type multipleChoiceResponse struct {
	Questions []questions.MultipleChoice `json:"questions"`
}

// trueFalseResponse is the structured output for true_false.
type trueFalseResponse struct {
	Questions []questions.TrueFalse `json:"questions"`
}

// mixedResponse is the structured output for mixed extraction.
type mixedResponse struct {
	MultipleChoiceQuestions []questions.MultipleChoice `json:"multiple_choice_questions"`
	TrueFalseQuestions      []questions.TrueFalse      `json:"true_false_questions"`
}

// ValidatePaths splits image paths into readable files and error strings.
func ValidatePaths(imagePaths []string) (valid []string, errs []string) {
	for _, path := range imagePaths {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("Image not found: %s", path))
		case info.IsDir():
			errs = append(errs, fmt.Sprintf("Not a file: %s", path))
		default:
			valid = append(valid, path)
		}
	}
	return valid, errs
}

// Analyze extracts questions of the given type from the images and returns
// a ledger entry covering them. When a single image is analyzed, each
// record carries that image as its source; multi-image calls leave source
// empty since the provider response does not attribute questions to images.
func (a *Analyzer) Analyze(ctx context.Context, imagePaths []string, questionType questions.Type) (ledger.Entry, error) {
	if len(imagePaths) == 0 {
		return ledger.Entry{}, fmt.Errorf("no images to analyze")
	}

	valid, pathErrs := ValidatePaths(imagePaths)
	if len(valid) == 0 {
		return ledger.Entry{}, fmt.Errorf("no readable images: %v", pathErrs)
	}
	for _, e := range pathErrs {
		a.logger.Warn().Str("error", e).Msg("skipping image")
	}

	images := make([]llm.Image, 0, len(valid))
	for _, path := range valid {
		img, err := LoadImage(path)
		if err != nil {
			return ledger.Entry{}, err
		}
		images = append(images, img)
	}

	system, user := promptsFor(questionType)
	messages := []llm.ChatMessage{
		llm.SystemMessage(system),
		llm.UserMessageWithImages(user, images),
	}

	a.logger.Debug().
		Int("images", len(valid)).
		Str("question_type", string(questionType)).
		Str("model", a.client.Provider().Model()).
		Msg("analyzing images")

	content, err := a.client.ChatWithFormat(ctx, messages, formatFor(questionType))
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("vision request failed: %w", err)
	}

	entry, err := parseResponse(content, questionType)
	if err != nil {
		return ledger.Entry{}, err
	}

	source := ""
	if len(valid) == 1 {
		source = batch.Canonical(valid[0])
	}
	for i := range entry.MultipleChoice {
		entry.MultipleChoice[i].Source = source
	}
	for i := range entry.TrueFalse {
		entry.TrueFalse[i].Source = source
	}

	for _, path := range valid {
		entry.ProcessedImages = append(entry.ProcessedImages, batch.Canonical(path))
	}

	a.logger.Info().
		Int("images", len(valid)).
		Int("questions", entry.TotalQuestions()).
		Msg("extraction complete")

	return entry, nil
}

// parseResponse maps the provider's JSON answer into a ledger entry.
func parseResponse(content string, questionType questions.Type) (ledger.Entry, error) {
	entry := ledger.Entry{Type: questionType}

	switch questionType {
	case questions.TypeTrueFalse:
		var resp trueFalseResponse
		if err := jsonutil.ExtractJSONFromResponseWithType(content, &resp); err != nil {
			return ledger.Entry{}, fmt.Errorf("failed to parse true/false response: %w", err)
		}
		for _, q := range resp.Questions {
			entry.TrueFalse = append(entry.TrueFalse, ledger.TrueFalseRecord{Title: q.Title})
		}
	case questions.TypeMixed:
		var resp mixedResponse
		if err := jsonutil.ExtractJSONFromResponseWithType(content, &resp); err != nil {
			return ledger.Entry{}, fmt.Errorf("failed to parse mixed response: %w", err)
		}
		for _, q := range resp.MultipleChoiceQuestions {
			entry.MultipleChoice = append(entry.MultipleChoice, ledger.MultipleChoiceRecord{Title: q.Title, Options: q.Options})
		}
		for _, q := range resp.TrueFalseQuestions {
			entry.TrueFalse = append(entry.TrueFalse, ledger.TrueFalseRecord{Title: q.Title})
		}
	default:
		var resp multipleChoiceResponse
		if err := jsonutil.ExtractJSONFromResponseWithType(content, &resp); err != nil {
			return ledger.Entry{}, fmt.Errorf("failed to parse multiple choice response: %w", err)
		}
		for _, q := range resp.Questions {
			entry.MultipleChoice = append(entry.MultipleChoice, ledger.MultipleChoiceRecord{Title: q.Title, Options: q.Options})
		}
	}

	return entry, nil
}

// Verify Analyzer satisfies the batch runner's contract.
var _ batch.Analyzer = (*Analyzer)(nil)
