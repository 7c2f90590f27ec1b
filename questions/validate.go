package questions

import (
	"fmt"
	"strings"
)

// Validation thresholds.
const (
	minTitleLength  = 5
	maxTitleLength  = 500
	maxOptionLength = 200
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one quality problem found in an extracted question.
type Issue struct {
	QuestionIndex int      `json:"question_index"`
	QuestionType  Type     `json:"question_type"`
	IssueType     string   `json:"issue_type"`
	Message       string   `json:"message"`
	Severity      Severity `json:"severity"`
}

// Report summarizes validation of a set of questions.
type Report struct {
	Valid           bool    `json:"is_valid"`
	TotalQuestions  int     `json:"total_questions"`
	ErrorCount      int     `json:"error_count"`
	WarningCount    int     `json:"warning_count"`
	InfoCount       int     `json:"info_count"`
	ConfidenceScore float64 `json:"confidence_score"`
	Issues          []Issue `json:"issues"`
}

// Validate checks multiple-choice and true/false questions for quality
// problems: empty or suspicious titles, missing or duplicate options.
// A report with no error-severity issues is valid.
func Validate(multipleChoice []MultipleChoice, trueFalse []TrueFalse) Report {
	var issues []Issue

	for i, q := range multipleChoice {
		issues = append(issues, validateTitle(q.Title, i, TypeMultipleChoice)...)
		issues = append(issues, validateOptions(q.Options, i)...)
	}
	for i, q := range trueFalse {
		issues = append(issues, validateTitle(q.Title, i, TypeTrueFalse)...)
	}

	report := Report{
		TotalQuestions: len(multipleChoice) + len(trueFalse),
		Issues:         issues,
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			report.ErrorCount++
		case SeverityWarning:
			report.WarningCount++
		case SeverityInfo:
			report.InfoCount++
		}
	}
	report.Valid = report.ErrorCount == 0
	report.ConfidenceScore = confidenceScore(report.TotalQuestions, report.ErrorCount, report.WarningCount)
	return report
}

func validateTitle(title string, index int, qType Type) []Issue {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		return []Issue{{
			QuestionIndex: index,
			QuestionType:  qType,
			IssueType:     "empty_title",
			Message:       "question title is empty",
			Severity:      SeverityError,
		}}
	case len([]rune(trimmed)) < minTitleLength:
		return []Issue{{
			QuestionIndex: index,
			QuestionType:  qType,
			IssueType:     "short_title",
			Message:       fmt.Sprintf("title is too short (%d chars, minimum %d)", len([]rune(trimmed)), minTitleLength),
			Severity:      SeverityWarning,
		}}
	case len([]rune(title)) > maxTitleLength:
		return []Issue{{
			QuestionIndex: index,
			QuestionType:  qType,
			IssueType:     "long_title",
			Message:       fmt.Sprintf("title is very long (%d chars)", len([]rune(title))),
			Severity:      SeverityInfo,
		}}
	}
	return nil
}

func validateOptions(options Options, index int) []Issue {
	var issues []Issue

	labels := []string{"A", "B", "C", "D"}
	values := options.Values()

	var empty []string
	seen := make(map[string]bool)
	duplicate := false
	for i, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			empty = append(empty, labels[i])
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			duplicate = true
		}
		seen[key] = true
		if len([]rune(value)) > maxOptionLength {
			issues = append(issues, Issue{
				QuestionIndex: index,
				QuestionType:  TypeMultipleChoice,
				IssueType:     "long_option",
				Message:       fmt.Sprintf("option %s is very long (%d chars)", labels[i], len([]rune(value))),
				Severity:      SeverityInfo,
			})
		}
	}

	if len(empty) == len(labels) {
		issues = append(issues, Issue{
			QuestionIndex: index,
			QuestionType:  TypeMultipleChoice,
			IssueType:     "all_empty_options",
			Message:       "all options are empty",
			Severity:      SeverityError,
		})
	} else if len(empty) > 0 {
		issues = append(issues, Issue{
			QuestionIndex: index,
			QuestionType:  TypeMultipleChoice,
			IssueType:     "empty_options",
			Message:       fmt.Sprintf("empty options: %s", strings.Join(empty, ", ")),
			Severity:      SeverityWarning,
		})
	}

	if duplicate {
		issues = append(issues, Issue{
			QuestionIndex: index,
			QuestionType:  TypeMultipleChoice,
			IssueType:     "duplicate_options",
			Message:       "some options have duplicate values",
			Severity:      SeverityWarning,
		})
	}

	return issues
}

// confidenceScore derates from 1.0 by 0.3 per error and 0.1 per warning,
// normalized by question count, clamped to [0, 1].
func confidenceScore(total, errors, warnings int) float64 {
	if total == 0 {
		return 0.0
	}
	score := 1.0 - (float64(errors)*0.3+float64(warnings)*0.1)/float64(total)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
