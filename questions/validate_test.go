package questions

import "testing"

func TestValidateCleanQuestions(t *testing.T) {
	mc := []MultipleChoice{
		{Title: "Which planet is closest to the sun?", Options: Options{A: "Mercury", B: "Venus", C: "Earth", D: "Mars"}},
	}
	tf := []TrueFalse{
		{Title: "The sun is a star."},
	}

	report := Validate(mc, tf)

	if !report.Valid {
		t.Errorf("expected valid report, got issues: %v", report.Issues)
	}
	if report.TotalQuestions != 2 {
		t.Errorf("expected 2 questions, got %d", report.TotalQuestions)
	}
	if report.ConfidenceScore != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", report.ConfidenceScore)
	}
}

func TestValidateEmptyTitleIsError(t *testing.T) {
	report := Validate(nil, []TrueFalse{{Title: "   "}})

	if report.Valid {
		t.Error("expected invalid report for empty title")
	}
	if report.ErrorCount != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount)
	}
	if report.Issues[0].IssueType != "empty_title" {
		t.Errorf("expected empty_title issue, got %s", report.Issues[0].IssueType)
	}
}

func TestValidateAllEmptyOptionsIsError(t *testing.T) {
	mc := []MultipleChoice{
		{Title: "A question with no options at all?", Options: Options{}},
	}

	report := Validate(mc, nil)

	if report.Valid {
		t.Error("expected invalid report for all-empty options")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.IssueType == "all_empty_options" {
			found = true
		}
	}
	if !found {
		t.Error("expected all_empty_options issue")
	}
}

func TestValidatePartialEmptyOptionsIsWarning(t *testing.T) {
	mc := []MultipleChoice{
		{Title: "A question missing two options?", Options: Options{A: "yes", B: "no"}},
	}

	report := Validate(mc, nil)

	if !report.Valid {
		t.Error("warnings alone must not invalidate the report")
	}
	if report.WarningCount == 0 {
		t.Error("expected a warning for empty options")
	}
}

func TestValidateDuplicateOptions(t *testing.T) {
	mc := []MultipleChoice{
		{Title: "Which answer repeats itself here?", Options: Options{A: "same", B: "Same", C: "other", D: "more"}},
	}

	report := Validate(mc, nil)

	found := false
	for _, issue := range report.Issues {
		if issue.IssueType == "duplicate_options" {
			found = true
		}
	}
	if !found {
		t.Error("expected duplicate_options issue for case-insensitive duplicates")
	}
}

func TestValidateShortTitleIsWarning(t *testing.T) {
	report := Validate(nil, []TrueFalse{{Title: "Hm?"}})

	if !report.Valid {
		t.Error("short title is a warning, not an error")
	}
	if report.WarningCount != 1 {
		t.Errorf("expected 1 warning, got %d", report.WarningCount)
	}
}

func TestValidateEmptySetScoresZero(t *testing.T) {
	report := Validate(nil, nil)

	if report.ConfidenceScore != 0.0 {
		t.Errorf("expected confidence 0.0 for empty set, got %f", report.ConfidenceScore)
	}
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"multiple_choice", "true_false", "mixed"} {
		if _, err := ParseType(valid); err != nil {
			t.Errorf("ParseType(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseType("essay"); err == nil {
		t.Error("expected error for unknown question type")
	}
}
