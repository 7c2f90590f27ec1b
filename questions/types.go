// Package questions provides the domain model for extracted exam questions:
// multiple-choice and true/false records, question type selection, and
// quality validation of extracted data.
package questions

import "fmt"

// Type selects which kind of questions to extract.
type Type string

const (
	TypeMultipleChoice Type = "multiple_choice"
	TypeTrueFalse      Type = "true_false"
	TypeMixed          Type = "mixed"
)

// ParseType validates a question type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMultipleChoice, TypeTrueFalse, TypeMixed:
		return Type(s), nil
	}
	return "", fmt.Errorf("invalid question type %q: must be one of multiple_choice, true_false, mixed", s)
}

// Options holds the four choices of a multiple-choice question.
// Absent choices are empty strings.
type Options struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Values returns the options in A..D order.
func (o Options) Values() []string {
	return []string{o.A, o.B, o.C, o.D}
}

// MultipleChoice is one multiple-choice question extracted from an image.
type MultipleChoice struct {
	Title   string  `json:"title"`
	Options Options `json:"options"`
}

// TrueFalse is one true/false statement extracted from an image.
type TrueFalse struct {
	Title string `json:"title"`
}
