// Package ledger persists extraction results and processing state to a
// single JSON document per output path. The ledger is the one structure
// shared by independent runs: an interrupted batch resumed later finds the
// processed set intact and picks up where it left off.
//
// Information Hiding:
// - On-disk JSON layout hidden behind Entry and Load/Save
// - Atomic write discipline (temp file + rename) hidden in Save
// - Cross-process locking hidden behind PathLock
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/promer94/image2questions/questions"
)

// ErrUnreadable marks a ledger file that exists but could not be parsed.
// Distinct from a missing file (which is a normal empty state) so callers
// can warn before overwriting someone's data.
var ErrUnreadable = errors.New("ledger file exists but is unreadable")

// Entry is the persisted state for one output path: the result buckets,
// the set of processed source images, and the producer tag.
//
// ProcessedImages grows monotonically through merges; an image marked
// processed is never unprocessed again. Unknown JSON fields in older or
// newer files are ignored on read, never rejected.
type Entry struct {
	Type            questions.Type         `json:"type,omitempty"`
	MultipleChoice  []MultipleChoiceRecord `json:"multiple_choice"`
	TrueFalse       []TrueFalseRecord      `json:"true_false"`
	ProcessedImages []string               `json:"processed_images"`
}

// MultipleChoiceRecord is a multiple-choice question plus the image it came
// from. Source is optional: ledgers written by older producers lack it.
type MultipleChoiceRecord struct {
	Title   string            `json:"title"`
	Options questions.Options `json:"options"`
	Source  string            `json:"source,omitempty"`
}

// TrueFalseRecord is a true/false question plus the image it came from.
type TrueFalseRecord struct {
	Title  string `json:"title"`
	Source string `json:"source,omitempty"`
}

// Empty reports whether the entry carries no data at all.
func (e Entry) Empty() bool {
	return e.Type == "" && len(e.MultipleChoice) == 0 && len(e.TrueFalse) == 0 && len(e.ProcessedImages) == 0
}

// TotalQuestions returns the number of records across both buckets.
func (e Entry) TotalQuestions() int {
	return len(e.MultipleChoice) + len(e.TrueFalse)
}

// Processed reports whether the exact identifier is in the processed set.
func (e Entry) Processed(item string) bool {
	for _, p := range e.ProcessedImages {
		if p == item {
			return true
		}
	}
	return false
}

// Load reads a persisted entry. A missing file yields an empty entry and no
// error. A file that exists but cannot be parsed yields an empty entry and
// an error wrapping ErrUnreadable.
func Load(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, nil
		}
		return Entry{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return entry, nil
}

// Merge combines an existing entry with an incoming one.
//
// Bucket records are existing-then-incoming, except that incoming records
// whose source image was already processed before this merge are dropped:
// producers mark an image processed in the same merge that adds its records,
// which makes re-submitting the same increment a no-op. Records without
// source provenance are always appended (nothing stable to dedup on).
// The processed set is the union; the existing type tag wins a conflict.
func Merge(existing, incoming Entry) Entry {
	merged := Entry{
		Type:           existing.Type,
		MultipleChoice: append([]MultipleChoiceRecord(nil), existing.MultipleChoice...),
		TrueFalse:      append([]TrueFalseRecord(nil), existing.TrueFalse...),
	}
	if merged.Type == "" {
		merged.Type = incoming.Type
	}

	for _, record := range incoming.MultipleChoice {
		if record.Source != "" && existing.Processed(record.Source) {
			continue
		}
		merged.MultipleChoice = append(merged.MultipleChoice, record)
	}
	for _, record := range incoming.TrueFalse {
		if record.Source != "" && existing.Processed(record.Source) {
			continue
		}
		merged.TrueFalse = append(merged.TrueFalse, record)
	}

	seen := make(map[string]struct{}, len(existing.ProcessedImages))
	merged.ProcessedImages = append([]string(nil), existing.ProcessedImages...)
	for _, item := range existing.ProcessedImages {
		seen[item] = struct{}{}
	}
	for _, item := range incoming.ProcessedImages {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		merged.ProcessedImages = append(merged.ProcessedImages, item)
	}

	return merged
}

// Save writes the entry atomically: a reader never observes a half-written
// file. The document is written to a temp file in the destination directory
// and renamed over the target.
func Save(path string, entry Entry) error {
	data, err := json.MarshalIndent(normalize(entry), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename ledger file: %w", err)
	}
	return nil
}

// normalize replaces nil slices with empty ones so the persisted document
// always carries its top-level keys.
func normalize(entry Entry) Entry {
	if entry.MultipleChoice == nil {
		entry.MultipleChoice = []MultipleChoiceRecord{}
	}
	if entry.TrueFalse == nil {
		entry.TrueFalse = []TrueFalseRecord{}
	}
	if entry.ProcessedImages == nil {
		entry.ProcessedImages = []string{}
	}
	return entry
}

// Update performs a read-merge-write cycle for one ledger path under the
// path's exclusive lock, so concurrent or resumed runs never lose each
// other's progress. A ledger that exists but cannot be read stops the
// update: losing durability is the one condition that must surface.
func Update(path string, incoming Entry) (Entry, error) {
	lock, err := AcquireLock(path)
	if err != nil {
		return Entry{}, err
	}
	defer lock.Release()

	existing, err := Load(path)
	if err != nil {
		return Entry{}, err
	}
	merged := Merge(existing, incoming)
	if err := Save(path, merged); err != nil {
		return Entry{}, err
	}
	return merged, nil
}
