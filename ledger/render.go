package ledger

import "fmt"

// RenderMode selects how an entry is written to its destination.
type RenderMode string

const (
	// ModeOverwrite replaces whatever is at the destination.
	ModeOverwrite RenderMode = "overwrite"
	// ModeAppend merges the entry into the existing document.
	ModeAppend RenderMode = "append"
)

// Render writes the entry to the destination path as a JSON document.
// Append mode runs a locked read-merge-write; overwrite replaces the file
// atomically. Returns the document as persisted.
func Render(entry Entry, destination string, mode RenderMode) (Entry, error) {
	switch mode {
	case ModeOverwrite:
		lock, err := AcquireLock(destination)
		if err != nil {
			return Entry{}, err
		}
		defer lock.Release()
		if err := Save(destination, entry); err != nil {
			return Entry{}, err
		}
		return normalize(entry), nil
	case ModeAppend:
		return Update(destination, entry)
	default:
		return Entry{}, fmt.Errorf("unknown render mode %q", mode)
	}
}
