package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promer94/image2questions/ledger"
)

// Status describes how far a directory's processing has progressed.
type Status string

const (
	// StatusPending means nothing has been processed yet.
	StatusPending Status = "pending"
	// StatusInProgress means some but not all items are processed.
	StatusInProgress Status = "in_progress"
	// StatusCompleted means every discovered item is processed.
	StatusCompleted Status = "completed"
)

// Plan is the planner's answer to "what remains to be done": derived fresh
// from the current discovery and ledger state on every call, never cached.
type Plan struct {
	Status     Status
	Discovered []string
	Processed  []string
	Pending    []string
	NextBatch  []string
	BatchSize  int
}

// ComputePlan compares discovered items against the ledger's processed set
// and selects the next bounded unit of work.
//
// Both sides are canonicalized before comparison; an item also counts as
// processed when its original string form appears in the ledger, which
// tolerates ledgers written before canonicalization. The pending list is
// ordered lexicographically by canonical form so two calls over the same
// inputs return identical plans. Planning is pure: no ledger mutation, no
// filesystem access.
func ComputePlan(discovered []string, entry ledger.Entry, batchSize int) Plan {
	if batchSize < 1 {
		batchSize = 1
	}

	// Every form a processed entry may be referred to by.
	processedSet := make(map[string]struct{}, len(entry.ProcessedImages)*2)
	for _, item := range entry.ProcessedImages {
		processedSet[item] = struct{}{}
		processedSet[Canonical(item)] = struct{}{}
	}

	plan := Plan{BatchSize: batchSize}
	seen := make(map[string]struct{}, len(discovered))
	for _, item := range discovered {
		canonical := Canonical(item)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		plan.Discovered = append(plan.Discovered, canonical)

		_, byCanonical := processedSet[canonical]
		_, byOriginal := processedSet[item]
		if byCanonical || byOriginal {
			plan.Processed = append(plan.Processed, canonical)
		} else {
			plan.Pending = append(plan.Pending, canonical)
		}
	}
	sort.Strings(plan.Discovered)
	sort.Strings(plan.Processed)
	sort.Strings(plan.Pending)

	switch {
	case len(plan.Discovered) > 0 && len(plan.Pending) == 0:
		plan.Status = StatusCompleted
	case len(plan.Processed) > 0 && len(plan.Pending) > 0:
		plan.Status = StatusInProgress
	default:
		plan.Status = StatusPending
	}

	next := plan.Pending
	if len(next) > batchSize {
		next = next[:batchSize]
	}
	plan.NextBatch = append([]string(nil), next...)

	return plan
}

// Recommendation returns the suggested next action for the driving agent.
func (p Plan) Recommendation() string {
	switch {
	case len(p.Discovered) == 0:
		return "No images found. Nothing to do."
	case p.Status == StatusCompleted:
		return "All images are processed. No further extraction needed."
	default:
		return "Call `analyze_images` with the images listed in 'Next Batch to Process' above."
	}
}

// Report renders the plan as the human-readable status block the agent
// consumes: totals, the next bounded batch, and the recommendation.
func (p Plan) Report(directory string) string {
	var b strings.Builder
	b.WriteString("Batch Status\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Directory: %s\n", directory)
	fmt.Fprintf(&b, "Status: %s\n\n", p.Status)
	fmt.Fprintf(&b, "Images discovered: %d\n", len(p.Discovered))
	fmt.Fprintf(&b, "Images processed:  %d\n", len(p.Processed))
	fmt.Fprintf(&b, "Images pending:    %d\n", len(p.Pending))

	if len(p.NextBatch) > 0 {
		fmt.Fprintf(&b, "\nNext Batch to Process (Batch Size: %d):\n", p.BatchSize)
		for _, item := range p.NextBatch {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
		if remaining := len(p.Pending) - len(p.NextBatch); remaining > 0 {
			fmt.Fprintf(&b, "  ... and %d more pending images not shown.\n", remaining)
		}
	}

	b.WriteString("\nRecommended Action:\n")
	fmt.Fprintf(&b, "  %s\n", p.Recommendation())
	return b.String()
}
