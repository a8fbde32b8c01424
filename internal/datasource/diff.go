package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// SourceDiff represents differences between two data sources
type SourceDiff struct {
	SourceA string
	SourceB string
	// MissingInA contains member IDs present in B but not in A
	MissingInA []string
	// MissingInB contains member IDs present in A but not in B
	MissingInB []string
	// ParentMismatch lists members whose parent link differs
	ParentMismatch []ParentDifference
	CountA         int
	CountB         int
}

// ParentDifference is a parent-link mismatch for a single member
type ParentDifference struct {
	ID      string `json:"id"`
	ParentA string `json:"parent_a"`
	ParentB string `json:"parent_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.ParentMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d members each)", d.CountA)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	writeIDs := func(ids []string, in, notIn string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, "  - %d members in %s but not %s\n", len(ids), in, notIn)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&b, "    - %s\n", id)
			}
		}
	}
	writeIDs(d.MissingInA, d.SourceB, d.SourceA)
	writeIDs(d.MissingInB, d.SourceA, d.SourceB)

	if len(d.ParentMismatch) > 0 {
		fmt.Fprintf(&b, "  - %d members with a different parent\n", len(d.ParentMismatch))
		if len(d.ParentMismatch) <= 5 {
			for _, m := range d.ParentMismatch {
				fmt.Fprintf(&b, "    - %s: %q vs %q\n", m.ID, m.ParentA, m.ParentB)
			}
		}
	}
	return b.String()
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

func (o DiffOptions) room(n int) bool {
	return o.MaxDifferences == 0 || n < o.MaxDifferences
}

// DetectInconsistencies compares two member sets.
func DetectInconsistencies(membersA, membersB []model.Member, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA := make(map[string]model.Member, len(membersA))
	for _, m := range membersA {
		mapA[m.ID] = m
	}
	mapB := make(map[string]model.Member, len(membersB))
	for _, m := range membersB {
		mapB[m.ID] = m
	}
	diff.CountA, diff.CountB = len(mapA), len(mapB)

	for _, id := range sortedKeys(mapA) {
		if _, ok := mapB[id]; !ok && opts.room(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for _, id := range sortedKeys(mapB) {
		b := mapB[id]
		a, ok := mapA[id]
		switch {
		case !ok:
			if opts.room(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, id)
			}
		case a.ParentID != b.ParentID:
			if opts.room(len(diff.ParentMismatch)) {
				diff.ParentMismatch = append(diff.ParentMismatch, ParentDifference{ID: id, ParentA: a.ParentID, ParentB: b.ParentID})
			}
		}
	}
	return diff
}

func sortedKeys(m map[string]model.Member) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompareSources loads and compares two data sources
func CompareSources(ctx context.Context, sourceA, sourceB DataSource, docPath string, opts DiffOptions) (*SourceDiff, error) {
	membersA, err := LoadFromSource(ctx, sourceA, docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}
	membersB, err := LoadFromSource(ctx, sourceB, docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(membersA, membersB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares every pair of valid sources and
// returns the pairs that disagree. Sources that fail to load are skipped.
func CheckAllSourcesConsistent(ctx context.Context, sources []DataSource, docPath string, opts DiffOptions) []SourceDiff {
	var diffs []SourceDiff
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}
			diff, err := CompareSources(ctx, sources[i], sources[j], docPath, opts)
			if err != nil {
				continue
			}
			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}
	return diffs
}
