// Package search finds members by name. Matching is a case-insensitive
// substring test against "first middle last", results keep snapshot order
// and there is no ranking.
package search

import (
	"strings"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// Search returns the members whose name contains term, ignoring case, in
// input order. An empty term matches nothing.
func Search(term string, members []model.Member) []model.Member {
	if term == "" {
		return nil
	}
	q := strings.ToLower(term)
	var out []model.Member
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.SearchText()), q) {
			out = append(out, m)
		}
	}
	return out
}

// Index caches the lowered search text of one snapshot so repeated
// keystrokes do not re-lower every name.
type Index struct {
	members []model.Member
	keys    []string
}

// NewIndex builds an index over members. The slice is not copied.
func NewIndex(members []model.Member) *Index {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = strings.ToLower(m.SearchText())
	}
	return &Index{members: members, keys: keys}
}

// Len returns the number of indexed members.
func (ix *Index) Len() int { return len(ix.members) }

// Search behaves like the package-level Search over the indexed members.
func (ix *Index) Search(term string) []model.Member {
	if term == "" || ix == nil {
		return nil
	}
	q := strings.ToLower(term)
	var out []model.Member
	for i, k := range ix.keys {
		if strings.Contains(k, q) {
			out = append(out, ix.members[i])
		}
	}
	return out
}
