package tree

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// genMembers draws a member set whose parent links are arbitrary: pointing
// at earlier members, later members (possibly forming loops), themselves,
// nothing, or ids outside the set.
func genMembers(t *rapid.T) []model.Member {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	members := make([]model.Member, n)
	for i := range members {
		members[i] = member(fmt.Sprintf("id%02d", i), "")
	}
	for i := range members {
		switch rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("kind%d", i)) {
		case 0:
			// root
		case 1:
			members[i].ParentID = fmt.Sprintf("ghost%d", i)
		default:
			if n > 0 {
				p := rapid.IntRange(0, n-1).Draw(t, fmt.Sprintf("parent%d", i))
				members[i].ParentID = members[p].ID
			}
		}
	}
	return members
}

func TestPropEveryMemberPlacedOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := genMembers(t)
		f := Build(members)

		count := make(map[string]int)
		f.Walk(func(n *Node) bool {
			count[n.ID()]++
			return true
		})
		for _, m := range members {
			if count[m.ID] != 1 {
				t.Fatalf("member %s placed %d times", m.ID, count[m.ID])
			}
		}
		if len(count) != len(members) {
			t.Fatalf("expected %d placed members, got %d", len(members), len(count))
		}
	})
}

func TestPropRootsAreParentlessOrDangling(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := genMembers(t)
		f := Build(members)

		ids := make(map[string]bool)
		for _, m := range members {
			ids[m.ID] = true
		}
		cyclic := make(map[string]bool)
		for _, id := range f.Cyclic() {
			cyclic[id] = true
		}
		for _, r := range f.Roots() {
			m := r.Member
			if m.ParentID != "" && ids[m.ParentID] && !cyclic[m.ID] {
				t.Fatalf("root %s has a present parent %s", m.ID, m.ParentID)
			}
		}
		for _, m := range members {
			if m.ParentID == "" || !ids[m.ParentID] {
				n, ok := f.Node(m.ID)
				if !ok || n.Parent != nil {
					t.Fatalf("expected %s to be a root", m.ID)
				}
			}
		}
	})
}

func TestPropChildrenGroupingExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := genMembers(t)
		f := Build(members)

		for _, x := range members {
			var want []string
			for _, m := range members {
				if m.ParentID == x.ID {
					want = append(want, m.ID)
				}
			}
			got := f.ChildrenOf(x.ID)
			if len(got) != len(want) {
				t.Fatalf("children of %s: expected %v, got %d members", x.ID, want, len(got))
			}
			for i := range want {
				if got[i].ID != want[i] {
					t.Fatalf("children of %s out of order: expected %v at %d, got %s", x.ID, want[i], i, got[i].ID)
				}
			}
		}
	})
}

func TestPropAcyclicRenderedChildrenMatchGrouping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		members := make([]model.Member, n)
		for i := range members {
			members[i] = member(fmt.Sprintf("id%02d", i), "")
			if i > 0 && rapid.Bool().Draw(t, fmt.Sprintf("hasParent%d", i)) {
				p := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d", i))
				members[i].ParentID = members[p].ID
			}
		}
		f := Build(members)
		if len(f.Cyclic()) != 0 {
			t.Fatalf("expected no cycles, got %v", f.Cyclic())
		}
		for _, x := range members {
			raw := f.ChildrenOf(x.ID)
			rendered := f.Children(x.ID)
			if len(raw) != len(rendered) {
				t.Fatalf("children of %s: grouping %d vs rendered %d", x.ID, len(raw), len(rendered))
			}
			for i := range raw {
				if raw[i].ID != rendered[i].ID() {
					t.Fatalf("children of %s differ at %d", x.ID, i)
				}
			}
		}
	})
}
