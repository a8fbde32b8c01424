// Package lineage audits a member collection for structural problems
// before it is drawn: parent cycles, references to missing parents,
// duplicate ids, records that fail validation, and stored generations that
// disagree with the computed depth.
package lineage

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

// Dangling is a member whose parent id matches no member.
type Dangling struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
}

// Invalid is a member that fails field validation.
type Invalid struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// Drift is a member whose stored generation differs from its depth below
// a parentless root.
type Drift struct {
	ID       string `json:"id"`
	Stored   int    `json:"stored"`
	Computed int    `json:"computed"`
}

// Family is a parent and the size of its sibling group.
type Family struct {
	ParentID string `json:"parent_id"`
	Children int    `json:"children"`
}

// Stats summarises the shape of the collection.
type Stats struct {
	Members       int         `json:"members"`
	Roots         int         `json:"roots"`
	MaxDepth      int         `json:"max_depth"`
	Generations   map[int]int `json:"generations"`
	LargestFamily Family      `json:"largest_family"`
}

// Report is the outcome of an audit.
type Report struct {
	Cycles     [][]string `json:"cycles,omitempty"`
	Dangling   []Dangling `json:"dangling,omitempty"`
	Duplicates []string   `json:"duplicates,omitempty"`
	Invalid    []Invalid  `json:"invalid,omitempty"`
	Drift      []Drift    `json:"drift,omitempty"`
	// Order lists ids ancestors-first; empty when a cycle prevents it.
	Order []string `json:"order,omitempty"`
	Stats Stats    `json:"stats"`
}

// Problems counts findings that make the data unsound. Drift is advisory.
func (r Report) Problems() int {
	return len(r.Cycles) + len(r.Dangling) + len(r.Duplicates) + len(r.Invalid)
}

// OK reports whether the audit found no problems.
func (r Report) OK() bool { return r.Problems() == 0 }

// Audit inspects members. It never fails; every finding lands in the report.
func Audit(members []model.Member) Report {
	defer metrics.Timer(metrics.LineageAudit)()

	var r Report

	// Last record wins for duplicate ids, matching the tree builder.
	index := make(map[string]model.Member, len(members))
	var ids []string
	dupSeen := make(map[string]bool)
	for _, m := range members {
		if _, ok := index[m.ID]; ok {
			if !dupSeen[m.ID] {
				r.Duplicates = append(r.Duplicates, m.ID)
				dupSeen[m.ID] = true
			}
		} else {
			ids = append(ids, m.ID)
		}
		index[m.ID] = m
	}

	for _, id := range ids {
		m := index[id]
		if err := m.Validate(); err != nil {
			r.Invalid = append(r.Invalid, Invalid{ID: id, Err: err.Error()})
		}
		if m.ParentID != "" {
			if _, ok := index[m.ParentID]; !ok {
				r.Dangling = append(r.Dangling, Dangling{ID: id, ParentID: m.ParentID})
			}
		}
	}

	r.Cycles, r.Order = cycles(ids, index)
	r.Drift, r.Stats = shape(ids, index)
	return r
}

// cycles builds the parent→child graph and returns its strongly connected
// components of size > 1 plus self-parented members, and a topological
// order when the graph is acyclic.
func cycles(ids []string, index map[string]model.Member) ([][]string, []string) {
	g := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(ids))
	nodeToID := make(map[int64]string, len(ids))
	for _, id := range ids {
		n := g.NewNode()
		g.AddNode(n)
		idToNode[id] = n.ID()
		nodeToID[n.ID()] = id
	}

	var found [][]string
	for _, id := range ids {
		m := index[id]
		if m.ParentID == "" {
			continue
		}
		if m.ParentID == id {
			// simple graphs reject self edges.
			found = append(found, []string{id})
			continue
		}
		u, ok := idToNode[m.ParentID]
		if !ok {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(u), g.Node(idToNode[id])))
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]string, 0, len(scc))
		for _, n := range scc {
			cycle = append(cycle, nodeToID[n.ID()])
		}
		sort.Strings(cycle)
		found = append(found, cycle)
	}
	sort.Slice(found, func(i, j int) bool { return found[i][0] < found[j][0] })

	if len(found) > 0 {
		return found, nil
	}
	sorted, err := topo.Sort(g)
	if err != nil {
		return found, nil
	}
	order := make([]string, 0, len(sorted))
	for _, n := range sorted {
		order = append(order, nodeToID[n.ID()])
	}
	return found, order
}

// shape computes depth-based stats. Generation drift is only judged for
// members that hang below a parentless root; anything under a dangling
// reference has no trustworthy depth.
func shape(ids []string, index map[string]model.Member) ([]Drift, Stats) {
	members := make([]model.Member, 0, len(ids))
	for _, id := range ids {
		members = append(members, index[id])
	}

	st := Stats{
		Members:     len(members),
		Generations: make(map[int]int),
	}
	for _, m := range members {
		st.Generations[m.Generation]++
	}

	rendered := tree.Build(members)
	st.Roots = len(rendered.Roots())
	st.MaxDepth = rendered.Depth()
	if rendered.Len() == 0 {
		st.MaxDepth = 0
	}
	rendered.Walk(func(n *tree.Node) bool {
		c := len(n.Children)
		if c > st.LargestFamily.Children ||
			(c == st.LargestFamily.Children && c > 0 && n.ID() < st.LargestFamily.ParentID) {
			st.LargestFamily = Family{ParentID: n.ID(), Children: c}
		}
		return true
	})

	var drift []Drift
	strict := tree.Build(members, tree.WithRootPolicy(tree.ParentlessOnly))
	strict.Walk(func(n *tree.Node) bool {
		if n.Member.Generation != n.Depth {
			drift = append(drift, Drift{ID: n.ID(), Stored: n.Member.Generation, Computed: n.Depth})
		}
		return true
	})
	return drift, st
}

// Summary renders the report for terminal output.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d members, %d roots, depth %d\n", r.Stats.Members, r.Stats.Roots, r.Stats.MaxDepth)
	if f := r.Stats.LargestFamily; f.Children > 0 {
		fmt.Fprintf(&b, "largest family: %s with %d children\n", f.ParentID, f.Children)
	}

	if r.OK() {
		b.WriteString("no problems found\n")
	} else {
		fmt.Fprintf(&b, "%d problems found\n", r.Problems())
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(&b, "  cycle: %s\n", strings.Join(c, " -> "))
	}
	for _, d := range r.Dangling {
		fmt.Fprintf(&b, "  dangling: %s references missing parent %s\n", d.ID, d.ParentID)
	}
	for _, id := range r.Duplicates {
		fmt.Fprintf(&b, "  duplicate id: %s\n", id)
	}
	for _, inv := range r.Invalid {
		fmt.Fprintf(&b, "  invalid: %s\n", inv.Err)
	}
	if len(r.Drift) > 0 {
		fmt.Fprintf(&b, "%d generation mismatches\n", len(r.Drift))
		for _, d := range r.Drift {
			fmt.Fprintf(&b, "  %s: stored %d, computed %d\n", d.ID, d.Stored, d.Computed)
		}
	}
	return b.String()
}
