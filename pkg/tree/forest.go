// Package tree turns a flat member snapshot into a forest.
//
// The children index is built in a single pass over the input, so each
// node's children are a map lookup rather than a rescan. Children keep the
// relative order they had in the input.
package tree

import (
	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// RootPolicy decides which members are rendered at the top level.
type RootPolicy int

const (
	// PromoteDangling treats a member as a root when it has no parent id
	// or when its parent id is not present in the snapshot.
	PromoteDangling RootPolicy = iota
	// ParentlessOnly treats only members without a parent id as roots.
	// Members whose parent is missing are reported by Unreachable.
	ParentlessOnly
)

func (p RootPolicy) String() string {
	switch p {
	case ParentlessOnly:
		return "parentless"
	default:
		return "promote"
	}
}

// ParseRootPolicy maps a config value to a policy. Unknown values fall back
// to PromoteDangling.
func ParseRootPolicy(s string) RootPolicy {
	switch s {
	case "parentless", "parentless-only", "strict":
		return ParentlessOnly
	default:
		return PromoteDangling
	}
}

// Node is one member placed in the forest.
type Node struct {
	Member   model.Member
	Children []*Node
	Parent   *Node
	Depth    int
}

// ID returns the member id.
func (n *Node) ID() string { return n.Member.ID }

// Forest is the builder output. It is immutable once built.
type Forest struct {
	roots       []*Node
	nodes       map[string]*Node
	childrenOf  map[string][]int
	members     []model.Member
	order       []string
	unreachable []string
	cyclic      []string
	maxDepth    int
	version     string
	policy      RootPolicy
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	policy  RootPolicy
	version string
}

// WithRootPolicy selects the root policy. The default is PromoteDangling.
func WithRootPolicy(p RootPolicy) Option {
	return func(c *buildConfig) { c.policy = p }
}

// WithVersion stamps the forest with a precomputed snapshot version so Build
// does not hash the members again.
func WithVersion(v string) Option {
	return func(c *buildConfig) { c.version = v }
}

// Build constructs the forest for members.
func Build(members []model.Member, opts ...Option) *Forest {
	defer metrics.Timer(metrics.TreeBuild)()

	cfg := buildConfig{policy: PromoteDangling}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Forest{
		nodes:      make(map[string]*Node, len(members)),
		childrenOf: make(map[string][]int),
		policy:     cfg.policy,
		version:    cfg.version,
	}
	if f.version == "" {
		f.version = model.Fingerprint(members)
	}
	if len(members) == 0 {
		return f
	}

	// Step 1: dedupe by id (last record wins, first position kept) and index
	// children by parent id in one pass.
	index := make(map[string]int, len(members))
	f.members = make([]model.Member, 0, len(members))
	for _, m := range members {
		if i, dup := index[m.ID]; dup {
			f.members[i] = m
			continue
		}
		index[m.ID] = len(f.members)
		f.members = append(f.members, m)
	}
	for i := range f.members {
		if p := f.members[i].ParentID; p != "" {
			f.childrenOf[p] = append(f.childrenOf[p], i)
		}
	}

	// Step 2: identify roots.
	var roots []int
	for i := range f.members {
		m := &f.members[i]
		if m.ParentID == "" {
			roots = append(roots, i)
			continue
		}
		if _, ok := index[m.ParentID]; ok {
			continue
		}
		if cfg.policy == PromoteDangling {
			roots = append(roots, i)
		}
	}

	// Step 3: build recursively. Each member is placed at most once.
	placed := make(map[string]bool, len(f.members))
	for _, i := range roots {
		f.roots = append(f.roots, f.buildNode(i, 0, nil, placed))
	}

	// Step 4: anything left over hangs off a parent chain that never reaches
	// a root, which with single-parent links means a cycle.
	if len(placed) < len(f.members) {
		f.resolveLeftovers(index, placed)
	}

	f.order = make([]string, 0, len(f.nodes))
	f.Walk(func(n *Node) bool {
		f.order = append(f.order, n.ID())
		return true
	})

	debug.Log("tree: built %d nodes, %d roots, %d unreachable, %d cyclic (policy=%s)",
		len(f.nodes), len(f.roots), len(f.unreachable), len(f.cyclic), f.policy)
	return f
}

func (f *Forest) buildNode(i, depth int, parent *Node, placed map[string]bool) *Node {
	m := f.members[i]
	placed[m.ID] = true

	node := &Node{Member: m, Parent: parent, Depth: depth}
	f.nodes[m.ID] = node
	if depth > f.maxDepth {
		f.maxDepth = depth
	}
	for _, c := range f.childrenOf[m.ID] {
		if placed[f.members[c].ID] {
			continue
		}
		node.Children = append(node.Children, f.buildNode(c, depth+1, node, placed))
	}
	return node
}

func (f *Forest) resolveLeftovers(index map[string]int, placed map[string]bool) {
	done := make(map[string]bool)
	for i := range f.members {
		if placed[f.members[i].ID] || done[f.members[i].ID] {
			continue
		}

		// Walk up until a member repeats; that member sits on the loop.
		// Chains already examined are not walked twice.
		seen := make(map[string]bool)
		cur, looped := i, false
		for {
			id := f.members[cur].ID
			if seen[id] {
				looped = true
				break
			}
			if done[id] || placed[id] {
				break
			}
			seen[id] = true
			p, ok := index[f.members[cur].ParentID]
			if !ok {
				break
			}
			cur = p
		}
		for id := range seen {
			done[id] = true
		}
		if !looped {
			continue
		}

		c := cur
		for {
			f.cyclic = append(f.cyclic, f.members[c].ID)
			c = index[f.members[c].ParentID]
			if c == cur {
				break
			}
		}
		if f.policy == PromoteDangling {
			f.roots = append(f.roots, f.buildNode(cur, 0, nil, placed))
		}
	}

	for i := range f.members {
		if id := f.members[i].ID; !placed[id] {
			f.unreachable = append(f.unreachable, id)
		}
	}
}

// Roots returns the top-level nodes in input order. Members promoted to
// break a cycle follow the regular roots.
func (f *Forest) Roots() []*Node { return f.roots }

// Node returns the placed node for id.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Children returns the rendered children of id, or nil.
func (f *Forest) Children(id string) []*Node {
	if n, ok := f.nodes[id]; ok {
		return n.Children
	}
	return nil
}

// ChildrenOf returns every member whose parent id equals id, in input
// order, whether or not it was placed under that parent.
func (f *Forest) ChildrenOf(id string) []model.Member {
	idx := f.childrenOf[id]
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.Member, len(idx))
	for k, i := range idx {
		out[k] = f.members[i]
	}
	return out
}

// Members returns the deduplicated input sequence.
func (f *Forest) Members() []model.Member { return f.members }

// Len returns the number of placed nodes.
func (f *Forest) Len() int { return len(f.nodes) }

// Empty reports whether nothing is rendered.
func (f *Forest) Empty() bool { return len(f.roots) == 0 }

// Depth returns the deepest node depth (0 for a flat forest).
func (f *Forest) Depth() int { return f.maxDepth }

// IDs returns placed ids in pre-order.
func (f *Forest) IDs() []string { return f.order }

// Unreachable lists members that are not rendered under ParentlessOnly.
func (f *Forest) Unreachable() []string { return f.unreachable }

// Cyclic lists members whose ancestor chain loops back on itself.
func (f *Forest) Cyclic() []string { return f.cyclic }

// Version identifies the snapshot the forest was built from.
func (f *Forest) Version() string { return f.version }

// Policy returns the root policy used to build the forest.
func (f *Forest) Policy() RootPolicy { return f.policy }

// Walk visits nodes in pre-order. Returning false from fn skips the node's
// descendants.
func (f *Forest) Walk(fn func(*Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range f.roots {
		visit(r)
	}
}

// PathTo returns ids from the root down to id, or nil if id is not placed.
func (f *Forest) PathTo(id string) []string {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	var path []string
	for ; n != nil; n = n.Parent {
		path = append(path, n.ID())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
