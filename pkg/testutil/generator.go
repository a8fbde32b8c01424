// Package testutil provides family fixture generators for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// GeneratorConfig controls member generation.
type GeneratorConfig struct {
	Seed          int64  // Random seed for determinism (0 = use current time)
	IDPrefix      string // Prefix for member IDs (default: "m")
	LastName      string // Family name given to every member (default: "Adhikari")
	BaseYear      int    // Birth year of the first generation (default: 1900)
	YearsPerGen   int    // Birth-year gap between generations (default: 25)
	IncludeDetail bool   // Fill contact, spouse and death fields
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42, // Deterministic
		IDPrefix:    "m",
		LastName:    "Adhikari",
		BaseYear:    1900,
		YearsPerGen: 25,
	}
}

// Generator creates family fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	seq int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "m"
	}
	if cfg.LastName == "" {
		cfg.LastName = "Adhikari"
	}
	if cfg.BaseYear == 0 {
		cfg.BaseYear = 1900
	}
	if cfg.YearsPerGen == 0 {
		cfg.YearsPerGen = 25
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

var (
	sonNames      = []string{"Ram", "Hari", "Krishna", "Shyam", "Gopal", "Bishnu", "Dipak", "Suman"}
	daughterNames = []string{"Sita", "Gita", "Radha", "Laxmi", "Kamala", "Sarita", "Puja", "Anita"}
	middleNames   = []string{"", "", "Prasad", "Bahadur", "Kumari", "Raj"}
)

// Member creates one member under parent (nil for a root).
func (g *Generator) Member(parent *model.Member) model.Member {
	id := fmt.Sprintf("%s%03d", g.cfg.IDPrefix, g.seq)
	g.seq++

	rel := model.RelationSon
	first := sonNames[g.rng.Intn(len(sonNames))]
	if g.rng.Intn(2) == 1 {
		rel = model.RelationDaughter
		first = daughterNames[g.rng.Intn(len(daughterNames))]
	}

	m := model.Member{
		ID:         id,
		Relation:   rel,
		Name:       first,
		MiddleName: middleNames[g.rng.Intn(len(middleNames))],
		LastName:   g.cfg.LastName,
	}
	gen := 0
	if parent != nil {
		gen = parent.Generation + 1
		m.ParentID = parent.ID
		m.ParentName = parent.DisplayParentName()
	}
	m.Generation = gen
	m.BirthDate = model.NewDate(g.cfg.BaseYear+gen*g.cfg.YearsPerGen+g.rng.Intn(10), time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28))

	if g.cfg.IncludeDetail {
		m.ContactNumber = fmt.Sprintf("98%08d", g.rng.Intn(100000000))
		m.Address = "Pokhara"
		m.Email = fmt.Sprintf("%s@example.com", id)
		if g.rng.Intn(2) == 0 {
			m.Spouse = daughterNames[g.rng.Intn(len(daughterNames))] + " Sharma"
		}
		if gen == 0 {
			d := model.NewDate(g.cfg.BaseYear+70, time.March, 3)
			m.DeathDate = &d
		}
	}
	return m
}

// Chain creates a single line of descent: each member is the only child of
// the previous one.
func (g *Generator) Chain(size int) []model.Member {
	out := make([]model.Member, 0, size)
	var parent *model.Member
	for i := 0; i < size; i++ {
		m := g.Member(parent)
		out = append(out, m)
		parent = &out[len(out)-1]
	}
	return out
}

// Wide creates one root with the given number of children.
func (g *Generator) Wide(children int) []model.Member {
	out := make([]model.Member, 0, children+1)
	root := g.Member(nil)
	out = append(out, root)
	for i := 0; i < children; i++ {
		out = append(out, g.Member(&root))
	}
	return out
}

// Tree creates a full tree with given depth and branching factor.
func (g *Generator) Tree(depth, breadth int) []model.Member {
	if depth < 0 {
		depth = 0
	}
	if breadth < 1 {
		breadth = 1
	}
	out := []model.Member{g.Member(nil)}
	level := []int{0}
	for d := 0; d < depth; d++ {
		var next []int
		for _, p := range level {
			parent := out[p]
			for b := 0; b < breadth; b++ {
				out = append(out, g.Member(&parent))
				next = append(next, len(out)-1)
			}
		}
		level = next
	}
	return out
}

// RandomForest creates size members spread over roots families. Each
// non-root picks a random earlier member as its parent, so the result is
// always acyclic with every parent present.
func (g *Generator) RandomForest(size, roots int) []model.Member {
	if roots < 1 {
		roots = 1
	}
	out := make([]model.Member, 0, size)
	for i := 0; i < size; i++ {
		if i < roots {
			out = append(out, g.Member(nil))
			continue
		}
		parent := out[g.rng.Intn(len(out))]
		out = append(out, g.Member(&parent))
	}
	return out
}

// Cycle creates size members whose parent links form a loop.
func (g *Generator) Cycle(size int) []model.Member {
	out := make([]model.Member, size)
	for i := range out {
		out[i] = g.Member(nil)
	}
	for i := range out {
		p := out[(i+size-1)%size]
		out[i].ParentID = p.ID
		out[i].ParentName = p.DisplayParentName()
	}
	return out
}

// Shuffle returns members in a random (seeded) order.
func (g *Generator) Shuffle(members []model.Member) []model.Member {
	out := make([]model.Member, len(members))
	copy(out, members)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// ToDocument renders members as a store document: {"family": {id: record}}.
func ToDocument(members []model.Member) []byte {
	family := make(map[string]model.Member, len(members))
	for _, m := range members {
		family[m.ID] = m
	}
	data, err := json.MarshalIndent(map[string]any{"family": family}, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal document: %v", err))
	}
	return data
}

// SortedIDs returns member ids in ascending order.
func SortedIDs(members []model.Member) []string {
	ids := GetIDs(members)
	sort.Strings(ids)
	return ids
}

// Quick helpers using the default generator.

// QuickChain creates a chain with default config.
func QuickChain(size int) []model.Member {
	return NewDefault().Chain(size)
}

// QuickTree creates a tree with default config.
func QuickTree(depth, breadth int) []model.Member {
	return NewDefault().Tree(depth, breadth)
}

// QuickForest creates a random forest with default config.
func QuickForest(size, roots int) []model.Member {
	return NewDefault().RandomForest(size, roots)
}

// Empty returns an empty member slice.
func Empty() []model.Member {
	return []model.Member{}
}
