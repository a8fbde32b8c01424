package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// AssertMemberCount checks the number of members.
func AssertMemberCount(t *testing.T, members []model.Member, expected int) {
	t.Helper()
	if len(members) != expected {
		t.Errorf("expected %d members, got %d", expected, len(members))
	}
}

// AssertNoDuplicateIDs checks that all member IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, members []model.Member) {
	t.Helper()
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.ID] {
			t.Errorf("duplicate member ID: %s", m.ID)
		}
		seen[m.ID] = true
	}
}

// AssertAllValid checks that every member passes validation.
func AssertAllValid(t *testing.T, members []model.Member) {
	t.Helper()
	for i := range members {
		if err := members[i].Validate(); err != nil {
			t.Errorf("member %d invalid: %v", i, err)
		}
	}
}

// AssertIDs compares ids in order.
func AssertIDs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected ids [%s], got [%s]", strings.Join(want, ","), strings.Join(got, ","))
	}
}

// GoldenFile compares test output against a file under testdata.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Skipf("golden file does not exist: %s (run with GENERATE_GOLDEN=1 to create it)", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")
		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// WriteDocumentFile writes members as a store document to path.
func WriteDocumentFile(t *testing.T, path string, members []model.Member) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, ToDocument(members), 0644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
}

// FindMember returns the member with id, or nil.
func FindMember(members []model.Member, id string) *model.Member {
	for i := range members {
		if members[i].ID == id {
			return &members[i]
		}
	}
	return nil
}

// GetIDs extracts all member IDs.
func GetIDs(members []model.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
