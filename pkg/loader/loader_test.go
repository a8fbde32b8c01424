package loader_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/famtree/pkg/loader"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/testutil"
)

func collect(warnings *[]string) loader.ParseOptions {
	return loader.ParseOptions{WarningHandler: func(msg string) {
		*warnings = append(*warnings, msg)
	}}
}

func TestGetDataDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(loader.DataDirEnvVar, "/custom/dir")
		dir, err := loader.GetDataDir("/repo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir != "/custom/dir" {
			t.Errorf("expected /custom/dir, got %s", dir)
		}
	})
	t.Run("repo fallback", func(t *testing.T) {
		t.Setenv(loader.DataDirEnvVar, "")
		dir, err := loader.GetDataDir("/repo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir != filepath.Join("/repo", ".famtree") {
			t.Errorf("expected /repo/.famtree, got %s", dir)
		}
	})
}

func TestParseDocument_OrderedByKey(t *testing.T) {
	doc := `{"family": {
		"-Nc": {"name": "Sita", "lastName": "Adhikari", "parentId": "-Na"},
		"-Na": {"name": "Ram", "lastName": "Adhikari"},
		"-Nb": {"id": "-Nb", "name": "Hari", "lastName": "Adhikari", "parentId": "-Na"}
	}}`
	members, err := loader.ParseDocument(strings.NewReader(doc), loader.DefaultDocPath, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "-Na", "-Nb", "-Nc")
	if members[2].ParentID != "-Na" {
		t.Errorf("expected parent -Na, got %q", members[2].ParentID)
	}
}

func TestParseDocument_MissingPathIsEmpty(t *testing.T) {
	for _, doc := range []string{`{}`, `{"other": {}}`, `{"family": null}`, ``, "  \n"} {
		members, err := loader.ParseDocument(strings.NewReader(doc), "family", loader.ParseOptions{})
		if err != nil {
			t.Errorf("doc %q: unexpected error: %v", doc, err)
			continue
		}
		if len(members) != 0 {
			t.Errorf("doc %q: expected no members, got %d", doc, len(members))
		}
	}
}

func TestParseDocument_NestedPath(t *testing.T) {
	doc := `{"apps": {"tree": {"family": {"a": {"name": "A", "lastName": "B"}}}}}`
	members, err := loader.ParseDocument(strings.NewReader(doc), "/apps/tree/family/", loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "a")
}

func TestParseDocument_RootPath(t *testing.T) {
	doc := `{"a": {"name": "A", "lastName": "B"}, "b": {"name": "C", "lastName": "D"}}`
	members, err := loader.ParseDocument(strings.NewReader(doc), "", loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertMemberCount(t, members, 2)
}

func TestParseDocument_NotACollection(t *testing.T) {
	_, err := loader.ParseDocument(strings.NewReader(`{"family": [1, 2]}`), "family", loader.ParseOptions{})
	if err == nil {
		t.Fatal("expected error for array collection")
	}
	_, err = loader.ParseDocument(strings.NewReader(`{"family": "x"}`), "family/sub", loader.ParseOptions{})
	if err == nil {
		t.Fatal("expected error when descending into a string")
	}
}

func TestParseDocument_SkipsMalformedRecord(t *testing.T) {
	doc := `{"family": {
		"a": {"name": "A", "lastName": "B"},
		"b": {"name": 42, "lastName": "Kept"},
		"c": null,
		"d": {"name": "D", "lastName": "E", "relation": "niece"},
		"e": "not a record"
	}}`
	var warnings []string
	members, err := loader.ParseDocument(strings.NewReader(doc), "family", collect(&warnings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "d" fails validation but still loads; "b" loses only its bad field.
	testutil.AssertIDs(t, testutil.GetIDs(members), "a", "b", "d")
	if members[1].Name != "" || members[1].LastName != "Kept" {
		t.Errorf("expected b with an empty name and its last name kept, got %+v", members[1])
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], `"b"`) || !strings.Contains(warnings[0], "name") {
		t.Errorf("expected warning naming b's name field, got %q", warnings[0])
	}
	if !strings.Contains(warnings[1], `skipping malformed record "e"`) {
		t.Errorf("expected e skipped, got %q", warnings[1])
	}
}

func TestParseDocument_QuotedGenerationKeepsShape(t *testing.T) {
	doc := `{"family": {
		"a": {"name": "Ram", "lastName": "A", "generation": "1"},
		"b": {"name": "Sita", "lastName": "A", "parentId": "a", "generation": 2}
	}}`
	var warnings []string
	members, err := loader.ParseDocument(strings.NewReader(doc), "family", collect(&warnings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "a", "b")
	if members[0].Generation != 1 || members[0].Name != "Ram" {
		t.Errorf("expected a decoded with generation 1, got %+v", members[0])
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	doc = `{"family": {"a": {"name": "Ram", "lastName": "A", "generation": "first"}}}`
	warnings = nil
	members, err = loader.ParseDocument(strings.NewReader(doc), "family", collect(&warnings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0].Generation != 0 || members[0].Name != "Ram" {
		t.Errorf("expected a kept with generation zeroed, got %+v", members)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "generation") {
		t.Errorf("expected warning naming generation, got %v", warnings)
	}
}

func TestParseDocument_KeyWinsOverBodyID(t *testing.T) {
	doc := `{"family": {"k1": {"id": "other", "name": "A", "lastName": "B"}}}`
	var warnings []string
	members, err := loader.ParseDocument(strings.NewReader(doc), "family", collect(&warnings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if members[0].ID != "k1" {
		t.Errorf("expected id k1, got %s", members[0].ID)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}

func TestParseDocument_BOMAndFilter(t *testing.T) {
	doc := "\xEF\xBB\xBF" + `{"family": {"a": {"name": "A", "lastName": "B"}, "b": {"name": "C", "lastName": "D", "parentId": "a"}}}`
	opts := loader.ParseOptions{Filter: func(m *model.Member) bool { return m.IsRoot() }}
	members, err := loader.ParseDocument(strings.NewReader(doc), "family", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "a")
}

func TestParseDocument_GeneratedRoundTrip(t *testing.T) {
	family := testutil.QuickForest(40, 3)
	members, err := loader.ParseDocument(strings.NewReader(string(testutil.ToDocument(family))), "family", loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertMemberCount(t, members, len(family))
	testutil.AssertIDs(t, testutil.GetIDs(members), testutil.SortedIDs(family)...)
}

func TestParseLines(t *testing.T) {
	input := "\xEF\xBB\xBF" + `{"id":"a","name":"A","lastName":"B"}` + "\n" +
		"\n" +
		`not json` + "\n" +
		`{"name":"no id","lastName":"X"}` + "\n" +
		`{"id":"b","name":"C","lastName":"D","parentId":"a","generation":"1"}`
	var warnings []string
	members, err := loader.ParseLines(strings.NewReader(input), collect(&warnings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "a", "b")
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", warnings)
	}
}

func TestParseLines_LongLineSkipped(t *testing.T) {
	long := `{"id":"big","name":"` + strings.Repeat("x", 200) + `","lastName":"B"}`
	input := long + "\n" + `{"id":"small","name":"A","lastName":"B"}` + "\n"
	var warnings []string
	opts := collect(&warnings)
	opts.BufferSize = 64
	members, err := loader.ParseLines(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertIDs(t, testutil.GetIDs(members), "small")
	if len(warnings) != 1 || !strings.Contains(warnings[0], "too long") {
		t.Errorf("expected a too-long warning, got %v", warnings)
	}
}

func TestParseLines_Empty(t *testing.T) {
	members, err := loader.ParseLines(strings.NewReader(""), loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if members == nil || len(members) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", members)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	docPath := filepath.Join(dir, "family.json")
	testutil.WriteDocumentFile(t, docPath, testutil.QuickChain(3))
	members, err := loader.LoadFile(docPath, loader.DefaultDocPath, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertMemberCount(t, members, 3)

	linesPath := filepath.Join(dir, "family.jsonl")
	os.WriteFile(linesPath, []byte(`{"id":"a","name":"A","lastName":"B"}`+"\n"), 0644)
	members, err = loader.LoadFile(linesPath, "ignored", loader.ParseOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertMemberCount(t, members, 1)

	_, err = loader.LoadFile(filepath.Join(dir, "missing.json"), "family", loader.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "no family data found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func FuzzParseDocument(f *testing.F) {
	f.Add([]byte(`{"family": {"a": {"name": "A", "lastName": "B"}}}`))
	f.Add([]byte(`{"family": null}`))
	f.Add([]byte(`{"family": {"a": 1}}`))
	f.Add([]byte("\xEF\xBB\xBF{}"))
	f.Fuzz(func(t *testing.T, data []byte) {
		members, err := loader.ParseDocument(strings.NewReader(string(data)), "family", loader.ParseOptions{
			WarningHandler: func(string) {},
		})
		if err != nil {
			return
		}
		seen := make(map[string]bool)
		for _, m := range members {
			if m.ID == "" {
				t.Fatal("decoded member without id")
			}
			if seen[m.ID] {
				t.Fatalf("duplicate id %q", m.ID)
			}
			seen[m.ID] = true
		}
	})
}
