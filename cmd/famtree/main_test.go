package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/famtree/pkg/config"
	"github.com/vanderheijden86/famtree/pkg/model"
)

const cleanFamily = `{"family": {
  "a": {"name": "Ram", "lastName": "Adhikari", "generation": 0},
  "b": {"name": "Sita", "lastName": "Adhikari", "parentId": "a", "relation": "daughter", "generation": 1}
}}`

const brokenFamily = `{"family": {
  "a": {"name": "Ram", "lastName": "Adhikari"},
  "b": {"name": "Sita", "lastName": "Adhikari", "parentId": "ghost"}
}}`

// isolate points config and data lookups at a temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("FAMTREE_DIR", "")
	return dir
}

func writeData(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "family.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr string
	}{
		{[]string{"-check"}, ""},
		{[]string{"-add", "-parent", "a"}, ""},
		{[]string{"-add", "-edit", "a"}, "mutually exclusive"},
		{[]string{"-parent", "a"}, "-parent needs -add"},
		{[]string{"stray"}, "unexpected argument"},
	}
	for _, tt := range tests {
		_, err := parseFlags(tt.args, &bytes.Buffer{})
		switch {
		case tt.wantErr == "" && err != nil:
			t.Errorf("%v: unexpected error %v", tt.args, err)
		case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
			t.Errorf("%v: expected error containing %q, got %v", tt.args, tt.wantErr, err)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || !strings.HasPrefix(out, "famtree v") {
		t.Errorf("expected version line, got code %d out %q", code, out)
	}
}

func TestBadFlagExitsTwo(t *testing.T) {
	code, _, errOut := runCLI(t, "-nope")
	if code != 2 || !strings.Contains(errOut, "Error:") {
		t.Errorf("expected exit 2 with error, got %d %q", code, errOut)
	}
}

func TestCheckClean(t *testing.T) {
	dir := isolate(t)
	data := writeData(t, dir, cleanFamily)

	code, out, errOut := runCLI(t, "-data", data, "-check")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, errOut)
	}
	if !strings.Contains(out, "2 members, 1 roots") || !strings.HasSuffix(out, "ok\n") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestCheckReportsProblems(t *testing.T) {
	dir := isolate(t)
	data := writeData(t, dir, brokenFamily)

	code, out, _ := runCLI(t, "-data", data, "-check")
	if code != 1 {
		t.Errorf("expected exit 1 on problems, got %d", code)
	}
	if !strings.Contains(out, "missing parent: b -> ghost") {
		t.Errorf("expected dangling parent in report:\n%s", out)
	}

	code, out, _ = runCLI(t, "-data", data, "-check", "-json")
	if code != 1 {
		t.Errorf("expected exit 1 on problems, got %d", code)
	}
	var parsed checkOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("expected JSON output: %v\n%s", err, out)
	}
	if len(parsed.Report.Dangling) != 1 || parsed.Report.Dangling[0].ParentID != "ghost" {
		t.Errorf("unexpected dangling list %+v", parsed.Report.Dangling)
	}
}

func TestExportWritesFiles(t *testing.T) {
	dir := isolate(t)
	data := writeData(t, dir, cleanFamily)
	svg := filepath.Join(dir, "tree.svg")
	png := filepath.Join(dir, "tree.png")

	code, out, errOut := runCLI(t, "-data", data, "-export", svg+", "+png, "-focus", "family-member-b")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, errOut)
	}
	for _, p := range []string{svg, png} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("expected %s written: %v", p, err)
		}
		if !strings.Contains(out, "wrote "+p) {
			t.Errorf("expected %s reported, got %q", p, out)
		}
	}
	body, _ := os.ReadFile(svg)
	if !strings.Contains(string(body), `id="family-member-b"`) {
		t.Error("expected element id in SVG")
	}
}

func TestCardWritesPNG(t *testing.T) {
	dir := isolate(t)
	data := writeData(t, dir, cleanFamily)
	out := filepath.Join(dir, "card.png")

	if code, _, errOut := runCLI(t, "-data", data, "-card", "b", "-o", out); code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, errOut)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected card written: %v", err)
	}

	code, _, errOut := runCLI(t, "-data", data, "-card", "ghost", "-o", out)
	if code != 1 || !strings.Contains(errOut, "member not found") {
		t.Errorf("expected not found error, got %d %q", code, errOut)
	}
}

func TestConfigOverrides(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "custom.yaml")
	cfg := config.DefaultConfig()
	cfg.Data.Path = "/from/config.json"
	cfg.UI.ElementPrefix = "person"
	if err := config.SaveTo(cfg, cfgPath); err != nil {
		t.Fatalf("save config: %v", err)
	}

	got, err := loadConfig(options{configPath: cfgPath, docPath: "people", rootPolicy: "parentless", zoom: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Data.Path != "/from/config.json" || got.Data.DocPath != "people" {
		t.Errorf("unexpected data section %+v", got.Data)
	}
	if got.Export.Scale != 2 || got.UI.ElementPrefix != "person" {
		t.Errorf("expected overrides applied, got scale %v prefix %q", got.Export.Scale, got.UI.ElementPrefix)
	}
	if resolveRef(got, "person-x") != "x" || resolveRef(got, "x") != "x" || resolveRef(got, "person-") != "person-" {
		t.Error("expected element ids to resolve to member ids")
	}

	if _, err := loadConfig(options{configPath: cfgPath, rootPolicy: "sideways"}); err == nil {
		t.Error("expected an invalid root policy to fail")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a.svg, ,b.png,")
	if len(got) != 2 || got[0] != "a.svg" || got[1] != "b.png" {
		t.Errorf("unexpected split %q", got)
	}
}

func TestMemberDraftRoundTrip(t *testing.T) {
	death := model.NewDate(2020, 1, 2)
	base := model.Member{
		ID: "a", ParentID: "p", Generation: 2,
		Name: "Ram", LastName: "Adhikari", Relation: model.RelationSon,
		BirthDate: model.NewDate(1950, 5, 6), DeathDate: &death,
	}

	d := draftFrom(base)
	if d.BirthDate != "1950-05-06" || d.DeathDate != "2020-01-02" || d.Relation != "son" {
		t.Fatalf("unexpected draft %+v", d)
	}

	d.Name = "  Hari "
	d.DeathDate = ""
	got := d.apply(base)
	if got.Name != "Hari" || got.DeathDate != nil {
		t.Errorf("expected trimmed name and cleared death date, got %q %v", got.Name, got.DeathDate)
	}
	if got.ID != "a" || got.ParentID != "p" || got.Generation != 2 {
		t.Errorf("expected hidden fields kept, got %+v", got)
	}
	if base.DeathDate == nil {
		t.Error("expected base left untouched")
	}
}

func TestFormValidators(t *testing.T) {
	if optionalDate("") != nil || optionalDate("2001-02-03") != nil {
		t.Error("expected empty and ISO dates accepted")
	}
	if optionalDate("03/02/2001") == nil {
		t.Error("expected non-ISO date rejected")
	}
	if requiredText("first name")("  ") == nil {
		t.Error("expected blank name rejected")
	}
}
