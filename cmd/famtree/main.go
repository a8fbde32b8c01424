package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/famtree/internal/datasource"
	"github.com/vanderheijden86/famtree/pkg/config"
	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/export"
	"github.com/vanderheijden86/famtree/pkg/hooks"
	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/lineage"
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/store"
	"github.com/vanderheijden86/famtree/pkg/tree"
	"github.com/vanderheijden86/famtree/pkg/ui"
	"github.com/vanderheijden86/famtree/pkg/version"
)

// options holds the parsed command line.
type options struct {
	configPath string
	dataPath   string
	dir        string
	docPath    string
	rootPolicy string

	check    bool
	jsonOut  bool
	exportTo string
	focus    string
	zoom     float64
	noHooks  bool
	card     string
	out      string
	add      bool
	parent   string
	edit     string
	version  bool
	debug    bool
	metrics  bool
	cpuProf  string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("famtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/famtree/config.yaml)")
	fs.StringVar(&o.dataPath, "data", "", "Family data file (.json, .jsonl, .db)")
	fs.StringVar(&o.dir, "dir", "", "Directory searched for a .famtree data directory (default cwd)")
	fs.StringVar(&o.docPath, "path", "", "Slash path of the member collection inside a JSON document")
	fs.StringVar(&o.rootPolicy, "root-policy", "", "How members with a missing parent are placed: promote or parentless")
	fs.BoolVar(&o.check, "check", false, "Audit the data and exit (code 1 on problems)")
	fs.BoolVar(&o.jsonOut, "json", false, "Print -check results as JSON")
	fs.StringVar(&o.exportTo, "export", "", "Write tree snapshots to comma-separated .svg/.png paths")
	fs.StringVar(&o.focus, "focus", "", "Member or element id to focus on start (or highlight on export)")
	fs.Float64Var(&o.zoom, "zoom", 0, "Export scale (default from config)")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip the export hooks in the data directory's hooks.yaml")
	fs.StringVar(&o.card, "card", "", "Write the ID card of this member")
	fs.StringVar(&o.out, "o", "", "Output path for -card (default <id>.png)")
	fs.BoolVar(&o.add, "add", false, "Add a member interactively")
	fs.StringVar(&o.parent, "parent", "", "Parent id for -add")
	fs.StringVar(&o.edit, "edit", "", "Edit a member interactively")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging to stderr")
	fs.BoolVar(&o.metrics, "metrics", false, "Print timing metrics on exit")
	fs.StringVar(&o.cpuProf, "cpu-profile", "", "Write CPU profile to file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: famtree [options]")
		fmt.Fprintln(stderr, "\nA terminal viewer for family trees.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if o.add && o.edit != "" {
		return o, errors.New("-add and -edit are mutually exclusive")
	}
	if o.parent != "" && !o.add {
		return o, errors.New("-parent needs -add")
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "famtree %s\n", version.String())
		return 0
	}
	if opts.debug {
		debug.SetEnabled(true)
	}
	if opts.metrics {
		metrics.SetEnabled(true)
		defer func() { _ = metrics.WriteSummary(stderr) }()
	}
	if opts.cpuProf != "" {
		f, err := os.Create(opts.cpuProf)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := datasource.Resolve(cfg.Data.Path, opts.dir, cfg.Data.DocPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	debug.Log("data source: %s", src)

	switch {
	case opts.check:
		ok, err := runCheck(ctx, stdout, cfg, opts, src)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if !ok {
			return 1
		}
		return 0
	case opts.exportTo != "":
		err = runExport(ctx, stdout, cfg, opts, src)
	case opts.card != "":
		err = runCard(ctx, stdout, cfg, opts, src)
	case opts.add || opts.edit != "":
		err = runForm(ctx, stdout, cfg, opts, src)
	default:
		err = runTUI(ctx, cfg, opts, src)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if opts.dataPath != "" {
		cfg.Data.Path = opts.dataPath
	}
	if opts.docPath != "" {
		cfg.Data.DocPath = opts.docPath
	}
	if opts.rootPolicy != "" {
		cfg.Data.RootPolicy = opts.rootPolicy
	}
	if opts.zoom > 0 {
		cfg.Export.Scale = opts.zoom
	}
	return cfg, cfg.Validate()
}

func loadMembers(ctx context.Context, cfg config.Config, src datasource.DataSource) ([]model.Member, error) {
	members, err := datasource.LoadFromSource(ctx, src, cfg.Data.DocPath)
	if err != nil {
		return nil, err
	}
	debug.Log("loaded %d members from %s", len(members), src.Path)
	return members, nil
}

type checkOutput struct {
	Source  string                  `json:"source"`
	Report  lineage.Report          `json:"report"`
	Sources []datasource.SourceDiff `json:"source_diffs,omitempty"`
}

func runCheck(ctx context.Context, w io.Writer, cfg config.Config, opts options, src datasource.DataSource) (bool, error) {
	members, err := loadMembers(ctx, cfg, src)
	if err != nil {
		return false, err
	}
	out := checkOutput{Source: src.Path, Report: lineage.Audit(members)}

	// Only discovered data directories can hold competing copies.
	if cfg.Data.Path == "" {
		sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
			RepoPath:               opts.dir,
			DocPath:                cfg.Data.DocPath,
			ValidateAfterDiscovery: true,
		})
		if err == nil && len(sources) > 1 {
			for _, d := range datasource.CheckAllSourcesConsistent(ctx, sources, cfg.Data.DocPath, datasource.DefaultDiffOptions()) {
				if d.HasInconsistencies() {
					out.Sources = append(out.Sources, d)
				}
			}
		}
	}

	ok := out.Report.OK() && len(out.Sources) == 0
	if opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return ok, enc.Encode(out)
	}
	writeReport(w, out)
	return ok, nil
}

func writeReport(w io.Writer, out checkOutput) {
	r := out.Report
	fmt.Fprintf(w, "%s: %d members, %d roots, %d generations\n",
		out.Source, r.Stats.Members, r.Stats.Roots, r.Stats.MaxDepth+1)
	if r.Stats.LargestFamily.Children > 0 {
		fmt.Fprintf(w, "largest family: %s (%d children)\n", r.Stats.LargestFamily.ParentID, r.Stats.LargestFamily.Children)
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "cycle: %s\n", strings.Join(c, " -> "))
	}
	for _, d := range r.Dangling {
		fmt.Fprintf(w, "missing parent: %s -> %s\n", d.ID, d.ParentID)
	}
	for _, id := range r.Duplicates {
		fmt.Fprintf(w, "duplicate id: %s\n", id)
	}
	for _, inv := range r.Invalid {
		fmt.Fprintf(w, "invalid: %s: %s\n", inv.ID, inv.Err)
	}
	for _, d := range r.Drift {
		fmt.Fprintf(w, "warning: %s stores generation %d, tree depth is %d\n", d.ID, d.Stored, d.Computed)
	}
	for _, d := range out.Sources {
		fmt.Fprint(w, d.Summary())
	}
	if r.OK() && len(out.Sources) == 0 {
		fmt.Fprintln(w, "ok")
	} else {
		fmt.Fprintf(w, "%d problems\n", r.Problems()+len(out.Sources))
	}
}

func buildForest(cfg config.Config, members []model.Member) *tree.Forest {
	return tree.Build(members, tree.WithRootPolicy(cfg.RootPolicy()))
}

func runExport(ctx context.Context, w io.Writer, cfg config.Config, opts options, src datasource.DataSource) error {
	members, err := loadMembers(ctx, cfg, src)
	if err != nil {
		return err
	}
	forest := buildForest(cfg, members)
	base := export.SnapshotOptions{
		Title:         cfg.Export.Title,
		Forest:        forest,
		Layout:        layout.Compute(forest, cfg.PixelLayout()),
		Zoom:          cfg.Export.Scale,
		Highlight:     resolveRef(cfg, opts.focus),
		ElementPrefix: cfg.UI.ElementPrefix,
	}
	paths := splitList(opts.exportTo)

	hx, err := hooks.Run(filepath.Dir(src.Path), hooks.ExportContext{
		Paths:       paths,
		Formats:     formatsOf(paths),
		MemberCount: forest.Len(),
		Focus:       base.Highlight,
		Timestamp:   time.Now(),
	}, opts.noHooks)
	if err != nil {
		return err
	}
	if hx != nil {
		if err := hx.RunPreExport(ctx); err != nil {
			fmt.Fprint(w, hx.Summary())
			return err
		}
	}

	if err := export.ExportAll(ctx, base, paths); err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(w, "wrote %s\n", p)
	}

	if hx != nil {
		err := hx.RunPostExport(ctx)
		fmt.Fprint(w, hx.Summary())
		return err
	}
	return nil
}

func formatsOf(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		if out[i] == "" {
			out[i] = "svg"
		}
	}
	return out
}

// resolveRef accepts either a member id or an element id.
func resolveRef(cfg config.Config, ref string) string {
	prefix := cfg.UI.ElementPrefix + "-"
	if id, ok := strings.CutPrefix(ref, prefix); ok && id != "" {
		return id
	}
	return ref
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runCard(ctx context.Context, w io.Writer, cfg config.Config, opts options, src datasource.DataSource) error {
	members, err := loadMembers(ctx, cfg, src)
	if err != nil {
		return err
	}
	id := resolveRef(cfg, opts.card)
	var found *model.Member
	for i := range members {
		if members[i].ID == id {
			found = &members[i]
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	out := opts.out
	if out == "" {
		out = id + ".png"
	}
	if err := export.SaveMemberCard(*found, out); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", out)
	return nil
}

func uiConfig(cfg config.Config) ui.Config {
	return ui.Config{
		Stage:      cfg.StageConfig(),
		Navigator:  cfg.NavigatorConfig(),
		Layout:     cfg.CellLayout(),
		RootPolicy: cfg.RootPolicy(),
		Theme:      cfg.UI.Theme,
		Title:      "famtree",
	}
}

func runTUI(ctx context.Context, cfg config.Config, opts options, src datasource.DataSource) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the tree view needs a terminal; use -check or -export instead")
	}

	st, err := src.Open(cfg.Data.DocPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer st.Close()

	feed := store.NewFeed(st)
	defer feed.Close()
	snaps, err := feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", src.Path, err)
	}

	// The standard logger would corrupt the alt screen.
	if logFile, err := openLog(); err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
		if debug.Enabled() {
			debug.SetOutput(logFile)
		}
	} else {
		log.SetOutput(io.Discard)
	}

	m := ui.New(uiConfig(cfg),
		ui.WithSnapshots(snaps),
		ui.WithInitialFocus(opts.focus),
	)
	return runTUIProgram(ctx, m)
}

func openLog() (*os.File, error) {
	path := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func runTUIProgram(ctx context.Context, m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Optional auto-quit for automated tests: set FAMTREE_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("FAMTREE_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			timer := time.AfterFunc(time.Duration(ms)*time.Millisecond, p.Quit)
			defer timer.Stop()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
