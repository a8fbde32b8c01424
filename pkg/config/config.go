// Package config handles loading and saving famtree configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/famtree/config.yaml
//   - Data:    ~/.local/share/famtree/
//   - State:   ~/.local/state/famtree/ (log file)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/navigator"
	"github.com/vanderheijden86/famtree/pkg/stage"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

const appName = "famtree"

// Duration is a time.Duration written as a string ("300ms", "2s").
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, s, err)
	}
	*d = Duration(v)
	return nil
}

// DataConfig locates the family data.
type DataConfig struct {
	Path       string `yaml:"path,omitempty"`        // Explicit data file; empty means discover
	DocPath    string `yaml:"doc_path,omitempty"`    // Slash-separated path to the member collection
	RootPolicy string `yaml:"root_policy,omitempty"` // promote or parentless
}

// ZoomConfig bounds zoom changes.
type ZoomConfig struct {
	Min        float64  `yaml:"min,omitempty"`
	Max        float64  `yaml:"max,omitempty"`
	Step       float64  `yaml:"step,omitempty"`
	Focus      float64  `yaml:"focus,omitempty"`
	Transition Duration `yaml:"transition,omitempty"`
}

// NavigatorConfig paces focus.
type NavigatorConfig struct {
	SettleDelay Duration `yaml:"settle_delay,omitempty"`
	Dwell       Duration `yaml:"dwell,omitempty"`
}

// LayoutConfig sizes terminal cards, in cells.
type LayoutConfig struct {
	NodeWidth  float64 `yaml:"node_width,omitempty"`
	NodeHeight float64 `yaml:"node_height,omitempty"`
	HGap       float64 `yaml:"h_gap,omitempty"`
	VGap       float64 `yaml:"v_gap,omitempty"`
	RootGap    float64 `yaml:"root_gap,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	ElementPrefix string `yaml:"element_prefix,omitempty"`
	Theme         string `yaml:"theme,omitempty"` // auto, dark, light
}

// ExportConfig sizes exported snapshots, in pixels.
type ExportConfig struct {
	NodeWidth  float64 `yaml:"node_width,omitempty"`
	NodeHeight float64 `yaml:"node_height,omitempty"`
	Scale      float64 `yaml:"scale,omitempty"`
	Title      string  `yaml:"title,omitempty"`
}

// Config is the top-level configuration for famtree.
type Config struct {
	Data      DataConfig      `yaml:"data,omitempty"`
	Zoom      ZoomConfig      `yaml:"zoom,omitempty"`
	Navigator NavigatorConfig `yaml:"navigator,omitempty"`
	Layout    LayoutConfig    `yaml:"layout,omitempty"`
	UI        UIConfig        `yaml:"ui,omitempty"`
	Export    ExportConfig    `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	z := stage.DefaultZoomConfig()
	n := navigator.DefaultConfig()
	cells := layout.CellOptions()
	px := layout.PixelOptions()
	return Config{
		Data: DataConfig{
			DocPath:    "family",
			RootPolicy: tree.PromoteDangling.String(),
		},
		Zoom: ZoomConfig{
			Min:        z.Min,
			Max:        z.Max,
			Step:       z.Step,
			Focus:      n.FocusZoom,
			Transition: Duration(z.Transition),
		},
		Navigator: NavigatorConfig{
			SettleDelay: Duration(n.SettleDelay),
			Dwell:       Duration(n.Dwell),
		},
		Layout: LayoutConfig{
			NodeWidth:  cells.NodeWidth,
			NodeHeight: cells.NodeHeight,
			HGap:       cells.HGap,
			VGap:       cells.VGap,
			RootGap:    cells.RootGap,
		},
		UI: UIConfig{
			ElementPrefix: stage.DefaultElementPrefix,
			Theme:         "auto",
		},
		Export: ExportConfig{
			NodeWidth:  px.NodeWidth,
			NodeHeight: px.NodeHeight,
			Scale:      1,
			Title:      "Family Tree",
		},
	}
}

// Validate normalises out-of-range values in place: swapped zoom bounds
// are reordered, non-positive steps and scales take their defaults,
// negative durations become zero and a settle delay shorter than the zoom
// transition is raised past it. It returns an error only for values
// that cannot be repaired.
func (c *Config) Validate() error {
	d := DefaultConfig()

	if c.Zoom.Min <= 0 {
		c.Zoom.Min = d.Zoom.Min
	}
	if c.Zoom.Max <= 0 {
		c.Zoom.Max = d.Zoom.Max
	}
	if c.Zoom.Min > c.Zoom.Max {
		c.Zoom.Min, c.Zoom.Max = c.Zoom.Max, c.Zoom.Min
	}
	if c.Zoom.Step <= 0 {
		c.Zoom.Step = d.Zoom.Step
	}
	if c.Zoom.Focus <= 0 {
		c.Zoom.Focus = d.Zoom.Focus
	}
	for _, p := range []*Duration{&c.Zoom.Transition, &c.Navigator.SettleDelay, &c.Navigator.Dwell} {
		if *p < 0 {
			*p = 0
		}
	}
	if floor := Duration(navigator.SettleDelayFor(c.Zoom.Transition.D())); c.Navigator.SettleDelay < floor {
		c.Navigator.SettleDelay = floor
	}
	if c.Export.Scale <= 0 {
		c.Export.Scale = d.Export.Scale
	}
	if c.Layout.NodeWidth <= 0 || c.Layout.NodeHeight <= 0 {
		c.Layout.NodeWidth, c.Layout.NodeHeight = d.Layout.NodeWidth, d.Layout.NodeHeight
	}
	if c.Export.NodeWidth <= 0 || c.Export.NodeHeight <= 0 {
		c.Export.NodeWidth, c.Export.NodeHeight = d.Export.NodeWidth, d.Export.NodeHeight
	}

	switch c.Data.RootPolicy {
	case "", "promote", "parentless", "parentless-only", "strict":
	default:
		return fmt.Errorf("data.root_policy: unknown policy %q (want promote or parentless)", c.Data.RootPolicy)
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme: unknown theme %q (want auto, dark or light)", c.UI.Theme)
	}
	return nil
}

// StageConfig converts the zoom and ui sections.
func (c Config) StageConfig() stage.Config {
	s := stage.DefaultConfig()
	s.Zoom = stage.ZoomConfig{
		Min:        c.Zoom.Min,
		Max:        c.Zoom.Max,
		Step:       c.Zoom.Step,
		Transition: c.Zoom.Transition.D(),
	}
	s.ScrollDuration = c.Zoom.Transition.D()
	if c.UI.ElementPrefix != "" {
		s.ElementPrefix = c.UI.ElementPrefix
	}
	return s
}

// NavigatorConfig converts the zoom focus level and navigator section. The
// settle delay never falls below the zoom transition plus SettleSlack.
func (c Config) NavigatorConfig() navigator.Config {
	settle := c.Navigator.SettleDelay.D()
	if floor := navigator.SettleDelayFor(c.Zoom.Transition.D()); settle < floor {
		settle = floor
	}
	return navigator.Config{
		FocusZoom:   c.Zoom.Focus,
		SettleDelay: settle,
		Dwell:       c.Navigator.Dwell.D(),
	}
}

// CellLayout converts the layout section for the terminal canvas.
func (c Config) CellLayout() layout.Options {
	o := layout.CellOptions()
	o.NodeWidth, o.NodeHeight = c.Layout.NodeWidth, c.Layout.NodeHeight
	if c.Layout.HGap > 0 {
		o.HGap = c.Layout.HGap
	}
	if c.Layout.VGap > 0 {
		o.VGap = c.Layout.VGap
	}
	if c.Layout.RootGap > 0 {
		o.RootGap = c.Layout.RootGap
	}
	return o
}

// PixelLayout converts the export section.
func (c Config) PixelLayout() layout.Options {
	o := layout.PixelOptions()
	o.NodeWidth, o.NodeHeight = c.Export.NodeWidth, c.Export.NodeHeight
	return o
}

// RootPolicy parses data.root_policy.
func (c Config) RootPolicy() tree.RootPolicy {
	return tree.ParseRootPolicy(c.Data.RootPolicy)
}

// ConfigDir returns the XDG config directory for famtree.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for famtree.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for famtree.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LogPath returns where the TUI writes its log.
func LogPath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, appName+".log")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. Keys missing from the
// file keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Data.Path = expandHome(cfg.Data.Path)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
