// Package hooks runs user commands around tree exports. Hooks are read
// from hooks.yaml in the data directory: pre-export hooks run before any
// file is written and can veto the export, post-export hooks run after
// every file is on disk.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the hook configuration file inside the data directory.
const FileName = "hooks.yaml"

// DefaultTimeout bounds a hook without an explicit timeout.
const DefaultTimeout = 30 * time.Second

// Phase says when a hook runs.
type Phase string

const (
	// PreExport runs before rendering. A failing hook cancels the export
	// unless it says on_error: continue.
	PreExport Phase = "pre-export"
	// PostExport runs after the files are written. Failures are reported
	// but the files stay.
	PostExport Phase = "post-export"
)

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // "fail" or "continue"
}

// Config is the parsed hooks.yaml.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase groups hooks by phase.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// Empty reports whether no hooks are configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// For returns the hooks of one phase.
func (c *Config) For(p Phase) []Hook {
	if c == nil {
		return nil
	}
	switch p {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Load reads dir/hooks.yaml. A missing file is an empty config. Hooks
// without a command are dropped and reported in warnings.
func Load(dir string) (cfg *Config, warnings []string, err error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	cfg = &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Hooks.PreExport, warnings = normalize(cfg.Hooks.PreExport, PreExport, warnings)
	cfg.Hooks.PostExport, warnings = normalize(cfg.Hooks.PostExport, PostExport, warnings)
	return cfg, warnings, nil
}

func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = "continue"
			if phase == PreExport {
				h.OnError = "fail"
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds (5).
// The dto mirrors Hook with Timeout as text; keep the two in step.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var dto struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}
	if err := node.Decode(&dto); err != nil {
		return err
	}
	*h = Hook{Name: dto.Name, Command: dto.Command, Env: dto.Env, OnError: dto.OnError}
	if dto.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(dto.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	secs, err := strconv.ParseFloat(dto.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}
