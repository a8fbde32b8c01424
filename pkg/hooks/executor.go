package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/famtree/pkg/debug"
)

// ExportContext describes the export to the hook commands. It reaches them
// as FAMTREE_* environment variables.
type ExportContext struct {
	Paths       []string
	Formats     []string
	MemberCount int
	Focus       string
	Timestamp   time.Time
}

// ToEnv renders the context as environment entries.
func (c ExportContext) ToEnv() []string {
	return []string{
		"FAMTREE_EXPORT_PATHS=" + strings.Join(c.Paths, ","),
		"FAMTREE_EXPORT_FORMATS=" + strings.Join(c.Formats, ","),
		"FAMTREE_MEMBER_COUNT=" + strconv.Itoa(c.MemberCount),
		"FAMTREE_FOCUS=" + c.Focus,
		"FAMTREE_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	export  ExportContext
	results []Result
}

// NewExecutor prepares cfg's hooks for one export.
func NewExecutor(cfg *Config, export ExportContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg, export: export}
}

// RunPreExport runs the pre-export hooks in order and stops at the first
// failing hook whose on_error is fail.
func (e *Executor) RunPreExport(ctx context.Context) error {
	for _, h := range e.config.For(PreExport) {
		r := e.run(ctx, h, PreExport)
		if !r.Success && h.OnError == "fail" {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, r.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and joins the failures of
// hooks whose on_error is fail.
func (e *Executor) RunPostExport(ctx context.Context) error {
	var errs []error
	for _, h := range e.config.For(PostExport) {
		r := e.run(ctx, h, PostExport)
		if !r.Success && h.OnError == "fail" {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, r.Error))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(ctx context.Context, h Hook, phase Phase) Result {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := append(os.Environ(), e.export.ToEnv()...)
	for k, v := range h.Env {
		env = append(env, k+"="+expand(v, env))
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = env
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     h,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", timeout)
		}
		r.Error = err
	}
	debug.Log("hooks: %s %s (%s) success=%v", phase, h.Name, r.Duration, r.Success)
	e.results = append(e.results, r)
	return r
}

// expand substitutes ${VAR} and $VAR from env, the last entry winning.
func expand(s string, env []string) string {
	vals := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vals[k] = v
		}
	}
	return os.Expand(s, func(k string) string { return vals[k] })
}

// Results returns every hook run so far.
func (e *Executor) Results() []Result { return e.results }

// Summary describes the runs, one line per hook plus stderr of failures.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	var b strings.Builder
	for _, r := range e.results {
		status := "ok"
		if r.Success {
			ok++
		} else {
			failed++
			status = "FAILED"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s (%s)\n", r.Phase, r.Hook.Name, status, r.Duration.Round(time.Millisecond))
		if !r.Success {
			if r.Stderr != "" {
				fmt.Fprintf(&b, "    stderr: %s\n", truncate(r.Stderr, 200))
			} else if r.Error != nil {
				fmt.Fprintf(&b, "    error: %s\n", truncate(r.Error.Error(), 200))
			}
		}
	}
	return fmt.Sprintf("hooks: %d succeeded, %d failed\n", ok, failed) + b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// Run loads dir's hooks for one export. It returns a nil executor when
// disabled is set or nothing is configured; warnings go to debug output.
func Run(dir string, export ExportContext, disabled bool) (*Executor, error) {
	if disabled {
		return nil, nil
	}
	cfg, warnings, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Log("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, export), nil
}
