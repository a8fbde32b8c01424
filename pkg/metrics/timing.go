// Package metrics times the snapshot pipeline: decoding the store
// document, building the forest, computing the layout, auditing lineage,
// exporting and painting. Cache metrics track the version-keyed forest
// memo.
//
// Counters are atomic. Collection is on unless FAMTREE_METRICS=0, and
// `famtree -metrics` prints a summary on exit.
//
//	func build() {
//	    defer metrics.Timer(metrics.TreeBuild)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() { enabled.Store(os.Getenv("FAMTREE_METRICS") != "0") }

// Enabled reports whether measurements are recorded.
func Enabled() bool { return enabled.Load() }

// SetEnabled switches collection on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric accumulates durations of one named stage.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first record
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// TimingStats is a point-in-time view of a TimingMetric.
type TimingStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Avg   time.Duration `json:"avg"`
	Max   time.Duration `json:"max"`
	Min   time.Duration `json:"min,omitempty"`
}

// Stats snapshots the metric.
func (m *TimingMetric) Stats() TimingStats {
	s := TimingStats{
		Name:  m.name,
		Count: m.count.Load(),
		Total: time.Duration(m.total.Load()),
		Max:   time.Duration(m.max.Load()),
		Min:   time.Duration(m.min.Load()),
	}
	if s.Count > 0 {
		s.Avg = s.Total / time.Duration(s.Count)
	}
	return s
}

func (m *TimingMetric) reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// Timer starts timing m; call the returned func to record. Nil metrics and
// disabled collection give a no-op.
func Timer(m *TimingMetric) func() {
	if m == nil || !Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Pipeline stages.
var (
	SnapshotDecode = newTimingMetric("snapshot_decode")
	TreeBuild      = newTimingMetric("tree_build")
	LayoutCompute  = newTimingMetric("layout_compute")
	LineageAudit   = newTimingMetric("lineage_audit")
	ExportRender   = newTimingMetric("export_render")
	UIRender       = newTimingMetric("ui_render")
)

var timings = []*TimingMetric{SnapshotDecode, TreeBuild, LayoutCompute, LineageAudit, ExportRender, UIRender}

// recorded returns stats for the stages that saw at least one measurement.
func recorded() []TimingStats {
	var out []TimingStats
	for _, m := range timings {
		if s := m.Stats(); s.Count > 0 {
			out = append(out, s)
		}
	}
	return out
}

func resetAll() {
	for _, m := range timings {
		m.reset()
	}
	for _, c := range AllCacheMetrics() {
		c.Reset()
	}
}
