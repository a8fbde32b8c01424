// Package stage holds the render driver state: the current layout, the
// zoom applied to it, the viewport and the scroll offset. Rendering
// surfaces (the terminal canvas, exporters) read from a Stage; the
// navigator and key handlers write to it.
//
// A Stage is not safe for concurrent use. It is owned by a single event
// loop and its timers run on the schedule queue that loop drains.
package stage

import (
	"math"
	"strings"
	"time"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/schedule"
)

// DefaultElementPrefix is prepended to member ids in element identifiers.
const DefaultElementPrefix = "family-member"

// Config configures a Stage.
type Config struct {
	Zoom           ZoomConfig
	ScrollDuration time.Duration
	ElementPrefix  string
}

// DefaultConfig returns the stock stage configuration.
func DefaultConfig() Config {
	return Config{
		Zoom:           DefaultZoomConfig(),
		ScrollDuration: 300 * time.Millisecond,
		ElementPrefix:  DefaultElementPrefix,
	}
}

// Measurement is the "content measured" event: natural content size and
// the viewport it is shown in.
type Measurement struct {
	ContentW, ContentH float64
	ViewW, ViewH       float64
}

// Valid reports whether all four sizes are positive and finite.
func (m Measurement) Valid() bool {
	for _, v := range []float64{m.ContentW, m.ContentH, m.ViewW, m.ViewH} {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FitZoom returns the largest scale not above 1 at which the content fits
// the viewport, or 0 when the measurement is not valid.
func FitZoom(m Measurement) float64 {
	if !m.Valid() {
		return 0
	}
	return math.Min(math.Min(m.ViewW/m.ContentW, m.ViewH/m.ContentH), 1)
}

// Stage is the mutable render state for one tree.
type Stage struct {
	cfg    Config
	sched  schedule.Scheduler
	layout *layout.Layout
	zoom   *Zoom

	viewW, viewH float64

	scrollX, scrollY float64
	animX, animY     animated
	scrollCommit     *schedule.Task

	fitPending bool
	lastFit    float64
}

// New creates an empty stage.
func New(cfg Config, sched schedule.Scheduler) *Stage {
	if cfg.ElementPrefix == "" {
		cfg.ElementPrefix = DefaultElementPrefix
	}
	if cfg.ScrollDuration < 0 {
		cfg.ScrollDuration = 0
	}
	s := &Stage{cfg: cfg, sched: sched}
	s.zoom = NewZoom(cfg.Zoom, sched)
	s.zoom.onCommit = func(float64) { s.clampScroll() }
	return s
}

// Config returns the configuration in use.
func (s *Stage) Config() Config { return s.cfg }

// Zoom exposes the zoom state.
func (s *Stage) Zoom() *Zoom { return s.zoom }

// Layout returns the current layout, which may be nil.
func (s *Stage) Layout() *layout.Layout { return s.layout }

// SetLayout replaces the layout wholesale and arms the fit computation for
// the next valid measurement.
func (s *Stage) SetLayout(l *layout.Layout) {
	s.layout = l
	s.fitPending = true
	s.clampScroll()
}

// FitPending reports whether a fit is waiting for a valid measurement.
func (s *Stage) FitPending() bool { return s.fitPending }

// LastFit returns the most recent fit zoom applied, or 0.
func (s *Stage) LastFit() float64 { return s.lastFit }

// Refit arms the fit computation again.
func (s *Stage) Refit() { s.fitPending = true }

// SetViewport records the visible area in content units.
func (s *Stage) SetViewport(w, h float64) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.viewW, s.viewH = w, h
	s.clampScroll()
}

// Viewport returns the visible area.
func (s *Stage) Viewport() (w, h float64) { return s.viewW, s.viewH }

// Measured handles a content-measured event. When a fit is pending and the
// measurement is valid, the zoom is set to the fit value and true is
// returned. An invalid measurement leaves the fit pending.
func (s *Stage) Measured(m Measurement) bool {
	if m.ViewW > 0 && m.ViewH > 0 {
		s.viewW, s.viewH = m.ViewW, m.ViewH
	}
	if !s.fitPending {
		return false
	}
	fit := FitZoom(m)
	if fit == 0 {
		debug.Log("stage: measurement not ready (%+v)", m)
		return false
	}
	s.fitPending = false
	s.lastFit = s.zoom.Set(fit)
	debug.Log("stage: fit zoom %.3f (content %.0fx%.0f, view %.0fx%.0f)", s.lastFit, m.ContentW, m.ContentH, m.ViewW, m.ViewH)
	return true
}

// MeasureNow fires Measured with the current layout size and viewport.
func (s *Stage) MeasureNow() bool {
	m := Measurement{ViewW: s.viewW, ViewH: s.viewH}
	if s.layout != nil {
		m.ContentW, m.ContentH = s.layout.Size()
	}
	return s.Measured(m)
}

// SetZoom requests a zoom, clamped silently.
func (s *Stage) SetZoom(v float64) float64 { return s.zoom.Set(v) }

// ZoomIn steps the zoom up.
func (s *Stage) ZoomIn() float64 { return s.zoom.StepIn() }

// ZoomOut steps the zoom down.
func (s *Stage) ZoomOut() float64 { return s.zoom.StepOut() }

// CurrentZoom returns the committed zoom.
func (s *Stage) CurrentZoom() float64 { return s.zoom.Current() }

// Rect returns the unscaled box for a member id.
func (s *Stage) Rect(id string) (layout.Rect, bool) {
	if s.layout == nil {
		return layout.Rect{}, false
	}
	return s.layout.Rect(id)
}

// ScaledRect returns the box for id under zoom z.
func (s *Stage) ScaledRect(id string, z float64) (layout.Rect, bool) {
	r, ok := s.Rect(id)
	if !ok {
		return layout.Rect{}, false
	}
	return r.Scale(z), true
}

// maxScroll is computed against the committed zoom.
func (s *Stage) maxScroll(z float64) (float64, float64) {
	if s.layout == nil {
		return 0, 0
	}
	w, h := s.layout.Size()
	return math.Max(0, w*z-s.viewW), math.Max(0, h*z-s.viewH)
}

func clampTo(v, hi float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// Scroll returns the committed scroll offset in scaled content units.
func (s *Stage) Scroll() (x, y float64) { return s.scrollX, s.scrollY }

// DisplayedScroll returns the eased offset for painting at now.
func (s *Stage) DisplayedScroll(now time.Time) (x, y float64) {
	return s.animX.at(now), s.animY.at(now)
}

// Scrolling reports whether a smooth scroll is in flight.
func (s *Stage) Scrolling() bool { return s.scrollCommit.Pending() }

// ScrollTo smooth-scrolls to (x, y), clamped to the scrollable range at
// the target zoom.
func (s *Stage) ScrollTo(x, y float64) {
	mx, my := s.maxScroll(s.zoom.Target())
	x, y = clampTo(x, mx), clampTo(y, my)

	now := s.sched.Now()
	fx, fy := s.animX.at(now), s.animY.at(now)
	s.scrollCommit.Cancel()

	if s.cfg.ScrollDuration <= 0 || (fx == x && fy == y) {
		s.jumpTo(x, y)
		return
	}
	s.animX = animated{from: fx, to: x, start: now, dur: s.cfg.ScrollDuration}
	s.animY = animated{from: fy, to: y, start: now, dur: s.cfg.ScrollDuration}
	s.scrollCommit = s.sched.After(s.cfg.ScrollDuration, func() {
		s.scrollX, s.scrollY = x, y
	})
}

// ScrollBy scrolls relative to the pending target.
func (s *Stage) ScrollBy(dx, dy float64) {
	s.ScrollTo(s.animX.to+dx, s.animY.to+dy)
}

func (s *Stage) jumpTo(x, y float64) {
	s.scrollX, s.scrollY = x, y
	s.animX, s.animY = still(x), still(y)
}

func (s *Stage) clampScroll() {
	if s.scrollCommit.Pending() {
		return
	}
	mx, my := s.maxScroll(s.zoom.Current())
	x, y := clampTo(s.scrollX, mx), clampTo(s.scrollY, my)
	if x != s.scrollX || y != s.scrollY {
		s.jumpTo(x, y)
	}
}

// CenterOffset returns the scroll offset that centres r, scaled by z, in
// the viewport, clamped to the scrollable range at z.
func (s *Stage) CenterOffset(r layout.Rect, z float64) (x, y float64) {
	sr := r.Scale(z)
	mx, my := s.maxScroll(z)
	return clampTo(sr.CenterX()-s.viewW/2, mx), clampTo(sr.CenterY()-s.viewH/2, my)
}

// CenterOn smooth-scrolls so r sits in the middle of the viewport at the
// target zoom, the same zoom ScrollTo clamps against.
func (s *Stage) CenterOn(r layout.Rect) {
	x, y := s.CenterOffset(r, s.zoom.Target())
	s.ScrollTo(x, y)
}

// ZoomTransitioning reports whether a zoom change is still in flight.
func (s *Stage) ZoomTransitioning() bool { return s.zoom.Transitioning() }

// ElementID returns the stable element identifier for a member.
func (s *Stage) ElementID(memberID string) string {
	return ElementID(s.cfg.ElementPrefix, memberID)
}

// LookupElement maps an element identifier back to a member id present in
// the current layout.
func (s *Stage) LookupElement(elementID string) (string, bool) {
	id, ok := strings.CutPrefix(elementID, s.cfg.ElementPrefix+"-")
	if !ok || id == "" {
		return "", false
	}
	if _, placed := s.Rect(id); !placed {
		return "", false
	}
	return id, true
}

// ElementID joins prefix and member id.
func ElementID(prefix, memberID string) string {
	if prefix == "" {
		prefix = DefaultElementPrefix
	}
	return prefix + "-" + memberID
}
