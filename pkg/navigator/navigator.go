// Package navigator moves the view to a member: it zooms to a legible
// level, centres the member once the zoom has settled, and highlights it
// for a short dwell time.
package navigator

import (
	"time"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/schedule"
)

// Surface is the part of the render state the navigator drives.
type Surface interface {
	Rect(id string) (layout.Rect, bool)
	SetZoom(z float64) float64
	CurrentZoom() float64
	CenterOn(r layout.Rect)
}

// zoomTransitioner is implemented by surfaces whose zoom animates. Settle
// waits for the transition to finish on such surfaces.
type zoomTransitioner interface {
	ZoomTransitioning() bool
}

// Config sets focus zoom and timings.
type Config struct {
	FocusZoom   float64
	SettleDelay time.Duration
	Dwell       time.Duration
}

// SettleSlack is the gap between the end of a zoom transition and the
// settle that centres the member.
const SettleSlack = 50 * time.Millisecond

// settleRetry paces re-checks while the surface is still zooming.
const settleRetry = 16 * time.Millisecond

// SettleDelayFor returns the settle delay matching a zoom transition.
func SettleDelayFor(transition time.Duration) time.Duration {
	if transition < 0 {
		transition = 0
	}
	return transition + SettleSlack
}

// DefaultConfig focuses at 1.0, settles 50ms after the stock 300ms zoom
// transition and highlights for two seconds.
func DefaultConfig() Config {
	return Config{
		FocusZoom:   1.0,
		SettleDelay: SettleDelayFor(300 * time.Millisecond),
		Dwell:       2 * time.Second,
	}
}

// EventKind identifies what changed.
type EventKind int

const (
	EventFocused EventKind = iota
	EventSettled
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventFocused:
		return "focused"
	case EventSettled:
		return "settled"
	case EventCleared:
		return "cleared"
	}
	return "unknown"
}

// Event is reported to the OnChange hook.
type Event struct {
	Kind     EventKind
	MemberID string
}

// Navigator implements focus with a single pending settle and a single
// pending highlight clear at any time.
type Navigator struct {
	cfg     Config
	surface Surface
	sched   schedule.Scheduler

	highlighted string
	settle      *schedule.Task
	clear       *schedule.Task
	onChange    func(Event)
}

// New creates a navigator.
func New(cfg Config, surface Surface, sched schedule.Scheduler) *Navigator {
	if cfg.FocusZoom <= 0 {
		cfg.FocusZoom = DefaultConfig().FocusZoom
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Dwell < 0 {
		cfg.Dwell = 0
	}
	return &Navigator{cfg: cfg, surface: surface, sched: sched}
}

// OnChange registers a hook called after each focus, settle and clear.
func (n *Navigator) OnChange(fn func(Event)) { n.onChange = fn }

// Config returns the configuration in use.
func (n *Navigator) Config() Config { return n.cfg }

// Highlighted returns the member currently highlighted.
func (n *Navigator) Highlighted() (string, bool) {
	return n.highlighted, n.highlighted != ""
}

// IsHighlighted reports whether id carries the highlight.
func (n *Navigator) IsHighlighted(id string) bool {
	return id != "" && n.highlighted == id
}

// PendingClears returns how many highlight clears are scheduled (0 or 1).
func (n *Navigator) PendingClears() int {
	if n.clear.Pending() {
		return 1
	}
	return 0
}

// Focus navigates to memberID. An id with no rendered node is ignored and
// nothing changes.
func (n *Navigator) Focus(memberID string) bool {
	if _, ok := n.surface.Rect(memberID); !ok {
		debug.Log("navigator: focus %q ignored, not rendered", memberID)
		return false
	}

	n.surface.SetZoom(n.cfg.FocusZoom)

	n.settle.Cancel()
	n.settle = n.sched.After(n.cfg.SettleDelay, func() { n.settleOn(memberID) })

	n.highlighted = memberID
	n.clear.Cancel()
	n.clear = n.sched.After(n.cfg.Dwell, n.clearHighlight)

	debug.Log("navigator: focus %q", memberID)
	n.emit(Event{Kind: EventFocused, MemberID: memberID})
	return true
}

func (n *Navigator) settleOn(memberID string) {
	// The snapshot may have been replaced since Focus.
	r, ok := n.surface.Rect(memberID)
	if !ok {
		debug.Log("navigator: settle on %q skipped, node gone", memberID)
		return
	}
	if zt, ok := n.surface.(zoomTransitioner); ok && zt.ZoomTransitioning() {
		n.settle = n.sched.After(settleRetry, func() { n.settleOn(memberID) })
		return
	}
	n.surface.CenterOn(r)
	n.emit(Event{Kind: EventSettled, MemberID: memberID})
}

func (n *Navigator) clearHighlight() {
	id := n.highlighted
	n.highlighted = ""
	n.emit(Event{Kind: EventCleared, MemberID: id})
}

// Cancel drops any pending settle and clears the highlight now.
func (n *Navigator) Cancel() {
	n.settle.Cancel()
	if n.clear.Cancel() {
		n.clearHighlight()
	}
}

func (n *Navigator) emit(e Event) {
	if n.onChange != nil {
		n.onChange(e)
	}
}
