package navigator

import (
	"testing"
	"time"

	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/schedule"
	"github.com/vanderheijden86/famtree/pkg/stage"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	clock *schedule.ManualClock
	queue *schedule.Queue
	stage *stage.Stage
	nav   *Navigator
	event []Event
}

func members(ids ...string) []model.Member {
	out := []model.Member{{ID: "root", Name: "Root", LastName: "A"}}
	for _, id := range ids {
		out = append(out, model.Member{ID: id, ParentID: "root", Name: id, LastName: "A"})
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := schedule.NewManualClock(epoch)
	q := schedule.NewQueue(c.Now)
	st := stage.New(stage.DefaultConfig(), q)
	st.SetLayout(layout.Compute(tree.Build(members("x", "y", "z")), layout.Options{NodeWidth: 100, NodeHeight: 40, HGap: 20, VGap: 20}))
	st.SetViewport(120, 60)
	st.SetZoom(0.5)
	schedule.Step(c, q, time.Second)

	f := &fixture{clock: c, queue: q, stage: st}
	f.nav = New(DefaultConfig(), st, q)
	f.nav.OnChange(func(e Event) { f.event = append(f.event, e) })
	return f
}

func (f *fixture) step(d time.Duration) { schedule.Step(f.clock, f.queue, d) }

func (f *fixture) count(kind EventKind) int {
	n := 0
	for _, e := range f.event {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestFocusZoomsScrollsAndHighlights(t *testing.T) {
	f := newFixture(t)
	if !f.nav.Focus("z") {
		t.Fatal("expected focus to succeed")
	}

	if id, ok := f.nav.Highlighted(); !ok || id != "z" {
		t.Errorf("expected z highlighted, got %q", id)
	}
	if f.stage.Zoom().Target() != 1.0 {
		t.Errorf("expected focus zoom target 1.0, got %v", f.stage.Zoom().Target())
	}
	if x, y := f.stage.Scroll(); x != 0 || y != 0 {
		t.Errorf("expected no scroll before settle, got %v,%v", x, y)
	}

	f.step(350 * time.Millisecond)
	if f.count(EventSettled) != 1 {
		t.Fatalf("expected settle after 350ms, got events %+v", f.event)
	}
	f.step(300 * time.Millisecond)

	r, _ := f.stage.Rect("z")
	wantX, wantY := f.stage.CenterOffset(r, 1.0)
	if x, y := f.stage.Scroll(); x != wantX || y != wantY {
		t.Errorf("expected scroll %v,%v centring z, got %v,%v", wantX, wantY, x, y)
	}
	if wantX == 0 {
		t.Error("expected a non-trivial horizontal offset for z")
	}

	f.step(1349 * time.Millisecond)
	if !f.nav.IsHighlighted("z") {
		t.Fatal("expected highlight to last until 2s")
	}
	f.step(time.Millisecond)
	if f.nav.IsHighlighted("z") {
		t.Error("expected highlight to clear after 2s")
	}
	if f.count(EventCleared) != 1 {
		t.Errorf("expected one clear, got %d", f.count(EventCleared))
	}
}

func TestFocusTwiceSupersedesClear(t *testing.T) {
	f := newFixture(t)
	f.nav.Focus("x")
	f.step(500 * time.Millisecond)
	f.nav.Focus("x")

	if n := f.nav.PendingClears(); n != 1 {
		t.Fatalf("expected one pending clear, got %d", n)
	}

	// 2s after the first call: the first timer was cancelled.
	f.step(1500 * time.Millisecond)
	if !f.nav.IsHighlighted("x") {
		t.Fatal("expected highlight to survive the superseded timer")
	}
	f.step(499 * time.Millisecond)
	if !f.nav.IsHighlighted("x") {
		t.Fatal("expected highlight until 2s after the second call")
	}
	f.step(time.Millisecond)
	if f.nav.IsHighlighted("x") {
		t.Error("expected highlight cleared 2s after the second call")
	}
	f.step(5 * time.Second)
	if f.count(EventCleared) != 1 {
		t.Errorf("expected exactly one clear, got %d", f.count(EventCleared))
	}
}

func TestFocusNewTargetMovesHighlight(t *testing.T) {
	f := newFixture(t)
	f.nav.Focus("x")
	f.step(time.Second)
	f.nav.Focus("y")
	if f.nav.IsHighlighted("x") || !f.nav.IsHighlighted("y") {
		t.Fatal("expected highlight to move to y")
	}
	f.step(1500 * time.Millisecond)
	if !f.nav.IsHighlighted("y") {
		t.Error("expected y highlight not cleared by x's timer")
	}
	f.step(500 * time.Millisecond)
	if _, ok := f.nav.Highlighted(); ok {
		t.Error("expected no highlight left behind")
	}
}

func TestFocusUnknownIDIsNoop(t *testing.T) {
	f := newFixture(t)
	f.stage.ScrollTo(30, 10)
	f.step(time.Second)
	zoom := f.stage.CurrentZoom()
	sx, sy := f.stage.Scroll()

	if f.nav.Focus("nonexistent") {
		t.Error("expected focus on unknown id to report false")
	}
	f.step(3 * time.Second)

	if f.stage.CurrentZoom() != zoom || f.stage.Zoom().Target() != zoom {
		t.Errorf("expected zoom %v unchanged, got %v", zoom, f.stage.CurrentZoom())
	}
	if x, y := f.stage.Scroll(); x != sx || y != sy {
		t.Errorf("expected scroll %v,%v unchanged, got %v,%v", sx, sy, x, y)
	}
	if _, ok := f.nav.Highlighted(); ok {
		t.Error("expected no highlight")
	}
	if f.queue.Len() != 0 || len(f.event) != 0 {
		t.Errorf("expected no scheduled work or events, got %d tasks %d events", f.queue.Len(), len(f.event))
	}
}

func TestFocusOnEmptyStage(t *testing.T) {
	c := schedule.NewManualClock(epoch)
	q := schedule.NewQueue(c.Now)
	nav := New(DefaultConfig(), stage.New(stage.DefaultConfig(), q), q)
	if nav.Focus("anything") {
		t.Error("expected no-op on an empty stage")
	}
}

func TestSnapshotReplacedBeforeSettle(t *testing.T) {
	f := newFixture(t)
	f.nav.Focus("z")
	f.stage.ScrollTo(0, 0)

	// New snapshot without z arrives while timers are pending.
	f.stage.SetLayout(layout.Compute(tree.Build(members("x")), layout.Options{NodeWidth: 100, NodeHeight: 40}))
	f.step(3 * time.Second)

	if f.count(EventSettled) != 0 {
		t.Error("expected settle to skip a vanished node")
	}
	if f.count(EventCleared) != 1 {
		t.Errorf("expected the pending clear to still fire, got %d", f.count(EventCleared))
	}
}

func TestCancelClearsImmediately(t *testing.T) {
	f := newFixture(t)
	f.nav.Focus("x")
	f.nav.Cancel()
	if _, ok := f.nav.Highlighted(); ok {
		t.Error("expected highlight cleared")
	}
	if f.nav.PendingClears() != 0 {
		t.Error("expected no pending clear")
	}
	f.nav.Cancel()
	if f.count(EventCleared) != 1 {
		t.Errorf("expected one clear event, got %d", f.count(EventCleared))
	}
}

func TestSettleWaitsForSlowZoom(t *testing.T) {
	c := schedule.NewManualClock(epoch)
	q := schedule.NewQueue(c.Now)
	cfg := stage.DefaultConfig()
	cfg.Zoom.Transition = 600 * time.Millisecond
	st := stage.New(cfg, q)
	st.SetLayout(layout.Compute(tree.Build(members("x", "y", "z")), layout.Options{NodeWidth: 100, NodeHeight: 40, HGap: 20, VGap: 20}))
	st.SetViewport(120, 60)
	st.SetZoom(0.5)
	schedule.Step(c, q, time.Second)

	settled := 0
	nav := New(DefaultConfig(), st, q)
	nav.OnChange(func(e Event) {
		if e.Kind == EventSettled {
			settled++
		}
	})
	if !nav.Focus("z") {
		t.Fatal("expected focus to succeed")
	}

	schedule.Step(c, q, 400*time.Millisecond)
	if settled != 0 {
		t.Error("expected settle to wait while the zoom is still transitioning")
	}

	schedule.Step(c, q, 3*time.Second)
	if settled != 1 {
		t.Fatalf("expected exactly one settle, got %d", settled)
	}
	if st.CurrentZoom() != 1.0 {
		t.Errorf("expected zoom 1.0, got %v", st.CurrentZoom())
	}
	r, _ := st.Rect("z")
	wantX, wantY := st.CenterOffset(r, 1.0)
	if x, y := st.Scroll(); x != wantX || y != wantY {
		t.Errorf("expected z centred at %v,%v, got %v,%v", wantX, wantY, x, y)
	}
	if wantX == 0 {
		t.Error("expected a non-trivial horizontal offset for z")
	}
}

func TestSettleDelayFor(t *testing.T) {
	if got := SettleDelayFor(300 * time.Millisecond); got != DefaultConfig().SettleDelay {
		t.Errorf("expected default settle to track the stock transition, got %v", got)
	}
	if got := SettleDelayFor(-time.Second); got != SettleSlack {
		t.Errorf("expected negative transition treated as zero, got %v", got)
	}
}
