package layout

import (
	"math"
	"testing"

	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/testutil"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

func opts() Options {
	return Options{NodeWidth: 10, NodeHeight: 4, HGap: 2, VGap: 3, RootGap: 5, Padding: 1}
}

func m(id, parent string) model.Member {
	return model.Member{ID: id, ParentID: parent, Name: id, LastName: "A"}
}

func TestComputeEmpty(t *testing.T) {
	l := Compute(tree.Build(nil), opts())
	w, h := l.Size()
	if w != 0 || h != 0 || l.Len() != 0 {
		t.Errorf("expected empty layout, got %vx%v with %d boxes", w, h, l.Len())
	}
	if _, ok := l.Rect("x"); ok {
		t.Error("expected no rect in empty layout")
	}
}

func TestComputeParentCenteredOverChildren(t *testing.T) {
	f := tree.Build([]model.Member{m("p", ""), m("a", "p"), m("b", "p"), m("c", "p")})
	l := Compute(f, opts())

	p, _ := l.Rect("p")
	a, _ := l.Rect("a")
	b, _ := l.Rect("b")
	c, _ := l.Rect("c")

	// children: 3*10 + 2*2 = 34 wide starting at padding 1
	if a.X != 1 || b.X != 13 || c.X != 25 {
		t.Errorf("unexpected child positions: a=%v b=%v c=%v", a.X, b.X, c.X)
	}
	if p.CenterX() != b.CenterX() {
		t.Errorf("expected parent centred at %v, got %v", b.CenterX(), p.CenterX())
	}
	if p.Y != 1 || a.Y != 1+4+3 {
		t.Errorf("expected parent above children, got p.Y=%v a.Y=%v", p.Y, a.Y)
	}

	w, h := l.Size()
	if w != 36 {
		t.Errorf("expected width 36, got %v", w)
	}
	if h != 1*2+2*4+3 {
		t.Errorf("expected height 13, got %v", h)
	}
	if len(l.Edges()) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(l.Edges()))
	}
	e := l.Edges()[0]
	if e.From.X != p.CenterX() || e.To.X != a.CenterX() || e.MidY != p.Bottom()+1.5 {
		t.Errorf("unexpected edge %+v", e)
	}
}

func TestComputeNarrowChildUnderWideParent(t *testing.T) {
	f := tree.Build([]model.Member{m("p", ""), m("a", "p")})
	l := Compute(f, opts())
	p, _ := l.Rect("p")
	a, _ := l.Rect("a")
	if p.X != a.X {
		t.Errorf("expected single child directly under parent, got %v vs %v", p.X, a.X)
	}
}

func TestComputeRootsSideBySide(t *testing.T) {
	f := tree.Build([]model.Member{m("r1", ""), m("r2", "")})
	l := Compute(f, opts())
	r1, _ := l.Rect("r1")
	r2, _ := l.Rect("r2")
	if r2.X != r1.Right()+5 {
		t.Errorf("expected root gap of 5, got %v", r2.X-r1.Right())
	}
	if r1.Y != r2.Y {
		t.Error("expected roots on the same row")
	}
}

func TestComputeNoOverlap(t *testing.T) {
	f := tree.Build(testutil.QuickForest(60, 3))
	l := Compute(f, opts())
	ids := l.IDs()
	if len(ids) != 60 {
		t.Fatalf("expected 60 boxes, got %d", len(ids))
	}
	for i := 0; i < len(ids); i++ {
		ri, _ := l.Rect(ids[i])
		for j := i + 1; j < len(ids); j++ {
			rj, _ := l.Rect(ids[j])
			if ri.Intersects(rj) {
				t.Fatalf("boxes %s %+v and %s %+v overlap", ids[i], ri, ids[j], rj)
			}
		}
	}
	w, h := l.Size()
	for _, id := range ids {
		r, _ := l.Rect(id)
		if r.X < 0 || r.Y < 0 || r.Right() > w || r.Bottom() > h+1e-9 {
			t.Fatalf("box %s %+v outside content %vx%v", id, r, w, h)
		}
	}
}

func TestHitAndScale(t *testing.T) {
	f := tree.Build([]model.Member{m("p", "")})
	l := Compute(f, opts())
	if id, ok := l.Hit(Point{X: 5, Y: 2}); !ok || id != "p" {
		t.Errorf("expected hit on p, got %q %v", id, ok)
	}
	if _, ok := l.Hit(Point{X: 50, Y: 50}); ok {
		t.Error("expected miss outside boxes")
	}
	r, _ := l.Rect("p")
	s := r.Scale(0.5)
	if math.Abs(s.W-5) > 1e-9 || math.Abs(s.X-0.5) > 1e-9 {
		t.Errorf("unexpected scaled rect %+v", s)
	}
}
