package treemap

import (
	"math"
	"testing"

	"github.com/chan4lk/spacemap/internal/domain"
)

const epsilon = 1e-9

func sized(name string, size uint64) *domain.Node {
	return &domain.Node{Path: "/d/" + name, Name: name, Kind: domain.KindFile, Size: size, Total: size}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestLayoutAreasProportional(t *testing.T) {
	children := []*domain.Node{sized("small.bin", 100), sized("large.bin", 300)}
	target := Rect{X: 0, Y: 0, W: 400, H: 100}

	rects := Layout(children, target, Options{})

	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(rects))
	}
	// Largest first: 300 of 400 total means 3/4 of the area.
	if rects[0].Node.Name != "large.bin" {
		t.Errorf("largest child should be laid first, got %s", rects[0].Node.Name)
	}
	if !almostEqual(rects[0].Area(), 30000) {
		t.Errorf("expected area 30000 for the 300-byte file, got %f", rects[0].Area())
	}
	if !almostEqual(rects[1].Area(), 10000) {
		t.Errorf("expected area 10000 for the 100-byte file, got %f", rects[1].Area())
	}
	// This input tiles as two exact blocks.
	if !almostEqual(rects[0].W, 300) || !almostEqual(rects[0].H, 100) {
		t.Errorf("expected 300x100 block, got %fx%f", rects[0].W, rects[0].H)
	}
	if !almostEqual(rects[1].X, 300) || !almostEqual(rects[1].W, 100) || !almostEqual(rects[1].H, 100) {
		t.Errorf("expected 100x100 block at x=300, got %+v", rects[1].Rect)
	}
}

func TestLayoutTilesTarget(t *testing.T) {
	children := []*domain.Node{
		sized("a", 6), sized("b", 6), sized("c", 4),
		sized("d", 3), sized("e", 2), sized("f", 2), sized("g", 1),
	}
	target := Rect{X: 10, Y: 5, W: 600, H: 400}

	rects := Layout(children, target, Options{})

	if len(rects) != len(children) {
		t.Fatalf("every child needs a rect; got %d of %d", len(rects), len(children))
	}
	var sum float64
	for _, rect := range rects {
		sum += rect.Area()
		if rect.X < target.X-epsilon || rect.Y < target.Y-epsilon ||
			rect.X+rect.W > target.X+target.W+epsilon ||
			rect.Y+rect.H > target.Y+target.H+epsilon {
			t.Errorf("rect %s leaves the target: %+v", rect.Node.Name, rect.Rect)
		}
	}
	if math.Abs(sum-target.Area()) > 1e-6 {
		t.Errorf("areas must cover the target exactly: %f vs %f", sum, target.Area())
	}
	// No pairwise overlap beyond shared edges.
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			a, b := rects[i].Rect, rects[j].Rect
			overlapW := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
			overlapH := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
			if overlapW > 1e-6 && overlapH > 1e-6 {
				t.Errorf("rects %s and %s overlap", rects[i].Node.Name, rects[j].Node.Name)
			}
		}
	}
	// Proportionality holds for every child.
	var total float64 = 24
	for _, rect := range rects {
		wantShare := float64(rect.Size) / total
		gotShare := rect.Area() / target.Area()
		if math.Abs(wantShare-gotShare) > 1e-9 {
			t.Errorf("%s share %f, want %f", rect.Node.Name, gotShare, wantShare)
		}
	}
}

func TestLayoutDeterministicWithTies(t *testing.T) {
	children := []*domain.Node{sized("bbb", 50), sized("aaa", 50), sized("ccc", 50)}
	target := Rect{W: 90, H: 30}

	first := Layout(children, target, Options{})
	second := Layout(children, target, Options{})

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 rects each run")
	}
	for i := range first {
		if first[i].Node != second[i].Node || first[i].Rect != second[i].Rect {
			t.Errorf("layout differs between runs at %d", i)
		}
	}
	// Equal sizes fall back to name order.
	if first[0].Node.Name != "aaa" || first[1].Node.Name != "bbb" || first[2].Node.Name != "ccc" {
		t.Errorf("tie-break should be by name, got %s %s %s",
			first[0].Node.Name, first[1].Node.Name, first[2].Node.Name)
	}
}

func TestLayoutZeroSizeFloor(t *testing.T) {
	children := []*domain.Node{sized("big", 1000), sized("empty", 0)}
	target := Rect{W: 100, H: 100}

	floored := Layout(children, target, Options{ZeroFloor: 0.01})
	var emptyRect *LayoutRect
	for i := range floored {
		if floored[i].Node.Name == "empty" {
			emptyRect = &floored[i]
		}
	}
	if emptyRect == nil {
		t.Fatal("empty child should still get a rect")
	}
	if emptyRect.Area() <= 0 {
		t.Error("floor should grant the empty child visible area")
	}
	wantArea := target.Area() * 10 / 1010 // floor weight 10 of 1010 total
	if math.Abs(emptyRect.Area()-wantArea) > 1e-6 {
		t.Errorf("floored area %f, want %f", emptyRect.Area(), wantArea)
	}

	bare := Layout(children, target, Options{})
	for _, rect := range bare {
		if rect.Node.Name == "empty" && rect.Area() != 0 {
			t.Errorf("with the floor off an empty child collapses, got area %f", rect.Area())
		}
	}
}

func TestLayoutAllZeroChildren(t *testing.T) {
	children := []*domain.Node{sized("x", 0), sized("y", 0)}
	rects := Layout(children, Rect{W: 100, H: 100}, Options{ZeroFloor: 0.001})
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(rects))
	}
	if math.Abs(rects[0].Area()-rects[1].Area()) > 1e-6 {
		t.Error("all-zero children should split the target evenly")
	}
}

func TestLayoutDegenerateInputs(t *testing.T) {
	if rects := Layout(nil, Rect{W: 100, H: 100}, Options{}); rects != nil {
		t.Error("no children should produce no rects")
	}
	if rects := Layout([]*domain.Node{sized("a", 1)}, Rect{W: 0, H: 100}, Options{}); rects != nil {
		t.Error("zero-area target should produce no rects")
	}

	single := Layout([]*domain.Node{sized("only", 42)}, Rect{X: 3, Y: 4, W: 50, H: 20}, Options{})
	if len(single) != 1 {
		t.Fatalf("expected 1 rect, got %d", len(single))
	}
	got := single[0].Rect
	if !almostEqual(got.X, 3) || !almostEqual(got.Y, 4) || !almostEqual(got.W, 50) || !almostEqual(got.H, 20) {
		t.Errorf("single child should fill the target, got %+v", got)
	}
}

func TestLayoutRowsFollowShortSide(t *testing.T) {
	// In a tall target the first row is a horizontal band across the top.
	children := []*domain.Node{sized("a", 500), sized("b", 300), sized("c", 200)}
	rects := Layout(children, Rect{W: 100, H: 400}, Options{})
	if len(rects) != 3 {
		t.Fatalf("expected 3 rects, got %d", len(rects))
	}
	first := rects[0]
	if first.Node.Name != "a" {
		t.Fatalf("largest first, got %s", first.Node.Name)
	}
	if !almostEqual(first.Y, 0) || !almostEqual(first.X, 0) {
		t.Errorf("first row should start at the top, got %+v", first.Rect)
	}
	if first.H >= first.W*4 {
		t.Errorf("squarified row should avoid extreme slivers, got %fx%f", first.W, first.H)
	}
}
