package treemap

import (
	"math"
	"sort"

	"github.com/chan4lk/spacemap/internal/domain"
)

// Rect is an axis-aligned rectangle in abstract layout units.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Area() float64 { return r.W * r.H }

// LayoutRect ties one laid-out rectangle back to the node it displays.
type LayoutRect struct {
	Rect
	Path      string
	Node      *domain.Node
	Size      uint64
	Intensity float64
}

type Options struct {
	// ZeroFloor grants zero-size children a weight equal to this fraction of
	// the nonzero total so empty entries stay visible. 0 disables the floor
	// and empty children collapse to zero-area rects.
	ZeroFloor float64
	// Scale picks the intensity curve.
	Scale Scale
}

func DefaultOptions() Options {
	return Options{ZeroFloor: 0.001, Scale: ScaleLog}
}

type item struct {
	node *domain.Node
	area float64
}

// Layout arranges children inside target with area proportional to displayed
// size. Rows are squarified: each row runs along the shorter side of the
// remaining rectangle and accepts the next child only while the row's worst
// aspect ratio does not degrade. Pure: same inputs, same rectangles.
func Layout(children []*domain.Node, target Rect, opts Options) []LayoutRect {
	if len(children) == 0 || target.W <= 0 || target.H <= 0 {
		return nil
	}

	items := make([]item, 0, len(children))
	var nonzero float64
	var maxSize uint64
	for _, child := range children {
		weight := float64(child.DisplaySize())
		nonzero += weight
		if child.DisplaySize() > maxSize {
			maxSize = child.DisplaySize()
		}
		items = append(items, item{node: child, area: weight})
	}

	floor := 0.0
	if opts.ZeroFloor > 0 {
		floor = opts.ZeroFloor * nonzero
		if nonzero == 0 {
			floor = 1 // nothing has size; divide the target evenly
		}
	}
	var total float64
	for i := range items {
		if items[i].area == 0 {
			items[i].area = floor
		}
		total += items[i].area
	}
	if total <= 0 {
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].area != items[j].area {
			return items[i].area > items[j].area
		}
		return items[i].node.Name < items[j].node.Name
	})

	scale := target.Area() / total
	for i := range items {
		items[i].area *= scale
	}

	rects := make([]LayoutRect, 0, len(items))
	squarify(items, target, &rects)
	for i := range rects {
		rects[i].Intensity = Intensity(rects[i].Size, maxSize, opts.Scale)
	}
	return rects
}

func squarify(items []item, remaining Rect, out *[]LayoutRect) {
	for len(items) > 0 {
		short := math.Min(remaining.W, remaining.H)
		rowArea := items[0].area
		worst := worstRatio(items[:1], rowArea, short)
		next := 1
		for next < len(items) {
			candidateArea := rowArea + items[next].area
			candidate := worstRatio(items[:next+1], candidateArea, short)
			if candidate > worst {
				break
			}
			worst = candidate
			rowArea = candidateArea
			next++
		}
		remaining = layRow(items[:next], rowArea, remaining, out)
		items = items[next:]
	}
}

// worstRatio is the squarified bound: with row sum s laid along side w, the
// biggest and smallest items decide via max(w*w*rMax/(s*s), s*s/(w*w*rMin)).
func worstRatio(row []item, sum, short float64) float64 {
	if sum <= 0 || short <= 0 {
		return math.MaxFloat64
	}
	rMax := row[0].area
	rMin := row[len(row)-1].area
	if rMin <= 0 {
		return math.MaxFloat64
	}
	s2 := sum * sum
	w2 := short * short
	return math.Max(w2*rMax/s2, s2/(w2*rMin))
}

// layRow slices the row's strip off the remaining rectangle. Landscape
// remainders take a full-height column on the left; portrait remainders a
// full-width band on top.
func layRow(row []item, rowArea float64, remaining Rect, out *[]LayoutRect) Rect {
	if remaining.W >= remaining.H {
		stripW := 0.0
		if remaining.H > 0 {
			stripW = rowArea / remaining.H
		}
		y := remaining.Y
		for _, it := range row {
			h := 0.0
			if stripW > 0 {
				h = it.area / stripW
			}
			*out = append(*out, LayoutRect{
				Rect: Rect{X: remaining.X, Y: y, W: stripW, H: h},
				Path: it.node.Path,
				Node: it.node,
				Size: it.node.DisplaySize(),
			})
			y += h
		}
		return Rect{X: remaining.X + stripW, Y: remaining.Y, W: remaining.W - stripW, H: remaining.H}
	}

	stripH := 0.0
	if remaining.W > 0 {
		stripH = rowArea / remaining.W
	}
	x := remaining.X
	for _, it := range row {
		w := 0.0
		if stripH > 0 {
			w = it.area / stripH
		}
		*out = append(*out, LayoutRect{
			Rect: Rect{X: x, Y: remaining.Y, W: w, H: stripH},
			Path: it.node.Path,
			Node: it.node,
			Size: it.node.DisplaySize(),
		})
		x += w
	}
	return Rect{X: remaining.X, Y: remaining.Y + stripH, W: remaining.W, H: remaining.H - stripH}
}
