package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/chan4lk/spacemap/internal/domain"
	"github.com/chan4lk/spacemap/internal/treemap"
)

// canvasContent renders the treemap of children into a width x height block
// of styled terminal lines. The rect whose path equals selectedPath is drawn
// inverted.
func canvasContent(children []*domain.Node, selectedPath string, width, height int, opts treemap.Options) string {
	if width < 2 || height < 1 {
		return ""
	}
	rects := treemap.Layout(children, treemap.Rect{W: float64(width), H: float64(height)}, opts)
	if len(rects) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("nothing to show")
	}

	grid := rasterize(rects, width, height)
	text := labelGrid(rects, width, height)

	styles := make([]lipgloss.Style, len(rects))
	for i, rect := range rects {
		hex := treemap.HeatColor(rect.Node, rect.Intensity)
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(hex)).
			Foreground(lipgloss.Color(labelColorFor(hex)))
		if rect.Path == selectedPath {
			style = style.Reverse(true).Bold(true)
		}
		styles[i] = style
	}

	var builder strings.Builder
	for y := 0; y < height; y++ {
		x := 0
		for x < width {
			index := grid[y][x]
			run := x
			for run < width && grid[y][run] == index {
				run++
			}
			segment := string(text[y][x:run])
			if index < 0 {
				builder.WriteString(segment)
			} else {
				builder.WriteString(styles[index].Render(segment))
			}
			x = run
		}
		if y < height-1 {
			builder.WriteByte('\n')
		}
	}
	return builder.String()
}

// rasterize maps every cell of the grid to the index of the rect covering
// it, -1 where none does. Shared rect edges round to the same boundary on
// both sides, so the grid tiles without gaps.
func rasterize(rects []treemap.LayoutRect, width, height int) [][]int {
	grid := make([][]int, height)
	for y := range grid {
		row := make([]int, width)
		for x := range row {
			row[x] = -1
		}
		grid[y] = row
	}
	for i, rect := range rects {
		x0, y0, x1, y1 := cellBounds(rect, width, height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				grid[y][x] = i
			}
		}
	}
	return grid
}

// labelGrid writes "name size" into the top line of every rect wide enough
// to carry one.
func labelGrid(rects []treemap.LayoutRect, width, height int) [][]rune {
	text := make([][]rune, height)
	for y := range text {
		row := make([]rune, width)
		for x := range row {
			row[x] = ' '
		}
		text[y] = row
	}
	for _, rect := range rects {
		x0, y0, x1, y1 := cellBounds(rect, width, height)
		cellWidth := x1 - x0
		if cellWidth < 4 || y1 <= y0 {
			continue
		}
		name := rect.Node.Name
		if rect.Node.IsDir() {
			name += "/"
		}
		label := []rune(fmt.Sprintf("%s %s", name, humanize.IBytes(rect.Size)))
		if room := cellWidth - 2; len(label) > room {
			label = label[:room]
		}
		copy(text[y0][x0+1:x1], label)
	}
	return text
}

func cellBounds(rect treemap.LayoutRect, width, height int) (int, int, int, int) {
	x0 := clamp(int(math.Round(rect.X)), 0, width)
	y0 := clamp(int(math.Round(rect.Y)), 0, height)
	x1 := clamp(int(math.Round(rect.X+rect.W)), 0, width)
	y1 := clamp(int(math.Round(rect.Y+rect.H)), 0, height)
	return x0, y0, x1, y1
}

// labelColorFor picks black or white text against the block color.
func labelColorFor(hex string) string {
	col, err := colorful.Hex(hex)
	if err != nil {
		return "#ffffff"
	}
	l, _, _ := col.Luv()
	if l > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

// nearestRect picks the rect whose center lies closest in the pressed
// direction. Drift perpendicular to the motion is weighted double so the
// selection tracks what the eye expects. Returns from when nothing lies that
// way.
func nearestRect(rects []treemap.LayoutRect, from int, dx, dy float64) int {
	if from < 0 || from >= len(rects) {
		return from
	}
	fx, fy := rectCenter(rects[from].Rect)
	best := from
	bestScore := math.MaxFloat64
	for i, rect := range rects {
		if i == from {
			continue
		}
		cx, cy := rectCenter(rect.Rect)
		along := (cx-fx)*dx + (cy-fy)*dy
		if along <= 1e-9 {
			continue
		}
		across := math.Abs((cx-fx)*dy) + math.Abs((cy-fy)*dx)
		score := along + 2*across
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func rectCenter(r treemap.Rect) (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}
