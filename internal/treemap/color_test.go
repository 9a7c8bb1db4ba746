package treemap

import (
	"strings"
	"testing"

	"github.com/chan4lk/spacemap/internal/domain"
)

func TestIntensityBounds(t *testing.T) {
	for _, scale := range []Scale{ScaleLinear, ScaleLog} {
		if got := Intensity(0, 1000, scale); got != 0 {
			t.Errorf("%s: zero size should map to 0, got %f", scale, got)
		}
		if got := Intensity(1000, 1000, scale); got != 1 {
			t.Errorf("%s: max size should map to 1, got %f", scale, got)
		}
		if got := Intensity(5000, 1000, scale); got != 1 {
			t.Errorf("%s: oversize should saturate at 1, got %f", scale, got)
		}
		if got := Intensity(500, 0, scale); got != 0 {
			t.Errorf("%s: zero max should map to 0, got %f", scale, got)
		}
	}
}

func TestIntensityMonotonic(t *testing.T) {
	sizes := []uint64{0, 1, 10, 500, 999, 1000}
	for _, scale := range []Scale{ScaleLinear, ScaleLog} {
		last := -1.0
		for _, size := range sizes {
			got := Intensity(size, 1000, scale)
			if got < last {
				t.Errorf("%s: intensity fell from %f to %f at size %d", scale, last, got, size)
			}
			if got < 0 || got > 1 {
				t.Errorf("%s: intensity %f out of range at size %d", scale, got, size)
			}
			last = got
		}
	}
}

func TestIntensityStable(t *testing.T) {
	first := Intensity(123, 100000, ScaleLog)
	second := Intensity(123, 100000, ScaleLog)
	if first != second {
		t.Errorf("same inputs must give the same intensity: %f vs %f", first, second)
	}
}

func TestLogScaleSpreadsSmallSizes(t *testing.T) {
	linear := Intensity(1000, 1_000_000_000, ScaleLinear)
	logged := Intensity(1000, 1_000_000_000, ScaleLog)
	if logged <= linear {
		t.Errorf("log scaling should lift small entries: log %f vs linear %f", logged, linear)
	}
}

func TestPaletteHex(t *testing.T) {
	low := dirPalette.Hex(0)
	high := dirPalette.Hex(1)
	for _, hex := range []string{low, high} {
		if len(hex) != 7 || !strings.HasPrefix(hex, "#") {
			t.Errorf("expected #rrggbb, got %q", hex)
		}
	}
	if low == high {
		t.Error("intensity extremes should differ")
	}
	if dirPalette.Hex(-5) != low || dirPalette.Hex(7) != high {
		t.Error("intensity should clamp to [0,1]")
	}
}

func TestHeatColorByKind(t *testing.T) {
	dir := &domain.Node{Kind: domain.KindDir}
	file := &domain.Node{Kind: domain.KindFile}
	if HeatColor(dir, 0.5) == HeatColor(file, 0.5) {
		t.Error("directories and files should use distinct palettes")
	}
}

func TestParseScale(t *testing.T) {
	if scale, ok := ParseScale("linear"); !ok || scale != ScaleLinear {
		t.Errorf("expected linear, got %v %v", scale, ok)
	}
	if _, ok := ParseScale("cubic"); ok {
		t.Error("unknown scale should not parse")
	}
}
