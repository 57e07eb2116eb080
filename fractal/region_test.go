package fractal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRegionView(t *testing.T) {
	r := Region{Xmin: -2, Xmax: 1, Ymin: -1, Ymax: 1}
	tests := []struct {
		aspect    float64
		wantScale float64
	}{
		{1, 1.5},
		{2, 2},     // height limited: 1 * 2
		{1.5, 1.5}, // both fit exactly
		{0.5, 3},   // portrait: width 1.5 / 0.5
		{0, 1.5},   // invalid aspect treated as square
	}
	for _, tt := range tests {
		scale, offset := r.View(tt.aspect)
		if scale != tt.wantScale {
			t.Errorf("View(%v) scale = %v, want %v", tt.aspect, scale, tt.wantScale)
		}
		if offset != (mgl64.Vec2{-0.5, 0}) {
			t.Errorf("View(%v) offset = %v, want (-0.5, 0)", tt.aspect, offset)
		}
	}
}

func TestBookmarkByName(t *testing.T) {
	b, ok := BookmarkByName("Seahorse Valley")
	if !ok || b.Region.Xmin != -0.8 {
		t.Errorf("BookmarkByName() = %+v, %v", b, ok)
	}
	if _, ok := BookmarkByName("nowhere"); ok {
		t.Error("BookmarkByName(nowhere) found a bookmark")
	}
}
