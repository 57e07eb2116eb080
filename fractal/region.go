package fractal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Region is an axis aligned world-space rectangle.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// View returns the scale and offset that fit r inside a viewport of the given
// aspect ratio (width / height). The whole region is always visible.
func (r Region) View(aspect float64) (scale float64, offset mgl64.Vec2) {
	offset = mgl64.Vec2{(r.Xmin + r.Xmax) / 2, (r.Ymin + r.Ymax) / 2}
	halfW := math.Abs(r.Xmax-r.Xmin) / 2
	halfH := math.Abs(r.Ymax-r.Ymin) / 2

	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}

	// Scale spans the longer viewport side.
	if aspect >= 1 {
		scale = math.Max(halfW, halfH*aspect)
	} else {
		scale = math.Max(halfH, halfW/aspect)
	}
	return scale, offset
}

// Bookmark is a named region worth visiting.
type Bookmark struct {
	Name   string
	Region Region
}

// Bookmarks are classic landmarks of the Mandelbrot set.
var Bookmarks = []Bookmark{
	{"Seahorse Valley", Region{Xmin: -0.8, Xmax: -0.7, Ymin: 0.05, Ymax: 0.15}},
	{"Elephant Valley", Region{Xmin: 0.25, Xmax: 0.35, Ymin: -0.05, Ymax: 0.05}},
	{"Spiral Minibrot", Region{Xmin: -0.7435, Xmax: -0.7420, Ymin: 0.1310, Ymax: 0.1325}},
	{"Triple Spiral", Region{Xmin: -0.7480, Xmax: -0.7450, Ymin: 0.0950, Ymax: 0.0980}},
	{"Valley of the Dragon", Region{Xmin: -0.7400, Xmax: -0.7350, Ymin: 0.1800, Ymax: 0.1850}},
	{"Minibrot in a Mini-Spiral", Region{Xmin: -1.7390, Xmax: -1.7375, Ymin: -0.0235, Ymax: -0.0220}},
}

// BookmarkByName returns the bookmark called name.
func BookmarkByName(name string) (Bookmark, bool) {
	for _, b := range Bookmarks {
		if b.Name == name {
			return b, true
		}
	}
	return Bookmark{}, false
}
