package fractal

import "github.com/go-gl/mathgl/mgl64"

// State is the user-editable fractal configuration. One State lives for the
// whole session; the ViewTransform writes Scale and Offset and the
// configuration window writes everything else.
type State struct {
	IterationCount uint32
	// Scale is the world-space half extent of the longer viewport side.
	Scale        float64
	EscapeRadius float64
	// Offset is the world-space centre of the view.
	Offset mgl64.Vec2

	InitialZ ComplexParameter
	C        ComplexParameter
	P        ComplexParameter

	UseDoublePrecision bool
}

const (
	DefaultIterationCount = 256
	DefaultScale          = 2.0
	DefaultEscapeRadius   = 4.0
)

// DefaultState is the classic Mandelbrot set: z starts at 0, c is the pixel
// and p is 2.
func DefaultState() State {
	return State{
		IterationCount: DefaultIterationCount,
		Scale:          DefaultScale,
		EscapeRadius:   DefaultEscapeRadius,
		InitialZ:       Complex(0, 0),
		C:              PixelPosition,
		P:              Complex(2, 0),
	}
}

// WithView returns s with the view of v, leaving every other field as is.
func (s State) WithView(v State) State {
	s.Scale = v.Scale
	s.Offset = v.Offset
	return s
}
