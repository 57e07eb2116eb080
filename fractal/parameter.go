package fractal

import "fmt"

// ParameterKind selects where a Parameter gets its value from.
type ParameterKind uint8

const (
	// Constant reads Parameter.Value.
	Constant ParameterKind = iota
	// PixelX substitutes the world-space x coordinate of the pixel being evaluated.
	PixelX
	// PixelY substitutes the world-space y coordinate of the pixel being evaluated.
	PixelY
)

// ParameterKinds lists every kind in display order.
var ParameterKinds = [...]ParameterKind{Constant, PixelX, PixelY}

func (k ParameterKind) String() string {
	switch k {
	case Constant:
		return "Constant"
	case PixelX:
		return "X coordinate"
	case PixelY:
		return "Y coordinate"
	}
	return fmt.Sprintf("ParameterKind(%d)", uint8(k))
}

// Parameter describes how one real scalar is obtained at evaluation time.
// Value is only meaningful for Constant and is kept at zero otherwise, so
// that == is structural equality.
type Parameter struct {
	Kind  ParameterKind
	Value float64
}

// Value returns a constant parameter.
func Value(v float64) Parameter {
	return Parameter{Kind: Constant, Value: v}
}

var (
	X = Parameter{Kind: PixelX}
	Y = Parameter{Kind: PixelY}
)

// WithKind returns p switched to kind k. Switching to Constant keeps the
// current value if p is already constant and starts from zero otherwise.
func (p Parameter) WithKind(k ParameterKind) Parameter {
	if k == p.Kind {
		return p
	}
	return Parameter{Kind: k}
}

func (p Parameter) String() string {
	if p.Kind == Constant {
		return fmt.Sprintf("%g", p.Value)
	}
	return p.Kind.String()
}

// ComplexParameter is a complex quantity whose components are bound
// independently. A pixel-bound real part with a constant imaginary part is
// valid.
type ComplexParameter struct {
	Real      Parameter
	Imaginary Parameter
}

// Complex returns a ComplexParameter with both components constant.
func Complex(re, im float64) ComplexParameter {
	return ComplexParameter{Real: Value(re), Imaginary: Value(im)}
}

// PixelPosition binds the real part to x and the imaginary part to y.
var PixelPosition = ComplexParameter{Real: X, Imaginary: Y}

func (c ComplexParameter) String() string {
	return fmt.Sprintf("(%v, %v)", c.Real, c.Imaginary)
}
