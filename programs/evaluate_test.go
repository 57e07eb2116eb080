package programs

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractality/fractal"
)

func TestEvaluateMandelbrot(t *testing.T) {
	s := fractal.DefaultState()
	s.Scale = 1
	s.IterationCount = 100

	tests := []struct {
		name        string
		pos         mgl64.Vec2
		wantEscaped bool
	}{
		{"origin", mgl64.Vec2{0, 0}, false},
		{"main cardioid", mgl64.Vec2{-0.1, 0.1}, false},
		{"period two bulb", mgl64.Vec2{-1, 0}, false},
		{"outside", mgl64.Vec2{1, 1}, true},
		{"far", mgl64.Vec2{-0.9, 0.9}, true},
	}

	for _, tier := range []fractal.Tier{fractal.Single, fractal.Double} {
		u := fractal.Encode(s, tier)
		for _, tt := range tests {
			iterations, escaped := Evaluate(u, tt.pos)
			if escaped != tt.wantEscaped {
				t.Errorf("%v %s: escaped = %v after %d, want %v", tier, tt.name, escaped, iterations, tt.wantEscaped)
			}
			if !escaped && iterations != s.IterationCount {
				t.Errorf("%v %s: iterations = %d, want %d", tier, tt.name, iterations, s.IterationCount)
			}
		}
	}
}

func TestEvaluateEscapeCount(t *testing.T) {
	// c = 1: z goes 0, 1, 2, 5 and |5| > 4 on the fourth check.
	s := fractal.DefaultState()
	s.C = fractal.Complex(1, 0)
	s.IterationCount = 50

	iterations, escaped := Evaluate(fractal.Encode(s, fractal.Double), mgl64.Vec2{})
	if !escaped || iterations != 3 {
		t.Errorf("Evaluate() = (%d, %v), want (3, true)", iterations, escaped)
	}
}

func TestEvaluateUsesOffsetPrecision(t *testing.T) {
	// 1e-9 is below float32 resolution at 0.25.
	s := fractal.DefaultState()
	s.Scale = 1e-12
	s.Offset = mgl64.Vec2{0.25 + 1e-9, 0}
	s.C = fractal.ComplexParameter{Real: fractal.X, Imaginary: fractal.Value(0)}
	s.InitialZ = fractal.Complex(0, 0)

	u := fractal.Encode(s, fractal.Double)
	world := mgl64.Vec2{}.Mul(u.Scale.Decode(u.Tier)).Add(u.Offset.Decode(u.Tier))
	if world != s.Offset {
		t.Errorf("double tier world = %v, want %v", world, s.Offset)
	}

	single := fractal.Encode(s, fractal.Single)
	if got := single.Offset.Decode(fractal.Single)[0]; got != float64(float32(s.Offset[0])) {
		t.Errorf("single tier offset = %v, want float32 narrowing", got)
	}
}

func TestEvaluateMixedBinding(t *testing.T) {
	// c.re follows x and c.im is constant, so every row evaluates the same.
	s := fractal.DefaultState()
	s.Scale = 1
	s.C = fractal.ComplexParameter{Real: fractal.X, Imaginary: fractal.Value(0.3)}
	u := fractal.Encode(s, fractal.Double)

	for _, x := range []float64{-1.5, -0.5, 0, 0.3} {
		a, _ := Evaluate(u, mgl64.Vec2{x, -0.9})
		b, _ := Evaluate(u, mgl64.Vec2{x, 0.7})
		if a != b {
			t.Errorf("x=%v: iterations differ between rows: %d != %d", x, a, b)
		}
	}
}

func TestEvaluateJuliaUsesPixelForZ(t *testing.T) {
	p, err := PresetByName("julia")
	if err != nil {
		t.Fatal(err)
	}
	u := fractal.Encode(p.State, fractal.Double)

	if _, escaped := Evaluate(u, mgl64.Vec2{0.99, 0.99}); !escaped {
		t.Error("corner of julia set did not escape")
	}
}

func TestPow(t *testing.T) {
	z := complex(0.3, -1.2)
	tests := []complex128{
		complex(0, 0),
		complex(1, 0),
		complex(2, 0),
		complex(3, 0),
		complex(8, 0),
		complex(-2, 0),
		complex(2.5, 0),
		complex(2, 0.1),
	}
	for _, e := range tests {
		got := pow(z, e)
		want := cmplx.Pow(z, e)
		if cmplx.Abs(got-want) > 1e-12*math.Max(1, cmplx.Abs(want)) {
			t.Errorf("pow(%v, %v) = %v, want %v", z, e, got, want)
		}
	}
}

func TestPalette(t *testing.T) {
	if got := Palette(0); got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Errorf("Palette(0) = %v, want black", got)
	}
	for _, tt := range []float64{0.1, 0.5, 0.9} {
		c := Palette(tt)
		for i, v := range c {
			if v < 0 || v > 1 {
				t.Errorf("Palette(%v)[%d] = %v, out of range", tt, i, v)
			}
		}
	}
}
