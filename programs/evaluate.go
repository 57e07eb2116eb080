package programs

import (
	"math"
	"math/cmplx"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractality/fractal"
)

// PixelFunc colours the pixel at a normalized position.
type PixelFunc func(uniforms fractal.Uniforms, pos mgl64.Vec2) mgl32.Vec3

// Evaluate runs the escape-time iteration for the pixel at normalized
// position pos, resolving parameters through the slot table exactly like the
// fragment shader. Arithmetic is float64 in both tiers; the Single tier only
// loses precision in its inputs.
func Evaluate(u fractal.Uniforms, pos mgl64.Vec2) (iterations uint32, escaped bool) {
	world := pos.Mul(u.Scale.Decode(u.Tier)).Add(u.Offset.Decode(u.Tier))

	slots := u.Slots()
	slots[fractal.PixelXIndex] = world[0]
	slots[fractal.PixelYIndex] = world[1]

	resolve := func(e fractal.EncodedComplexParameter) complex128 {
		return complex(slots[e.RealIndex%fractal.SlotCount], slots[e.ImagIndex%fractal.SlotCount])
	}
	z := resolve(u.InitialZ)
	c := resolve(u.C)
	p := resolve(u.P)

	radius := u.EscapeRadius.Decode(u.Tier)
	radius2 := radius * radius

	for i := uint32(0); i < u.IterationCount; i++ {
		if real(z)*real(z)+imag(z)*imag(z) > radius2 {
			return i, true
		}
		z = pow(z, p) + c
	}
	return u.IterationCount, false
}

func pow(z, e complex128) complex128 {
	n := real(e)
	if imag(e) != 0 || n != math.Floor(n) || math.Abs(n) > 64 {
		return cmplx.Pow(z, e)
	}

	r := complex(1, 0)
	b := z
	for k := int(math.Abs(n)); k > 0; k >>= 1 {
		if k&1 == 1 {
			r *= b
		}
		b *= b
	}
	if n < 0 {
		return 1 / r
	}
	return r
}

// Palette maps the escape fraction t in [0, 1) to a colour.
func Palette(t float64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(9 * (1 - t) * t * t * t),
		float32(15 * (1 - t) * (1 - t) * t * t),
		float32(8.5 * (1 - t) * (1 - t) * (1 - t) * t),
	}
}

// Colour is the PixelFunc matching the fragment shader.
func Colour(u fractal.Uniforms, pos mgl64.Vec2) mgl32.Vec3 {
	iterations, escaped := Evaluate(u, pos)
	if !escaped {
		return NullColour
	}
	return Palette(float64(iterations) / float64(u.IterationCount))
}
