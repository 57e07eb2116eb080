package fractal

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Tier is the numeric precision of one evaluation frame. Every EncodedFloat
// in a Uniforms payload uses the same tier.
type Tier uint8

const (
	// Single narrows every value to float32.
	Single Tier = iota
	// Double splits every float64 into two 32 bit words without loss.
	Double
)

func (t Tier) String() string {
	switch t {
	case Single:
		return "single"
	case Double:
		return "double"
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// Slot indices tell the evaluator which role a transmitted value plays. The
// evaluator hard-codes the same table; renumbering any of them breaks it.
const (
	InitialZRealIndex uint32 = 0
	InitialZImagIndex uint32 = 1
	CRealIndex        uint32 = 2
	CImagIndex        uint32 = 3
	PRealIndex        uint32 = 4
	PImagIndex        uint32 = 5

	// PixelXIndex and PixelYIndex are shared by every complex parameter.
	PixelXIndex uint32 = 6
	PixelYIndex uint32 = 7

	// SlotCount is the number of distinct slot indices.
	SlotCount = 8
)

// EncodedFloat is the wire form of one float64.
//
// In the Double tier word 0 holds the least significant 32 bits of the
// IEEE-754 bit pattern and word 1 the most significant 32 bits; the evaluator
// rebuilds the value as uint64(w[1])<<32 | uint64(w[0]) and bit-casts it.
// In the Single tier word 0 holds the bits of float32(v) and word 1 is zero.
type EncodedFloat [2]uint32

// EncodedFloat2 is the wire form of a 2D vector: x low, x high, y low, y high.
type EncodedFloat2 [4]uint32

// EncodeSingle narrows v to float32 with a plain conversion.
func EncodeSingle(v float64) float32 {
	return float32(v)
}

// EncodeDouble splits the bit pattern of v into its low and high halves.
func EncodeDouble(v float64) (lo, hi uint32) {
	bits := math.Float64bits(v)
	return uint32(bits), uint32(bits >> 32)
}

// MergeDouble is the inverse of EncodeDouble.
func MergeDouble(lo, hi uint32) float64 {
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo))
}

// EncodeFloat encodes v for tier t.
func EncodeFloat(v float64, t Tier) EncodedFloat {
	if t == Double {
		lo, hi := EncodeDouble(v)
		return EncodedFloat{lo, hi}
	}
	return EncodedFloat{math.Float32bits(EncodeSingle(v)), 0}
}

// Decode reverses EncodeFloat the way the evaluator does.
func (e EncodedFloat) Decode(t Tier) float64 {
	if t == Double {
		return MergeDouble(e[0], e[1])
	}
	return float64(math.Float32frombits(e[0]))
}

// EncodeFloat2 encodes each axis of v independently.
func EncodeFloat2(v mgl64.Vec2, t Tier) EncodedFloat2 {
	x := EncodeFloat(v[0], t)
	y := EncodeFloat(v[1], t)
	return EncodedFloat2{x[0], x[1], y[0], y[1]}
}

func (e EncodedFloat2) X() EncodedFloat { return EncodedFloat{e[0], e[1]} }
func (e EncodedFloat2) Y() EncodedFloat { return EncodedFloat{e[2], e[3]} }

// Decode reverses EncodeFloat2.
func (e EncodedFloat2) Decode(t Tier) mgl64.Vec2 {
	return mgl64.Vec2{e.X().Decode(t), e.Y().Decode(t)}
}

// EncodedComplexParameter is a ComplexParameter ready for the evaluator.
// Pixel-bound components carry a zero payload and a pixel index.
type EncodedComplexParameter struct {
	RealValue EncodedFloat `uniform:"real_value"`
	RealIndex uint32       `uniform:"real_index"`
	ImagValue EncodedFloat `uniform:"imag_value"`
	ImagIndex uint32       `uniform:"imag_index"`
}

// Uniforms is the evaluator input for one frame. Field order is the
// evaluator's layout.
type Uniforms struct {
	IterationCount uint32                  `uniform:"iteration_count"`
	Scale          EncodedFloat            `uniform:"scale"`
	Offset         EncodedFloat2           `uniform:"offset"`
	InitialZ       EncodedComplexParameter `uniform:"initial_z"`
	C              EncodedComplexParameter `uniform:"c"`
	P              EncodedComplexParameter `uniform:"p"`
	EscapeRadius   EncodedFloat            `uniform:"escape_radius"`

	// Tier tells the evaluator how to decode every EncodedFloat above.
	Tier Tier `uniform:"-"`
}

func encodeParameter(p Parameter, slot uint32, t Tier) (EncodedFloat, uint32) {
	switch p.Kind {
	case PixelX:
		return EncodeFloat(0, t), PixelXIndex
	case PixelY:
		return EncodeFloat(0, t), PixelYIndex
	default:
		return EncodeFloat(p.Value, t), slot
	}
}

// EncodeComplexParameter encodes c using realSlot and imagSlot for
// constant components.
func EncodeComplexParameter(c ComplexParameter, realSlot, imagSlot uint32, t Tier) EncodedComplexParameter {
	var e EncodedComplexParameter
	e.RealValue, e.RealIndex = encodeParameter(c.Real, realSlot, t)
	e.ImagValue, e.ImagIndex = encodeParameter(c.Imaginary, imagSlot, t)
	return e
}

// Encode builds the evaluator input for s. It has no side effects.
func Encode(s State, t Tier) Uniforms {
	return Uniforms{
		IterationCount: s.IterationCount,
		Scale:          EncodeFloat(s.Scale, t),
		Offset:         EncodeFloat2(s.Offset, t),
		InitialZ:       EncodeComplexParameter(s.InitialZ, InitialZRealIndex, InitialZImagIndex, t),
		C:              EncodeComplexParameter(s.C, CRealIndex, CImagIndex, t),
		P:              EncodeComplexParameter(s.P, PRealIndex, PImagIndex, t),
		EscapeRadius:   EncodeFloat(s.EscapeRadius, t),
		Tier:           t,
	}
}

// Slots resolves the constant slots of u. Entries for the pixel indices are
// left at zero for the caller to fill per pixel.
func (u Uniforms) Slots() [SlotCount]float64 {
	var slots [SlotCount]float64
	for _, c := range [...]EncodedComplexParameter{u.InitialZ, u.C, u.P} {
		if c.RealIndex < PixelXIndex {
			slots[c.RealIndex] = c.RealValue.Decode(u.Tier)
		}
		if c.ImagIndex < PixelXIndex {
			slots[c.ImagIndex] = c.ImagValue.Decode(u.Tier)
		}
	}
	return slots
}

// UniformCache reports whether the encoded uniforms changed since the last
// call, so unchanged frames skip the upload. Encoded words are compared, not
// States, so a NaN field does not count as a change every frame.
type UniformCache struct {
	valid    bool
	uniforms Uniforms
}

// Update returns the uniforms for s and whether they differ from the
// previous call.
func (c *UniformCache) Update(s State, t Tier) (Uniforms, bool) {
	u := Encode(s, t)
	if c.valid && u == c.uniforms {
		return c.uniforms, false
	}

	c.uniforms = u
	c.valid = true
	Logger().Debug("encoded uniforms",
		"tier", t,
		"scale", s.Scale,
		"offset", s.Offset,
		"iterations", s.IterationCount,
	)
	return c.uniforms, true
}

// Invalidate forces the next Update to report a change.
func (c *UniformCache) Invalidate() {
	c.valid = false
}
