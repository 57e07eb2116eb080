package fractal

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var roundTripValues = []float64{
	0,
	math.Copysign(0, -1),
	1,
	-1,
	0.1,
	-2.5e-300,
	math.SmallestNonzeroFloat64,
	-math.SmallestNonzeroFloat64,
	0x1p-1030, // subnormal
	math.MaxFloat64,
	-math.MaxFloat64,
	math.Inf(1),
	math.Inf(-1),
	math.Pi,
}

func TestEncodeDoubleRoundTrip(t *testing.T) {
	for _, v := range roundTripValues {
		lo, hi := EncodeDouble(v)
		got := MergeDouble(lo, hi)
		if math.Float64bits(got) != math.Float64bits(v) {
			t.Errorf("MergeDouble(EncodeDouble(%v)) = %v (%#x), want %#x",
				v, got, math.Float64bits(got), math.Float64bits(v))
		}
	}
}

func TestEncodeDoubleNaNPayload(t *testing.T) {
	for _, bits := range []uint64{
		0x7ff8000000000000,
		0x7ff0000000000001, // signalling
		0xfff8dead0000beef,
		0x7fffffffffffffff,
	} {
		v := math.Float64frombits(bits)
		lo, hi := EncodeDouble(v)
		got := math.Float64bits(MergeDouble(lo, hi))
		if got != bits {
			t.Errorf("NaN %#x round tripped to %#x", bits, got)
		}
	}
}

func TestEncodeDoubleWordOrder(t *testing.T) {
	lo, hi := EncodeDouble(math.Float64frombits(0x0123456789abcdef))
	if lo != 0x89abcdef || hi != 0x01234567 {
		t.Errorf("EncodeDouble() = (%#x, %#x), want (0x89abcdef, 0x1234567)", lo, hi)
	}

	e := EncodeFloat(1, Double)
	if e != (EncodedFloat{0, 0x3ff00000}) {
		t.Errorf("EncodeFloat(1, Double) = %#x, want [0 0x3ff00000]", e)
	}
}

func TestEncodeSingle(t *testing.T) {
	for _, v := range append(roundTripValues, 1e300, 16777217, 0.1+0.2) {
		want := float32(v)
		if got := EncodeSingle(v); math.Float32bits(got) != math.Float32bits(want) {
			t.Errorf("EncodeSingle(%v) = %v, want %v", v, got, want)
		}

		e := EncodeFloat(v, Single)
		if e[0] != math.Float32bits(want) || e[1] != 0 {
			t.Errorf("EncodeFloat(%v, Single) = %#x, want [%#x 0]", v, e, math.Float32bits(want))
		}
		if got := e.Decode(Single); got != float64(want) && !(math.IsNaN(got) && math.IsNaN(float64(want))) {
			t.Errorf("Decode(Single) = %v, want %v", got, float64(want))
		}
	}
}

func TestEncodeFloat2(t *testing.T) {
	v := mgl64.Vec2{-0.743643887037151, 0.131825904205330}

	e := EncodeFloat2(v, Double)
	xlo, xhi := EncodeDouble(v[0])
	ylo, yhi := EncodeDouble(v[1])
	if want := (EncodedFloat2{xlo, xhi, ylo, yhi}); e != want {
		t.Errorf("EncodeFloat2(Double) = %#x, want %#x", e, want)
	}
	if got := e.Decode(Double); got != v {
		t.Errorf("Decode(Double) = %v, want %v", got, v)
	}

	s := EncodeFloat2(v, Single)
	if s.X() != EncodeFloat(v[0], Single) || s.Y() != EncodeFloat(v[1], Single) {
		t.Errorf("EncodeFloat2(Single) = %#x, axes encoded differently", s)
	}
}

func TestSlotIndices(t *testing.T) {
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"InitialZRealIndex", InitialZRealIndex, 0},
		{"InitialZImagIndex", InitialZImagIndex, 1},
		{"CRealIndex", CRealIndex, 2},
		{"CImagIndex", CImagIndex, 3},
		{"PRealIndex", PRealIndex, 4},
		{"PImagIndex", PImagIndex, 5},
		{"PixelXIndex", PixelXIndex, 6},
		{"PixelYIndex", PixelYIndex, 7},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if SlotCount != 8 {
		t.Errorf("SlotCount = %d, want 8", SlotCount)
	}
}

func TestEncodeComplexParameter(t *testing.T) {
	tests := []struct {
		name     string
		param    ComplexParameter
		wantReal uint32
		wantImag uint32
		wantRe   float64
		wantIm   float64
	}{
		{"constants", Complex(0.25, -0.5), CRealIndex, CImagIndex, 0.25, -0.5},
		{"pixel", PixelPosition, PixelXIndex, PixelYIndex, 0, 0},
		{"swapped", ComplexParameter{Real: Y, Imaginary: X}, PixelYIndex, PixelXIndex, 0, 0},
		{"mixed", ComplexParameter{Real: X, Imaginary: Value(0.3)}, PixelXIndex, CImagIndex, 0, 0.3},
	}

	for _, tier := range []Tier{Single, Double} {
		for _, tt := range tests {
			e := EncodeComplexParameter(tt.param, CRealIndex, CImagIndex, tier)
			if e.RealIndex != tt.wantReal || e.ImagIndex != tt.wantImag {
				t.Errorf("%s/%v: indices = (%d, %d), want (%d, %d)",
					tt.name, tier, e.RealIndex, e.ImagIndex, tt.wantReal, tt.wantImag)
			}
			if e.RealValue != EncodeFloat(tt.wantRe, tier) || e.ImagValue != EncodeFloat(tt.wantIm, tier) {
				t.Errorf("%s/%v: values = (%#x, %#x)", tt.name, tier, e.RealValue, e.ImagValue)
			}
		}
	}
}

func TestEncodeState(t *testing.T) {
	s := DefaultState()
	s.Offset = mgl64.Vec2{-0.75, 0.1}
	s.InitialZ = ComplexParameter{Real: Value(0.5), Imaginary: Y}

	u := Encode(s, Double)
	if u.Tier != Double {
		t.Errorf("Tier = %v, want double", u.Tier)
	}
	if u.IterationCount != s.IterationCount {
		t.Errorf("IterationCount = %d, want %d", u.IterationCount, s.IterationCount)
	}
	if got := u.Scale.Decode(Double); got != s.Scale {
		t.Errorf("Scale = %v, want %v", got, s.Scale)
	}
	if got := u.EscapeRadius.Decode(Double); got != s.EscapeRadius {
		t.Errorf("EscapeRadius = %v, want %v", got, s.EscapeRadius)
	}
	if got := u.Offset.Decode(Double); got != s.Offset {
		t.Errorf("Offset = %v, want %v", got, s.Offset)
	}
	if u.InitialZ.RealIndex != InitialZRealIndex || u.InitialZ.ImagIndex != PixelYIndex {
		t.Errorf("InitialZ indices = (%d, %d)", u.InitialZ.RealIndex, u.InitialZ.ImagIndex)
	}
	if u.C.RealIndex != PixelXIndex || u.C.ImagIndex != PixelYIndex {
		t.Errorf("C indices = (%d, %d)", u.C.RealIndex, u.C.ImagIndex)
	}
	if u.P.RealIndex != PRealIndex || u.P.ImagIndex != PImagIndex {
		t.Errorf("P indices = (%d, %d)", u.P.RealIndex, u.P.ImagIndex)
	}

	slots := u.Slots()
	want := [SlotCount]float64{0.5, 0, 0, 0, 2, 0, 0, 0}
	if slots != want {
		t.Errorf("Slots() = %v, want %v", slots, want)
	}
}

func TestEncodeIdempotent(t *testing.T) {
	s := DefaultState()
	s.Scale = 1.0 / 3
	s.Offset = mgl64.Vec2{math.Nextafter(-0.5, 0), 1e-17}
	s.C = ComplexParameter{Real: Value(math.NaN()), Imaginary: X}

	for _, tier := range []Tier{Single, Double} {
		a, b := Encode(s, tier), Encode(s, tier)
		if a != b {
			t.Errorf("Encode(%v) not deterministic: %+v != %+v", tier, a, b)
		}
	}
}

func TestUniformCache(t *testing.T) {
	var c UniformCache
	s := DefaultState()

	if _, changed := c.Update(s, Single); !changed {
		t.Fatal("first Update reported no change")
	}
	if _, changed := c.Update(s, Single); changed {
		t.Error("Update with same state reported a change")
	}
	if u, changed := c.Update(s, Double); !changed || u.Tier != Double {
		t.Errorf("Update(Double) = (%v, %v), want re-encode in double", u.Tier, changed)
	}

	s.C.Imaginary = Value(0.3)
	u, changed := c.Update(s, Double)
	if !changed {
		t.Error("Update after edit reported no change")
	}
	if u != Encode(s, Double) {
		t.Error("cached uniforms differ from Encode")
	}

	c.Invalidate()
	if _, changed := c.Update(s, Double); !changed {
		t.Error("Update after Invalidate reported no change")
	}
}

func TestUniformCacheNaN(t *testing.T) {
	var c UniformCache
	s := DefaultState()
	s.EscapeRadius = math.NaN()

	for _, tier := range []Tier{Single, Double} {
		c.Update(s, tier)
		if _, changed := c.Update(s, tier); changed {
			t.Errorf("Update(%v) with an unchanged NaN field reported a change", tier)
		}
	}
}
