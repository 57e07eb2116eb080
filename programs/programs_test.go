package programs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stewi1014/fractality/fractal"
)

func TestShadersDefineDoublePrecision(t *testing.T) {
	v, f := Fractal.Shaders(fractal.Single)
	if v != Fractal.VertexShader || f != Fractal.FragmentShader {
		t.Error("Shaders(Single) modified the sources")
	}
	if strings.Contains(f, "#define DOUBLE_PRECISION\n") {
		t.Error("single precision fragment shader defines DOUBLE_PRECISION")
	}

	_, f = Fractal.Shaders(fractal.Double)
	lines := strings.SplitN(f, "\n", 3)
	if !strings.HasPrefix(lines[0], "#version") {
		t.Errorf("first line = %q, want #version", lines[0])
	}
	if lines[1] != "#define DOUBLE_PRECISION" {
		t.Errorf("second line = %q, want the define", lines[1])
	}
}

func TestDefine(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"void main() {}", "#define X\nvoid main() {}"},
		{"#version 460 core\nvoid main() {}", "#version 460 core\n#define X\nvoid main() {}"},
		{"#version 460 core", "#version 460 core\n#define X\n"},
	}
	for _, tt := range tests {
		if got := define(tt.source, "X"); got != tt.want {
			t.Errorf("define(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestFragmentShaderSlotTable(t *testing.T) {
	for _, want := range []string{
		"#define PIXEL_X_INDEX 6u",
		"#define PIXEL_Y_INDEX 7u",
		"#define SLOT_COUNT 8",
	} {
		if !strings.Contains(Fractal.FragmentShader, want) {
			t.Errorf("fragment shader lacks %q", want)
		}
	}
	if fractal.PixelXIndex != 6 || fractal.PixelYIndex != 7 || fractal.SlotCount != 8 {
		t.Error("slot table out of sync with the fragment shader")
	}
}

func TestPresets(t *testing.T) {
	if NumPresets() == 0 {
		t.Fatal("no presets registered")
	}
	if GetPreset(0).Name != "mandelbrot" {
		t.Errorf("first preset = %q, want mandelbrot", GetPreset(0).Name)
	}
	if GetPreset(0).State != fractal.DefaultState() {
		t.Error("mandelbrot preset differs from the default state")
	}

	p, err := PresetByName("julia")
	if err != nil {
		t.Fatal(err)
	}
	if p.State.InitialZ != fractal.PixelPosition || p.State.C != fractal.Complex(-0.835, 0.2321) {
		t.Errorf("julia preset = %+v", p.State)
	}

	if _, err := PresetByName("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("PresetByName(nope) error = %v, want ErrUnknownPreset", err)
	}
	if err := NewPreset(Preset{Name: "julia"}); err == nil {
		t.Error("NewPreset accepted a duplicate name")
	}

	names := make(map[string]bool)
	for i := 0; i < NumPresets(); i++ {
		p := GetPreset(i)
		if names[p.Name] {
			t.Errorf("preset %q registered twice", p.Name)
		}
		names[p.Name] = true
		if p.State.Scale <= 0 || p.State.IterationCount == 0 {
			t.Errorf("preset %q has an unusable view: %+v", p.Name, p.State)
		}
	}
}
