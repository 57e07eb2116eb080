package programs

import (
	"errors"
	"fmt"

	"github.com/stewi1014/fractality/fractal"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named starting configuration.
type Preset struct {
	Name  string
	State fractal.State
}

var presets []Preset

func NumPresets() int {
	return len(presets)
}

func GetPreset(i int) Preset {
	return presets[i]
}

func NewPreset(p Preset) error {
	if _, err := PresetByName(p.Name); err == nil {
		return fmt.Errorf("preset %q already exists", p.Name)
	}
	presets = append(presets, p)
	return nil
}

func PresetByName(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// julia is the Julia set of z^power + c.
func julia(power, re, im float64) fractal.State {
	s := fractal.DefaultState()
	s.InitialZ = fractal.PixelPosition
	s.C = fractal.Complex(re, im)
	s.P = fractal.Complex(power, 0)
	return s
}

func multibrot(power float64) fractal.State {
	s := fractal.DefaultState()
	s.P = fractal.Complex(power, 0)
	return s
}

func init() {
	for _, p := range []Preset{
		{Name: "mandelbrot", State: fractal.DefaultState()},
		{Name: "multibrot3", State: multibrot(3)},
		{Name: "julia", State: julia(2, -0.835, 0.2321)},
		{Name: "julia3", State: julia(3, 0.08394, 0.77007)},
		{Name: "julia6", State: julia(6, -0.50517, -0.35667)},
		{Name: "julia8", State: julia(8, -1.08475, 0)},
	} {
		if err := NewPreset(p); err != nil {
			panic(err)
		}
	}
}
