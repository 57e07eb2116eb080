package programs

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/fractality/fractal"
)

var (
	NullColour = mgl32.Vec3{0.1, 0.1, 0.1}
)

//go:embed shaders/fractal.vert
var defaultVertexShader string

//go:embed shaders/fractal.frag
var defaultFragmentShader string

// Program is the GPU evaluator and its CPU counterpart.
type Program struct {
	Name           string
	VertexShader   string
	FragmentShader string
	GetPixel       PixelFunc
}

// Fractal evaluates z -> z^p + c with per-axis parameter bindings.
var Fractal = Program{
	Name:           "fractal",
	VertexShader:   defaultVertexShader,
	FragmentShader: defaultFragmentShader,
	GetPixel:       Colour,
}

// DoublePrecisionDefine switches the fragment shader to the two-word
// float64 encoding.
const DoublePrecisionDefine = "DOUBLE_PRECISION"

// Shaders returns the shader sources for tier t. The Double tier defines
// DOUBLE_PRECISION directly after the #version line.
func (p Program) Shaders(t fractal.Tier) (vertex, fragment string) {
	if t != fractal.Double {
		return p.VertexShader, p.FragmentShader
	}
	return p.VertexShader, define(p.FragmentShader, DoublePrecisionDefine)
}

func define(source, name string) string {
	line := "#define " + name + "\n"
	if !strings.HasPrefix(source, "#version") {
		return line + source
	}

	end := strings.IndexByte(source, '\n')
	if end < 0 {
		return source + "\n" + line
	}
	return source[:end+1] + line + source[end+1:]
}

var ErrNoCPUImplementation = errors.New("fractal does not have a CPU implementation")
