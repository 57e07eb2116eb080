package fractal

// Extensions the evaluator needs to rebuild and compute with float64 values
// from the two-word encoding.
const (
	ExtensionShaderFP64  = "GL_ARB_gpu_shader_fp64"
	ExtensionShaderInt64 = "GL_ARB_gpu_shader_int64"
)

// DoublePrecisionSupported reports whether the extension list contains
// everything the Double tier requires.
func DoublePrecisionSupported(extensions []string) bool {
	var hasFP64, hasInt64 bool
	for _, e := range extensions {
		switch e {
		case ExtensionShaderFP64:
			hasFP64 = true
		case ExtensionShaderInt64:
			hasInt64 = true
		}
	}
	return hasFP64 && hasInt64
}

// PrecisionSelector holds the hardware capability, probed once, and picks
// the tier for each frame.
//
// The capability never changes after construction, so a PrecisionSelector
// may be read from any goroutine.
type PrecisionSelector struct {
	supported bool
}

// NewPrecisionSelector runs probe once and keeps its result.
func NewPrecisionSelector(probe func() bool) *PrecisionSelector {
	supported := probe != nil && probe()
	Logger().Info("probed double precision support", "supported", supported)
	return &PrecisionSelector{supported: supported}
}

// Supported reports whether the hardware can run the Double tier.
func (p *PrecisionSelector) Supported() bool {
	return p != nil && p.supported
}

// Tier returns Double only when it is both requested and supported. An
// unsupported request silently falls back to Single.
func (p *PrecisionSelector) Tier(requested bool) Tier {
	if requested && p.Supported() {
		return Double
	}
	return Single
}
