package programs

import (
	"context"
	"fmt"

	"github.com/stewi1014/fractality/fractal"
)

// RenderOptions describes an offscreen CPU render.
type RenderOptions struct {
	Width, Height int
	// Antialias is the distance in pixels between supersamples; zero disables it.
	Antialias float64
	// Progress, if set, receives a function reporting render progress in [0, 1].
	Progress func(func() float64)
}

// Render evaluates p with uniforms on the CPU, in parallel, into a buffered
// image ready for Export.
func Render(ctx context.Context, p Program, uniforms fractal.Uniforms, opts RenderOptions) (*BufferedImage, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid render size %vx%v", opts.Width, opts.Height)
	}

	img, err := p.GetImage(uniforms, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	if opts.Antialias > 0 {
		img = AntiAlias9x(img, opts.Antialias)
	}

	imageImage := ToImage(img)
	if opts.Progress != nil {
		opts.Progress(WrapWithProgress(&imageImage))
	}

	buff := BufferImage(imageImage)
	fractal.Logger().Debug("rendering on cpu",
		"width", opts.Width,
		"height", opts.Height,
		"tier", uniforms.Tier,
	)
	if err := buff.Buffer(ctx); err != nil {
		return nil, fmt.Errorf("rendering %vx%v: %w", opts.Width, opts.Height, err)
	}
	return buff, nil
}
