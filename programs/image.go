package programs

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractality/fractal"
)

// Image is a fractal sampled at normalized positions, the longer side
// spanning [-1, 1].
type Image interface {
	GetPixel(mgl64.Vec2) mgl32.Vec3
	Bounds() image.Rectangle
}

// GetImage returns p evaluated with uniforms over a width x height pixel
// grid centred on the origin.
func (p *Program) GetImage(uniforms fractal.Uniforms, width, height int) (Image, error) {
	if p.GetPixel == nil {
		return nil, ErrNoCPUImplementation
	}

	return &programImage{
		uniforms: uniforms,
		bounds: image.Rect(
			-width/2,
			-height/2,
			width-width/2,
			height-height/2,
		),
		pixelFunc: p.GetPixel,
	}, nil
}

type programImage struct {
	uniforms  fractal.Uniforms
	bounds    image.Rectangle
	pixelFunc PixelFunc
}

func (i *programImage) GetPixel(pos mgl64.Vec2) mgl32.Vec3 {
	return i.pixelFunc(i.uniforms, pos)
}

func (i *programImage) Bounds() image.Rectangle {
	return i.bounds
}

func scaleFactor(r image.Rectangle) float64 {
	return float64(max(r.Dx(), r.Dy())) / 2
}

// AntiAlias9x samples 9 positions for each sampled position,
// returning the average colour.
//
// antialias is the number of pixels apart the sampled locations are.
func AntiAlias9x(img Image, antialias float64) Image {
	if antialias == 0 {
		fractal.Logger().Warn("image uselessly antialiased with distance of 0")
	}

	return &antialias9xImage{
		Image:  img,
		offset: antialias / scaleFactor(img.Bounds()),
	}
}

type antialias9xImage struct {
	Image
	offset float64
}

func (i *antialias9xImage) GetPixel(pos mgl64.Vec2) mgl32.Vec3 {
	avg := mgl32.Vec3{}
	for _, dx := range [...]float64{-i.offset, 0, i.offset} {
		for _, dy := range [...]float64{-i.offset, 0, i.offset} {
			avg = avg.Add(i.Image.GetPixel(mgl64.Vec2{pos[0] + dx, pos[1] + dy}))
		}
	}
	return avg.Mul(1 / float32(9))
}

// ToImage adapts img to image.Image. Image rows grow downwards while
// normalized y grows upwards, so y is flipped.
func ToImage(img Image) image.Image {
	return &imageImage{
		Image:       img,
		scaleFactor: scaleFactor(img.Bounds()),
	}
}

type imageImage struct {
	Image
	scaleFactor float64
}

func (i *imageImage) At(x, y int) color.Color {
	c := i.GetPixel(mgl64.Vec2{
		float64(x) / i.scaleFactor,
		float64(-y) / i.scaleFactor,
	})

	return color.NRGBA{
		R: channel(c[0]),
		G: channel(c[1]),
		B: channel(c[2]),
		A: 0xff,
	}
}

func channel(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1) * 255)
}

func (i *imageImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (i *imageImage) Opaque() bool {
	return true
}

// WrapWithProgress replaces *img with a wrapper counting At calls and
// returns a function reporting the fraction of pixels read.
func WrapWithProgress(img *image.Image) func() float64 {
	p := &ProgressImage{
		Image: *img,
	}

	*img = p
	return p.Progress
}

type ProgressImage struct {
	image.Image
	count atomic.Int64
}

func (i *ProgressImage) At(x, y int) color.Color {
	i.count.Add(1)
	return i.Image.At(x, y)
}

func (i *ProgressImage) Progress() float64 {
	end := i.Bounds().Dx() * i.Bounds().Dy()
	if end == 0 {
		return 1
	}
	return float64(i.count.Load()) / float64(end)
}

func (i *ProgressImage) Opaque() bool {
	return true
}

// BufferImage returns a zero-based copy of img once Buffer has run.
func BufferImage(img image.Image) *BufferedImage {
	return &BufferedImage{
		Image:  img,
		height: img.Bounds().Dy(),
	}
}

type BufferedImage struct {
	image.Image
	height int
	buff   []color.Color
}

func (b *BufferedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Image.Bounds().Dx(), b.Image.Bounds().Dy())
}

func (b *BufferedImage) At(x, y int) color.Color {
	if b.buff == nil || !(image.Point{x, y}).In(b.Bounds()) {
		return color.NRGBA{}
	}
	return b.buff[x*b.height+y]
}

// Buffer renders the wrapped image in parallel column chunks. It stops early
// and returns ctx.Err() when ctx is cancelled.
func (b *BufferedImage) Buffer(ctx context.Context) error {
	b.buff = make([]color.Color, b.Image.Bounds().Dx()*b.Image.Bounds().Dy())

	min, max := b.Image.Bounds().Min, b.Image.Bounds().Max
	chunkSize := 50
	var wg sync.WaitGroup

	for chunkMin := min.X; chunkMin < max.X; chunkMin += chunkSize {
		chunkMax := chunkMin + chunkSize
		if chunkMax > max.X {
			chunkMax = max.X
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			i := (chunkMin - min.X) * b.height
			for x := chunkMin; x < chunkMax; x++ {
				if ctx.Err() != nil {
					return
				}

				for y := min.Y; y < max.Y; y++ {
					b.buff[i] = b.Image.At(x, y)
					i++
				}
			}
		}()
	}

	wg.Wait()

	return ctx.Err()
}

func (b *BufferedImage) Opaque() bool {
	return true
}
