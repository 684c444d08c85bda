// Package imaging wraps decoded images with explicit pixel modes and a
// close-once lifecycle, and provides the codec and validation helpers
// the extraction pipeline needs.
package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

// Pixel modes. They mirror the conventional single-letter names so
// diagnostic reports stay greppable across tooling.
const (
	ModeGray    = "L"
	ModeRGB     = "RGB"
	ModeRGBA    = "RGBA"
	ModeCMYK    = "CMYK"
	ModePalette = "P"
)

// Image is a decoded image with an explicit mode and an owner. Whoever
// holds the only live reference must Close it exactly once; intermediate
// images created during conversion are closed by their creator.
type Image struct {
	src  image.Image
	mode string

	// CloseHook runs on first Close. Tests use it to verify release
	// discipline.
	CloseHook func()

	closed bool
}

// New wraps a standard image with a mode tag.
func New(src image.Image, mode string) *Image {
	return &Image{src: src, mode: mode}
}

// Width returns the pixel width.
func (im *Image) Width() int { return im.src.Bounds().Dx() }

// Height returns the pixel height.
func (im *Image) Height() int { return im.src.Bounds().Dy() }

// Mode returns the pixel mode tag.
func (im *Image) Mode() string { return im.mode }

// Dimensions returns the "WxH" form used throughout reports.
func (im *Image) Dimensions() string {
	return fmt.Sprintf("%dx%d", im.Width(), im.Height())
}

// Std returns the underlying standard-library image.
func (im *Image) Std() image.Image { return im.src }

// Close releases the image. Only the first call has effect.
func (im *Image) Close() {
	if im == nil || im.closed {
		return
	}
	im.closed = true
	im.src = nil
	if im.CloseHook != nil {
		im.CloseHook()
	}
}

// Closed reports whether Close has been called.
func (im *Image) Closed() bool { return im != nil && im.closed }

// Convert returns a new image in the target mode. The source is left
// open; the caller decides when to close each.
func (im *Image) Convert(mode string) (*Image, error) {
	if im.closed {
		return nil, fmt.Errorf("image is closed")
	}
	bounds := im.src.Bounds()
	switch mode {
	case ModeRGB:
		dst := image.NewNRGBA(bounds)
		draw.Draw(dst, bounds, im.src, bounds.Min, draw.Src)
		forceOpaque(dst)
		return New(dst, ModeRGB), nil
	case ModeRGBA:
		dst := image.NewNRGBA(bounds)
		draw.Draw(dst, bounds, im.src, bounds.Min, draw.Src)
		return New(dst, ModeRGBA), nil
	case ModeGray:
		dst := image.NewGray(bounds)
		draw.Draw(dst, bounds, im.src, bounds.Min, draw.Src)
		return New(dst, ModeGray), nil
	default:
		return nil, fmt.Errorf("unsupported target mode %q", mode)
	}
}

// Resize returns a new image scaled to the given size with a
// high-quality resampling filter. The source is left open.
func (im *Image) Resize(width, height int) *Image {
	dst := newLike(im.src, width, height)
	draw.CatmullRom.Scale(dst, dst.Bounds(), im.src, im.src.Bounds(), draw.Src, nil)
	return New(dst, im.mode)
}

// FromPixmap copies a pixel buffer into a standalone image of the given
// mode. The pixmap remains owned by the caller; the returned image has
// no reference to its samples.
func FromPixmap(p *pdf.Pixmap, mode string) (*Image, error) {
	if p == nil || p.Samples == nil {
		return nil, fmt.Errorf("pixmap has no samples")
	}
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid pixmap dimensions %dx%d", w, h)
	}

	channels := map[string]int{ModeGray: 1, ModeRGB: 3, ModeRGBA: 4, ModeCMYK: 4}[mode]
	if channels == 0 {
		return nil, fmt.Errorf("unsupported pixmap mode %q", mode)
	}
	if len(p.Samples) < w*h*channels {
		return nil, fmt.Errorf("truncated sample buffer: have %d bytes, want %d", len(p.Samples), w*h*channels)
	}

	rect := image.Rect(0, 0, w, h)
	switch mode {
	case ModeGray:
		dst := image.NewGray(rect)
		copy(dst.Pix, p.Samples[:w*h])
		return New(dst, ModeGray), nil
	case ModeCMYK:
		dst := image.NewCMYK(rect)
		copy(dst.Pix, p.Samples[:w*h*4])
		return New(dst, ModeCMYK), nil
	case ModeRGBA:
		dst := image.NewNRGBA(rect)
		copy(dst.Pix, p.Samples[:w*h*4])
		return New(dst, ModeRGBA), nil
	default: // RGB: expand 3-channel samples into opaque NRGBA
		dst := image.NewNRGBA(rect)
		for i := 0; i < w*h; i++ {
			s := p.Samples[i*3:]
			d := dst.Pix[i*4:]
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
		}
		return New(dst, ModeRGB), nil
	}
}

// newLike allocates a drawable image of the same family as src.
func newLike(src image.Image, width, height int) draw.Image {
	rect := image.Rect(0, 0, width, height)
	switch src.(type) {
	case *image.Gray:
		return image.NewGray(rect)
	case *image.CMYK:
		return image.NewCMYK(rect)
	default:
		return image.NewNRGBA(rect)
	}
}

// forceOpaque strips the alpha channel in place.
func forceOpaque(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

// modeOf maps a decoded standard image to its pixel mode tag.
func modeOf(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.Paletted:
		return ModePalette
	case *image.CMYK:
		return ModeCMYK
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		if isOpaque(img) {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeRGB
	}
}

func isOpaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
