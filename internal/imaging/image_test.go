package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupipe/pdf-image-extractor/internal/pdf"
)

func TestCloseIsIdempotent(t *testing.T) {
	closes := 0
	im := New(image.NewNRGBA(image.Rect(0, 0, 10, 10)), ModeRGB)
	im.CloseHook = func() { closes++ }

	im.Close()
	im.Close()
	im.Close()

	assert.Equal(t, 1, closes)
	assert.True(t, im.Closed())
}

func TestFromPixmapGray(t *testing.T) {
	p := &pdf.Pixmap{Width: 4, Height: 2, Channels: 1, Samples: []byte{0, 32, 64, 96, 128, 160, 192, 255}}

	im, err := FromPixmap(p, ModeGray)
	require.NoError(t, err)
	defer im.Close()

	assert.Equal(t, ModeGray, im.Mode())
	assert.Equal(t, "4x2", im.Dimensions())
	gray, ok := im.Std().(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(96), gray.GrayAt(3, 0).Y)
}

func TestFromPixmapRGBExpandsAlpha(t *testing.T) {
	p := &pdf.Pixmap{Width: 2, Height: 1, Channels: 3, Samples: []byte{10, 20, 30, 40, 50, 60}}

	im, err := FromPixmap(p, ModeRGB)
	require.NoError(t, err)
	defer im.Close()

	nrgba, ok := im.Std().(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, nrgba.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 255}, nrgba.NRGBAAt(1, 0))
}

func TestFromPixmapTruncatedBuffer(t *testing.T) {
	p := &pdf.Pixmap{Width: 10, Height: 10, Channels: 3, Samples: make([]byte, 10)}

	_, err := FromPixmap(p, ModeRGB)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "truncated sample buffer")
}

func TestFromPixmapReleasedPixmap(t *testing.T) {
	p := &pdf.Pixmap{Width: 2, Height: 2, Channels: 3, Samples: make([]byte, 12)}
	p.Release()

	_, err := FromPixmap(p, ModeRGB)
	assert.Error(t, err)
}

func TestConvertCMYKToRGB(t *testing.T) {
	src := image.NewCMYK(image.Rect(0, 0, 4, 4))
	im := New(src, ModeCMYK)
	defer im.Close()

	conv, err := im.Convert(ModeRGB)
	require.NoError(t, err)
	defer conv.Close()

	assert.Equal(t, ModeRGB, conv.Mode())
	assert.Equal(t, "4x4", conv.Dimensions())
	assert.False(t, im.Closed(), "conversion must not close the source")
}

func TestConvertClosedImageFails(t *testing.T) {
	im := New(image.NewNRGBA(image.Rect(0, 0, 2, 2)), ModeRGB)
	im.Close()

	_, err := im.Convert(ModeGray)
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	im := New(image.NewNRGBA(image.Rect(0, 0, 100, 80)), ModeRGB)
	defer im.Close()

	small := im.Resize(50, 40)
	defer small.Close()

	assert.Equal(t, "50x40", small.Dimensions())
	assert.Equal(t, ModeRGB, small.Mode())
	assert.Equal(t, "100x80", im.Dimensions(), "source untouched")
}

func TestResizeKeepsGrayFamily(t *testing.T) {
	im := New(image.NewGray(image.Rect(0, 0, 100, 100)), ModeGray)
	defer im.Close()

	small := im.Resize(10, 10)
	defer small.Close()

	_, ok := small.Std().(*image.Gray)
	assert.True(t, ok)
}

func TestDecodeTagsModes(t *testing.T) {
	// Paletted GIF decodes as mode P.
	pal := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))

	im, err := Decode(buf.Bytes())
	require.NoError(t, err)
	defer im.Close()
	assert.Equal(t, ModePalette, im.Mode())
}

func TestDecodeEmptyData(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestSaveJPEGConvertsAlpha(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 128 // semi-transparent
	}
	im := New(src, ModeRGBA)
	defer im.Close()

	path := filepath.Join(dir, "out.jpg")
	res, err := Save(im, path, SaveOptions{Format: "jpg", Quality: 90})
	require.NoError(t, err)

	assert.Equal(t, "JPEG", res.Format)
	assert.Equal(t, 90, res.JPEGQuality)
	assert.Equal(t, "RGBA_to_RGB", res.ModeConverted)
	assert.False(t, im.Closed(), "save must not close the caller's image")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSavePNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 17)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	im := New(src, ModeRGB)
	defer im.Close()

	path := filepath.Join(dir, "nested", "out.png")
	res, err := Save(im, path, SaveOptions{Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, "PNG", res.Format)
	assert.Equal(t, 9, res.PNGCompressLevel)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestSaveUnsupportedFormat(t *testing.T) {
	im := New(image.NewNRGBA(image.Rect(0, 0, 4, 4)), ModeRGB)
	defer im.Close()

	_, err := Save(im, filepath.Join(t.TempDir(), "x.webp"), SaveOptions{Format: "webp"})
	assert.Error(t, err)
}
