package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode decodes image bytes in any registered format (PNG, JPEG, GIF,
// TIFF, BMP) and tags the result with its pixel mode.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return New(img, modeOf(img)), nil
}

// SaveOptions controls the output encoding.
type SaveOptions struct {
	Format  string // "png", "jpg" or "jpeg"; canonicalized internally
	Quality int    // JPEG quality
}

// SaveResult records what the save step actually did.
type SaveResult struct {
	Format           string // canonical format name ("PNG", "JPEG")
	JPEGQuality      int
	PNGCompressLevel int
	ModeConverted    string
}

// Save writes an image to disk, creating parent directories as needed.
// JPEG output has no alpha channel, so RGBA sources are converted to
// RGB first; PNG output converts non-standard modes to RGB or RGBA.
func Save(im *Image, path string, opts SaveOptions) (SaveResult, error) {
	var res SaveResult

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return res, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	format := strings.ToUpper(opts.Format)
	if format == "JPG" {
		format = "JPEG"
	}
	res.Format = format

	toWrite := im
	switch format {
	case "JPEG":
		if im.Mode() == ModeRGBA {
			conv, err := im.Convert(ModeRGB)
			if err != nil {
				return res, fmt.Errorf("converting RGBA to RGB for JPEG: %w", err)
			}
			defer conv.Close()
			toWrite = conv
			res.ModeConverted = "RGBA_to_RGB"
		}
	case "PNG":
		switch im.Mode() {
		case ModeRGB, ModeRGBA, ModeGray, ModePalette:
		default:
			// RGBA is already accepted above, so anything left has no
			// alpha band and flattens to RGB.
			target := ModeRGB
			conv, err := im.Convert(target)
			if err != nil {
				return res, fmt.Errorf("converting %s for PNG: %w", im.Mode(), err)
			}
			defer conv.Close()
			toWrite = conv
			res.ModeConverted = target
		}
	default:
		return res, fmt.Errorf("unsupported save format %q", opts.Format)
	}

	f, err := os.Create(path)
	if err != nil {
		return res, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "JPEG":
		res.JPEGQuality = opts.Quality
		if err := jpeg.Encode(f, toWrite.Std(), &jpeg.Options{Quality: opts.Quality}); err != nil {
			return res, fmt.Errorf("encoding JPEG %s: %w", path, err)
		}
	case "PNG":
		res.PNGCompressLevel = 9
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(f, toWrite.Std()); err != nil {
			return res, fmt.Errorf("encoding PNG %s: %w", path, err)
		}
	}

	return res, nil
}
