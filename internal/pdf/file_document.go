package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/edupipe/pdf-image-extractor/internal/domain"
)

// FileDocument implements Document for a PDF file on disk. pdfcpu
// provides the object table (image enumeration, stream access); go-fitz
// rasterizes pages for the whole-page fallback.
type FileDocument struct {
	path     string
	ctx      *model.Context
	fz       *fitz.Document
	rawCache map[int]*RawStream
}

// Open reads and validates a PDF file.
func Open(path string) (*FileDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.DocumentError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, domain.DocumentError(fmt.Sprintf("cannot parse %s", path), err)
	}

	fz, err := fitz.New(path)
	if err != nil {
		return nil, domain.DocumentError(fmt.Sprintf("cannot open %s for rendering", path), err)
	}

	return &FileDocument{
		path:     path,
		ctx:      ctx,
		fz:       fz,
		rawCache: make(map[int]*RawStream),
	}, nil
}

// PageCount returns the number of pages.
func (d *FileDocument) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the 0-indexed page.
func (d *FileDocument) Page(index int) (Page, error) {
	if index < 0 || index >= d.ctx.PageCount {
		return nil, domain.ValidationError(fmt.Sprintf("page index %d out of range (document has %d pages)", index, d.ctx.PageCount), nil)
	}
	return &filePage{doc: d, index: index}, nil
}

// DecodePixels decodes the native pixel buffer of an image object. The
// samples are flattened from the object's stream; the colorspace is
// taken from the image dictionary when it names one.
func (d *FileDocument) DecodePixels(xref int) (*Pixmap, error) {
	rs, err := d.RawStream(xref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(rs.Data))
	if err != nil {
		return nil, domain.DocumentError(fmt.Sprintf("cannot decode image object %d", xref), err)
	}
	pix := pixmapFromImage(img)
	if cs := d.colorspaceName(xref); cs != ColorspaceUnknown {
		pix.Colorspace = cs
	}
	return pix, nil
}

// ConvertToRGB converts a pixmap to DeviceRGB samples.
func (d *FileDocument) ConvertToRGB(src *Pixmap, keepAlpha bool) (*Pixmap, error) {
	return convertToRGB(src, keepAlpha)
}

// RawStream returns the compressed stream of an image object, decodable
// as a standalone image file. Streams are extracted one page at a time
// and cached.
func (d *FileDocument) RawStream(xref int) (*RawStream, error) {
	if rs, ok := d.rawCache[xref]; ok {
		return rs, nil
	}

	for pageNr := 1; pageNr <= d.ctx.PageCount; pageNr++ {
		onPage := false
		for _, nr := range pdfcpu.ImageObjNrs(d.ctx, pageNr) {
			if nr == xref {
				onPage = true
				break
			}
		}
		if !onPage {
			continue
		}

		imgs, err := pdfcpu.ExtractPageImages(d.ctx, pageNr, false)
		if err != nil {
			return nil, domain.DocumentError(fmt.Sprintf("cannot extract images from page %d", pageNr), err)
		}
		for objNr, img := range imgs {
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, domain.IOError(fmt.Sprintf("cannot read stream of image object %d", objNr), err)
			}
			d.rawCache[objNr] = &RawStream{Data: data, Ext: img.FileType}
		}
		break
	}

	rs, ok := d.rawCache[xref]
	if !ok {
		return nil, domain.DocumentError(fmt.Sprintf("no stream data for image object %d", xref), nil)
	}
	return rs, nil
}

// Close releases the rendering document. The pdfcpu context is plain
// memory and needs no teardown.
func (d *FileDocument) Close() error {
	if d.fz != nil {
		err := d.fz.Close()
		d.fz = nil
		return err
	}
	return nil
}

// colorspaceName reads the ColorSpace entry of an image dictionary.
func (d *FileDocument) colorspaceName(xref int) Colorspace {
	entry, ok := d.ctx.Table[xref]
	if !ok || entry == nil {
		return ColorspaceUnknown
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return ColorspaceUnknown
	}
	obj, found := sd.Find("ColorSpace")
	if !found {
		return ColorspaceUnknown
	}
	if deref, err := d.ctx.Dereference(obj); err == nil {
		obj = deref
	}
	switch cs := obj.(type) {
	case types.Name:
		return Colorspace(cs.Value())
	case types.Array:
		// Indexed and ICC-based spaces carry the family name first.
		if len(cs) > 0 {
			if name, ok := cs[0].(types.Name); ok {
				return Colorspace(name.Value())
			}
		}
	}
	return ColorspaceUnknown
}

type filePage struct {
	doc   *FileDocument
	index int
}

// Number returns the 1-indexed page number.
func (p *filePage) Number() int {
	return p.index + 1
}

// Images lists the image XObjects referenced by this page.
func (p *filePage) Images() ([]domain.ImageRef, error) {
	objNrs := pdfcpu.ImageObjNrs(p.doc.ctx, p.index+1)
	refs := make([]domain.ImageRef, 0, len(objNrs))
	for i, nr := range objNrs {
		refs = append(refs, domain.ImageRef{
			XRef:        nr,
			Page:        p.index + 1,
			IndexOnPage: i,
		})
	}
	return refs, nil
}

// RenderBitmap rasterizes the page via go-fitz at zoom*72 DPI.
func (p *filePage) RenderBitmap(zoom float64) (*Pixmap, error) {
	img, err := p.doc.fz.ImageDPI(p.index, zoom*72.0)
	if err != nil {
		return nil, domain.DocumentError(fmt.Sprintf("cannot render page %d", p.index+1), err)
	}
	return pixmapFromImage(img), nil
}

// pixmapFromImage flattens a decoded image into packed samples.
func pixmapFromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		samples := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(samples[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return &Pixmap{Width: w, Height: h, Channels: 1, Colorspace: ColorspaceGray, Samples: samples}
	case *image.CMYK:
		samples := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			copy(samples[y*w*4:(y+1)*w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
		}
		return &Pixmap{Width: w, Height: h, Channels: 4, Colorspace: ColorspaceCMYK, Samples: samples}
	case *image.NRGBA:
		samples := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			copy(samples[y*w*4:(y+1)*w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
		}
		return &Pixmap{Width: w, Height: h, Channels: 4, HasAlpha: true, Colorspace: ColorspaceRGB, Samples: samples}
	default:
		// YCbCr, paletted and everything else flattens to plain RGB.
		samples := make([]byte, 0, w*h*3)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				samples = append(samples, byte(r>>8), byte(g>>8), byte(b>>8))
			}
		}
		return &Pixmap{Width: w, Height: h, Channels: 3, Colorspace: ColorspaceRGB, Samples: samples}
	}
}

// convertToRGB produces a new DeviceRGB pixmap from any supported
// source layout. The source remains owned by the caller.
func convertToRGB(src *Pixmap, keepAlpha bool) (*Pixmap, error) {
	if src == nil || src.Samples == nil {
		return nil, fmt.Errorf("source pixmap has no samples")
	}
	colorCh := src.Channels
	if src.HasAlpha {
		colorCh--
	}
	if colorCh < 1 {
		return nil, fmt.Errorf("pixmap has no color channels (n=%d, alpha=%t)", src.Channels, src.HasAlpha)
	}
	n := src.Width * src.Height
	if len(src.Samples) < n*src.Channels {
		return nil, fmt.Errorf("short sample buffer: have %d, want %d", len(src.Samples), n*src.Channels)
	}

	outCh := 3
	if keepAlpha {
		outCh = 4
	}
	out := make([]byte, n*outCh)

	for i := 0; i < n; i++ {
		in := src.Samples[i*src.Channels : i*src.Channels+src.Channels]
		var r, g, b byte
		switch colorCh {
		case 1:
			r, g, b = in[0], in[0], in[0]
		case 3:
			r, g, b = in[0], in[1], in[2]
		case 4:
			// CMYK
			c, m, yl, k := int(in[0]), int(in[1]), int(in[2]), int(in[3])
			r = byte((255 - c) * (255 - k) / 255)
			g = byte((255 - m) * (255 - k) / 255)
			b = byte((255 - yl) * (255 - k) / 255)
		default:
			return nil, fmt.Errorf("unsupported channel count %d", colorCh)
		}
		o := out[i*outCh:]
		o[0], o[1], o[2] = r, g, b
		if keepAlpha {
			alpha := byte(255)
			if src.HasAlpha {
				alpha = in[colorCh]
			}
			o[3] = alpha
		}
	}

	return &Pixmap{
		Width:      src.Width,
		Height:     src.Height,
		Channels:   outCh,
		HasAlpha:   keepAlpha,
		Colorspace: ColorspaceRGB,
		Samples:    out,
	}, nil
}
