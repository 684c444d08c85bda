// Package pdf defines the document access layer the extraction engine
// runs against, plus a production implementation backed by pdfcpu for
// object-table access and go-fitz for page rasterization.
package pdf

import (
	"github.com/edupipe/pdf-image-extractor/internal/domain"
)

// Colorspace names follow the PDF colorspace families.
type Colorspace string

const (
	ColorspaceGray    Colorspace = "DeviceGray"
	ColorspaceRGB     Colorspace = "DeviceRGB"
	ColorspaceCMYK    Colorspace = "DeviceCMYK"
	ColorspaceIndexed Colorspace = "Indexed"
	ColorspaceLab     Colorspace = "Lab"
	ColorspaceUnknown Colorspace = ""
)

// Pixmap is a decoded, uncompressed pixel grid. Its backing buffer may
// hold native resources, so ownership is explicit: whoever holds the
// only live reference must call Release exactly once. Release is
// idempotent against double-free but callers should not rely on that.
type Pixmap struct {
	Width      int
	Height     int
	Channels   int // color channels including alpha
	HasAlpha   bool
	Colorspace Colorspace
	Samples    []byte

	// ReleaseHook runs on first Release. Backends use it to free
	// native resources; tests use it to count releases.
	ReleaseHook func()

	released bool
}

// Release frees the pixel buffer. Only the first call has effect.
func (p *Pixmap) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.Samples = nil
	if p.ReleaseHook != nil {
		p.ReleaseHook()
	}
}

// Released reports whether Release has been called.
func (p *Pixmap) Released() bool {
	return p != nil && p.released
}

// RawStream is the compressed image stream pulled directly from the PDF
// object table, decodable as a standalone image file.
type RawStream struct {
	Data []byte
	Ext  string // extension hint, e.g. "jpg", "png"
}

// Document is the read-side contract for one open PDF.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Page returns the 0-indexed page.
	Page(index int) (Page, error)

	// DecodePixels decodes the native pixel buffer of an image object.
	// The caller owns the returned pixmap.
	DecodePixels(xref int) (*Pixmap, error)

	// ConvertToRGB converts a pixmap to DeviceRGB, keeping the alpha
	// channel when keepAlpha is set. The source pixmap remains owned by
	// the caller; the converted pixmap is a new allocation.
	ConvertToRGB(src *Pixmap, keepAlpha bool) (*Pixmap, error)

	// RawStream returns the raw compressed stream of an image object.
	RawStream(xref int) (*RawStream, error)

	// Close releases the document.
	Close() error
}

// Page is a single document page.
type Page interface {
	// Number returns the 1-indexed page number.
	Number() int

	// Images lists the embedded image references on this page in the
	// document's native enumeration order.
	Images() ([]domain.ImageRef, error)

	// RenderBitmap rasterizes the whole page at the given zoom factor
	// (1.0 = 72 DPI). The caller owns the returned pixmap.
	RenderBitmap(zoom float64) (*Pixmap, error)
}
