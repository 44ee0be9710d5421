package pap

import "image"

// Ext is the file extension of an uncompressed PAP container.
const Ext = ".pap"

// AnnotationExt is the extension used for annotation files written by extraction.
const AnnotationExt = ".json"

type Compression uint16

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
)

// Container is the logical content of a PAP file.
//
// Image and Annotation hold raw bytes; the base64 text form exists only on the wire.
// A Container is a plain value and is never updated in place by this package.
type Container struct {
	Name        string
	ImageFormat string
	Image       []byte
	Annotation  []byte
}

// Filename returns the on-disk name of the uncompressed container file.
func (c Container) Filename() string {
	return c.Name + Ext
}

// ImageFilename returns the name the image payload is extracted to.
func (c Container) ImageFilename() string {
	return c.Name + c.ImageFormat
}

// AnnotationFilename returns the name the annotation payload is extracted to.
func (c Container) AnnotationFilename() string {
	return c.Name + AnnotationExt
}

// Decoded is a fully decoded container: the image is a raster ready for pixel
// access and the annotation is a parsed JSON value.
type Decoded struct {
	Name        string
	ImageFormat string
	Image       image.Image
	// Codec is the registered decoder that recognized the image bytes (e.g. "jpeg").
	Codec      string
	Annotation any
	Raw        Container
}

// Outcome reports how a size-constrained encode terminated.
type Outcome int

const (
	// WithinBudget means the last attempt fit the byte budget.
	WithinBudget Outcome = iota + 1
	// FloorReached means no further quality reduction was allowed and the
	// last attempt may still exceed the budget.
	FloorReached
)

func (o Outcome) String() string {
	switch o {
	case WithinBudget:
		return "within_budget"
	case FloorReached:
		return "floor_reached"
	default:
		return "unknown"
	}
}
