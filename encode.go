package pap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encode packs an encoded image and a JSON annotation into PAP container bytes.
//
// Both payloads are stored as standard base64 text inside a flat JSON object
// with the fields name, img_format, image and metadata. No size budget is
// applied here; see [CompressToBudget] and [BuildAndPackage].
//
// Encode returns ErrEncoding if either payload is empty, if the annotation is
// not UTF-8 JSON, if the image bytes are not a recognizable image encoding
// (unless WithValidateImage(false) is given), or if name/imageFormat cannot be
// used as a file name. ErrLimitExceeded is returned when a payload exceeds the
// configured [Limits].
func Encode(image, annotation []byte, name, imageFormat string, opts ...WriteOption) ([]byte, error) {
	return EncodeContainer(Container{
		Name:        name,
		ImageFormat: imageFormat,
		Image:       image,
		Annotation:  annotation,
	}, opts...)
}

// EncodeContainer is Encode for a prebuilt Container.
func EncodeContainer(c Container, opts ...WriteOption) ([]byte, error) {
	cfg := newWriteConfig(opts)
	if err := validateForWrite(c, cfg); err != nil {
		return nil, err
	}
	return marshalRecord(c)
}

// Write encodes c and writes the container bytes to w in one call.
func Write(w io.Writer, c Container, opts ...WriteOption) error {
	b, err := EncodeContainer(c, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// PackFiles packages imagePath and annotationPath verbatim into
// <outDir>/<image basename>.pap and returns the written path.
//
// outDir must be an existing directory. The image is not re-encoded; use
// [BuildAndPackage] to apply a byte budget first.
func PackFiles(imagePath, annotationPath, outDir string, opts ...WriteOption) (string, error) {
	if err := requireDir(outDir); err != nil {
		return "", err
	}
	img, err := readInput(imagePath)
	if err != nil {
		return "", err
	}
	annotation, err := readInput(annotationPath)
	if err != nil {
		return "", err
	}
	name, ext := splitName(imagePath)
	b, err := Encode(img, annotation, name, ext, opts...)
	if err != nil {
		return "", err
	}
	out := filepath.Join(outDir, name+Ext)
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// readInput reads a packaging input file, mapping every failure to ErrEncoding.
func readInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrEncoding, path, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrEncoding, path)
	}
	return b, nil
}
