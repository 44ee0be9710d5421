package pap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Extracted lists the files written by an extraction.
type Extracted struct {
	ImagePath      string
	AnnotationPath string
	Decoded        *Decoded
}

// ExtractToFiles fully decodes data and writes its payloads into outDir as
// <name><img_format> and <name>.json, creating outDir if needed.
//
// The image file receives the stored payload bytes once they have been
// verified to decode, so extraction never re-encodes a lossy image. The
// annotation is pretty-printed with four-space indentation, keeping the key
// order and number literals of the stored document.
//
// Directory creation failures are reported as ErrDirectory.
func ExtractToFiles(data []byte, outDir string, opts ...ReadOption) (Extracted, error) {
	d, err := Decode(data, opts...)
	if err != nil {
		return Extracted{}, err
	}
	return writeExtracted(d, outDir)
}

// ExtractFile reads the container file at path and extracts it into outDir.
func ExtractFile(path, outDir string, opts ...ReadOption) (Extracted, error) {
	data, err := ReadFile(path, opts...)
	if err != nil {
		return Extracted{}, err
	}
	return ExtractToFiles(data, outDir, opts...)
}

func writeExtracted(d *Decoded, outDir string) (Extracted, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, d.Raw.Annotation, "", "    "); err != nil {
		return Extracted{}, fmt.Errorf("%w: metadata: %v", ErrMalformedContainer, err)
	}
	pretty.WriteByte('\n')

	if err := ensureDir(outDir); err != nil {
		return Extracted{}, err
	}
	res := Extracted{
		ImagePath:      filepath.Join(outDir, d.Raw.ImageFilename()),
		AnnotationPath: filepath.Join(outDir, d.Raw.AnnotationFilename()),
		Decoded:        d,
	}
	if err := os.WriteFile(res.ImagePath, d.Raw.Image, 0o644); err != nil {
		return Extracted{}, err
	}
	if err := os.WriteFile(res.AnnotationPath, pretty.Bytes(), 0o644); err != nil {
		return Extracted{}, err
	}
	return res, nil
}
