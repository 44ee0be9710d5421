package pap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"
)

// validateName rejects names that would escape the extraction directory.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("name must not contain path separators")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name must not be a relative directory")
	}
	return nil
}

func validateImageFormat(ext string) error {
	if ext == "" {
		return nil
	}
	if !strings.HasPrefix(ext, ".") || len(ext) == 1 {
		return fmt.Errorf("image format %q must be a dot-prefixed extension", ext)
	}
	if strings.ContainsAny(ext[1:], "./\\\x00") {
		return fmt.Errorf("image format %q is not a single extension", ext)
	}
	if strings.EqualFold(ext, AnnotationExt) {
		return fmt.Errorf("image format %q collides with the annotation file", ext)
	}
	return nil
}

func validateAnnotation(b []byte) error {
	if !utf8.Valid(b) {
		return fmt.Errorf("annotation is not valid UTF-8")
	}
	if !json.Valid(b) {
		return fmt.Errorf("annotation is not valid JSON")
	}
	return nil
}

func validateForWrite(c Container, cfg writeConfig) error {
	if err := validateName(c.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if err := validateImageFormat(c.ImageFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(c.Image) == 0 {
		return fmt.Errorf("%w: image payload is empty", ErrEncoding)
	}
	if len(c.Annotation) == 0 {
		return fmt.Errorf("%w: annotation payload is empty", ErrEncoding)
	}
	if uint64(len(c.Image)) > cfg.limits.MaxImageLen {
		return fmt.Errorf("%w: image payload too large", ErrLimitExceeded)
	}
	if uint64(len(c.Annotation)) > cfg.limits.MaxAnnotationLen {
		return fmt.Errorf("%w: annotation payload too large", ErrLimitExceeded)
	}
	if err := validateAnnotation(c.Annotation); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if cfg.validateImage {
		if _, _, err := image.DecodeConfig(bytes.NewReader(c.Image)); err != nil {
			return fmt.Errorf("%w: image payload is not a recognizable image: %v", ErrEncoding, err)
		}
	}
	return nil
}

func validateRecord(c Container) error {
	if err := validateName(c.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if err := validateImageFormat(c.ImageFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	return nil
}
