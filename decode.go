package pap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses PAP container bytes and fully decodes both payloads.
//
// The decoding process:
//  1. Parses the JSON object and checks that all four fields are present
//  2. Base64-decodes the image and metadata fields
//  3. Parses the metadata bytes as a JSON document
//  4. Decodes the image bytes into an image.Image
//
// Every failure in these steps is reported as ErrMalformedContainer, except
// size violations, which are reported as ErrLimitExceeded (see [Limits]).
// Use [DecodeRaw] when only the record fields are needed.
func Decode(data []byte, opts ...ReadOption) (*Decoded, error) {
	cfg := newReadConfig(opts)
	c, err := decodeRaw(data, cfg)
	if err != nil {
		return nil, err
	}
	annotation, err := parseAnnotation(c.Annotation)
	if err != nil {
		return nil, err
	}
	img, codec, err := decodeImage(c.Image, cfg.limits)
	if err != nil {
		return nil, err
	}
	return &Decoded{
		Name:        c.Name,
		ImageFormat: c.ImageFormat,
		Image:       img,
		Codec:       codec,
		Annotation:  annotation,
		Raw:         c,
	}, nil
}

// DecodeRaw parses PAP container bytes and base64-decodes the payloads without
// decoding the image or parsing the annotation.
func DecodeRaw(data []byte, opts ...ReadOption) (Container, error) {
	return decodeRaw(data, newReadConfig(opts))
}

func decodeRaw(data []byte, cfg readConfig) (Container, error) {
	c, err := unmarshalRecord(data, cfg.limits)
	if err != nil {
		return Container{}, err
	}
	if err := validateRecord(c); err != nil {
		return Container{}, err
	}
	return c, nil
}

// parseAnnotation parses an annotation payload. Numbers are kept as json.Number
// so integer coordinates survive untouched.
func parseAnnotation(b []byte) (any, error) {
	if err := validateAnnotation(b); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrMalformedContainer, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrMalformedContainer, err)
	}
	return v, nil
}
