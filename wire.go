package pap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// wireRecord is the on-disk JSON object. Pointer fields distinguish a missing
// (or null) field from an empty string.
type wireRecord struct {
	Name      *string `json:"name"`
	ImgFormat *string `json:"img_format"`
	Image     *string `json:"image"`
	Metadata  *string `json:"metadata"`
}

func marshalRecord(c Container) ([]byte, error) {
	img := base64.StdEncoding.EncodeToString(c.Image)
	meta := base64.StdEncoding.EncodeToString(c.Annotation)
	rec := wireRecord{
		Name:      &c.Name,
		ImgFormat: &c.ImageFormat,
		Image:     &img,
		Metadata:  &meta,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func unmarshalRecord(data []byte, limits Limits) (Container, error) {
	if uint64(len(data)) > limits.MaxContainerLen {
		return Container{}, fmt.Errorf("%w: container length %d", ErrLimitExceeded, len(data))
	}
	var rec wireRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Container{}, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	switch {
	case rec.Name == nil:
		return Container{}, fmt.Errorf("%w: missing field %q", ErrMalformedContainer, "name")
	case rec.ImgFormat == nil:
		return Container{}, fmt.Errorf("%w: missing field %q", ErrMalformedContainer, "img_format")
	case rec.Image == nil:
		return Container{}, fmt.Errorf("%w: missing field %q", ErrMalformedContainer, "image")
	case rec.Metadata == nil:
		return Container{}, fmt.Errorf("%w: missing field %q", ErrMalformedContainer, "metadata")
	}

	// Decoded length is at most 3/4 of the text; reject before allocating.
	if uint64(base64.StdEncoding.DecodedLen(len(*rec.Image))) > limits.MaxImageLen+2 {
		return Container{}, fmt.Errorf("%w: image payload too large", ErrLimitExceeded)
	}
	if uint64(base64.StdEncoding.DecodedLen(len(*rec.Metadata))) > limits.MaxAnnotationLen+2 {
		return Container{}, fmt.Errorf("%w: annotation payload too large", ErrLimitExceeded)
	}
	img, err := base64.StdEncoding.DecodeString(*rec.Image)
	if err != nil {
		return Container{}, fmt.Errorf("%w: image: %v", ErrMalformedContainer, err)
	}
	meta, err := base64.StdEncoding.DecodeString(*rec.Metadata)
	if err != nil {
		return Container{}, fmt.Errorf("%w: metadata: %v", ErrMalformedContainer, err)
	}
	if uint64(len(img)) > limits.MaxImageLen {
		return Container{}, fmt.Errorf("%w: image payload too large", ErrLimitExceeded)
	}
	if uint64(len(meta)) > limits.MaxAnnotationLen {
		return Container{}, fmt.Errorf("%w: annotation payload too large", ErrLimitExceeded)
	}

	return Container{
		Name:        *rec.Name,
		ImageFormat: *rec.ImgFormat,
		Image:       img,
		Annotation:  meta,
	}, nil
}
