// Package main provides C-compatible exports for the pap library.
// Build with: go build -buildmode=c-shared -o pap.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} PapResult;
*/
import "C"

import (
	"encoding/json"
	"unsafe"

	"github.com/logicossoftware/go-pap"
)

func main() {}

// PapFreeResult frees memory allocated by other Pap functions.
// Must be called to avoid memory leaks.
//
//export PapFreeResult
func PapFreeResult(result C.PapResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// PapFreeString frees a C string allocated by Go.
//
//export PapFreeString
func PapFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

// makeResult creates a result with data.
func makeResult(data []byte) C.PapResult {
	var result C.PapResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

// makeError creates a result with an error message.
func makeError(err error) C.PapResult {
	var result C.PapResult
	result.error = C.CString(err.Error())
	return result
}

func makeJSON(v any) C.PapResult {
	b, err := json.Marshal(v)
	if err != nil {
		return makeError(err)
	}
	return makeResult(b)
}

func goBytes(data *C.char, dataLen C.int) []byte {
	if data == nil || dataLen <= 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(data), dataLen)
}

// PapEncode encodes an image and its annotation into a PAP container.
// Parameters:
//   - image, imageLen: encoded image bytes
//   - annotation, annotationLen: annotation JSON bytes
//   - name: container name (image base name without extension)
//   - imageFormat: image extension including the dot, e.g. ".jpg" (can be NULL)
//
// Returns PapResult with container bytes or error. Call PapFreeResult when done.
//
//export PapEncode
func PapEncode(
	image *C.char,
	imageLen C.int,
	annotation *C.char,
	annotationLen C.int,
	name *C.char,
	imageFormat *C.char,
) C.PapResult {
	var format string
	if imageFormat != nil {
		format = C.GoString(imageFormat)
	}
	b, err := pap.Encode(goBytes(image, imageLen), goBytes(annotation, annotationLen), C.GoString(name), format)
	if err != nil {
		return makeError(err)
	}
	return makeResult(b)
}

// PapDecodeRaw decodes a container and returns a JSON summary:
// name, img_format, image_len, annotation_len.
//
//export PapDecodeRaw
func PapDecodeRaw(data *C.char, dataLen C.int) C.PapResult {
	c, err := pap.DecodeRaw(goBytes(data, dataLen))
	if err != nil {
		return makeError(err)
	}
	return makeJSON(map[string]any{
		"name":           c.Name,
		"img_format":     c.ImageFormat,
		"image_len":      len(c.Image),
		"annotation_len": len(c.Annotation),
	})
}

// PapGetImage returns the stored image payload of a container.
//
//export PapGetImage
func PapGetImage(data *C.char, dataLen C.int) C.PapResult {
	c, err := pap.DecodeRaw(goBytes(data, dataLen))
	if err != nil {
		return makeError(err)
	}
	return makeResult(c.Image)
}

// PapGetAnnotation returns the stored annotation JSON of a container.
//
//export PapGetAnnotation
func PapGetAnnotation(data *C.char, dataLen C.int) C.PapResult {
	c, err := pap.DecodeRaw(goBytes(data, dataLen))
	if err != nil {
		return makeError(err)
	}
	return makeResult(c.Annotation)
}

// PapValidate fully decodes a container, image and annotation included.
// Returns NULL on success, or an error message string on failure.
// Call PapFreeString on the result if non-NULL.
//
//export PapValidate
func PapValidate(data *C.char, dataLen C.int) *C.char {
	if _, err := pap.Decode(goBytes(data, dataLen)); err != nil {
		return C.CString(err.Error())
	}
	return nil
}

// PapExtract reads the container file at path and writes its image and
// pretty-printed annotation into outDir.
// Returns PapResult with a JSON object {image_path, annotation_path} or error.
//
//export PapExtract
func PapExtract(path *C.char, outDir *C.char) C.PapResult {
	res, err := pap.ExtractFile(C.GoString(path), C.GoString(outDir))
	if err != nil {
		return makeError(err)
	}
	return makeJSON(map[string]any{
		"image_path":      res.ImagePath,
		"annotation_path": res.AnnotationPath,
	})
}

// PapBuild re-encodes the image under maxBytes and packages it with the
// annotation. An empty outDir selects the annotation's directory; maxBytes
// <= 0 selects the default budget; compression is 0=None, 1=ZIP, 2=ZSTD,
// 3=LZ4, 4=Brotli.
// Returns PapResult with a JSON object {container_path, quality, attempts,
// image_len, outcome} or error.
//
//export PapBuild
func PapBuild(
	imagePath *C.char,
	annotationPath *C.char,
	outDir *C.char,
	maxBytes C.int64_t,
	compression C.uint16_t,
) C.PapResult {
	comp, err := pap.ParseCompression(pap.Compression(compression).String())
	if err != nil {
		return makeError(err)
	}
	opts := []pap.BuildOption{pap.WithStorageCompression(comp)}
	if outDir != nil {
		if dir := C.GoString(outDir); dir != "" {
			opts = append(opts, pap.WithOutputDir(dir))
		}
	}
	if maxBytes > 0 {
		opts = append(opts, pap.WithMaxBytes(int64(maxBytes)))
	}
	res, err := pap.BuildAndPackage(C.GoString(imagePath), C.GoString(annotationPath), opts...)
	if err != nil {
		return makeError(err)
	}
	return makeJSON(map[string]any{
		"container_path": res.ContainerPath,
		"quality":        res.Compressed.Quality,
		"attempts":       res.Compressed.Attempts,
		"image_len":      len(res.Compressed.Data),
		"outcome":        res.Compressed.Outcome.String(),
	})
}
