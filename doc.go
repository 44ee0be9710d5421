// Package pap implements the PAP container format.
//
// A PAP file bundles exactly one raster image with one JSON annotation
// document (for example a COCO annotation) in a single self-describing file.
// It is designed for shipping annotated images between tools without losing
// the pairing between picture and labels.
//
// # File Format Overview
//
// A PAP file is a UTF-8 JSON object with four string fields:
//   - name: the base name of the source image, without extension
//   - img_format: the source image extension including the dot, e.g. ".jpg"
//   - image: standard base64 of the encoded image bytes (JPEG, PNG, ...)
//   - metadata: standard base64 of the raw annotation JSON bytes
//
// The annotation is stored as an opaque blob rather than nested JSON so that
// its exact bytes survive a round trip.
//
// Container files may additionally be stored compressed as a whole, selected
// by file name: "*.pap.zst" (Zstandard), "*.pap.lz4", "*.pap.br" (Brotli) or
// "*.pap.zip". The JSON inside is identical in every case.
//
// # Basic Usage
//
// To build a container from an image and an annotation file, re-encoding the
// image so it fits a byte budget:
//
//	res, err := pap.BuildAndPackage("data/scan.jpg", "data/annotations.json",
//		pap.WithMaxBytes(500_000))
//	if err != nil {
//		return err
//	}
//	if res.Compressed.Oversized() {
//		// quality floor reached, container written anyway
//	}
//
// To read one back:
//
//	d, err := pap.LoadFile("data/scan.pap")
//	// d.Image is an image.Image, d.Annotation the parsed JSON value
//
// To unpack it next to other files:
//
//	_, err := pap.ExtractFile("data/scan.pap", "out/")
//
// # Security Considerations
//
// Decoding enforces configurable [Limits] on container size, payload sizes and
// image dimensions, and rejects names that would place extracted files
// outside the target directory.
package pap
