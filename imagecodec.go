package pap

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageEncoder writes an image in one concrete format. Encoders that ignore
// quality report lossy=false so the budget loop does not repeat identical work.
type imageEncoder struct {
	name   string
	lossy  bool
	encode func(w io.Writer, img image.Image, quality int) error
}

var (
	jpegEncoder = imageEncoder{
		name:  "jpeg",
		lossy: true,
		encode: func(w io.Writer, img image.Image, quality int) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: clampQuality(quality)})
		},
	}
	pngEncoder = imageEncoder{
		name: "png",
		encode: func(w io.Writer, img image.Image, _ int) error {
			enc := png.Encoder{CompressionLevel: png.BestCompression}
			return enc.Encode(w, img)
		},
	}
	gifEncoder = imageEncoder{
		name: "gif",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return gif.Encode(w, img, nil)
		},
	}
	bmpEncoder = imageEncoder{
		name: "bmp",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return bmp.Encode(w, img)
		},
	}
	tiffEncoder = imageEncoder{
		name: "tiff",
		encode: func(w io.Writer, img image.Image, _ int) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		},
	}
)

var encodersByExt = map[string]imageEncoder{
	".jpg":  jpegEncoder,
	".jpeg": jpegEncoder,
	".jpe":  jpegEncoder,
	".jfif": jpegEncoder,
	".png":  pngEncoder,
	".gif":  gifEncoder,
	".bmp":  bmpEncoder,
	".tif":  tiffEncoder,
	".tiff": tiffEncoder,
}

// encoderFor selects the encoder for a file extension such as ".jpg".
func encoderFor(ext string) (imageEncoder, error) {
	enc, ok := encodersByExt[strings.ToLower(ext)]
	if !ok {
		return imageEncoder{}, fmt.Errorf("%w: no encoder for %q", ErrUnsupportedFormat, ext)
	}
	return enc, nil
}

// CanEncode reports whether images can be re-encoded for the extension ext.
func CanEncode(ext string) bool {
	_, err := encoderFor(ext)
	return err == nil
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// decodeImage decodes a payload into a raster, refusing images whose declared
// dimensions exceed limits.MaxImagePixels.
func decodeImage(b []byte, limits Limits) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("%w: image: %v", ErrMalformedContainer, err)
	}
	if uint64(cfg.Width)*uint64(cfg.Height) > limits.MaxImagePixels {
		return nil, "", fmt.Errorf("%w: image is %dx%d", ErrLimitExceeded, cfg.Width, cfg.Height)
	}
	img, codec, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("%w: image: %v", ErrMalformedContainer, err)
	}
	return img, codec, nil
}

// toRGB flattens img to an opaque RGB raster. The alpha channel is dropped and
// colour channels keep their straight (non-premultiplied) values, so
// transparent NRGBA pixels keep their stored colour instead of turning black.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	n := image.NewNRGBA(b)
	if src, ok := img.(*image.NRGBA); ok {
		rowLen := 4 * b.Dx()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			copy(n.Pix[n.PixOffset(b.Min.X, y):], src.Pix[i:i+rowLen])
		}
	} else {
		draw.Draw(n, b, img, b.Min, draw.Src)
	}
	for i := 3; i < len(n.Pix); i += 4 {
		n.Pix[i] = 0xff
	}
	// With every alpha at 0xff, straight and premultiplied layouts coincide.
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}

// hasAlpha reports whether any pixel of img is not fully opaque.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
