package pap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"reflect"
	"strings"
	"testing"
)

const sampleAnnotation = `{"images":[{"id":1,"file_name":"scan.png"}],"boxes":[[0,0,10,10]],"score":0.25}`

// testImage returns a small NRGBA image with a gradient and a transparent corner.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(0xff)
			if x < w/4 && y < h/4 {
				a = 0x40
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 0x80, A: a})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}

type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrClosedPipe
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return len(p), io.ErrShortWrite
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	imgBytes := pngBytes(t, testImage(32, 24))
	b, err := Encode(imgBytes, []byte(sampleAnnotation), "scan", ".png")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	d, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Name != "scan" || d.ImageFormat != ".png" {
		t.Fatalf("unexpected name/format: %q %q", d.Name, d.ImageFormat)
	}
	if d.Codec != "png" {
		t.Fatalf("expected png codec, got %q", d.Codec)
	}
	direct, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	if !samePixels(direct, d.Image) {
		t.Fatal("decoded image differs from source")
	}
	want, err := parseAnnotation([]byte(sampleAnnotation))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, d.Annotation) {
		t.Fatalf("annotation mismatch\nwant: %#v\ngot:  %#v", want, d.Annotation)
	}
	if !bytes.Equal(d.Raw.Image, imgBytes) {
		t.Fatal("raw image bytes changed")
	}
}

func TestAnnotationNumbersKeepLiterals(t *testing.T) {
	imgBytes := pngBytes(t, testImage(4, 4))
	b, err := Encode(imgBytes, []byte(`{"id":12345678901234567890}`), "n", ".png")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	m := d.Annotation.(map[string]any)
	if m["id"] != json.Number("12345678901234567890") {
		t.Fatalf("expected exact number literal, got %#v", m["id"])
	}
}

func TestDecodeRawReencodeIsIdempotent(t *testing.T) {
	imgBytes := pngBytes(t, testImage(8, 8))
	orig, err := Encode(imgBytes, []byte(sampleAnnotation), "scan", ".png")
	if err != nil {
		t.Fatal(err)
	}
	c, err := DecodeRaw(orig)
	if err != nil {
		t.Fatal(err)
	}
	again, err := EncodeContainer(c)
	if err != nil {
		t.Fatal(err)
	}
	var a, b map[string]string
	if err := json.Unmarshal(orig, &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(again, &b); err != nil {
		t.Fatal(err)
	}
	if a["image"] != b["image"] || a["metadata"] != b["metadata"] {
		t.Fatal("base64 payloads changed after raw round trip")
	}
	if !bytes.Equal(orig, again) {
		t.Fatal("expected byte-identical container")
	}
}

func TestEncodeWireLayout(t *testing.T) {
	b, err := Encode([]byte("abc"), []byte(`{"a":1}`), "n<1>", ".jpg", WithValidateImage(false))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"n<1>","img_format":".jpg","image":"YWJj","metadata":"eyJhIjoxfQ=="}`
	if string(b) != want {
		t.Fatalf("wire mismatch\nwant: %s\ngot:  %s", want, b)
	}
}

func TestEncodeRejectsEmptyPayloads(t *testing.T) {
	imgBytes := pngBytes(t, testImage(4, 4))
	if _, err := Encode(nil, []byte(`{}`), "n", ".png"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for empty image, got %v", err)
	}
	if _, err := Encode(imgBytes, nil, "n", ".png"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for empty annotation, got %v", err)
	}
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	imgBytes := pngBytes(t, testImage(4, 4))
	cases := []struct {
		name       string
		image      []byte
		annotation []byte
		cname      string
		format     string
	}{
		{"annotation not json", imgBytes, []byte("{oops"), "n", ".png"},
		{"annotation not utf8", imgBytes, []byte{'"', 0xff, '"'}, "n", ".png"},
		{"image not an image", []byte("not an image"), []byte(`{}`), "n", ".png"},
		{"name with separator", imgBytes, []byte(`{}`), "a/b", ".png"},
		{"empty name", imgBytes, []byte(`{}`), "", ".png"},
		{"format without dot", imgBytes, []byte(`{}`), "n", "png"},
		{"format json", imgBytes, []byte(`{}`), "n", ".json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.image, tc.annotation, tc.cname, tc.format)
			if !errors.Is(err, ErrEncoding) {
				t.Fatalf("expected ErrEncoding, got %v", err)
			}
		})
	}
}

func TestEncodeWriteLimits(t *testing.T) {
	imgBytes := pngBytes(t, testImage(4, 4))
	_, err := Encode(imgBytes, []byte(`{}`), "n", ".png", WithWriteLimits(Limits{MaxImageLen: 8}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	_, err = Encode(imgBytes, []byte(`{"k":"v"}`), "n", ".png", WithWriteLimits(Limits{MaxAnnotationLen: 2}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestWriteWriterError(t *testing.T) {
	c := Container{Name: "n", ImageFormat: ".png", Image: pngBytes(t, testImage(4, 4)), Annotation: []byte(`{}`)}
	if err := Write(&failingWriter{n: 10}, c); err == nil {
		t.Fatal("expected error")
	}
	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeRaw(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
}

func TestDecode_MissingFields(t *testing.T) {
	full := map[string]any{
		"name":       "n",
		"img_format": ".png",
		"image":      base64.StdEncoding.EncodeToString(pngBytes(t, testImage(4, 4))),
		"metadata":   base64.StdEncoding.EncodeToString([]byte(`{}`)),
	}
	for field := range full {
		t.Run(field, func(t *testing.T) {
			rec := map[string]any{}
			for k, v := range full {
				if k != field {
					rec[k] = v
				}
			}
			b, _ := json.Marshal(rec)
			if _, err := Decode(b); !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("expected ErrMalformedContainer, got %v", err)
			}
			if _, err := DecodeRaw(b); !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("expected ErrMalformedContainer from DecodeRaw, got %v", err)
			}

			rec[field] = nil
			b, _ = json.Marshal(rec)
			if _, err := DecodeRaw(b); !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("expected ErrMalformedContainer for null field, got %v", err)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	img := base64.StdEncoding.EncodeToString(pngBytes(t, testImage(4, 4)))
	meta := base64.StdEncoding.EncodeToString([]byte(`{}`))
	cases := map[string]string{
		"not json":         "\x00\x01binary",
		"empty":            "",
		"array":            `[1,2,3]`,
		"null":             `null`,
		"number field":     `{"name":1,"img_format":".png","image":"` + img + `","metadata":"` + meta + `"}`,
		"bad image b64":    `{"name":"n","img_format":".png","image":"***","metadata":"` + meta + `"}`,
		"bad meta b64":     `{"name":"n","img_format":".png","image":"` + img + `","metadata":"%%"}`,
		"meta not json":    `{"name":"n","img_format":".png","image":"` + img + `","metadata":"` + base64.StdEncoding.EncodeToString([]byte("nope")) + `"}`,
		"image not image":  `{"name":"n","img_format":".png","image":"` + base64.StdEncoding.EncodeToString([]byte("nope")) + `","metadata":"` + meta + `"}`,
		"escaping name":    `{"name":"../x","img_format":".png","image":"` + img + `","metadata":"` + meta + `"}`,
		"dot name":         `{"name":"..","img_format":".png","image":"` + img + `","metadata":"` + meta + `"}`,
		"escaping format":  `{"name":"n","img_format":"./../x","image":"` + img + `","metadata":"` + meta + `"}`,
		"trailing garbage": `{"name":"n","img_format":".png","image":"` + img + `","metadata":"` + meta + `"} x`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			if !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("expected ErrMalformedContainer, got %v", err)
			}
		})
	}
}

func TestDecodeRawSkipsPayloadParsing(t *testing.T) {
	doc := `{"name":"n","img_format":".png","image":"` + base64.StdEncoding.EncodeToString([]byte("nope")) +
		`","metadata":"` + base64.StdEncoding.EncodeToString([]byte("nope")) + `"}`
	c, err := DecodeRaw([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if string(c.Image) != "nope" || string(c.Annotation) != "nope" {
		t.Fatalf("unexpected payloads: %q %q", c.Image, c.Annotation)
	}
	if c.Filename() != "n.pap" || c.ImageFilename() != "n.png" || c.AnnotationFilename() != "n.json" {
		t.Fatalf("unexpected file names: %s %s %s", c.Filename(), c.ImageFilename(), c.AnnotationFilename())
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	imgBytes := pngBytes(t, testImage(4, 4))
	b, err := Encode(imgBytes, []byte(`{}`), "n", ".png")
	if err != nil {
		t.Fatal(err)
	}
	extended := strings.Replace(string(b), "{", `{"comment":"x",`, 1)
	if _, err := Decode([]byte(extended)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeReadLimits(t *testing.T) {
	imgBytes := pngBytes(t, testImage(16, 16))
	b, err := Encode(imgBytes, []byte(sampleAnnotation), "n", ".png")
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]Limits{
		"container":  {MaxContainerLen: 10},
		"image":      {MaxImageLen: 10},
		"annotation": {MaxAnnotationLen: 10},
		"pixels":     {MaxImagePixels: 100},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(b, WithReadLimits(l))
			if !errors.Is(err, ErrLimitExceeded) {
				t.Fatalf("expected ErrLimitExceeded, got %v", err)
			}
		})
	}
}
