package pap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"
)

// noisyImage defeats JPEG compression so size tracks quality closely.
func noisyImage(w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(r.Intn(256))
	}
	return img
}

func recordAttempts(out *[]Attempt) BudgetOption {
	return WithAttemptHook(func(a Attempt) { *out = append(*out, a) })
}

func TestCompressToBudget_WithinBudgetOnFirstAttempt(t *testing.T) {
	var attempts []Attempt
	res, err := CompressToBudget(testImage(16, 16), Budget{MaxBytes: 1 << 20}, recordAttempts(&attempts))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != WithinBudget || res.Attempts != 1 || res.Quality != 100 {
		t.Fatalf("unexpected result: outcome=%v attempts=%d quality=%d", res.Outcome, res.Attempts, res.Quality)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if res.Oversized() {
		t.Fatal("did not expect oversized result")
	}
	if _, err := jpeg.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Fatalf("result is not a JPEG: %v", err)
	}
}

func TestCompressToBudget_RunsToFloorAndStaysBounded(t *testing.T) {
	b := Budget{MaxBytes: 0, QualityStart: 100, QualityStep: 5, QualityFloor: 1, Format: ".jpg"}
	var attempts []Attempt
	res, err := CompressToBudget(noisyImage(32, 32), b, recordAttempts(&attempts))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != FloorReached {
		t.Fatalf("expected FloorReached, got %v", res.Outcome)
	}
	if !res.Oversized() {
		t.Fatal("expected oversized result for a zero budget")
	}
	if got, want := len(attempts), b.MaxAttempts(); got != want {
		t.Fatalf("expected %d attempts, got %d", want, got)
	}
	if res.Attempts != len(attempts) {
		t.Fatalf("Attempts=%d, hook saw %d", res.Attempts, len(attempts))
	}
	// 100, 95, ..., 5: the next step (0) would undershoot the floor.
	if res.Quality != 5 {
		t.Fatalf("expected final quality 5, got %d", res.Quality)
	}
	for i := 1; i < len(attempts); i++ {
		if attempts[i].Quality > attempts[i-1].Quality {
			t.Fatalf("quality increased at attempt %d: %d -> %d", i, attempts[i-1].Quality, attempts[i].Quality)
		}
		if attempts[i].N != i+1 {
			t.Fatalf("attempt numbering off: %+v", attempts[i])
		}
	}
	if len(res.Data) != attempts[len(attempts)-1].Size {
		t.Fatal("returned data is not the last attempt")
	}
}

func TestCompressToBudget_StopsWhenBudgetMet(t *testing.T) {
	img := noisyImage(64, 64)
	var probe []Attempt
	if _, err := CompressToBudget(img, Budget{MaxBytes: -1}, recordAttempts(&probe)); err != nil {
		t.Fatal(err)
	}
	// Budget equal to the size reached at quality 85.
	target := probe[3]
	var attempts []Attempt
	res, err := CompressToBudget(img, Budget{MaxBytes: int64(target.Size)}, recordAttempts(&attempts))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != WithinBudget {
		t.Fatalf("expected WithinBudget, got %v", res.Outcome)
	}
	if int64(len(res.Data)) > int64(target.Size) {
		t.Fatalf("result %d exceeds budget %d", len(res.Data), target.Size)
	}
	if res.Quality < target.Quality {
		t.Fatalf("search went past the first fitting quality: %d < %d", res.Quality, target.Quality)
	}
}

func TestCompressToBudget_SingleAttemptBoundaries(t *testing.T) {
	cases := []struct {
		name string
		b    Budget
		want int
	}{
		{"step larger than range", Budget{MaxBytes: -1, QualityStart: 100, QualityStep: 200, QualityFloor: 1}, 100},
		{"start equals floor", Budget{MaxBytes: -1, QualityStart: 40, QualityStep: 5, QualityFloor: 40}, 40},
		{"start below floor", Budget{MaxBytes: -1, QualityStart: 10, QualityStep: 5, QualityFloor: 50}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var attempts []Attempt
			res, err := CompressToBudget(testImage(8, 8), tc.b, recordAttempts(&attempts))
			if err != nil {
				t.Fatal(err)
			}
			if len(attempts) != 1 || res.Attempts != 1 {
				t.Fatalf("expected exactly one attempt, got %d", len(attempts))
			}
			if res.Quality != tc.want {
				t.Fatalf("expected quality %d, got %d", tc.want, res.Quality)
			}
			if res.Outcome != FloorReached {
				t.Fatalf("expected FloorReached, got %v", res.Outcome)
			}
		})
	}
}

func TestCompressToBudget_FloorIsTriedExactly(t *testing.T) {
	var attempts []Attempt
	res, err := CompressToBudget(testImage(8, 8), Budget{MaxBytes: -1, QualityStart: 20, QualityStep: 5, QualityFloor: 10}, recordAttempts(&attempts))
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 3 || res.Quality != 10 {
		t.Fatalf("expected qualities 20,15,10; got %+v", attempts)
	}
}

func TestBudgetMaxAttempts(t *testing.T) {
	cases := []struct {
		b    Budget
		want int
	}{
		{Budget{}, 20},
		{Budget{QualityStart: 100, QualityStep: 200, QualityFloor: 1}, 1},
		{Budget{QualityStart: 50, QualityStep: 10, QualityFloor: 50}, 1},
		{Budget{QualityStart: 90, QualityStep: 10, QualityFloor: 10}, 9},
	}
	for _, tc := range cases {
		if got := tc.b.MaxAttempts(); got != tc.want {
			t.Fatalf("%+v: expected %d, got %d", tc.b, tc.want, got)
		}
	}
}

func TestCompressToBudget_Errors(t *testing.T) {
	if _, err := CompressToBudget(testImage(4, 4), Budget{QualityStep: -5}); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	if _, err := CompressToBudget(testImage(4, 4), Budget{Format: ".webp"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := CompressToBudget(nil, Budget{}); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestCompressToBudget_LosslessFormatsEncodeOnce(t *testing.T) {
	for _, ext := range []string{".png", ".PNG", ".gif", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			var attempts []Attempt
			res, err := CompressToBudget(testImage(16, 16), Budget{MaxBytes: 1, Format: ext}, recordAttempts(&attempts))
			if err != nil {
				t.Fatal(err)
			}
			if len(attempts) != 1 || res.Outcome != FloorReached || !res.Oversized() {
				t.Fatalf("unexpected result: attempts=%d outcome=%v", len(attempts), res.Outcome)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Data))
			if err != nil {
				t.Fatalf("output not decodable: %v", err)
			}
			if cfg.Width != 16 || cfg.Height != 16 {
				t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestCompressToBudget_AlphaImageScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("large image")
	}
	src := image.NewNRGBA(image.Rect(0, 0, 2000, 2000))
	for y := 0; y < 2000; y++ {
		for x := 0; x < 2000; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x / 8), G: uint8(y / 8), B: 0x60, A: uint8((x + y) / 16)})
		}
	}
	if !hasAlpha(src) {
		t.Fatal("fixture should carry alpha")
	}
	const budget = 50_000
	res, err := CompressToBudget(src, Budget{MaxBytes: budget, Format: ".jpg"})
	if err != nil {
		t.Fatal(err)
	}
	switch res.Outcome {
	case WithinBudget:
		if len(res.Data) > budget {
			t.Fatalf("WithinBudget but %d bytes", len(res.Data))
		}
	case FloorReached:
		if !res.Oversized() {
			t.Fatalf("FloorReached with %d bytes should be oversized", len(res.Data))
		}
	default:
		t.Fatalf("unexpected outcome %v", res.Outcome)
	}

	c, err := Encode(res.Data, []byte(`{"boxes": [[0,0,10,10]]}`), "scan", ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Decode(c)
	if err != nil {
		t.Fatal(err)
	}
	if d.ImageFormat != ".jpg" {
		t.Fatalf("expected .jpg, got %q", d.ImageFormat)
	}
	if hasAlpha(d.Image) {
		t.Fatal("decoded image still carries alpha")
	}
}

func TestToRGBKeepsStraightColour(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})
	out := toRGB(src)
	got := out.RGBAAt(0, 0)
	if got != (color.RGBA{R: 200, G: 100, B: 50, A: 0xff}) {
		t.Fatalf("unexpected pixel %+v", got)
	}
	if hasAlpha(out) {
		t.Fatal("expected opaque output")
	}
}

func TestOutcomeString(t *testing.T) {
	if WithinBudget.String() != "within_budget" || FloorReached.String() != "floor_reached" || Outcome(0).String() != "unknown" {
		t.Fatal("unexpected outcome names")
	}
}
