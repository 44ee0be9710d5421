package pap

import (
	"bytes"
	"fmt"
	"image"
)

// Budget configures a size-constrained encode.
//
// Zero values for QualityStart, QualityStep, QualityFloor and Format are
// replaced with the values of [DefaultBudget]. MaxBytes is used as given: a
// value <= 0 can never be met, so the loop runs down to the floor.
type Budget struct {
	MaxBytes     int64
	QualityStart int
	QualityStep  int
	QualityFloor int
	// Format is the target file extension, e.g. ".jpg".
	Format string
}

// DefaultBudget returns the budget used when packaging without explicit settings.
func DefaultBudget() Budget {
	return Budget{
		MaxBytes:     1_300_000,
		QualityStart: 100,
		QualityStep:  5,
		QualityFloor: 1,
		Format:       ".jpg",
	}
}

func (b Budget) withDefaults() Budget {
	d := DefaultBudget()
	if b.QualityStart == 0 {
		b.QualityStart = d.QualityStart
	}
	if b.QualityStep == 0 {
		b.QualityStep = d.QualityStep
	}
	if b.QualityFloor == 0 {
		b.QualityFloor = d.QualityFloor
	}
	if b.Format == "" {
		b.Format = d.Format
	}
	return b
}

// MaxAttempts is the upper bound on encode attempts for b.
func (b Budget) MaxAttempts() int {
	b = b.withDefaults()
	if b.QualityStep <= 0 || b.QualityStart <= b.QualityFloor {
		return 1
	}
	return (b.QualityStart-b.QualityFloor)/b.QualityStep + 1
}

// Attempt describes one encode inside CompressToBudget.
type Attempt struct {
	N       int // 1-based
	Quality int
	Size    int
}

// Compressed is the result of CompressToBudget.
type Compressed struct {
	Data     []byte
	Quality  int
	Attempts int
	Outcome  Outcome
	MaxBytes int64
}

// Oversized reports whether the result still exceeds the budget, which can
// only happen when the quality floor was reached.
func (c Compressed) Oversized() bool {
	return int64(len(c.Data)) > c.MaxBytes
}

type budgetConfig struct {
	hooks []func(Attempt)
}

type BudgetOption func(*budgetConfig)

// WithAttemptHook registers fn to be called after every encode attempt.
// Hooks run in registration order.
func WithAttemptHook(fn func(Attempt)) BudgetOption {
	return func(c *budgetConfig) { c.hooks = append(c.hooks, fn) }
}

// CompressToBudget re-encodes img in b.Format at decreasing quality until the
// encoded size is at most b.MaxBytes or the quality floor is reached.
//
// The image is first flattened to opaque RGB, since lossy encoders cannot
// carry an alpha channel. The first attempt uses b.QualityStart; each further
// attempt lowers the quality by b.QualityStep, and an attempt is only made if
// its quality is not below b.QualityFloor. Encoded size is assumed to shrink
// with quality; this holds for typical JPEG input but is not guaranteed.
//
// Formats whose encoder ignores quality (png, gif, bmp, tiff) are encoded
// once. The returned Outcome distinguishes a met budget from floor exhaustion;
// the latter is not an error.
//
// CompressToBudget returns ErrInvalidBudget for a negative QualityStep and
// ErrUnsupportedFormat when no encoder exists for b.Format.
func CompressToBudget(img image.Image, b Budget, opts ...BudgetOption) (Compressed, error) {
	var cfg budgetConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if img == nil {
		return Compressed{}, fmt.Errorf("%w: image is nil", ErrEncoding)
	}
	b = b.withDefaults()
	if b.QualityStep <= 0 {
		return Compressed{}, fmt.Errorf("%w: quality step %d must be positive", ErrInvalidBudget, b.QualityStep)
	}
	enc, err := encoderFor(b.Format)
	if err != nil {
		return Compressed{}, err
	}

	rgb := toRGB(img)
	var buf bytes.Buffer
	quality := b.QualityStart
	for n := 1; ; n++ {
		buf.Reset()
		if err := enc.encode(&buf, rgb, quality); err != nil {
			return Compressed{}, fmt.Errorf("%w: %s at quality %d: %v", ErrEncoding, enc.name, quality, err)
		}
		for _, hook := range cfg.hooks {
			hook(Attempt{N: n, Quality: quality, Size: buf.Len()})
		}

		res := Compressed{Quality: quality, Attempts: n, MaxBytes: b.MaxBytes}
		next := quality - b.QualityStep
		switch {
		case int64(buf.Len()) <= b.MaxBytes:
			res.Outcome = WithinBudget
		case !enc.lossy || next < b.QualityFloor:
			res.Outcome = FloorReached
		default:
			quality = next
			continue
		}
		res.Data = bytes.Clone(buf.Bytes())
		return res, nil
	}
}
