package pap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
)

// IntermediatePrefix is prepended to the image file name when the re-encoded
// image is kept next to the container.
const IntermediatePrefix = "_"

type buildConfig struct {
	budget      Budget
	outDir      string
	createDir   bool
	keepImage   bool
	compression Compression
	logger      *slog.Logger
	write       []WriteOption
	budgetOpts  []BudgetOption
}

type BuildOption func(*buildConfig)

// WithOutputDir sets the directory the container is written to. Defaults to
// the directory of the annotation file.
func WithOutputDir(dir string) BuildOption {
	return func(c *buildConfig) { c.outDir = dir }
}

// WithCreateOutputDir creates the output directory when it does not exist.
func WithCreateOutputDir(v bool) BuildOption {
	return func(c *buildConfig) { c.createDir = v }
}

// WithKeepCompressedImage keeps the re-encoded image on disk as
// <outDir>/_<image file name>.
func WithKeepCompressedImage(v bool) BuildOption {
	return func(c *buildConfig) { c.keepImage = v }
}

// WithMaxBytes sets the image byte budget.
func WithMaxBytes(n int64) BuildOption {
	return func(c *buildConfig) { c.budget.MaxBytes = n }
}

// WithQuality sets the quality search range. Zero values keep the defaults.
func WithQuality(start, step, floor int) BuildOption {
	return func(c *buildConfig) {
		c.budget.QualityStart = start
		c.budget.QualityStep = step
		c.budget.QualityFloor = floor
	}
}

// WithStorageCompression stores the container compressed; the file name gets
// the matching suffix (".pap.zst" and so on).
func WithStorageCompression(comp Compression) BuildOption {
	return func(c *buildConfig) { c.compression = comp }
}

func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

func WithBuildWriteOptions(opts ...WriteOption) BuildOption {
	return func(c *buildConfig) { c.write = append(c.write, opts...) }
}

func WithBuildBudgetOptions(opts ...BudgetOption) BuildOption {
	return func(c *buildConfig) { c.budgetOpts = append(c.budgetOpts, opts...) }
}

// BuildResult describes a container produced by BuildAndPackage.
type BuildResult struct {
	ContainerPath string
	// CompressedImagePath is empty unless WithKeepCompressedImage(true) was given.
	CompressedImagePath string
	Compressed          Compressed
}

// BuildAndPackage re-encodes the image at imagePath under a byte budget and
// packages it with the annotation at annotationPath into
// <outDir>/<image name>.pap.
//
// The image is re-encoded in the format named by its own extension, starting
// at quality 100 and stepping down by 5 until it fits in 1,300,000 bytes or
// quality 1 would be undershot (see [CompressToBudget] and the With* options).
// Reaching the floor is not an error: inspect BuildResult.Compressed.Outcome.
//
// The pipeline runs in memory; the re-encoded image only touches disk when
// WithKeepCompressedImage(true) is given. BuildAndPackage is not
// transactional: on error, files written so far are left in place.
//
// Errors: ErrEncoding for missing, empty or undecodable inputs; ErrDirectory
// when the output directory is missing (and creation was not requested) or
// cannot be created; ErrUnsupportedFormat when the image extension has no
// encoder.
func BuildAndPackage(imagePath, annotationPath string, opts ...BuildOption) (BuildResult, error) {
	cfg := buildConfig{
		budget:      DefaultBudget(),
		outDir:      filepath.Dir(annotationPath),
		compression: CompNone,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	name, ext := splitName(imagePath)
	if !CanEncode(ext) {
		return BuildResult{}, fmt.Errorf("%w: cannot re-encode %q images", ErrUnsupportedFormat, ext)
	}
	cfg.budget.Format = ext

	if cfg.createDir {
		if err := ensureDir(cfg.outDir); err != nil {
			return BuildResult{}, err
		}
	} else if err := requireDir(cfg.outDir); err != nil {
		return BuildResult{}, err
	}

	raw, err := readInput(imagePath)
	if err != nil {
		return BuildResult{}, err
	}
	annotation, err := readInput(annotationPath)
	if err != nil {
		return BuildResult{}, err
	}
	src, codec, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return BuildResult{}, fmt.Errorf("%w: decode %s: %v", ErrEncoding, imagePath, err)
	}
	log := cfg.logger.With("image", imagePath)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("source image decoded",
			"codec", codec,
			"input_size_bytes", len(raw),
			"width", src.Bounds().Dx(),
			"height", src.Bounds().Dy(),
			"alpha", hasAlpha(src))
	}

	budgetOpts := append([]BudgetOption{WithAttemptHook(func(a Attempt) {
		log.Debug("encode attempt",
			"attempt", a.N,
			"quality", a.Quality,
			"size_bytes", a.Size,
			"max_bytes", cfg.budget.MaxBytes)
	})}, cfg.budgetOpts...)
	comp, err := CompressToBudget(src, cfg.budget, budgetOpts...)
	if err != nil {
		return BuildResult{}, err
	}
	if comp.Outcome == FloorReached && comp.Oversized() {
		log.Warn("quality floor reached before meeting budget",
			"quality", comp.Quality,
			"size_bytes", len(comp.Data),
			"max_bytes", cfg.budget.MaxBytes)
	}

	res := BuildResult{Compressed: comp}
	if cfg.keepImage {
		res.CompressedImagePath = filepath.Join(cfg.outDir, IntermediatePrefix+filepath.Base(imagePath))
		if err := os.WriteFile(res.CompressedImagePath, comp.Data, 0o644); err != nil {
			return res, err
		}
	}

	c := Container{Name: name, ImageFormat: ext, Image: comp.Data, Annotation: annotation}
	res.ContainerPath = filepath.Join(cfg.outDir, c.Filename()+cfg.compression.Suffix())
	if err := WriteFile(res.ContainerPath, c, cfg.write...); err != nil {
		return res, err
	}
	log.Info("container written",
		"path", res.ContainerPath,
		"quality", comp.Quality,
		"image_size_bytes", len(comp.Data),
		"outcome", comp.Outcome.String())
	return res, nil
}
