package pap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile reads a container file and returns the container JSON bytes.
// Files named "*.pap.zst", "*.pap.lz4", "*.pap.br" or "*.pap.zip" are
// decompressed first (see [CompressionForPath]); anything else is read as is.
func ReadFile(path string, opts ...ReadOption) ([]byte, error) {
	cfg := newReadConfig(opts)
	return readContainerFile(path, cfg)
}

func readContainerFile(path string, cfg readConfig) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil && uint64(info.Size()) > cfg.limits.MaxContainerLen {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrLimitExceeded, path, info.Size())
	}
	data, err := readAll(f)
	if err != nil {
		return nil, err
	}
	return decompressContainer(CompressionForPath(path), data, cfg.limits.MaxContainerLen)
}

// WriteFile encodes c and writes it to path, compressing according to the
// file name suffix.
func WriteFile(path string, c Container, opts ...WriteOption) error {
	b, err := EncodeContainer(c, opts...)
	if err != nil {
		return err
	}
	out, err := compressContainer(CompressionForPath(path), c.Filename(), b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoadFile reads and fully decodes a container file.
func LoadFile(path string, opts ...ReadOption) (*Decoded, error) {
	data, err := ReadFile(path, opts...)
	if err != nil {
		return nil, err
	}
	return Decode(data, opts...)
}

// LoadRawFile reads a container file and returns its record without decoding
// the image or parsing the annotation.
func LoadRawFile(path string, opts ...ReadOption) (Container, error) {
	data, err := ReadFile(path, opts...)
	if err != nil {
		return Container{}, err
	}
	return DecodeRaw(data, opts...)
}

// splitName splits a path into its base name without extension and the
// extension with its leading dot. A leading dot alone does not start an
// extension, so ".hidden" has no extension.
func splitName(p string) (name, ext string) {
	base := filepath.Base(p)
	ext = filepath.Ext(base)
	name = strings.TrimSuffix(base, ext)
	if name == "" || strings.Trim(name, ".") == "" {
		return base, ""
	}
	return name, ext
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectory, dir)
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	return nil
}
