package pap

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func() (*zstd.Decoder, error) { return zstd.NewReader(nil) }
	zipCreate     = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	zipClose      = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen       = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll       = io.ReadAll
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite   = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
)

var compressionSuffixes = []struct {
	comp   Compression
	suffix string
	name   string
}{
	{CompNone, "", "none"},
	{CompZIP, ".zip", "zip"},
	{CompZSTD, ".zst", "zstd"},
	{CompLZ4, ".lz4", "lz4"},
	{CompBR, ".br", "br"},
}

func (c Compression) String() string {
	for _, s := range compressionSuffixes {
		if s.comp == c {
			return s.name
		}
	}
	return "unknown"
}

// Suffix returns the suffix appended after ".pap" for files stored with c.
func (c Compression) Suffix() string {
	for _, s := range compressionSuffixes {
		if s.comp == c {
			return s.suffix
		}
	}
	return ""
}

// ParseCompression maps a name such as "zstd" (or a suffix such as ".zst")
// to a Compression. The empty string means CompNone.
func ParseCompression(s string) (Compression, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CompNone, nil
	}
	for _, c := range compressionSuffixes {
		if s == c.name || (c.suffix != "" && (s == c.suffix || s == c.suffix[1:])) {
			return c.comp, nil
		}
	}
	return CompNone, fmt.Errorf("%w: %q", ErrUnsupportedCompression, s)
}

// CompressionForPath infers the storage compression from a container file
// name: "x.pap.zst" is CompZSTD, "x.pap.br" is CompBR, and so on. Any other
// name, including "x.pap", is CompNone.
func CompressionForPath(p string) Compression {
	base := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	for _, c := range compressionSuffixes {
		if c.suffix != "" && strings.HasSuffix(base, Ext+c.suffix) {
			return c.comp
		}
	}
	return CompNone
}

// compressContainer wraps container JSON bytes for storage. entry names the
// single file inside ZIP archives.
func compressContainer(comp Compression, entry string, data []byte) ([]byte, error) {
	switch comp {
	case CompNone:
		return data, nil
	case CompZIP:
		var buf bytes.Buffer
		if err := zipCompressNamed(&buf, entry, data); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompZSTD:
		return zstdCompress(data)
	case CompLZ4:
		return lz4Compress(data)
	case CompBR:
		return brotliCompress(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, comp)
	}
}

// decompressContainer reverses compressContainer. Output larger than limit is
// rejected with ErrLimitExceeded.
func decompressContainer(comp Compression, data []byte, limit uint64) ([]byte, error) {
	var out []byte
	var err error
	switch comp {
	case CompNone:
		out = data
	case CompZIP:
		out, err = zipDecompress(data, limit)
	case CompZSTD:
		out, err = zstdDecompress(data, limit)
	case CompLZ4:
		out, err = lz4Decompress(data, limit)
	case CompBR:
		out, err = brotliDecompress(data, limit)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, comp)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > limit {
		return nil, fmt.Errorf("%w: container length %d", ErrLimitExceeded, len(out))
	}
	return out, nil
}

// zipCompressNamed creates a ZIP archive with a single entry.
func zipCompressNamed(w io.Writer, name string, in []byte) error {
	zw := zip.NewWriter(w)
	entry, err := zipCreate(zw, name)
	if err != nil {
		_ = zipClose(zw)
		return err
	}
	if _, err := entry.Write(in); err != nil {
		_ = zipClose(zw)
		return err
	}
	return zipClose(zw)
}

// zipDecompress extracts the single ".pap" entry of a ZIP archive.
func zipDecompress(zipBytes []byte, limit uint64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: zip: %v", ErrMalformedContainer, err)
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip must contain exactly one entry", ErrMalformedContainer)
	}
	zf := zr.File[0]
	if zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("%w: zip entry must be a file", ErrMalformedContainer)
	}
	if !strings.HasSuffix(strings.ToLower(zf.Name), Ext) {
		return nil, fmt.Errorf("%w: zip entry %q is not a %s file", ErrMalformedContainer, zf.Name, Ext)
	}
	if zf.UncompressedSize64 > limit {
		return nil, fmt.Errorf("%w: zip entry size %d", ErrLimitExceeded, zf.UncompressedSize64)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readAll(io.LimitReader(rc, int64(limit)+1))
}

// zstdCompress compresses in using the Zstandard algorithm.
func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// zstdDecompress decompresses a Zstandard stream, stopping past limit bytes.
func zstdDecompress(in []byte, limit uint64) ([]byte, error) {
	dec, err := newZstdReader()
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	if err := dec.Reset(bytes.NewReader(in)); err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrMalformedContainer, err)
	}
	out, err := readAll(io.LimitReader(dec, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrMalformedContainer, err)
	}
	return out, nil
}

// lz4Compress compresses in using the LZ4 frame format.
func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lz4CompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lz4CompressTo writes LZ4-compressed data to w.
func lz4CompressTo(w io.Writer, in []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return err
	}
	return lz4Close(zw)
}

// lz4Decompress decompresses an LZ4 frame, stopping past limit bytes.
func lz4Decompress(in []byte, limit uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrMalformedContainer, err)
	}
	return b, nil
}

// brotliCompress compresses in using the Brotli algorithm.
func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := brotliCompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// brotliCompressTo writes Brotli-compressed data to w.
func brotliCompressTo(w io.Writer, in []byte) error {
	bw := brotli.NewWriter(w)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return err
	}
	return brotliClose(bw)
}

// brotliDecompress decompresses a Brotli stream, stopping past limit bytes.
func brotliDecompress(in []byte, limit uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: brotli: %v", ErrMalformedContainer, err)
	}
	return b, nil
}
