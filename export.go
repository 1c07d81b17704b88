package mobi

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ExportCodec selects how ExportText stores extracted text.
type ExportCodec uint16

const (
	ExportNone ExportCodec = iota
	ExportZIP
	ExportZSTD
	ExportLZ4
	ExportBrotli
	ExportSnappy
)

var exportCodecNames = map[ExportCodec]string{
	ExportNone:   "none",
	ExportZIP:    "zip",
	ExportZSTD:   "zstd",
	ExportLZ4:    "lz4",
	ExportBrotli: "brotli",
	ExportSnappy: "snappy",
}

func (c ExportCodec) String() string { return enumString(exportCodecNames, c) }

// ParseExportCodec maps a codec name as printed by String back to its value.
func ParseExportCodec(name string) (ExportCodec, error) {
	for c, n := range exportCodecNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("mobi: unknown export codec %q", name)
}

// exportEntryName is the single entry of a ZIP export.
const exportEntryName = "text.txt"

// Function variables for testing injection.
var (
	newZstdWriter = func(w io.Writer) (*zstd.Encoder, error) { return zstd.NewWriter(w) }
	newZstdReader = func(r io.Reader) (*zstd.Decoder, error) { return zstd.NewReader(r) }
	zipCreate     = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	zipClose      = func(zw *zip.Writer) error { return zw.Close() }
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
	snappyClose   = func(w *snappy.Writer) error { return w.Close() }
)

// ExportText writes text to w using codec.
func ExportText(w io.Writer, text []byte, codec ExportCodec) error {
	switch codec {
	case ExportNone:
		_, err := w.Write(text)
		return err
	case ExportZIP:
		return zipExport(w, text)
	case ExportZSTD:
		return zstdExport(w, text)
	case ExportLZ4:
		return lz4Export(w, text)
	case ExportBrotli:
		return brotliExport(w, text)
	case ExportSnappy:
		return snappyExport(w, text)
	default:
		return fmt.Errorf("mobi: unknown export codec %v", codec)
	}
}

// ImportText reads back what ExportText wrote. It fails with
// ErrLimitExceeded when the text would exceed limit bytes.
func ImportText(r io.Reader, codec ExportCodec, limit uint64) ([]byte, error) {
	var src io.Reader
	switch codec {
	case ExportNone:
		src = r
	case ExportZIP:
		return zipImport(r, limit)
	case ExportZSTD:
		dec, err := newZstdReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	case ExportLZ4:
		src = lz4.NewReader(r)
	case ExportBrotli:
		src = brotli.NewReader(r)
	case ExportSnappy:
		src = snappy.NewReader(r)
	default:
		return nil, fmt.Errorf("mobi: unknown export codec %v", codec)
	}
	return readLimited(src, limit)
}

func readLimited(r io.Reader, limit uint64) ([]byte, error) {
	n := int64(math.MaxInt64)
	if limit < math.MaxInt64 {
		n = int64(limit) + 1
	}
	b, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > limit {
		return nil, fmt.Errorf("%w: exported text exceeds %d bytes", ErrLimitExceeded, limit)
	}
	return b, nil
}

func zipExport(w io.Writer, text []byte) error {
	zw := zip.NewWriter(w)
	entry, err := zipCreate(zw, exportEntryName)
	if err != nil {
		_ = zipClose(zw)
		return err
	}
	if _, err := entry.Write(text); err != nil {
		_ = zipClose(zw)
		return err
	}
	return zipClose(zw)
}

// zipArchiveLimit bounds the archive read by zipImport. Entry headers and
// the central directory come on top of the text itself.
func zipArchiveLimit(limit uint64) uint64 {
	const overhead = 64 << 10
	if limit > math.MaxUint64-overhead {
		return math.MaxUint64
	}
	return limit + overhead
}

// zipImport expects exactly one file entry named text.txt.
func zipImport(r io.Reader, limit uint64) ([]byte, error) {
	archive, err := readLimited(r, zipArchiveLimit(limit))
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 || zr.File[0].Name != exportEntryName {
		return nil, fmt.Errorf("mobi: zip export must hold a single %s entry", exportEntryName)
	}
	zf := zr.File[0]
	if zf.UncompressedSize64 > limit {
		return nil, fmt.Errorf("%w: exported text exceeds %d bytes", ErrLimitExceeded, limit)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, limit)
}

func zstdExport(w io.Writer, text []byte) error {
	enc, err := newZstdWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(text); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func lz4Export(w io.Writer, text []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(text); err != nil {
		_ = lz4Close(zw)
		return err
	}
	return lz4Close(zw)
}

func brotliExport(w io.Writer, text []byte) error {
	bw := brotli.NewWriter(w)
	if _, err := bw.Write(text); err != nil {
		_ = brotliClose(bw)
		return err
	}
	return brotliClose(bw)
}

// snappyExport uses the framed stream format, not block Encode.
func snappyExport(w io.Writer, text []byte) error {
	sw := snappy.NewBufferedWriter(w)
	if _, err := sw.Write(text); err != nil {
		_ = snappyClose(sw)
		return err
	}
	return snappyClose(sw)
}
