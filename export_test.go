package mobi

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func TestExportImport_AllCodecs(t *testing.T) {
	text := sampleText(20_000)
	for _, codec := range []ExportCodec{ExportNone, ExportZIP, ExportZSTD, ExportLZ4, ExportBrotli, ExportSnappy} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := ExportText(&buf, text, codec); err != nil {
				t.Fatal(err)
			}
			if codec != ExportNone && buf.Len() >= len(text) {
				t.Fatalf("%v did not compress: %d bytes", codec, buf.Len())
			}
			got, err := ImportText(&buf, codec, uint64(len(text)))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, text) {
				t.Fatal("text mismatch")
			}
		})
	}
}

func TestImportText_Limit(t *testing.T) {
	text := []byte("0123456789")
	for _, codec := range []ExportCodec{ExportNone, ExportZIP, ExportZSTD, ExportLZ4, ExportBrotli, ExportSnappy} {
		var buf bytes.Buffer
		if err := ExportText(&buf, text, codec); err != nil {
			t.Fatal(err)
		}
		if _, err := ImportText(&buf, codec, 9); !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("%v: expected ErrLimitExceeded, got %v", codec, err)
		}
	}

	got, err := ImportText(bytes.NewReader(text), ExportNone, ^uint64(0))
	if err != nil || !bytes.Equal(got, text) {
		t.Fatalf("unbounded import: %q %v", got, err)
	}
}

func TestImportText_ZipArchiveBounded(t *testing.T) {
	archive := bytes.Repeat([]byte{'z'}, int(zipArchiveLimit(10))+1)
	r := bytes.NewReader(archive)
	if _, err := ImportText(r, ExportZIP, 10); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("read past the archive bound, %d bytes left", r.Len())
	}
	if got := zipArchiveLimit(^uint64(0)); got != ^uint64(0) {
		t.Fatalf("unbounded limit overflowed to %d", got)
	}
}

func TestImportText_BadZip(t *testing.T) {
	if _, err := ImportText(bytes.NewReader([]byte("not a zip")), ExportZIP, 100); err == nil {
		t.Fatal("expected error for garbage")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(name))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportText(&buf, ExportZIP, 100); err == nil {
		t.Fatal("expected error for multi-entry zip")
	}
}

func TestExportCodecNames(t *testing.T) {
	for _, name := range []string{"none", "zip", "zstd", "lz4", "brotli", "snappy"} {
		c, err := ParseExportCodec(name)
		if err != nil {
			t.Fatal(err)
		}
		if c.String() != name {
			t.Fatalf("%s parsed as %v", name, c)
		}
	}
	if _, err := ParseExportCodec("gzip"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
	if err := ExportText(io.Discard, nil, ExportCodec(99)); err == nil {
		t.Fatal("expected error exporting with unknown codec")
	}
	if _, err := ImportText(bytes.NewReader(nil), ExportCodec(99), 1); err == nil {
		t.Fatal("expected error importing with unknown codec")
	}
}

func TestExportText_InjectedFailures(t *testing.T) {
	injected := errors.New("injected")

	t.Run("zstd writer", func(t *testing.T) {
		orig := newZstdWriter
		newZstdWriter = func(io.Writer) (*zstd.Encoder, error) { return nil, injected }
		defer func() { newZstdWriter = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportZSTD); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("zstd reader", func(t *testing.T) {
		orig := newZstdReader
		newZstdReader = func(io.Reader) (*zstd.Decoder, error) { return nil, injected }
		defer func() { newZstdReader = orig }()
		if _, err := ImportText(bytes.NewReader(nil), ExportZSTD, 1); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("zip create", func(t *testing.T) {
		orig := zipCreate
		zipCreate = func(*zip.Writer, string) (io.Writer, error) { return nil, injected }
		defer func() { zipCreate = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportZIP); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("zip close", func(t *testing.T) {
		orig := zipClose
		zipClose = func(*zip.Writer) error { return injected }
		defer func() { zipClose = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportZIP); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("lz4 close", func(t *testing.T) {
		orig := lz4Close
		lz4Close = func(*lz4.Writer) error { return injected }
		defer func() { lz4Close = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportLZ4); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("brotli close", func(t *testing.T) {
		orig := brotliClose
		brotliClose = func(*brotli.Writer) error { return injected }
		defer func() { brotliClose = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportBrotli); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("snappy close", func(t *testing.T) {
		orig := snappyClose
		snappyClose = func(*snappy.Writer) error { return injected }
		defer func() { snappyClose = orig }()
		if err := ExportText(io.Discard, []byte("x"), ExportSnappy); !errors.Is(err, injected) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("plain writer", func(t *testing.T) {
		if err := ExportText(&failingWriter{}, []byte("x"), ExportNone); !errors.Is(err, errWrite) {
			t.Fatalf("got %v", err)
		}
	})
}
