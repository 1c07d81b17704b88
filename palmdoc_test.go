package mobi

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestDecompress_Opcodes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"literal", []byte("abc"), "abc"},
		{"nul literal", []byte{0x00, 'x'}, "\x00x"},
		{"literal run", []byte{0x03, 0x41, 0x42, 0x43}, "ABC"},
		{"run bytes are not opcodes", []byte{0x02, 0xC1, 0x80}, "\xC1\x80"},
		{"space pair", []byte{0xC1}, " A"},
		{"space pair high", []byte{0xFF}, " \x7F"},
		// distance 3, length 3
		{"back-reference", []byte{'a', 'b', 'c', 0x80, 0x18}, "abcabc"},
		// distance 1, length 8
		{"self-overlapping", []byte{'A', 0x80, 0x0D}, "AAAAAAAAA"},
		// distance 2, length 10
		{"self-overlapping pair", []byte{'x', 'y', 0x80, 0x17}, "xyxyxyxyxyxy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decompress(tc.in)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecompress_BackReferenceOutOfRange(t *testing.T) {
	// A reference one byte further back than the output reaches must fail
	// cleanly for every output length a record can produce. Once the output
	// is longer than the copy window no encodable distance is out of range.
	for outLen := 0; outLen < RecordSize; outLen++ {
		distance := min(outLen+1, maxCopyDistance)
		code := 0x8000 | distance<<3
		src := append(bytes.Repeat([]byte{'a'}, outLen), byte(code>>8), byte(code))
		out, err := Decompress(src)
		if outLen+1 <= maxCopyDistance {
			if !errors.Is(err, ErrCorruptBackReference) {
				t.Fatalf("outLen %d: expected ErrCorruptBackReference, got %v", outLen, err)
			}
			continue
		}
		if err != nil || len(out) != outLen+minCopyLength {
			t.Fatalf("outLen %d: got %d bytes, err %v", outLen, len(out), err)
		}
	}
}

func TestDecompress_ZeroDistance(t *testing.T) {
	_, err := Decompress([]byte{'a', 'b', 0x80, 0x00})
	var bre *BackReferenceError
	if !errors.As(err, &bre) {
		t.Fatalf("expected BackReferenceError, got %v", err)
	}
	if bre.Distance != 0 || bre.Offset != 2 || bre.OutputLen != 2 {
		t.Fatalf("unexpected error fields: %+v", bre)
	}
}

func TestDecompress_Truncated(t *testing.T) {
	cases := map[string][]byte{
		"literal run":    {'a', 0x05, 'b', 'c'},
		"back-reference": {'a', 'b', 'c', 0x80},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decompress(in)
			var te *TruncatedError
			if !errors.As(err, &te) {
				t.Fatalf("expected TruncatedError, got %v", err)
			}
			if te.Offset != int64(len(in)) {
				t.Fatalf("offset %d want %d", te.Offset, len(in))
			}
			if !errors.Is(err, ErrTruncated) {
				t.Fatal("expected errors.Is ErrTruncated")
			}
		})
	}
}

func TestDecompressRecord_Deterministic(t *testing.T) {
	var rec [RecordSize]byte
	for i := range rec {
		rec[i] = byte('a' + i%26)
	}
	rec[100] = 0xC5
	rec[200], rec[201] = 0x80, 0x1A
	a, err := DecompressRecord(&rec)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecompressRecord(&rec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("decompression is not deterministic")
	}
}

func TestDecompress_RandomInputNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var rec [RecordSize]byte
	for i := 0; i < 200; i++ {
		rng.Read(rec[:])
		_, _ = DecompressRecord(&rec)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	binary := make([]byte, 600)
	rng.Read(binary)
	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte(" A"),
		[]byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 90)),
		[]byte("<html><body><p>Hello, World</p><p>Hello, World</p></body></html>"),
		bytes.Repeat([]byte{0x01, 0x02, 0x08, 0x09, 0x80, 0xFF}, 50),
		[]byte("caf\xc3\xa9 na\xc3\xafve \xe2\x80\x94 r\xc3\xa9sum\xc3\xa9"),
		binary,
		[]byte("ends with space "),
	}
	for i, in := range inputs {
		out, err := Decompress(Compress(in))
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("input %d: round trip mismatch\nwant %q\ngot  %q", i, in, out)
		}
	}
}

func TestCompress_ShrinksRepetitiveText(t *testing.T) {
	in := []byte(strings.Repeat("abcdefgh ", 500))[:RecordSize]
	out := Compress(in)
	if len(out) >= len(in)/2 {
		t.Fatalf("expected compression, got %d bytes from %d", len(out), len(in))
	}
}
