package mobi

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncode_Validation(t *testing.T) {
	cases := []struct {
		name string
		doc  *Document
		opts []WriteOption
		want error
	}{
		{"nil document", nil, nil, ErrValidation},
		{"empty name", &Document{Name: "  "}, nil, ErrValidation},
		{"long name", &Document{Name: strings.Repeat("n", 32)}, nil, ErrValidation},
		{"nul in name", &Document{Name: "a\x00b"}, nil, ErrValidation},
		{"huff/cdic", &Document{Name: "x"}, []WriteOption{WithCompression(CompressionHuffCDIC)}, ErrUnsupportedCompression},
		{"unknown encoding", &Document{Name: "x", Encoding: 1251}, nil, ErrUnsupportedEncoding},
		{"nil tag", &Document{Name: "x", Tags: []Tag{nil}}, nil, ErrValidation},
		{"text limit", &Document{Name: "x", Text: make([]byte, 100)}, []WriteOption{WithWriteLimits(Limits{MaxTextLen: 99})}, ErrLimitExceeded},
		{"record limit", &Document{Name: "x", Text: make([]byte, 2*RecordSize+1)}, []WriteOption{WithWriteLimits(Limits{MaxTextRecords: 2})}, ErrLimitExceeded},
		{"title encoding", &Document{Name: "x", Title: "日本", Encoding: EncodingCP1252}, nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, c.doc, c.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if buf.Len() != 0 {
				t.Fatalf("%d bytes written before the error", buf.Len())
			}
		})
	}
}

func TestEncode_AcceptsLimits(t *testing.T) {
	doc := &Document{Name: strings.Repeat("n", 31), Text: make([]byte, 2*RecordSize)}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, WithWriteLimits(Limits{MaxTextRecords: 2, MaxTextLen: 2 * RecordSize})); err != nil {
		t.Fatal(err)
	}
	book, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if book.Container.DisplayName() != doc.Name || len(book.Text) != 2*RecordSize {
		t.Fatalf("name %q, %d bytes", book.Container.DisplayName(), len(book.Text))
	}
}

func TestEncode_WriterError(t *testing.T) {
	full := len(encodeDocument(t, sampleDocument()))
	for _, n := range []int{0, 100, 200, full - 1} {
		if err := Encode(&failingWriter{n: n}, sampleDocument()); !errors.Is(err, errWrite) {
			t.Fatalf("fail after %d bytes: got %v", n, err)
		}
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	got := Limits{MaxEXTHLen: 5}.withDefaults()
	want := DefaultLimits()
	want.MaxEXTHLen = 5
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if (Limits{}).withDefaults() != DefaultLimits() {
		t.Fatal("zero limits must equal the defaults")
	}
}
