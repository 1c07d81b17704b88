package mobi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

// rawEXTH assembles an EXTH block by hand: declared length and count are
// written as given, followed by body.
func rawEXTH(headerLen, count uint32, body []byte) []byte {
	b := append([]byte("EXTH"), binary.BigEndian.AppendUint32(nil, headerLen)...)
	b = binary.BigEndian.AppendUint32(b, count)
	return append(b, body...)
}

func rawRecord(code uint32, payload []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, code)
	b = binary.BigEndian.AppendUint32(b, uint32(8+len(payload)))
	return append(b, payload...)
}

func TestTagsRoundTrip(t *testing.T) {
	in := []Tag{
		StringTag{TagCode: TagAuthor, Value: []byte("Jane Doe")},
		StringTag{TagCode: TagLanguage, Value: []byte("en")},
		Uint32Tag{TagCode: TagCoverOffset, Value: 3},
		BoolTag{TagCode: TagHasFakeCover, Value: true},
		CreatorSoftwareTag{Value: CreatorKindlegenLinux},
		Uint32Tag{TagCode: TagCreatorMajorVersion, Value: 2},
		RawTag{TagCode: 9999, Data: []byte{1, 2, 3}},
		RawTag{TagCode: TagWatermark, Data: []byte("wm")},
	}
	var buf bytes.Buffer
	if err := EncodeTags(&buf, in); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != EXTHLen(in) {
		t.Fatalf("encoded %d bytes, EXTHLen says %d", buf.Len(), EXTHLen(in))
	}
	buf.WriteString("tail")
	out, err := DecodeTags(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("tags mismatch\nwant: %#v\ngot:  %#v", in, out)
	}
	if buf.String() != "tail" {
		t.Fatalf("EXTH block over- or under-read, left %q", buf.String())
	}
}

func TestDecodeTags_ShapeFallback(t *testing.T) {
	body := append(rawRecord(uint32(TagCoverOffset), []byte{0, 1}),
		rawRecord(uint32(TagHasFakeCover), []byte{0, 0, 0, 2})...)
	body = append(body, rawRecord(uint32(TagHasFakeCover), []byte{0, 0, 0, 0})...)
	body = append(body, rawRecord(uint32(TagCreatorSoftware), []byte{0, 0, 0, 77})...)
	headerLen := 12 + len(body)
	block := append(rawEXTH(uint32(headerLen), 4, body), make([]byte, headerLen%4)...)
	out, err := DecodeTags(bytes.NewReader(block))
	if err != nil {
		t.Fatal(err)
	}
	want := []Tag{
		RawTag{TagCode: TagCoverOffset, Data: []byte{0, 1}},
		RawTag{TagCode: TagHasFakeCover, Data: []byte{0, 0, 0, 2}},
		BoolTag{TagCode: TagHasFakeCover, Value: false},
		CreatorSoftwareTag{Value: 77},
	}
	if !reflect.DeepEqual(want, out) {
		t.Fatalf("got %#v", out)
	}
	if cs := out[3].(CreatorSoftwareTag); cs.Value.Known() || cs.Value.String() != "Unknown(77)" {
		t.Fatalf("unexpected creator software %v", cs.Value)
	}
}

func TestDecodeTags_CountExceedsBlock(t *testing.T) {
	body := rawRecord(uint32(TagCoverOffset), []byte{0, 0, 0, 1})
	r := bytes.NewReader(append(rawEXTH(uint32(12+len(body)), 5, body), "next"...))
	out, err := DecodeTags(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(out))
	}
	if r.Len() != 4 {
		t.Fatalf("expected 4 unread bytes, got %d", r.Len())
	}
}

func TestDecodeTags_RecordOverrunsBlock(t *testing.T) {
	// Declared block: header, one record header and 2 bytes. The record
	// claims 8 payload bytes, so it is dropped and the 2 bytes drained.
	body := rawRecord(uint32(TagAuthor), []byte("overflow"))
	blockLen := uint32(12 + 8 + 2)
	raw := rawEXTH(blockLen, 1, body[:10])
	raw = append(raw, 0, 0) // blockLen%4 padding
	r := bytes.NewReader(append(raw, "next"...))
	out, err := DecodeTags(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no tags, got %#v", out)
	}
	if r.Len() != 4 {
		t.Fatalf("expected 4 unread bytes, got %d", r.Len())
	}
}

func TestDecodeTags_Padding(t *testing.T) {
	in := []Tag{StringTag{TagCode: TagAuthor, Value: []byte("abc")}}
	// 12 + 8 + 3 = 23, padded by 23%4.
	if got := EXTHLen(in); got != 26 {
		t.Fatalf("EXTHLen = %d, want 26", got)
	}
	var buf bytes.Buffer
	if err := EncodeTags(&buf, in); err != nil {
		t.Fatal(err)
	}
	if binary.BigEndian.Uint32(buf.Bytes()[4:]) != 23 {
		t.Fatal("declared length must exclude padding")
	}
	if _, err := DecodeTags(bytes.NewReader(buf.Bytes()[:24])); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated for missing padding, got %v", err)
	}
}

func TestDecodeTags_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{"bad magic", append([]byte("EXTX"), make([]byte, 8)...), ErrBadMagic},
		{"short header length", rawEXTH(8, 0, nil), ErrInvalidHeader},
		{"short record length", rawEXTH(24, 1, append(binary.BigEndian.AppendUint32(nil, 100), 0, 0, 0, 4)), ErrInvalidHeader},
		{"truncated header", []byte("EXTH\x00\x00"), ErrTruncated},
		{"truncated record", rawEXTH(40, 1, rawRecord(100, []byte("ab"))[:6]), ErrTruncated},
		{"truncated drain", rawEXTH(40, 0, nil), ErrTruncated},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := DecodeTags(bytes.NewReader(c.raw)); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}

	_, err := decodeTags(bytes.NewReader(rawEXTH(1<<20, 0, nil)), Limits{MaxEXTHLen: 1 << 10}.withDefaults())
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestEncodeTags_WriterError(t *testing.T) {
	tags := []Tag{StringTag{TagCode: TagAuthor, Value: []byte("someone")}}
	if err := EncodeTags(&failingWriter{n: 14}, tags); err == nil {
		t.Fatal("expected writer error")
	}
}

func TestStringTagText(t *testing.T) {
	tag := StringTag{TagCode: TagPublisher, Value: []byte{'C', 'a', 'f', 0xE9}}
	s, err := tag.Text(EncodingCP1252)
	if err != nil || s != "Café" {
		t.Fatalf("CP1252: %q, %v", s, err)
	}
	if _, err := tag.Text(EncodingUTF8); !errors.Is(err, ErrUTF8Decode) {
		t.Fatalf("expected ErrUTF8Decode, got %v", err)
	}
}

func TestTagCodeString(t *testing.T) {
	if TagAuthor.String() != "Author" || !TagAuthor.Known() {
		t.Fatal("TagAuthor")
	}
	if TagCode(4242).String() != "Unknown(4242)" || TagCode(4242).Known() {
		t.Fatal("unknown tag code")
	}
}
