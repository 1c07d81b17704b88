package mobi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// Book is a decoded MOBI file.
type Book struct {
	Container ContainerHeader
	Header    MetadataHeader
	Tags      []Tag
	FullName  []byte // raw, in Header.TextEncoding
	Text      []byte // concatenated text records, in Header.TextEncoding
}

// Title returns the full name decoded with the book's text encoding, falling
// back to the PalmDB name when the header carries none.
func (b *Book) Title() (string, error) {
	if len(b.FullName) == 0 {
		return b.Container.DisplayName(), nil
	}
	return DecodeText(b.FullName, b.Header.TextEncoding)
}

// Tag returns the first tag with the given code.
func (b *Book) Tag(code TagCode) (Tag, bool) {
	for _, t := range b.Tags {
		if t.Code() == code {
			return t, true
		}
	}
	return nil, false
}

// Open decodes the MOBI file at path.
func Open(path string, opts ...ReadOption) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mobi: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, opts...)
}

// Decode reads a MOBI book from r.
//
// The decoding process:
//  1. Reads the PalmDB header and record table
//  2. Seeks to record 0 and reads the PalmDOC and MOBI headers
//  3. Reads the EXTH block if the header flags announce one
//  4. Reads the full name stored in record 0
//  5. Reads text records 1..TextRecordCount in order, then decompresses them
//     concurrently and concatenates the results in record order
//
// Decode returns ErrBadMagic for files that are not MOBI books,
// ErrUnsupportedRecordSize, ErrEncrypted for DRM-protected text,
// ErrUnsupportedCompression for HUFF/CDIC text, ErrTruncated for short
// input and ErrCorruptBackReference for corrupt records.
func Decode(r io.ReadSeeker, opts ...ReadOption) (*Book, error) {
	cfg := readConfig{ctx: context.Background(), limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	container, err := DecodeContainer(r)
	if err != nil {
		return nil, err
	}
	if len(container.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidHeader)
	}
	b := &Book{Container: container}

	rec0 := int64(container.Records[0].Offset)
	if _, err := r.Seek(rec0, io.SeekStart); err != nil {
		return nil, err
	}
	if b.Header, err = decodeMetadataHeader(r, cfg.limits); err != nil {
		return nil, err
	}
	if b.Header.HasEXTH() {
		if b.Tags, err = decodeTags(r, cfg.limits); err != nil {
			return nil, err
		}
	}
	if err := b.readFullName(r, rec0, cfg.limits); err != nil {
		return nil, err
	}
	if cfg.headersOnly {
		return b, nil
	}

	if b.Header.Encryption != EncryptionNone {
		return nil, fmt.Errorf("%w: %v", ErrEncrypted, b.Header.Encryption)
	}
	if c := b.Header.Compression; !c.Stored() && c != CompressionPalmDOC {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, c)
	}

	raw, err := readTextRecords(r, container, b.Header, cfg.limits)
	if err != nil {
		return nil, err
	}
	text, err := decodeTextRecords(cfg.ctx, raw, b.Header, cfg.workerCount())
	if err != nil {
		return nil, err
	}
	if uint64(len(text)) > cfg.limits.MaxTextLen {
		return nil, fmt.Errorf("%w: text of %d bytes", ErrLimitExceeded, len(text))
	}
	if cfg.truncateToLength && uint64(len(text)) > uint64(b.Header.TextLength) {
		text = text[:b.Header.TextLength]
	}
	b.Text = text
	return b, nil
}

func (b *Book) readFullName(r io.ReadSeeker, rec0 int64, limits Limits) error {
	n := b.Header.FullNameLength
	if n == 0 {
		return nil
	}
	if n > limits.MaxFullNameLen {
		return fmt.Errorf("%w: full name of %d bytes", ErrLimitExceeded, n)
	}
	if _, err := r.Seek(rec0+int64(b.Header.FullNameOffset), io.SeekStart); err != nil {
		return err
	}
	name, err := newFieldReader(r).bytes(int(n), "full name")
	if err != nil {
		return err
	}
	b.FullName = name
	return nil
}

// readTextRecords reads the stored bytes of each text record. A record runs
// from its offset to the next record's offset, or to the end of r.
func readTextRecords(r io.ReadSeeker, c ContainerHeader, h MetadataHeader, limits Limits) ([][]byte, error) {
	count := int(h.TextRecordCount)
	if count > limits.MaxTextRecords {
		return nil, fmt.Errorf("%w: %d text records", ErrLimitExceeded, count)
	}
	if count > len(c.Records)-1 {
		return nil, fmt.Errorf("%w: %d text records but only %d records", ErrInvalidHeader, count, len(c.Records))
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	raw := make([][]byte, count)
	for i := 1; i <= count; i++ {
		start := int64(c.Records[i].Offset)
		end := size
		if i+1 < len(c.Records) {
			end = int64(c.Records[i+1].Offset)
		}
		if end > size {
			end = size
		}
		if start > end {
			return nil, &TruncatedError{Field: fmt.Sprintf("text record %d", i), Offset: size}
		}
		if end-start > int64(limits.MaxRecordLen) {
			return nil, fmt.Errorf("%w: text record %d is %d bytes", ErrLimitExceeded, i, end-start)
		}
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return nil, err
		}
		buf, err := newFieldReader(r).bytes(int(end-start), fmt.Sprintf("text record %d", i))
		if err != nil {
			return nil, err
		}
		raw[i-1] = buf
	}
	return raw, nil
}

// decodeTextRecords strips trailing entries from each record and decodes the
// records on up to workers goroutines. Results are joined in record order.
func decodeTextRecords(ctx context.Context, raw [][]byte, h MetadataHeader, workers int) ([]byte, error) {
	out := make([][]byte, len(raw))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range raw {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := stripTrailingEntries(raw[i], h.ExtraRecordDataFlags)
			if err != nil {
				return fmt.Errorf("text record %d: %w", i+1, err)
			}
			if h.Compression.Stored() {
				out[i] = data
				return nil
			}
			dec, err := Decompress(data)
			if err != nil {
				return fmt.Errorf("text record %d: %w", i+1, err)
			}
			out[i] = dec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bytes.Join(out, nil), nil
}

// stripTrailingEntries removes the per-record trailing entries announced by
// the extra record data flags. Bit 0 marks a multibyte overlap entry, every
// higher set bit a backward-encoded, self-inclusive size.
func stripTrailingEntries(rec []byte, flags uint32) ([]byte, error) {
	size := 0
	for f := flags >> 1; f != 0; f >>= 1 {
		if f&1 == 0 {
			continue
		}
		n := backwardVarint(rec[:len(rec)-size])
		if n > len(rec)-size {
			return nil, fmt.Errorf("%w: trailing entry of %d bytes", ErrInvalidHeader, n)
		}
		size += n
	}
	if flags&1 != 0 {
		if size >= len(rec) {
			return nil, fmt.Errorf("%w: missing multibyte trailing entry", ErrInvalidHeader)
		}
		n := int(rec[len(rec)-size-1]&0x03) + 1
		if n > len(rec)-size {
			return nil, fmt.Errorf("%w: multibyte trailing entry of %d bytes", ErrInvalidHeader, n)
		}
		size += n
	}
	return rec[:len(rec)-size], nil
}

// backwardVarint reads a size stored at the end of b, most significant
// group first, with the high bit set on the first (leftmost) byte.
func backwardVarint(b []byte) int {
	v, shift := 0, 0
	for i := len(b) - 1; i >= 0 && i >= len(b)-4; i-- {
		v |= int(b[i]&0x7F) << shift
		shift += 7
		if b[i]&0x80 != 0 {
			break
		}
	}
	return v
}
