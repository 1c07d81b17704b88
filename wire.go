package mobi

import (
	"encoding/binary"
	"errors"
	"io"
)

// fieldReader reads big-endian fields from r and tracks how many bytes of
// the current unit have been consumed, so that short reads can be reported
// with an offset.
type fieldReader struct {
	r   io.Reader
	off int64
	buf [8]byte
}

func newFieldReader(r io.Reader) *fieldReader {
	return &fieldReader{r: r}
}

func (fr *fieldReader) full(p []byte, field string) error {
	n, err := io.ReadFull(fr.r, p)
	fr.off += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &TruncatedError{Field: field, Offset: fr.off}
		}
		return err
	}
	return nil
}

func (fr *fieldReader) u8(field string) (uint8, error) {
	if err := fr.full(fr.buf[:1], field); err != nil {
		return 0, err
	}
	return fr.buf[0], nil
}

func (fr *fieldReader) u16(field string) (uint16, error) {
	if err := fr.full(fr.buf[:2], field); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(fr.buf[:2]), nil
}

func (fr *fieldReader) u24(field string) (uint32, error) {
	if err := fr.full(fr.buf[:3], field); err != nil {
		return 0, err
	}
	return uint32(fr.buf[0])<<16 | uint32(fr.buf[1])<<8 | uint32(fr.buf[2]), nil
}

func (fr *fieldReader) u32(field string) (uint32, error) {
	if err := fr.full(fr.buf[:4], field); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(fr.buf[:4]), nil
}

func (fr *fieldReader) i32(field string) (int32, error) {
	v, err := fr.u32(field)
	return int32(v), err
}

func (fr *fieldReader) bytes(n int, field string) ([]byte, error) {
	b := make([]byte, n)
	if err := fr.full(b, field); err != nil {
		return nil, err
	}
	return b, nil
}

// skip consumes exactly n bytes without keeping them.
func (fr *fieldReader) skip(n int64, field string) error {
	got, err := io.CopyN(io.Discard, fr.r, n)
	fr.off += got
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &TruncatedError{Field: field, Offset: fr.off}
		}
		return err
	}
	return nil
}

// fieldWriter accumulates big-endian fields; the first write error sticks.
type fieldWriter struct {
	w   io.Writer
	err error
	buf [8]byte
}

func newFieldWriter(w io.Writer) *fieldWriter {
	return &fieldWriter{w: w}
}

func (fw *fieldWriter) write(p []byte) {
	if fw.err != nil {
		return
	}
	_, fw.err = fw.w.Write(p)
}

func (fw *fieldWriter) u8(v uint8) {
	fw.buf[0] = v
	fw.write(fw.buf[:1])
}

func (fw *fieldWriter) u16(v uint16) {
	binary.BigEndian.PutUint16(fw.buf[:2], v)
	fw.write(fw.buf[:2])
}

func (fw *fieldWriter) u24(v uint32) {
	fw.buf[0] = byte(v >> 16)
	fw.buf[1] = byte(v >> 8)
	fw.buf[2] = byte(v)
	fw.write(fw.buf[:3])
}

func (fw *fieldWriter) u32(v uint32) {
	binary.BigEndian.PutUint32(fw.buf[:4], v)
	fw.write(fw.buf[:4])
}

func (fw *fieldWriter) i32(v int32) { fw.u32(uint32(v)) }

func (fw *fieldWriter) zeros(n int) {
	for ; n > 0 && fw.err == nil; n-- {
		fw.u8(0)
	}
}
