package mobi

import (
	"bytes"
	"fmt"
)

const (
	maxCopyDistance = 2047
	minCopyLength   = 3
	maxCopyLength   = 10
	maxLiteralRun   = 8
)

// DecompressRecord decodes one full-size PalmDOC record.
func DecompressRecord(rec *[RecordSize]byte) ([]byte, error) {
	return Decompress(rec[:])
}

// Decompress decodes PalmDOC (LZ77) compressed bytes. Every byte of src is
// consumed; the output is not truncated to any declared text length.
//
// Opcodes:
//
//	0x00, 0x09-0x7F  literal byte
//	0x01-0x08        copy the next n input bytes verbatim
//	0x80-0xBF        two-byte back-reference: 11-bit distance, 3-bit length-3
//	0xC0-0xFF        space followed by the byte XOR 0x80
func Decompress(src []byte) ([]byte, error) {
	out := make([]byte, 0, 2*len(src))
	for i := 0; i < len(src); {
		op := i
		c := src[i]
		i++
		switch {
		case c == 0x00 || (c >= 0x09 && c <= 0x7F):
			out = append(out, c)

		case c >= 0x01 && c <= 0x08:
			n := int(c)
			if len(src)-i < n {
				return nil, &TruncatedError{Field: "literal run", Offset: int64(len(src))}
			}
			out = append(out, src[i:i+n]...)
			i += n

		case c >= 0x80 && c <= 0xBF:
			if i >= len(src) {
				return nil, &TruncatedError{Field: "back-reference", Offset: int64(len(src))}
			}
			v := int(c&0x3F)<<8 | int(src[i])
			i++
			distance := v >> 3
			length := v&0x07 + minCopyLength
			if distance == 0 || distance > len(out) {
				return nil, &BackReferenceError{Offset: int64(op), Distance: distance, OutputLen: len(out)}
			}
			// Byte by byte: when distance < length the source overlaps the
			// bytes being appended.
			pos := len(out) - distance
			for k := 0; k < length; k++ {
				out = append(out, out[pos+k])
			}

		case c >= 0xC0:
			out = append(out, ' ', c^0x80)

		default:
			return nil, fmt.Errorf("mobi: unhandled opcode %#02x at offset %d", c, op)
		}
	}
	return out, nil
}

// Compress encodes src with PalmDOC compression. Back-references never reach
// outside src, so each record can be compressed on its own.
func Compress(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		if dist, n := longestMatch(src, i); n >= minCopyLength {
			code := 0x8000 | uint16(dist)<<3 | uint16(n-minCopyLength)
			out = append(out, byte(code>>8), byte(code))
			i += n
			continue
		}

		c := src[i]
		if c == ' ' && i+1 < len(src) && src[i+1] >= 0x40 && src[i+1] < 0x80 {
			out = append(out, src[i+1]^0x80)
			i += 2
			continue
		}
		if !needsRun(c) {
			out = append(out, c)
			i++
			continue
		}

		j := i
		for j < len(src) && j-i < maxLiteralRun && needsRun(src[j]) {
			j++
		}
		out = append(out, byte(j-i))
		out = append(out, src[i:j]...)
		i = j
	}
	return out
}

// needsRun reports whether c cannot be emitted as a bare literal.
func needsRun(c byte) bool {
	return (c >= 0x01 && c <= 0x08) || c >= 0x80
}

// longestMatch finds the longest earlier occurrence of src[i:i+n], n in
// [3,10], that lies entirely within the copy window before i.
func longestMatch(src []byte, i int) (distance, n int) {
	start := max(i-maxCopyDistance, 0)
	window := src[start:i]
	for k := minCopyLength; k <= min(maxCopyLength, len(src)-i); k++ {
		j := bytes.LastIndex(window, src[i:i+k])
		if j < 0 {
			break
		}
		distance, n = i-(start+j), k
	}
	return distance, n
}
