package mobi

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated              = errors.New("mobi: truncated input")
	ErrBadMagic               = errors.New("mobi: bad magic")
	ErrUnsupportedRecordSize  = errors.New("mobi: unsupported record size")
	ErrCorruptBackReference   = errors.New("mobi: corrupt back-reference")
	ErrUTF8Decode             = errors.New("mobi: invalid UTF-8 text")
	ErrInvalidHeader          = errors.New("mobi: invalid header")
	ErrUnsupportedCompression = errors.New("mobi: unsupported compression")
	ErrUnsupportedEncoding    = errors.New("mobi: unsupported text encoding")
	ErrEncrypted              = errors.New("mobi: content is encrypted")
	ErrLimitExceeded          = errors.New("mobi: limit exceeded")
	ErrValidation             = errors.New("mobi: validation failed")
)

// TruncatedError reports input that ended before a field or opcode was
// complete. Offset is relative to the start of the unit being decoded.
type TruncatedError struct {
	Field  string
	Offset int64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d", ErrTruncated, e.Field, e.Offset)
}

func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }

// BackReferenceError reports a copy opcode whose distance is zero or reaches
// before the start of the output produced so far.
type BackReferenceError struct {
	Offset    int64 // input offset of the opcode
	Distance  int
	OutputLen int
}

func (e *BackReferenceError) Error() string {
	return fmt.Sprintf("%v: distance %d with %d bytes of output at offset %d",
		ErrCorruptBackReference, e.Distance, e.OutputLen, e.Offset)
}

func (e *BackReferenceError) Is(target error) bool { return target == ErrCorruptBackReference }
