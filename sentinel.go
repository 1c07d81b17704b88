package mobi

import "fmt"

// Optional32 is a fixed-width 32-bit field that may be marked absent on the
// wire by a reserved bit pattern. Which pattern depends on the field; see
// decodeAllOnes and decodeNonZero.
type Optional32 struct {
	Value uint32
	Valid bool
}

// Some returns a present Optional32.
func Some(v uint32) Optional32 { return Optional32{Value: v, Valid: true} }

// None is the absent Optional32.
var None = Optional32{}

// Get returns the value and whether it is present.
func (o Optional32) Get() (uint32, bool) { return o.Value, o.Valid }

func (o Optional32) String() string {
	if !o.Valid {
		return "none"
	}
	return fmt.Sprintf("%d", o.Value)
}

const allOnes uint32 = 0xFFFFFFFF

// decodeAllOnes treats 0xFFFFFFFF as absent. Used by the MOBI header index
// fields, DRM offset/count, compilation sections and the INDX offset.
func decodeAllOnes(raw uint32) Optional32 {
	if raw == allOnes {
		return None
	}
	return Some(raw)
}

// encodeAllOnes is the inverse of decodeAllOnes. Some(0xFFFFFFFF) cannot be
// represented and is written as absent.
func encodeAllOnes(o Optional32) uint32 {
	if !o.Valid {
		return allOnes
	}
	return o.Value
}

// decodeNonZero treats 0 as absent. Used by the PalmDB app-info and
// sort-info offsets.
func decodeNonZero(raw uint32) Optional32 {
	if raw == 0 {
		return None
	}
	return Some(raw)
}

// encodeNonZero is the inverse of decodeNonZero. Some(0) cannot be
// represented and is written as absent.
func encodeNonZero(o Optional32) uint32 {
	if !o.Valid {
		return 0
	}
	return o.Value
}
