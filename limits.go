package mobi

// Limits bounds the allocations a decode may make. Zero fields take the
// defaults.
type Limits struct {
	MaxHeaderExtension uint32 // bytes past the fixed MOBI header
	MaxEXTHLen         uint32 // declared EXTH header length
	MaxFullNameLen     uint32
	MaxRecordLen       uint32 // stored bytes of one text record
	MaxTextRecords     int
	MaxTextLen         uint64 // decompressed text of the whole book
}

func defaultLimits() Limits {
	return Limits{
		MaxHeaderExtension: 1 << 20,  // 1 MiB
		MaxEXTHLen:         16 << 20, // 16 MiB
		MaxFullNameLen:     64 << 10, // 64 KiB
		MaxRecordLen:       64 << 10, // 64 KiB, room for trailing entries
		MaxTextRecords:     0xFFFF,
		MaxTextLen:         512 << 20, // 512 MiB
	}
}

// DefaultLimits returns the limits Decode uses when none are given.
func DefaultLimits() Limits { return defaultLimits() }

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxHeaderExtension == 0 {
		l.MaxHeaderExtension = d.MaxHeaderExtension
	}
	if l.MaxEXTHLen == 0 {
		l.MaxEXTHLen = d.MaxEXTHLen
	}
	if l.MaxFullNameLen == 0 {
		l.MaxFullNameLen = d.MaxFullNameLen
	}
	if l.MaxRecordLen == 0 {
		l.MaxRecordLen = d.MaxRecordLen
	}
	if l.MaxTextRecords == 0 {
		l.MaxTextRecords = d.MaxTextRecords
	}
	if l.MaxTextLen == 0 {
		l.MaxTextLen = d.MaxTextLen
	}
	return l
}
