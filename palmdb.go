package mobi

import (
	"bytes"
	"fmt"
	"io"
	"time"
)

const (
	containerHeaderLen = 78
	recordEntryLen     = 8
	containerGapLen    = 2

	maxRecordID = 0xFFFFFF
)

// RecordEntry is one row of the PalmDB record table.
type RecordEntry struct {
	ID         uint32 // 24 bits on the wire
	Offset     uint32
	Attributes uint8
}

// ContainerHeader is the PalmDB header wrapping a MOBI book.
//
// Timestamps are kept as the raw signed seconds stored in the file so that
// re-encoding is byte-exact; use CreatedTime and friends for time.Time values.
type ContainerHeader struct {
	Name               [32]byte
	Attributes         uint16
	Version            uint16
	Created            int32
	Modified           int32
	Backup             int32
	ModificationNumber uint32
	AppInfoOffset      Optional32 // zero means absent
	SortInfoOffset     Optional32 // zero means absent
	TypeCreator        [8]byte
	UniqueIDSeed       uint32
	NextRecordListID   uint32
	Records            []RecordEntry
}

// DisplayName returns the database name up to its NUL terminator.
func (h ContainerHeader) DisplayName() string {
	if i := bytes.IndexByte(h.Name[:], 0); i >= 0 {
		return string(h.Name[:i])
	}
	return string(h.Name[:])
}

func (h ContainerHeader) CreatedTime() time.Time  { return time.Unix(int64(h.Created), 0).UTC() }
func (h ContainerHeader) ModifiedTime() time.Time { return time.Unix(int64(h.Modified), 0).UTC() }
func (h ContainerHeader) BackupTime() time.Time   { return time.Unix(int64(h.Backup), 0).UTC() }

// EncodedLen is the number of bytes EncodeContainer writes for h.
func (h ContainerHeader) EncodedLen() int {
	return containerHeaderLen + recordEntryLen*len(h.Records) + containerGapLen
}

// DecodeContainer reads a PalmDB header and its record table from r.
//
// The two gap bytes following the record table are not consumed; callers
// seek to the first record offset next.
func DecodeContainer(r io.Reader) (ContainerHeader, error) {
	fr := newFieldReader(r)
	var h ContainerHeader
	var err error

	if err = fr.full(h.Name[:], "name"); err != nil {
		return ContainerHeader{}, err
	}
	if h.Attributes, err = fr.u16("attributes"); err != nil {
		return ContainerHeader{}, err
	}
	if h.Version, err = fr.u16("version"); err != nil {
		return ContainerHeader{}, err
	}
	if h.Created, err = fr.i32("creation date"); err != nil {
		return ContainerHeader{}, err
	}
	if h.Modified, err = fr.i32("modification date"); err != nil {
		return ContainerHeader{}, err
	}
	if h.Backup, err = fr.i32("backup date"); err != nil {
		return ContainerHeader{}, err
	}
	if h.ModificationNumber, err = fr.u32("modification number"); err != nil {
		return ContainerHeader{}, err
	}
	raw, err := fr.u32("app info offset")
	if err != nil {
		return ContainerHeader{}, err
	}
	h.AppInfoOffset = decodeNonZero(raw)
	if raw, err = fr.u32("sort info offset"); err != nil {
		return ContainerHeader{}, err
	}
	h.SortInfoOffset = decodeNonZero(raw)
	if err = fr.full(h.TypeCreator[:], "type/creator"); err != nil {
		return ContainerHeader{}, err
	}
	if h.TypeCreator != TypeCreator {
		return ContainerHeader{}, fmt.Errorf("%w: type/creator %q", ErrBadMagic, h.TypeCreator[:])
	}
	if h.UniqueIDSeed, err = fr.u32("unique id seed"); err != nil {
		return ContainerHeader{}, err
	}
	if h.NextRecordListID, err = fr.u32("next record list id"); err != nil {
		return ContainerHeader{}, err
	}
	count, err := fr.u16("record count")
	if err != nil {
		return ContainerHeader{}, err
	}

	if count > 0 {
		h.Records = make([]RecordEntry, 0, count)
	}
	for i := 0; i < int(count); i++ {
		var e RecordEntry
		if e.Offset, err = fr.u32("record offset"); err != nil {
			return ContainerHeader{}, err
		}
		if e.Attributes, err = fr.u8("record attributes"); err != nil {
			return ContainerHeader{}, err
		}
		if e.ID, err = fr.u24("record id"); err != nil {
			return ContainerHeader{}, err
		}
		if i > 0 && e.Offset < h.Records[i-1].Offset {
			return ContainerHeader{}, fmt.Errorf("%w: record %d offset %d precedes record %d offset %d",
				ErrInvalidHeader, i, e.Offset, i-1, h.Records[i-1].Offset)
		}
		h.Records = append(h.Records, e)
	}
	return h, nil
}

// EncodeContainer writes h followed by the two zero gap bytes.
func EncodeContainer(w io.Writer, h ContainerHeader) error {
	if err := validateContainer(h); err != nil {
		return err
	}
	fw := newFieldWriter(w)
	fw.write(h.Name[:])
	fw.u16(h.Attributes)
	fw.u16(h.Version)
	fw.i32(h.Created)
	fw.i32(h.Modified)
	fw.i32(h.Backup)
	fw.u32(h.ModificationNumber)
	fw.u32(encodeNonZero(h.AppInfoOffset))
	fw.u32(encodeNonZero(h.SortInfoOffset))
	fw.write(h.TypeCreator[:])
	fw.u32(h.UniqueIDSeed)
	fw.u32(h.NextRecordListID)
	fw.u16(uint16(len(h.Records)))
	for _, e := range h.Records {
		fw.u32(e.Offset)
		fw.u8(e.Attributes)
		fw.u24(e.ID)
	}
	fw.zeros(containerGapLen)
	return fw.err
}

func validateContainer(h ContainerHeader) error {
	if h.TypeCreator != TypeCreator {
		return fmt.Errorf("%w: type/creator %q", ErrBadMagic, h.TypeCreator[:])
	}
	if len(h.Records) > 0xFFFF {
		return fmt.Errorf("%w: %d records do not fit a 16-bit count", ErrValidation, len(h.Records))
	}
	for i, e := range h.Records {
		if e.ID > maxRecordID {
			return fmt.Errorf("%w: record %d id %d exceeds 24 bits", ErrValidation, i, e.ID)
		}
		if i > 0 && e.Offset < h.Records[i-1].Offset {
			return fmt.Errorf("%w: record %d offset is decreasing", ErrValidation, i)
		}
	}
	return nil
}
