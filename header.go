package mobi

import (
	"fmt"
	"io"
)

// Indices are the dictionary index record references of the MOBI header.
// Every field uses the all-ones sentinel for "absent".
type Indices struct {
	Orthographic Optional32
	Inflection   Optional32
	Names        Optional32
	Keys         Optional32
	Extra        [6]Optional32
}

// HuffmanInfo locates the HUFF/CDIC tables. It is carried for fidelity only;
// this package does not decode HUFF/CDIC text.
type HuffmanInfo struct {
	RecordOffset uint32
	RecordCount  uint32
	TableOffset  uint32
	TableLength  uint32
}

// DRMInfo describes the DRM block of the MOBI header.
type DRMInfo struct {
	Offset Optional32 // all-ones means absent
	Count  Optional32 // all-ones means absent
	Size   uint32
	Flags  uint32
}

// RecordPair is a (record number, record count) descriptor such as FCIS or FLIS.
type RecordPair struct {
	Number uint32
	Count  uint32
}

// CompilationInfo holds the compilation data section descriptor.
type CompilationInfo struct {
	DataSectionCount uint32
	DataSections     Optional32 // all-ones means absent
}

// headerFiller holds the header regions that have no known meaning. They are
// kept so that encoding a decoded header reproduces it exactly.
type headerFiller struct {
	PalmDOCUnused     uint16
	PalmDOCUnknown    uint16
	AfterEXTHFlags    [32]byte
	BeforeDRM         uint32
	AfterDRM          [8]byte
	BeforeFCIS        uint32
	AfterFLIS         [8]byte
	BeforeCompilation uint32
	BeforeExtraFlags  uint32
}

// defaultFiller returns the filler values observed in kindlegen output.
func defaultFiller() headerFiller {
	return headerFiller{
		BeforeDRM:         allOnes,
		BeforeFCIS:        1,
		BeforeCompilation: allOnes,
		BeforeExtraFlags:  allOnes,
	}
}

// MetadataHeader is the content of record 0: the 16-byte PalmDOC header
// followed by the MOBI header.
type MetadataHeader struct {
	Compression     Compression
	TextLength      uint32
	TextRecordCount uint16
	RecordSize      uint16
	Encryption      Encryption

	HeaderLen    uint32 // MOBI header length, counted from the magic
	ContentType  ContentType
	TextEncoding TextEncoding
	UniqueID     uint32
	FileVersion  uint32
	MinVersion   uint32

	Indices Indices

	FirstNonBookRecord uint32
	FullNameOffset     uint32 // relative to the start of record 0
	FullNameLength     uint32

	Locale          Language
	DictInputLang   Language
	DictOutputLang  Language
	FirstImageIndex uint32
	Huffman         HuffmanInfo
	EXTHFlags       uint32
	DRM             DRMInfo

	FirstContentRecord uint16
	LastContentRecord  uint16
	FCIS               RecordPair
	FLIS               RecordPair
	Compilation        CompilationInfo

	ExtraRecordDataFlags uint32
	INDXRecordOffset     Optional32 // all-ones means absent

	// Extension holds the HeaderLen-232 bytes that follow the fixed layout,
	// uninterpreted.
	Extension []byte

	filler headerFiller
}

// HasEXTH reports whether a tagged metadata block follows the header.
func (h MetadataHeader) HasEXTH() bool { return h.EXTHFlags&EXTHFlagPresent != 0 }

// EncodedLen is the number of bytes EncodeMetadataHeader writes for h.
func (h MetadataHeader) EncodedLen() int {
	return palmDOCHeaderLen + mobiHeaderFixedLen + len(h.Extension)
}

// DecodeMetadataHeader reads the PalmDOC and MOBI headers from r using the
// default limits.
func DecodeMetadataHeader(r io.Reader) (MetadataHeader, error) {
	return decodeMetadataHeader(r, defaultLimits())
}

func decodeMetadataHeader(r io.Reader, limits Limits) (MetadataHeader, error) {
	fr := newFieldReader(r)
	d := headerDecoder{fr: fr}
	var h MetadataHeader

	h.Compression = Compression(d.u16("compression"))
	h.filler.PalmDOCUnused = d.u16("unused")
	h.TextLength = d.u32("text length")
	h.TextRecordCount = d.u16("text record count")
	h.RecordSize = d.u16("record size")
	if d.err == nil && h.RecordSize != RecordSize {
		return MetadataHeader{}, fmt.Errorf("%w: %d", ErrUnsupportedRecordSize, h.RecordSize)
	}
	h.Encryption = Encryption(d.u16("encryption"))
	h.filler.PalmDOCUnknown = d.u16("unknown")

	var magic [4]byte
	d.full(magic[:], "magic")
	if d.err == nil && magic != mobiMagic {
		return MetadataHeader{}, fmt.Errorf("%w: header magic %q", ErrBadMagic, magic[:])
	}
	h.HeaderLen = d.u32("header length")
	h.ContentType = ContentType(d.u32("content type"))
	h.TextEncoding = TextEncoding(d.u32("text encoding"))
	h.UniqueID = d.u32("unique id")
	h.FileVersion = d.u32("file version")

	// All-ones sentinel for every index reference.
	h.Indices.Orthographic = decodeAllOnes(d.u32("orthographic index"))
	h.Indices.Inflection = decodeAllOnes(d.u32("inflection index"))
	h.Indices.Names = decodeAllOnes(d.u32("index names"))
	h.Indices.Keys = decodeAllOnes(d.u32("index keys"))
	for i := range h.Indices.Extra {
		h.Indices.Extra[i] = decodeAllOnes(d.u32("extra index"))
	}

	h.FirstNonBookRecord = d.u32("first non-book record")
	h.FullNameOffset = d.u32("full name offset")
	h.FullNameLength = d.u32("full name length")
	h.Locale = Language(d.u32("locale"))
	h.DictInputLang = Language(d.u32("dictionary input language"))
	h.DictOutputLang = Language(d.u32("dictionary output language"))
	h.MinVersion = d.u32("min version")
	h.FirstImageIndex = d.u32("first image record")
	h.Huffman.RecordOffset = d.u32("huffman record offset")
	h.Huffman.RecordCount = d.u32("huffman record count")
	h.Huffman.TableOffset = d.u32("huffman table offset")
	h.Huffman.TableLength = d.u32("huffman table length")
	h.EXTHFlags = d.u32("exth flags")
	d.full(h.filler.AfterEXTHFlags[:], "reserved")
	h.filler.BeforeDRM = d.u32("reserved")

	// All-ones sentinel for the DRM offset and count.
	h.DRM.Offset = decodeAllOnes(d.u32("drm offset"))
	h.DRM.Count = decodeAllOnes(d.u32("drm count"))
	h.DRM.Size = d.u32("drm size")
	h.DRM.Flags = d.u32("drm flags")
	d.full(h.filler.AfterDRM[:], "reserved")

	h.FirstContentRecord = d.u16("first content record")
	h.LastContentRecord = d.u16("last content record")
	h.filler.BeforeFCIS = d.u32("reserved")
	h.FCIS.Number = d.u32("fcis record number")
	h.FCIS.Count = d.u32("fcis record count")
	h.FLIS.Number = d.u32("flis record number")
	h.FLIS.Count = d.u32("flis record count")
	d.full(h.filler.AfterFLIS[:], "reserved")
	h.filler.BeforeCompilation = d.u32("reserved")

	h.Compilation.DataSectionCount = d.u32("compilation data section count")
	// All-ones sentinel.
	h.Compilation.DataSections = decodeAllOnes(d.u32("compilation data sections"))
	h.filler.BeforeExtraFlags = d.u32("reserved")
	h.ExtraRecordDataFlags = d.u32("extra record data flags")
	// All-ones sentinel.
	h.INDXRecordOffset = decodeAllOnes(d.u32("indx record offset"))
	if d.err != nil {
		return MetadataHeader{}, d.err
	}

	if h.HeaderLen > mobiHeaderFixedLen {
		extra := h.HeaderLen - mobiHeaderFixedLen
		if extra > limits.MaxHeaderExtension {
			return MetadataHeader{}, fmt.Errorf("%w: header extension of %d bytes", ErrLimitExceeded, extra)
		}
		ext, err := fr.bytes(int(extra), "header extension")
		if err != nil {
			return MetadataHeader{}, err
		}
		h.Extension = ext
	}
	return h, nil
}

// headerDecoder threads the first error through a long run of fixed fields.
type headerDecoder struct {
	fr  *fieldReader
	err error
}

func (d *headerDecoder) u16(field string) uint16 {
	if d.err != nil {
		return 0
	}
	v, err := d.fr.u16(field)
	d.err = err
	return v
}

func (d *headerDecoder) u32(field string) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.fr.u32(field)
	d.err = err
	return v
}

func (d *headerDecoder) full(p []byte, field string) {
	if d.err != nil {
		return
	}
	d.err = d.fr.full(p, field)
}

// EncodeMetadataHeader writes h in the layout DecodeMetadataHeader reads.
func EncodeMetadataHeader(w io.Writer, h MetadataHeader) error {
	if h.RecordSize != RecordSize {
		return fmt.Errorf("%w: %d", ErrUnsupportedRecordSize, h.RecordSize)
	}
	wantExt := 0
	if h.HeaderLen > mobiHeaderFixedLen {
		wantExt = int(h.HeaderLen - mobiHeaderFixedLen)
	}
	if len(h.Extension) != wantExt {
		return fmt.Errorf("%w: header length %d needs %d extension bytes, have %d",
			ErrValidation, h.HeaderLen, wantExt, len(h.Extension))
	}

	fw := newFieldWriter(w)
	fw.u16(uint16(h.Compression))
	fw.u16(h.filler.PalmDOCUnused)
	fw.u32(h.TextLength)
	fw.u16(h.TextRecordCount)
	fw.u16(h.RecordSize)
	fw.u16(uint16(h.Encryption))
	fw.u16(h.filler.PalmDOCUnknown)

	fw.write(mobiMagic[:])
	fw.u32(h.HeaderLen)
	fw.u32(uint32(h.ContentType))
	fw.u32(uint32(h.TextEncoding))
	fw.u32(h.UniqueID)
	fw.u32(h.FileVersion)
	fw.u32(encodeAllOnes(h.Indices.Orthographic))
	fw.u32(encodeAllOnes(h.Indices.Inflection))
	fw.u32(encodeAllOnes(h.Indices.Names))
	fw.u32(encodeAllOnes(h.Indices.Keys))
	for _, idx := range h.Indices.Extra {
		fw.u32(encodeAllOnes(idx))
	}
	fw.u32(h.FirstNonBookRecord)
	fw.u32(h.FullNameOffset)
	fw.u32(h.FullNameLength)
	fw.u32(uint32(h.Locale))
	fw.u32(uint32(h.DictInputLang))
	fw.u32(uint32(h.DictOutputLang))
	fw.u32(h.MinVersion)
	fw.u32(h.FirstImageIndex)
	fw.u32(h.Huffman.RecordOffset)
	fw.u32(h.Huffman.RecordCount)
	fw.u32(h.Huffman.TableOffset)
	fw.u32(h.Huffman.TableLength)
	fw.u32(h.EXTHFlags)
	fw.write(h.filler.AfterEXTHFlags[:])
	fw.u32(h.filler.BeforeDRM)
	fw.u32(encodeAllOnes(h.DRM.Offset))
	fw.u32(encodeAllOnes(h.DRM.Count))
	fw.u32(h.DRM.Size)
	fw.u32(h.DRM.Flags)
	fw.write(h.filler.AfterDRM[:])
	fw.u16(h.FirstContentRecord)
	fw.u16(h.LastContentRecord)
	fw.u32(h.filler.BeforeFCIS)
	fw.u32(h.FCIS.Number)
	fw.u32(h.FCIS.Count)
	fw.u32(h.FLIS.Number)
	fw.u32(h.FLIS.Count)
	fw.write(h.filler.AfterFLIS[:])
	fw.u32(h.filler.BeforeCompilation)
	fw.u32(h.Compilation.DataSectionCount)
	fw.u32(encodeAllOnes(h.Compilation.DataSections))
	fw.u32(h.filler.BeforeExtraFlags)
	fw.u32(h.ExtraRecordDataFlags)
	fw.u32(encodeAllOnes(h.INDXRecordOffset))
	fw.write(h.Extension)
	return fw.err
}
