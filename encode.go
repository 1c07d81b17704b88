package mobi

import (
	"bytes"
	"io"
	"time"
)

// Document is the input to Encode.
type Document struct {
	Name        string // PalmDB name, at most 31 bytes
	Title       string // full name; Name is used when empty
	Tags        []Tag
	Text        []byte // already in Encoding
	Encoding    TextEncoding
	ContentType ContentType
	Locale      Language
	UniqueID    uint32
	Created     time.Time
}

const (
	defaultFileVersion = 6
	fullNamePadding    = 2
)

// Encode writes doc as a MOBI book.
//
// The text is split into 4096-byte records, each compressed on its own with
// PalmDOC compression unless WithCompression(CompressionNone) is given.
// Zero-valued Encoding, ContentType and Locale default to UTF-8,
// MobipocketBook and English; a zero Created uses the current time.
func Encode(w io.Writer, doc *Document, opts ...WriteOption) error {
	cfg := writeConfig{
		limits:      defaultLimits(),
		compression: CompressionPalmDOC,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	if err := validateDocument(doc, cfg); err != nil {
		return err
	}
	d := *doc
	if d.Encoding == 0 {
		d.Encoding = EncodingUTF8
	}
	if d.ContentType == 0 {
		d.ContentType = ContentMobipocketBook
	}
	if d.Locale == 0 {
		d.Locale = LanguageEnglish
	}
	if d.Created.IsZero() {
		d.Created = time.Now()
	}
	title := d.Title
	if title == "" {
		title = d.Name
	}
	fullName, err := EncodeText(title, d.Encoding)
	if err != nil {
		return err
	}

	records := splitText(d.Text, cfg.compression)
	header := buildMetadataHeader(&d, len(records), uint32(len(fullName)), cfg.compression)

	var rec0 bytes.Buffer
	if err := EncodeMetadataHeader(&rec0, header); err != nil {
		return err
	}
	if len(d.Tags) > 0 {
		if err := EncodeTags(&rec0, d.Tags); err != nil {
			return err
		}
	}
	rec0.Write(fullName)
	rec0.Write(make([]byte, fullNamePadding+(4-(len(fullName)+fullNamePadding)%4)%4))

	container := buildContainer(&d, rec0.Len(), records)
	if err := EncodeContainer(w, container); err != nil {
		return err
	}
	if _, err := w.Write(rec0.Bytes()); err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// splitText cuts text into RecordSize chunks and stores each as comp.
func splitText(text []byte, comp Compression) [][]byte {
	var records [][]byte
	for off := 0; off < len(text); off += RecordSize {
		chunk := text[off:min(off+RecordSize, len(text))]
		if comp == CompressionPalmDOC {
			chunk = Compress(chunk)
		}
		records = append(records, chunk)
	}
	return records
}

func buildMetadataHeader(d *Document, textRecords int, fullNameLen uint32, comp Compression) MetadataHeader {
	h := MetadataHeader{
		Compression:     comp,
		TextLength:      uint32(len(d.Text)),
		TextRecordCount: uint16(textRecords),
		RecordSize:      RecordSize,
		Encryption:      EncryptionNone,
		HeaderLen:       mobiHeaderFixedLen,
		ContentType:     d.ContentType,
		TextEncoding:    d.Encoding,
		UniqueID:        d.UniqueID,
		FileVersion:     defaultFileVersion,
		MinVersion:      defaultFileVersion,
		Indices: Indices{
			Orthographic: None,
			Inflection:   None,
			Names:        None,
			Keys:         None,
		},
		FirstNonBookRecord: uint32(textRecords + 1),
		FullNameOffset:     uint32(palmDOCHeaderLen + mobiHeaderFixedLen + exthLenOrZero(d.Tags)),
		FullNameLength:     fullNameLen,
		Locale:             d.Locale,
		FirstImageIndex:    allOnes,
		DRM:                DRMInfo{Offset: None, Count: None},
		LastContentRecord:  uint16(textRecords),
		Compilation:        CompilationInfo{DataSections: None},
		INDXRecordOffset:   None,
		filler:             defaultFiller(),
	}
	if textRecords > 0 {
		h.FirstContentRecord = 1
	}
	if len(d.Tags) > 0 {
		h.EXTHFlags = EXTHFlagPresent
	}
	return h
}

func exthLenOrZero(tags []Tag) int {
	if len(tags) == 0 {
		return 0
	}
	return EXTHLen(tags)
}

func buildContainer(d *Document, rec0Len int, records [][]byte) ContainerHeader {
	created := int32(d.Created.Unix())
	h := ContainerHeader{
		Created:      created,
		Modified:     created,
		TypeCreator:  TypeCreator,
		UniqueIDSeed: uint32(2*(len(records)+1) - 1),
	}
	copy(h.Name[:31], d.Name)

	h.Records = make([]RecordEntry, 0, len(records)+1)
	off := uint32(containerHeaderLen + recordEntryLen*(len(records)+1) + containerGapLen)
	h.Records = append(h.Records, RecordEntry{ID: 0, Offset: off})
	off += uint32(rec0Len)
	for i, rec := range records {
		h.Records = append(h.Records, RecordEntry{ID: uint32(2 * (i + 1)), Offset: off})
		off += uint32(len(rec))
	}
	return h
}
