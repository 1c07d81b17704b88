package mobi

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	exthHeaderLen    = 12
	exthRecordHdrLen = 8
)

// TagCode identifies an EXTH record.
type TagCode uint32

const (
	TagDRMServerID           TagCode = 1
	TagDRMCommerceID         TagCode = 2
	TagDRMEbookbaseBookID    TagCode = 3
	TagAuthor                TagCode = 100
	TagPublisher             TagCode = 101
	TagImprint               TagCode = 102
	TagDescription           TagCode = 103
	TagISBN                  TagCode = 104
	TagSubject               TagCode = 105
	TagPublishingDate        TagCode = 106
	TagReview                TagCode = 107
	TagContributor           TagCode = 108
	TagRights                TagCode = 109
	TagSubjectCode           TagCode = 110
	TagType                  TagCode = 111
	TagSource                TagCode = 112
	TagASIN                  TagCode = 113
	TagVersionNumber         TagCode = 114
	TagSample                TagCode = 115
	TagStartReading          TagCode = 116
	TagAdult                 TagCode = 117
	TagRetailPrice           TagCode = 118
	TagRetailPriceCurrency   TagCode = 119
	TagKF8BoundaryOffset     TagCode = 121
	TagResourceCount         TagCode = 125
	TagKF8CoverURI           TagCode = 129
	TagUnknown131            TagCode = 131
	TagDictionaryShortName   TagCode = 200
	TagCoverOffset           TagCode = 201
	TagThumbnailOffset       TagCode = 202
	TagHasFakeCover          TagCode = 203
	TagCreatorSoftware       TagCode = 204
	TagCreatorMajorVersion   TagCode = 205
	TagCreatorMinorVersion   TagCode = 206
	TagCreatorBuildNumber    TagCode = 207
	TagWatermark             TagCode = 208
	TagTamperProofKeys       TagCode = 209
	TagFontSignature         TagCode = 300
	TagClippingLimit         TagCode = 401
	TagPublisherLimit        TagCode = 402
	TagUnknown403            TagCode = 403
	TagTextToSpeechDisabled  TagCode = 404
	TagRentalFlag            TagCode = 405
	TagRentalExpirationDate  TagCode = 406
	TagUnknown407            TagCode = 407
	TagUnknown450            TagCode = 450
	TagUnknown451            TagCode = 451
	TagUnknown452            TagCode = 452
	TagUnknown453            TagCode = 453
	TagCDEType               TagCode = 501
	TagLastUpdateTime        TagCode = 502
	TagUpdatedTitle          TagCode = 503
	TagASINCopy              TagCode = 504
	TagLanguage              TagCode = 524
	TagAlignment             TagCode = 525
	TagCreatorBuildNumberStr TagCode = 535
	TagInMemory              TagCode = 547
)

var tagCodeNames = map[TagCode]string{
	TagDRMServerID:           "DRMServerID",
	TagDRMCommerceID:         "DRMCommerceID",
	TagDRMEbookbaseBookID:    "DRMEbookbaseBookID",
	TagAuthor:                "Author",
	TagPublisher:             "Publisher",
	TagImprint:               "Imprint",
	TagDescription:           "Description",
	TagISBN:                  "ISBN",
	TagSubject:               "Subject",
	TagPublishingDate:        "PublishingDate",
	TagReview:                "Review",
	TagContributor:           "Contributor",
	TagRights:                "Rights",
	TagSubjectCode:           "SubjectCode",
	TagType:                  "Type",
	TagSource:                "Source",
	TagASIN:                  "ASIN",
	TagVersionNumber:         "VersionNumber",
	TagSample:                "Sample",
	TagStartReading:          "StartReading",
	TagAdult:                 "Adult",
	TagRetailPrice:           "RetailPrice",
	TagRetailPriceCurrency:   "RetailPriceCurrency",
	TagKF8BoundaryOffset:     "KF8BoundaryOffset",
	TagResourceCount:         "ResourceCount",
	TagKF8CoverURI:           "KF8CoverURI",
	TagUnknown131:            "Unknown131",
	TagDictionaryShortName:   "DictionaryShortName",
	TagCoverOffset:           "CoverOffset",
	TagThumbnailOffset:       "ThumbnailOffset",
	TagHasFakeCover:          "HasFakeCover",
	TagCreatorSoftware:       "CreatorSoftware",
	TagCreatorMajorVersion:   "CreatorMajorVersion",
	TagCreatorMinorVersion:   "CreatorMinorVersion",
	TagCreatorBuildNumber:    "CreatorBuildNumber",
	TagWatermark:             "Watermark",
	TagTamperProofKeys:       "TamperProofKeys",
	TagFontSignature:         "FontSignature",
	TagClippingLimit:         "ClippingLimit",
	TagPublisherLimit:        "PublisherLimit",
	TagUnknown403:            "Unknown403",
	TagTextToSpeechDisabled:  "TextToSpeechDisabled",
	TagRentalFlag:            "RentalFlag",
	TagRentalExpirationDate:  "RentalExpirationDate",
	TagUnknown407:            "Unknown407",
	TagUnknown450:            "Unknown450",
	TagUnknown451:            "Unknown451",
	TagUnknown452:            "Unknown452",
	TagUnknown453:            "Unknown453",
	TagCDEType:               "CDEType",
	TagLastUpdateTime:        "LastUpdateTime",
	TagUpdatedTitle:          "UpdatedTitle",
	TagASINCopy:              "ASINCopy",
	TagLanguage:              "Language",
	TagAlignment:             "Alignment",
	TagCreatorBuildNumberStr: "CreatorBuildNumberString",
	TagInMemory:              "InMemory",
}

func (c TagCode) String() string { return enumString(tagCodeNames, c) }
func (c TagCode) Known() bool    { _, ok := tagCodeNames[c]; return ok }

type tagKind uint8

const (
	kindRaw tagKind = iota
	kindString
	kindUint32
	kindBool
	kindCreatorSoftware
)

// tagKinds gives the payload interpretation of the codes that have one.
// Codes missing here decode to RawTag even when they have a name.
var tagKinds = map[TagCode]tagKind{
	TagAuthor:              kindString,
	TagPublisher:           kindString,
	TagImprint:             kindString,
	TagDescription:         kindString,
	TagISBN:                kindString,
	TagSubject:             kindString,
	TagPublishingDate:      kindString,
	TagContributor:         kindString,
	TagRights:              kindString,
	TagSource:              kindString,
	TagASIN:                kindString,
	TagKF8CoverURI:         kindString,
	TagCDEType:             kindString,
	TagUpdatedTitle:        kindString,
	TagLanguage:            kindString,
	TagStartReading:        kindUint32,
	TagKF8BoundaryOffset:   kindUint32,
	TagResourceCount:       kindUint32,
	TagUnknown131:          kindUint32,
	TagCoverOffset:         kindUint32,
	TagThumbnailOffset:     kindUint32,
	TagCreatorMajorVersion: kindUint32,
	TagCreatorMinorVersion: kindUint32,
	TagCreatorBuildNumber:  kindUint32,
	TagHasFakeCover:        kindBool,
	TagCreatorSoftware:     kindCreatorSoftware,
}

// Tag is one EXTH record. The concrete types are StringTag, Uint32Tag,
// BoolTag, CreatorSoftwareTag and RawTag.
type Tag interface {
	Code() TagCode
	payload() []byte
}

// StringTag carries text in the book's encoding. The bytes are not
// validated; see StringTag.Text.
type StringTag struct {
	TagCode TagCode
	Value   []byte
}

func (t StringTag) Code() TagCode   { return t.TagCode }
func (t StringTag) payload() []byte { return t.Value }

// Text decodes the value using enc.
func (t StringTag) Text(enc TextEncoding) (string, error) { return DecodeText(t.Value, enc) }

type Uint32Tag struct {
	TagCode TagCode
	Value   uint32
}

func (t Uint32Tag) Code() TagCode   { return t.TagCode }
func (t Uint32Tag) payload() []byte { return binary.BigEndian.AppendUint32(nil, t.Value) }

// BoolTag is a 32-bit 0/1 flag.
type BoolTag struct {
	TagCode TagCode
	Value   bool
}

func (t BoolTag) Code() TagCode { return t.TagCode }
func (t BoolTag) payload() []byte {
	var v uint32
	if t.Value {
		v = 1
	}
	return binary.BigEndian.AppendUint32(nil, v)
}

type CreatorSoftwareTag struct {
	Value CreatorSoftware
}

func (t CreatorSoftwareTag) Code() TagCode { return TagCreatorSoftware }
func (t CreatorSoftwareTag) payload() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(t.Value))
}

// RawTag preserves a record verbatim. It is produced for codes without a
// known interpretation and for known codes whose payload does not have the
// expected shape.
type RawTag struct {
	TagCode TagCode
	Data    []byte
}

func (t RawTag) Code() TagCode   { return t.TagCode }
func (t RawTag) payload() []byte { return t.Data }

// decodeTag interprets one record payload according to tagKinds.
func decodeTag(code TagCode, data []byte) Tag {
	switch tagKinds[code] {
	case kindString:
		return StringTag{TagCode: code, Value: data}
	case kindUint32:
		if len(data) == 4 {
			return Uint32Tag{TagCode: code, Value: binary.BigEndian.Uint32(data)}
		}
	case kindBool:
		if len(data) == 4 {
			switch binary.BigEndian.Uint32(data) {
			case 0:
				return BoolTag{TagCode: code, Value: false}
			case 1:
				return BoolTag{TagCode: code, Value: true}
			}
		}
	case kindCreatorSoftware:
		if len(data) == 4 {
			return CreatorSoftwareTag{Value: CreatorSoftware(binary.BigEndian.Uint32(data))}
		}
	}
	return RawTag{TagCode: code, Data: data}
}

// DecodeTags reads an EXTH block from r using the default limits.
func DecodeTags(r io.Reader) ([]Tag, error) {
	return decodeTags(r, defaultLimits())
}

// decodeTags reads the EXTH block. Records are decoded only while they fit
// inside headerLen-12 bytes; whatever is left of that region is drained, then
// headerLen%4 padding bytes are consumed.
func decodeTags(r io.Reader, limits Limits) ([]Tag, error) {
	fr := newFieldReader(r)
	var magic [4]byte
	if err := fr.full(magic[:], "exth magic"); err != nil {
		return nil, err
	}
	if magic != exthMagic {
		return nil, fmt.Errorf("%w: exth magic %q", ErrBadMagic, magic[:])
	}
	headerLen, err := fr.u32("exth header length")
	if err != nil {
		return nil, err
	}
	count, err := fr.u32("exth record count")
	if err != nil {
		return nil, err
	}
	if headerLen < exthHeaderLen {
		return nil, fmt.Errorf("%w: exth header length %d", ErrInvalidHeader, headerLen)
	}
	if headerLen > limits.MaxEXTHLen {
		return nil, fmt.Errorf("%w: exth header length %d", ErrLimitExceeded, headerLen)
	}

	remaining := int64(headerLen - exthHeaderLen)
	var tags []Tag
	for i := uint32(0); i < count && remaining >= exthRecordHdrLen; i++ {
		code, err := fr.u32("exth record type")
		if err != nil {
			return nil, err
		}
		recLen, err := fr.u32("exth record length")
		if err != nil {
			return nil, err
		}
		remaining -= exthRecordHdrLen
		if recLen < exthRecordHdrLen {
			return nil, fmt.Errorf("%w: exth record %d length %d", ErrInvalidHeader, i, recLen)
		}
		dataLen := int64(recLen - exthRecordHdrLen)
		if dataLen > remaining {
			// The record does not fit the declared block; stop here.
			break
		}
		data, err := fr.bytes(int(dataLen), "exth record data")
		if err != nil {
			return nil, err
		}
		remaining -= dataLen
		tags = append(tags, decodeTag(TagCode(code), data))
	}
	if remaining > 0 {
		if err := fr.skip(remaining, "exth records"); err != nil {
			return nil, err
		}
	}
	if err := fr.skip(int64(headerLen%4), "exth padding"); err != nil {
		return nil, err
	}
	return tags, nil
}

// EXTHLen is the number of bytes EncodeTags writes for tags, padding included.
func EXTHLen(tags []Tag) int {
	n := exthHeaderLen
	for _, t := range tags {
		n += exthRecordHdrLen + len(t.payload())
	}
	return n + n%4
}

// EncodeTags writes an EXTH block holding tags.
func EncodeTags(w io.Writer, tags []Tag) error {
	headerLen := exthHeaderLen
	for _, t := range tags {
		headerLen += exthRecordHdrLen + len(t.payload())
	}
	fw := newFieldWriter(w)
	fw.write(exthMagic[:])
	fw.u32(uint32(headerLen))
	fw.u32(uint32(len(tags)))
	for _, t := range tags {
		p := t.payload()
		fw.u32(uint32(t.Code()))
		fw.u32(uint32(exthRecordHdrLen + len(p)))
		fw.write(p)
	}
	fw.zeros(headerLen % 4)
	return fw.err
}
