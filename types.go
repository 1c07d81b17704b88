package mobi

import "fmt"

const (
	// RecordSize is the only text record tiling this package supports.
	RecordSize = 4096

	mobiHeaderFixedLen = 232
	palmDOCHeaderLen   = 16
)

// TypeCreator is the PalmDB type and creator tag of MOBI books.
var TypeCreator = [8]byte{'B', 'O', 'O', 'K', 'M', 'O', 'B', 'I'}

var (
	mobiMagic = [4]byte{'M', 'O', 'B', 'I'}
	exthMagic = [4]byte{'E', 'X', 'T', 'H'}
)

// EXTHFlagPresent is the MOBI header flag bit announcing a tagged block.
const EXTHFlagPresent uint32 = 0x40

// The enumerations below are closed sets with a raw fallback: a code missing
// from the name table is kept as-is and reported as Unknown(code).

func enumString[T ~uint16 | ~uint32](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", uint32(v))
}

// Compression is the text record compression code of the PalmDOC header.
type Compression uint16

const (
	CompressionNone     Compression = 1
	CompressionPalmDOC  Compression = 2
	CompressionHuffCDIC Compression = 17480
)

var compressionNames = map[Compression]string{
	CompressionNone:     "None",
	CompressionPalmDOC:  "PalmDOC",
	CompressionHuffCDIC: "HUFF/CDIC",
}

func (c Compression) String() string { return enumString(compressionNames, c) }
func (c Compression) Known() bool    { _, ok := compressionNames[c]; return ok }

// Stored reports whether text records hold uncompressed text. Some writers
// leave the field zero for stored text, so code 0 counts as stored.
func (c Compression) Stored() bool { return c == CompressionNone || c == 0 }

// Encryption is the DRM scheme code of the PalmDOC header.
type Encryption uint16

const (
	EncryptionNone          Encryption = 0
	EncryptionOldMobipocket Encryption = 1
	EncryptionMobipocket    Encryption = 2
)

var encryptionNames = map[Encryption]string{
	EncryptionNone:          "None",
	EncryptionOldMobipocket: "OldMobipocket",
	EncryptionMobipocket:    "Mobipocket",
}

func (e Encryption) String() string { return enumString(encryptionNames, e) }
func (e Encryption) Known() bool    { _, ok := encryptionNames[e]; return ok }

// ContentType is the MOBI header document type.
type ContentType uint32

const (
	ContentMobipocketBook  ContentType = 2
	ContentPalmDocBook     ContentType = 3
	ContentAudio           ContentType = 4
	ContentMaybeMobipocket ContentType = 232
	ContentKF8             ContentType = 248
	ContentNews            ContentType = 257
	ContentNewsFeed        ContentType = 258
	ContentNewsMagazine    ContentType = 259
	ContentPICS            ContentType = 513
	ContentWORD            ContentType = 514
	ContentXLS             ContentType = 515
	ContentPPT             ContentType = 516
	ContentTEXT            ContentType = 517
	ContentHTML            ContentType = 518
)

var contentTypeNames = map[ContentType]string{
	ContentMobipocketBook:  "MobipocketBook",
	ContentPalmDocBook:     "PalmDocBook",
	ContentAudio:           "Audio",
	ContentMaybeMobipocket: "MaybeMobipocket",
	ContentKF8:             "KF8",
	ContentNews:            "News",
	ContentNewsFeed:        "NewsFeed",
	ContentNewsMagazine:    "NewsMagazine",
	ContentPICS:            "PICS",
	ContentWORD:            "WORD",
	ContentXLS:             "XLS",
	ContentPPT:             "PPT",
	ContentTEXT:            "TEXT",
	ContentHTML:            "HTML",
}

func (c ContentType) String() string { return enumString(contentTypeNames, c) }
func (c ContentType) Known() bool    { _, ok := contentTypeNames[c]; return ok }

// TextEncoding is the code page of the text and string tags.
type TextEncoding uint32

const (
	EncodingCP1252 TextEncoding = 1252
	EncodingUTF8   TextEncoding = 65001
)

var textEncodingNames = map[TextEncoding]string{
	EncodingCP1252: "CP1252",
	EncodingUTF8:   "UTF-8",
}

func (e TextEncoding) String() string { return enumString(textEncodingNames, e) }
func (e TextEncoding) Known() bool    { _, ok := textEncodingNames[e]; return ok }

// Language is a Windows locale identifier.
type Language uint32

const (
	LanguageEnglish   Language = 0x09
	LanguageEnglishUS Language = 0x0904
	LanguageEnglishUK Language = 0x0908
)

var languageNames = map[Language]string{
	LanguageEnglish:   "en",
	LanguageEnglishUS: "en-US",
	LanguageEnglishUK: "en-GB",
}

func (l Language) String() string { return enumString(languageNames, l) }
func (l Language) Known() bool    { _, ok := languageNames[l]; return ok }

// CreatorSoftware identifies the tool that built the book.
type CreatorSoftware uint32

const (
	CreatorMobigen           CreatorSoftware = 1
	CreatorMobipocketCreator CreatorSoftware = 2
	CreatorKindlegenWindows  CreatorSoftware = 200
	CreatorKindlegenLinux    CreatorSoftware = 201
	CreatorKindlegenMac      CreatorSoftware = 202
)

var creatorSoftwareNames = map[CreatorSoftware]string{
	CreatorMobigen:           "mobigen",
	CreatorMobipocketCreator: "Mobipocket Creator",
	CreatorKindlegenWindows:  "kindlegen (Windows)",
	CreatorKindlegenLinux:    "kindlegen (Linux)",
	CreatorKindlegenMac:      "kindlegen (Mac)",
}

func (c CreatorSoftware) String() string { return enumString(creatorSoftwareNames, c) }
func (c CreatorSoftware) Known() bool    { _, ok := creatorSoftwareNames[c]; return ok }
