// Package mobi reads and writes MOBI (Mobipocket) e-books.
//
// A MOBI file is a PalmDB container whose first record holds the book
// metadata and whose following records hold the compressed text.
//
// # File Format Overview
//
// A MOBI file consists of:
//   - A PalmDB header with the database name, timestamps and a table of
//     record offsets
//   - Record 0: a 16-byte PalmDOC header, the MOBI header (232 fixed bytes
//     plus an optional extension), an optional EXTH tagged metadata block and
//     the full book title
//   - Text records, each holding up to 4096 bytes of text, usually
//     compressed with the PalmDOC LZ77 variant
//
// All integers are big-endian.
//
// # Basic Usage
//
// To read a book:
//
//	book, err := mobi.Open("book.mobi")
//	if err != nil {
//		log.Fatal(err)
//	}
//	title, _ := book.Title()
//	text, _ := mobi.DecodeText(book.Text, book.Header.TextEncoding)
//
// The header layers can also be decoded on their own with DecodeContainer,
// DecodeMetadataHeader and DecodeTags, and single records with Decompress.
//
// To write a book:
//
//	doc := &mobi.Document{
//		Name: "my-book",
//		Title: "My Book",
//		Tags: []mobi.Tag{mobi.StringTag{TagCode: mobi.TagAuthor, Value: []byte("Me")}},
//		Text: []byte("<html><body><p>Hello</p></body></html>"),
//	}
//	err := mobi.Encode(f, doc)
//
// # Optional fields
//
// Several fixed-width header fields mark "absent" with a reserved value.
// Most MOBI header fields use 0xFFFFFFFF; the PalmDB app-info and sort-info
// offsets use 0. Both decode to [Optional32].
//
// # Unknown codes
//
// Enumerated fields (compression, encryption, content type, text encoding,
// language, tag code) keep codes this package has no name for; String
// reports them as Unknown(code) and decoding never fails on them.
//
// # Security Considerations
//
// Decoding never panics on corrupt input. Allocation sizes are bounded by
// configurable [Limits].
package mobi
