// Package main provides C-compatible exports for the mobi library.
// Build with: go build -buildmode=c-shared -o mobi.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} MobiResult;
*/
import "C"

import (
	"bytes"
	"encoding/json"
	"unsafe"

	mobi "github.com/logicossoftware/go-mobi"
)

func main() {}

// MobiRecordSize returns the text record size supported by this library.
//
//export MobiRecordSize
func MobiRecordSize() C.uint16_t {
	return C.uint16_t(mobi.RecordSize)
}

// MobiFreeResult frees memory allocated by other Mobi functions.
// Must be called to avoid memory leaks.
//
//export MobiFreeResult
func MobiFreeResult(result C.MobiResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// MobiFreeString frees a C string allocated by Go.
//
//export MobiFreeString
func MobiFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func makeResult(data []byte) C.MobiResult {
	var result C.MobiResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

func makeError(err error) C.MobiResult {
	var result C.MobiResult
	result.error = C.CString(err.Error())
	return result
}

func decode(data *C.char, dataLen C.int, opts ...mobi.ReadOption) (*mobi.Book, error) {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	return mobi.Decode(bytes.NewReader(goData), opts...)
}

// MobiDecodeHeaders decodes the headers of a MOBI file and returns them as JSON.
// Parameters:
//   - data: pointer to MOBI file bytes
//   - dataLen: length of the data
//
// Returns MobiResult with a JSON object or error. Call MobiFreeResult when done.
// The JSON object contains: name, title, compression, encryption, encoding,
// textLength, textRecords and tags (code, name and value per tag).
//
//export MobiDecodeHeaders
func MobiDecodeHeaders(data *C.char, dataLen C.int) C.MobiResult {
	book, err := decode(data, dataLen, mobi.WithHeadersOnly(true))
	if err != nil {
		return makeError(err)
	}
	title, err := book.Title()
	if err != nil {
		return makeError(err)
	}

	tags := make([]map[string]any, len(book.Tags))
	for i, t := range book.Tags {
		tags[i] = map[string]any{
			"code":  uint32(t.Code()),
			"name":  t.Code().String(),
			"value": tagValue(t, book.Header.TextEncoding),
		}
	}
	result := map[string]any{
		"name":        book.Container.DisplayName(),
		"title":       title,
		"compression": book.Header.Compression.String(),
		"encryption":  book.Header.Encryption.String(),
		"encoding":    book.Header.TextEncoding.String(),
		"textLength":  book.Header.TextLength,
		"textRecords": book.Header.TextRecordCount,
		"tags":        tags,
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

func tagValue(t mobi.Tag, enc mobi.TextEncoding) any {
	switch t := t.(type) {
	case mobi.StringTag:
		if s, err := t.Text(enc); err == nil {
			return s
		}
		return t.Value
	case mobi.Uint32Tag:
		return t.Value
	case mobi.BoolTag:
		return t.Value
	case mobi.CreatorSoftwareTag:
		return t.Value.String()
	case mobi.RawTag:
		return t.Data
	}
	return nil
}

// MobiText decodes a MOBI file and returns its text as UTF-8.
// Parameters:
//   - data: pointer to MOBI file bytes
//   - dataLen: length of the data
//   - plain: non-zero to strip the markup
//
// Returns MobiResult with the text or error. Call MobiFreeResult when done.
//
//export MobiText
func MobiText(data *C.char, dataLen C.int, plain C.int) C.MobiResult {
	book, err := decode(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	text, err := mobi.DecodeText(book.Text, book.Header.TextEncoding)
	if err != nil {
		return makeError(err)
	}
	if plain != 0 {
		if text, err = mobi.PlainText(text); err != nil {
			return makeError(err)
		}
	}
	return makeResult([]byte(text))
}

// MobiValidate decodes a MOBI file, text included.
// Returns NULL on success, or an error message string on failure.
// Call MobiFreeString on the result if non-NULL.
//
//export MobiValidate
func MobiValidate(data *C.char, dataLen C.int) *C.char {
	if _, err := decode(data, dataLen); err != nil {
		return C.CString(err.Error())
	}
	return nil
}

// MobiEncodeSimple builds a UTF-8 MOBI book from a single text.
// Parameters:
//   - name: PalmDB name, at most 31 bytes
//   - title: optional full title (can be NULL)
//   - author: optional author (can be NULL)
//   - text: the book markup
//   - textLen: length of the text
//   - compression: 1=None, 2=PalmDOC
//
// Returns MobiResult with encoded data or error. Call MobiFreeResult when done.
//
//export MobiEncodeSimple
func MobiEncodeSimple(
	name *C.char,
	title *C.char,
	author *C.char,
	text *C.char,
	textLen C.int,
	compression C.uint16_t,
) C.MobiResult {
	doc := &mobi.Document{
		Name: C.GoString(name),
		Text: C.GoBytes(unsafe.Pointer(text), textLen),
	}
	if title != nil {
		doc.Title = C.GoString(title)
	}
	if author != nil {
		if a := C.GoString(author); a != "" {
			doc.Tags = append(doc.Tags, mobi.StringTag{TagCode: mobi.TagAuthor, Value: []byte(a)})
		}
	}

	var buf bytes.Buffer
	if err := mobi.Encode(&buf, doc, mobi.WithCompression(mobi.Compression(compression))); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// MobiGetTagCount returns the number of EXTH tags in a MOBI file.
// Returns -1 on error.
//
//export MobiGetTagCount
func MobiGetTagCount(data *C.char, dataLen C.int) C.int {
	book, err := decode(data, dataLen, mobi.WithHeadersOnly(true))
	if err != nil {
		return -1
	}
	return C.int(len(book.Tags))
}
