package mobi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

// DecodeText converts b from enc to a Go string.
func DecodeText(b []byte, enc TextEncoding) (string, error) {
	switch enc {
	case EncodingUTF8:
		if !utf8.Valid(b) {
			return "", ErrUTF8Decode
		}
		return string(b), nil
	case EncodingCP1252:
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("mobi: decode CP1252: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedEncoding, enc)
	}
}

// blockTags produce a line break in PlainText.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// pageBreakTag is the Mobipocket page break element. It has no atom.
const pageBreakTag = "mbp:pagebreak"

// PlainText strips the markup from decoded book text. Block elements end a
// line, page breaks leave a blank line, script and style content is dropped.
func PlainText(markup string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(markup))

	var buf strings.Builder
	skipDepth := 0
	lastWasNewline := true
	newline := func() {
		if !lastWasNewline {
			buf.WriteByte('\n')
			lastWasNewline = true
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(buf.String()), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == pageBreakTag {
				newline()
				buf.WriteByte('\n')
				continue
			}
			a := atom.Lookup(name)
			if skipTags[a] {
				skipDepth++
				continue
			}
			if blockTags[a] {
				newline()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipTags[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[a] {
				newline()
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := collapseSpace(z.Text())
			if len(text) == 0 {
				continue
			}
			if lastWasNewline {
				text = bytes.TrimLeft(text, " ")
			}
			buf.Write(text)
			lastWasNewline = false
		}
	}
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	space := false
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				out = append(out, ' ')
			}
			space = true
		default:
			out = append(out, c)
			space = false
		}
	}
	return out
}

// EncodeText converts s to enc, the inverse of DecodeText.
func EncodeText(s string, enc TextEncoding) ([]byte, error) {
	switch enc {
	case EncodingUTF8:
		if !utf8.ValidString(s) {
			return nil, ErrUTF8Decode
		}
		return []byte(s), nil
	case EncodingCP1252:
		out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("mobi: encode CP1252: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, enc)
	}
}
