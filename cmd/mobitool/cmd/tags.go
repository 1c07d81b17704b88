package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mobi "github.com/logicossoftware/go-mobi"
)

// maxRawBytes caps the hex dump of an uninterpreted tag.
const maxRawBytes = 32

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <file>",
		Short: "List the EXTH metadata tags of a book",
		Long: `List the EXTH metadata tags of a book, one per line.

Example:
  mobitool tags book.mobi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := a.open(args[0], mobi.WithHeadersOnly(true))
			if err != nil {
				return err
			}
			return writeTags(cmd.OutOrStdout(), book)
		},
	}
}

func writeTags(w io.Writer, book *mobi.Book) error {
	for _, t := range book.Tags {
		if _, err := fmt.Fprintf(w, "%-5d %-22s %s\n", t.Code(), t.Code(), formatTag(t, book.Header.TextEncoding)); err != nil {
			return err
		}
	}
	return nil
}

func formatTag(t mobi.Tag, enc mobi.TextEncoding) string {
	switch t := t.(type) {
	case mobi.StringTag:
		s, err := t.Text(enc)
		if err != nil {
			return formatRaw(t.Value)
		}
		return s
	case mobi.Uint32Tag:
		return fmt.Sprint(t.Value)
	case mobi.BoolTag:
		return fmt.Sprint(t.Value)
	case mobi.CreatorSoftwareTag:
		return t.Value.String()
	case mobi.RawTag:
		return formatRaw(t.Data)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatRaw(b []byte) string {
	if len(b) <= maxRawBytes {
		return fmt.Sprintf("[% x]", b)
	}
	return fmt.Sprintf("[% x ...] (%d bytes)", b[:maxRawBytes], len(b))
}
