package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	mobi "github.com/logicossoftware/go-mobi"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the container and MOBI headers of a book",
		Long: `Print the PalmDB container header and the MOBI header of a book.
Text records are not read.

Example:
  mobitool info book.mobi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, size, err := a.open(args[0], mobi.WithHeadersOnly(true))
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), args[0], size, book)
		},
	}
}

func writeInfo(w io.Writer, path string, size int64, book *mobi.Book) error {
	c, h := book.Container, book.Header
	title, err := book.Title()
	if err != nil {
		title = fmt.Sprintf("<%v>", err)
	}

	rows := []struct {
		label string
		value any
	}{
		{"File", path},
		{"Size", humanize.Bytes(uint64(size))},
		{"Name", c.DisplayName()},
		{"Title", title},
		{"Created", c.CreatedTime().Format("2006-01-02 15:04:05")},
		{"Modified", c.ModifiedTime().Format("2006-01-02 15:04:05")},
		{"Records", len(c.Records)},
		{"Compression", h.Compression},
		{"Encryption", h.Encryption},
		{"Content type", h.ContentType},
		{"Text encoding", h.TextEncoding},
		{"Locale", h.Locale},
		{"Unique ID", h.UniqueID},
		{"File version", h.FileVersion},
		{"Text length", fmt.Sprintf("%s (%s bytes)", humanize.Bytes(uint64(h.TextLength)), humanize.Comma(int64(h.TextLength)))},
		{"Text records", h.TextRecordCount},
		{"Content records", fmt.Sprintf("%d-%d", h.FirstContentRecord, h.LastContentRecord)},
		{"First image", h.FirstImageIndex},
		{"INDX record", h.INDXRecordOffset},
		{"EXTH tags", len(book.Tags)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-16s %v\n", r.label+":", r.value); err != nil {
			return err
		}
	}
	return nil
}
