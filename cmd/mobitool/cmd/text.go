package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	mobi "github.com/logicossoftware/go-mobi"
)

func newTextCmd(a *app) *cobra.Command {
	var (
		plain     bool
		codecName string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "text <file>",
		Short: "Extract the text of a book",
		Long: `Decompress the text records of a book and write the text, optionally
stripped of markup and compressed with one of the export codecs.

Example:
  mobitool text book.mobi --plain
  mobitool text book.mobi --codec zstd --out book.txt.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("plain") {
				plain = a.cfg.Export.Plain
			}
			if !cmd.Flags().Changed("codec") {
				codecName = a.cfg.Export.Codec
			}
			codec, err := mobi.ParseExportCodec(codecName)
			if err != nil {
				return err
			}

			book, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			text, err := mobi.DecodeText(book.Text, book.Header.TextEncoding)
			if err != nil {
				return err
			}
			if plain {
				if text, err = mobi.PlainText(text); err != nil {
					return err
				}
			}

			if out == "" {
				return mobi.ExportText(cmd.OutOrStdout(), []byte(text), codec)
			}
			if err := writeFile(out, []byte(text), codec); err != nil {
				return err
			}
			a.logger.Info("text written",
				"file", out,
				"codec", codec.String(),
				"text", humanize.Bytes(uint64(len(text))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Strip markup from the text")
	cmd.Flags().StringVar(&codecName, "codec", "none", "Output codec: none, zip, zstd, lz4, brotli, snappy")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func writeFile(path string, text []byte, codec mobi.ExportCodec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mobi.ExportText(f, text, codec); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
