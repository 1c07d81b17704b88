package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	mobi "github.com/logicossoftware/go-mobi"
	"github.com/logicossoftware/go-mobi/internal/config"
)

const version = "0.1.0"

// app carries what PersistentPreRunE prepares for the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// NewRootCmd builds the mobitool command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var configPath, logLevel string

	root := &cobra.Command{
		Use:   "mobitool",
		Short: "Inspect and extract MOBI e-books",
		Long: `mobitool reads Mobipocket (MOBI) e-books: it prints their PalmDB,
MOBI and EXTH headers and extracts the decompressed text.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			logger, closer, err := createLogger(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.closer = cfg, logger, closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "mobitool.yaml", "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(newInfoCmd(a), newTagsCmd(a), newTextCmd(a))
	return root
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func createLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var output io.Writer
	var closer io.Closer
	switch strings.ToLower(cfg.Output) {
	case "stderr", "":
		output = stderr
	case "stdout":
		output = os.Stdout
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = file
		closer = file
	case "none":
		output = io.Discard
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(output, opts)), closer, nil
	case "json":
		return slog.New(slog.NewJSONHandler(output, opts)), closer, nil
	default:
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
}

func (a *app) readOptions(extra ...mobi.ReadOption) []mobi.ReadOption {
	d := a.cfg.Decode
	opts := []mobi.ReadOption{
		mobi.WithWorkers(d.Workers),
		mobi.WithTruncateToTextLength(d.TruncateToTextLength),
		mobi.WithReadLimits(mobi.Limits{
			MaxHeaderExtension: d.Limits.MaxHeaderExtension,
			MaxEXTHLen:         d.Limits.MaxEXTHLen,
			MaxFullNameLen:     d.Limits.MaxFullNameLen,
			MaxRecordLen:       d.Limits.MaxRecordLen,
			MaxTextRecords:     d.Limits.MaxTextRecords,
			MaxTextLen:         d.Limits.MaxTextLen,
		}),
	}
	return append(opts, extra...)
}

// open decodes the book at path and returns it with the file size.
func (a *app) open(path string, extra ...mobi.ReadOption) (*mobi.Book, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	book, err := mobi.Decode(f, a.readOptions(extra...)...)
	if err != nil {
		a.logger.Error("decode failed", "file", path, "error", err)
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("decoded",
		"file", path,
		"records", len(book.Container.Records),
		"compression", book.Header.Compression.String(),
		"tags", len(book.Tags))
	return book, st.Size(), nil
}
