package mobi

import (
	"fmt"
	"strings"
)

func validateDocument(doc *Document, cfg writeConfig) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("%w: Name must not be empty", ErrValidation)
	}
	if len(doc.Name) > 31 {
		return fmt.Errorf("%w: Name is %d bytes, at most 31 fit", ErrValidation, len(doc.Name))
	}
	if strings.IndexByte(doc.Name, 0) >= 0 {
		return fmt.Errorf("%w: Name must not contain NUL", ErrValidation)
	}
	switch cfg.compression {
	case CompressionNone, CompressionPalmDOC:
	default:
		return fmt.Errorf("%w: cannot write %v text", ErrUnsupportedCompression, cfg.compression)
	}
	if doc.Encoding != 0 && !doc.Encoding.Known() {
		return fmt.Errorf("%w: %v", ErrUnsupportedEncoding, doc.Encoding)
	}
	if uint64(len(doc.Text)) > cfg.limits.MaxTextLen || uint64(len(doc.Text)) > uint64(allOnes) {
		return fmt.Errorf("%w: text of %d bytes", ErrLimitExceeded, len(doc.Text))
	}
	records := (len(doc.Text) + RecordSize - 1) / RecordSize
	if records+1 > 0xFFFF || records > cfg.limits.MaxTextRecords {
		return fmt.Errorf("%w: %d text records", ErrLimitExceeded, records)
	}
	for i, t := range doc.Tags {
		if t == nil {
			return fmt.Errorf("%w: tag %d is nil", ErrValidation, i)
		}
	}
	return nil
}
