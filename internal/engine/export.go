package engine

import (
	"context"
	"strings"
)

// Exporter receives a finished workout: the script source and the history
// of committed keys. Implementations own all file or database I/O.
type Exporter interface {
	Export(ctx context.Context, source string, history []string) error
}

// ExporterFunc adapts a function to an Exporter.
type ExporterFunc func(ctx context.Context, source string, history []string) error

func (f ExporterFunc) Export(ctx context.Context, source string, history []string) error {
	return f(ctx, source, history)
}

// ExportDocument renders the exported text: the source, a blank line, then
// one key per line.
func ExportDocument(source string, history []string) string {
	return source + "\n\n" + strings.Join(history, "\n")
}
