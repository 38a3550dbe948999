// Package export writes saved workouts to disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/wodwiki/internal/engine"
)

// FilePrefix starts every exported file name.
const FilePrefix = "wod-wiki-workout-"

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileName returns the export file name for a save at t: the UTC ISO
// timestamp with colons and dots replaced by dashes.
func FileName(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return FilePrefix + stampReplacer.Replace(iso) + ".md"
}

// Markdown writes each save as a Markdown file in a directory.
type Markdown struct {
	dir  string
	now  func() time.Time
	last string
}

// MarkdownOption configures a Markdown exporter.
type MarkdownOption func(*Markdown)

// WithNow replaces the clock used to name files.
func WithNow(now func() time.Time) MarkdownOption {
	return func(m *Markdown) {
		m.now = now
	}
}

// NewMarkdown creates an exporter writing into dir. The directory is
// created on first save.
func NewMarkdown(dir string, opts ...MarkdownOption) *Markdown {
	m := &Markdown{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Export writes the document. An existing file is never overwritten.
func (m *Markdown) Export(ctx context.Context, source string, history []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(m.dir, FileName(m.now()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if _, err := f.WriteString(engine.ExportDocument(source, history)); err != nil {
		f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	m.last = path
	slog.Info("workout exported", "path", path, "keys", len(history))
	return nil
}

// LastPath returns the file written by the most recent successful save.
func (m *Markdown) LastPath() string {
	return m.last
}

// Tee fans a save out to several exporters. Every exporter runs; the
// errors are joined.
func Tee(exporters ...engine.Exporter) engine.Exporter {
	return engine.ExporterFunc(func(ctx context.Context, source string, history []string) error {
		var errs []error
		for _, e := range exporters {
			if e == nil {
				continue
			}
			if err := e.Export(ctx, source, history); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

var _ engine.Exporter = (*Markdown)(nil)
