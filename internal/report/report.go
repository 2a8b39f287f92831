// Package report renders the aggregated notices as HTML, Markdown and JSON
// documents and writes them to disk.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ben-ranford/notices/internal/aggregate"
	"github.com/ben-ranford/notices/internal/spdx"
	"github.com/moby/sys/atomicwriter"
)

const documentPerm os.FileMode = 0o644

var errTargetIsDir = errors.New("target is a directory")

type Document struct {
	Format  Format
	Content []byte
}

// Documents are rendered in memory and only written once all of them
// rendered successfully.
type Documents []Document

// Render resolves every license text once through provider and renders one
// document per requested format. No formats means all of them.
func Render(n *aggregate.Notices, provider spdx.TextProvider, formats ...Format) (Documents, error) {
	if len(formats) == 0 {
		formats = AllFormats
	}
	texts, err := n.LicenseTexts(provider)
	if err != nil {
		return nil, err
	}
	deps := n.Dependencies()
	docs := make(Documents, 0, len(formats))
	for _, format := range formats {
		content, err := format.render(deps, texts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		docs = append(docs, Document{Format: format, Content: content})
	}
	return docs, nil
}

// WriteFiles writes each document into dir, creating dir if needed, and
// returns the written paths. All documents are staged and synced inside dir
// before any existing file is replaced, so a failed write leaves the previous
// report untouched.
func (d Documents) WriteFiles(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	for _, doc := range d {
		path := filepath.Join(dir, doc.Format.FileName())
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return nil, fmt.Errorf("write %s: %w", path, errTargetIsDir)
		}
	}

	staging, err := atomicwriter.NewWriteSet(dir)
	if err != nil {
		return nil, fmt.Errorf("stage documents in %s: %w", dir, err)
	}
	defer func() { _ = staging.Cancel() }()
	for _, doc := range d {
		if err := staging.WriteFile(doc.Format.FileName(), doc.Content, documentPerm); err != nil {
			return nil, fmt.Errorf("stage %s: %w", doc.Format.FileName(), err)
		}
	}

	written := make([]string, 0, len(d))
	for _, doc := range d {
		name := doc.Format.FileName()
		path := filepath.Join(dir, name)
		if err := os.Rename(filepath.Join(staging.String(), name), path); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Lookup returns the document rendered for format.
func (d Documents) Lookup(format Format) (Document, bool) {
	for _, doc := range d {
		if doc.Format == format {
			return doc, true
		}
	}
	return Document{}, false
}
