package spdx

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

var ErrTextNotFound = errors.New("license text not found")

//go:embed corpus/licenses/*.txt corpus/exceptions/*.txt
var corpusFS embed.FS

// TextProvider returns the full text of a license or exception identifier.
// Unknown identifiers yield an error matching ErrTextNotFound.
type TextProvider interface {
	Text(id string) (string, error)
}

type fsProvider struct {
	fsys fs.FS
	dirs []string
}

// Corpus returns the license and exception texts built into the binary.
func Corpus() TextProvider {
	return fsProvider{fsys: corpusFS, dirs: []string{"corpus/licenses", "corpus/exceptions"}}
}

// DirProvider reads <dir>/<id>.txt, the layout of the text/ directory of
// SPDX license-list-data.
func DirProvider(dir string) TextProvider {
	return fsProvider{fsys: os.DirFS(dir), dirs: []string{"."}}
}

func (p fsProvider) Text(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrTextNotFound, id)
	}
	for _, dir := range p.dirs {
		data, err := fs.ReadFile(p.fsys, path.Join(dir, id+".txt"))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
			return "", fmt.Errorf("read license text %s: %w", id, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTextNotFound, id)
}

type chainProvider []TextProvider

// ChainProvider consults providers in order; the first one that knows an id
// wins.
func ChainProvider(providers ...TextProvider) TextProvider {
	return chainProvider(providers)
}

func (c chainProvider) Text(id string) (string, error) {
	for _, provider := range c {
		text, err := provider.Text(id)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrTextNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTextNotFound, id)
}

// ResolveText returns the text for req. A WITH exception is appended after
// the license text under a "WITH EXCEPTION:" heading.
func ResolveText(p TextProvider, req Requirement) (string, error) {
	text, err := p.Text(req.ID)
	if err != nil {
		return "", err
	}
	text = strings.TrimRight(text, "\r\n")
	if req.Exception == "" {
		return text, nil
	}
	exception, err := p.Text(req.Exception)
	if err != nil {
		return "", err
	}
	return text + "\n\nWITH EXCEPTION:\n\n" + strings.TrimRight(exception, "\r\n"), nil
}
