package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ben-ranford/notices/internal/aggregate"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// AllFormats lists every document in the order it is written.
var AllFormats = []Format{FormatHTML, FormatJSON, FormatMarkdown}

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(FormatHTML):
		return FormatHTML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// ParseFormats parses a list of format names, dropping duplicates. An empty
// list selects every format.
func ParseFormats(values []string) ([]Format, error) {
	if len(values) == 0 {
		return slices.Clone(AllFormats), nil
	}
	formats := make([]Format, 0, len(values))
	for _, value := range values {
		format, err := ParseFormat(value)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return formats, nil
}

// FileName is the name of the document written for f.
func (f Format) FileName() string {
	switch f {
	case FormatHTML:
		return "3rd-party-notices.html"
	case FormatMarkdown:
		return "3rd-party-notices.md"
	default:
		return "3rd-party-notices.json"
	}
}

func (f Format) render(deps []aggregate.Dependency, texts []aggregate.LicenseText) ([]byte, error) {
	switch f {
	case FormatHTML:
		return HTML(deps, texts)
	case FormatMarkdown:
		return Markdown(deps, texts)
	case FormatJSON:
		return JSON(deps, texts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}
