package report

import (
	"bytes"
	"embed"
	"html"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/ben-ranford/notices/internal/aggregate"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates    = parseHTMLTemplates()
	markdownTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/notices.md.tmpl"))
)

func parseHTMLTemplates() *htmltemplate.Template {
	funcs := htmltemplate.FuncMap{"isLink": isLink, "notices": noticesHTML}
	return htmltemplate.Must(htmltemplate.New("notices.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/notices.html.tmpl", "templates/deps.html.tmpl"))
}

type htmlView struct {
	Dependencies []aggregate.Dependency
	Licenses     []aggregate.LicenseText
}

type markdownView struct {
	Table    string
	Licenses []aggregate.LicenseText
}

// HTML renders the styled notices page.
func HTML(deps []aggregate.Dependency, texts []aggregate.LicenseText) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "notices.html.tmpl", htmlView{Dependencies: deps, Licenses: texts}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown renders the notices as Markdown. The dependency table is the same
// HTML table the HTML page uses.
func Markdown(deps []aggregate.Dependency, texts []aggregate.LicenseText) ([]byte, error) {
	table, err := dependencyTable(deps)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, markdownView{Table: table, Licenses: texts}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dependencyTable(deps []aggregate.Dependency) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "deps", deps); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isLink reports whether a package URL should be rendered as a hyperlink.
// Git and path sources stay plain text.
func isLink(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func noticesHTML(notices []string) htmltemplate.HTML {
	escaped := html.EscapeString(strings.Join(notices, "\n"))
	// #nosec G203 -- every notice has been escaped above.
	return htmltemplate.HTML(strings.ReplaceAll(escaped, "\n", "<br />"))
}
