package web

import (
	"embed"
	"html/template"
	"io"
	"time"

	"mspro-labs/scoop-scout/internal/artifact"
)

//go:embed templates
var Assets embed.FS

var funcMap = template.FuncMap{
	"since": func(t time.Time) string { return time.Since(t).Round(time.Minute).String() },
}

// Pages holds the parsed status page.
type Pages struct {
	index *template.Template
}

// Status is the data rendered by the index page.
type Status struct {
	Artifact  artifact.Artifact
	UpdatedAt time.Time
	Empty     bool
}

func Parse() (*Pages, error) {
	index, err := template.New("index.html").Funcs(funcMap).ParseFS(Assets, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Pages{index: index}, nil
}

func (p *Pages) Index(w io.Writer, s Status) error {
	return p.index.ExecuteTemplate(w, "index.html", s)
}
