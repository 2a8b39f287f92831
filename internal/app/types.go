package app

import "github.com/ben-ranford/notices/internal/report"

// Request describes one run. An empty OutputDir means the working directory.
// With Check set every validation runs but no documents are written.
type Request struct {
	ProjectPath string
	ConfigPath  string
	OutputDir   string
	Formats     []report.Format
	Check       bool
}

// Result summarises a successful run.
type Result struct {
	Dependencies int
	Licenses     int
	Warnings     []string
	Written      []string
}
