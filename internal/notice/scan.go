// Package notice harvests copyright statements and NOTICE files from the
// source tree of a dependency.
package notice

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ben-ranford/notices/internal/safeio"
	"golang.org/x/text/encoding/charmap"
)

const noticeFileName = "NOTICE"

var (
	candidateFilePattern = regexp.MustCompile(`(?i)(license.*|copying.*|readme.*|copyright.*|notice.*)`)
	copyrightPattern     = regexp.MustCompile(`(?im)copyright.*(©|\(c\)).*$`)
	placeholderPattern   = regexp.MustCompile(`(?i)(year|notice|holder|owner|interest|yyyy)`)
)

// Scanner collects notices from one directory.
type Scanner interface {
	Scan(dir string, out *Set) error
}

// DirScanner scans only the top level of a directory; nested directories
// are not descended into.
type DirScanner struct{}

func (DirScanner) Scan(dir string, out *Set) error {
	return Scan(dir, out)
}

// Scan adds the verbatim contents of dir/NOTICE and every copyright line found
// in candidate files directly inside dir to out.
func Scan(dir string, out *Set) error {
	noticePath := filepath.Join(dir, noticeFileName)
	if info, err := os.Stat(noticePath); err == nil && info.Mode().IsRegular() {
		text, err := readText(dir, noticePath)
		if err != nil {
			return err
		}
		out.Add(text)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", noticePath, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !MatchesCandidateFile(entry.Name()) {
			continue
		}
		text, err := readText(dir, filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		for _, line := range ExtractCopyrights(text) {
			out.Add(line)
		}
	}
	return nil
}

// MatchesCandidateFile reports whether a file name looks like it may carry
// copyright statements. The match is unanchored, so "MIT-LICENSE" and
// "THIRD_PARTY_NOTICES" qualify.
func MatchesCandidateFile(name string) bool {
	return candidateFilePattern.MatchString(name)
}

// ExtractCopyrights returns the copyright lines of text that name a holder,
// dropping template placeholders such as "Copyright (c) <year> <owner>".
func ExtractCopyrights(text string) []string {
	matches := copyrightPattern.FindAllString(text, -1)
	lines := make([]string, 0, len(matches))
	for _, match := range matches {
		match = strings.TrimRight(match, "\r")
		if placeholderPattern.MatchString(match) {
			continue
		}
		lines = append(lines, match)
	}
	return lines
}

func readText(dir, path string) (string, error) {
	data, err := safeio.ReadFileUnder(dir, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(decoded), nil
}
