package spdx

import (
	"regexp"
	"strings"
)

// knownLicenses and knownExceptions list exactly the identifiers with a text
// under corpus/.
var knownLicenses = []string{
	"0BSD", "Apache-2.0", "BSD-2-Clause", "BSD-3-Clause", "BSL-1.0", "CC-BY-SA-4.0", "CC0-1.0",
	"GFDL-1.3-only", "GFDL-1.3-or-later", "GPL-1.0-only", "GPL-1.0-or-later",
	"GPL-2.0-only", "GPL-2.0-or-later", "GPL-3.0-only", "GPL-3.0-or-later", "ISC",
	"LGPL-2.0-only", "LGPL-2.0-or-later", "LGPL-2.1-only", "LGPL-2.1-or-later", "LGPL-3.0-only", "LGPL-3.0-or-later",
	"MIT", "MIT-0", "MPL-1.1", "MPL-2.0", "NCSA", "OFL-1.1",
	"Unicode-3.0", "Unicode-DFS-2016", "Unlicense", "WTFPL", "Zlib",
}

var knownExceptions = []string{"GCC-exception-3.1", "LLVM-exception"}

// deprecatedFamilies maps the pre-3.0 GNU identifiers to their -only and
// -or-later replacements.
var deprecatedFamilies = map[string][2]string{
	"GPL-1.0":  {"GPL-1.0-only", "GPL-1.0-or-later"},
	"GPL-2.0":  {"GPL-2.0-only", "GPL-2.0-or-later"},
	"GPL-3.0":  {"GPL-3.0-only", "GPL-3.0-or-later"},
	"LGPL-2.0": {"LGPL-2.0-only", "LGPL-2.0-or-later"},
	"LGPL-2.1": {"LGPL-2.1-only", "LGPL-2.1-or-later"},
	"LGPL-3.0": {"LGPL-3.0-only", "LGPL-3.0-or-later"},
	"GFDL-1.3": {"GFDL-1.3-only", "GFDL-1.3-or-later"},
}

// licenseAliases are single-token spellings seen in real manifests.
var licenseAliases = map[string]string{
	"APACHE2":  "Apache-2.0",
	"APACHE-2": "Apache-2.0",
	"APACHEV2": "Apache-2.0",
	"ASL2":     "Apache-2.0",
	"BOOST":    "BSL-1.0",
	"GPLV2":    "GPL-2.0",
	"GPLV3":    "GPL-3.0",
	"LGPLV2":   "LGPL-2.0",
	"LGPLV2.1": "LGPL-2.1",
	"LGPLV3":   "LGPL-3.0",
	"MPL2":     "MPL-2.0",
	"MPLV2":    "MPL-2.0",
	"CC0":      "CC0-1.0",
}

type phraseRewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Multi-word spellings are collapsed before tokenising so that the lexer only
// ever sees whitespace-free identifiers.
var phraseRewrites = []phraseRewrite{
	{regexp.MustCompile(`(?i)\bapache(?:[ -]?licen[sc]e)?[ ,-]*(?:v(?:ersion)? ?)?2(?:\.0)?\b`), "Apache-2.0"},
	{regexp.MustCompile(`(?i)\basl[ -]?2(?:\.0)?\b`), "Apache-2.0"},
	{regexp.MustCompile(`(?i)\bmit[ -]licen[sc]e\b`), "MIT"},
	{regexp.MustCompile(`(?i)\bbsd[ -]?([23])(?:[ -]?clause)?\b`), "BSD-${1}-Clause"},
	{regexp.MustCompile(`(?i)\bmozilla public licen[sc]e[ ,]*(?:v(?:ersion)? ?)?2(?:\.0)?\b`), "MPL-2.0"},
}

var (
	licenseRefPattern = regexp.MustCompile(`^(?:DocumentRef-[A-Za-z0-9.\-]+:)?LicenseRef-[A-Za-z0-9.\-]+$`)
	refWordPattern    = regexp.MustCompile(`(?i)(?:DocumentRef-[A-Za-z0-9.\-]+:)?LicenseRef-[A-Za-z0-9.\-+]*`)
	licenseIndex      = indexIDs(knownLicenses)
	exceptionIndex    = indexIDs(knownExceptions)
)

func indexIDs(ids []string) map[string]string {
	index := make(map[string]string, len(ids))
	for _, id := range ids {
		index[strings.ToUpper(id)] = id
	}
	return index
}

// rewritePhrases applies phraseRewrites to the text between user-defined
// references; LicenseRef- and DocumentRef- words are copied unchanged.
func rewritePhrases(value string) string {
	var b strings.Builder
	last := 0
	for _, loc := range refWordPattern.FindAllStringIndex(value, -1) {
		b.WriteString(rewriteSegment(value[last:loc[0]]))
		b.WriteString(value[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(rewriteSegment(value[last:]))
	return b.String()
}

func rewriteSegment(segment string) string {
	for _, rewrite := range phraseRewrites {
		segment = rewrite.pattern.ReplaceAllString(segment, rewrite.replacement)
	}
	return segment
}

// lookupLicense resolves one lexed license token into a requirement.
func lookupLicense(word string) (Requirement, bool) {
	id := word
	orLater := false
	if trimmed, ok := strings.CutSuffix(id, "+"); ok {
		id = trimmed
		orLater = true
	}
	if id == "" {
		return Requirement{}, false
	}
	if licenseRefPattern.MatchString(id) {
		return Requirement{ID: id, OrLater: orLater}, true
	}

	key := strings.ToUpper(id)
	if alias, ok := licenseAliases[key]; ok {
		key = strings.ToUpper(alias)
	}
	if family, ok := deprecatedFamilies[key]; ok {
		if orLater {
			return Requirement{ID: family[1]}, true
		}
		return Requirement{ID: family[0]}, true
	}
	if canonical, ok := licenseIndex[key]; ok {
		return Requirement{ID: canonical, OrLater: orLater}, true
	}
	return Requirement{}, false
}

func lookupException(word string) (string, bool) {
	canonical, ok := exceptionIndex[strings.ToUpper(word)]
	return canonical, ok
}
