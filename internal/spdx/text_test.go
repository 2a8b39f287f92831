package spdx

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ben-ranford/notices/internal/testutil"
)

func TestCorpusResolvesEmbeddedTexts(t *testing.T) {
	for _, id := range []string{"MIT", apacheID, "BSD-3-Clause", "ISC", "Unicode-DFS-2016", llvmExcID} {
		text, err := Corpus().Text(id)
		if err != nil {
			t.Fatalf("corpus text %s: %v", id, err)
		}
		if strings.TrimSpace(text) == "" {
			t.Fatalf("expected non-empty text for %s", id)
		}
	}
	if _, err := Corpus().Text("LicenseRef-Nope"); !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected ErrTextNotFound, got %v", err)
	}
	if _, err := Corpus().Text("../licenses/MIT"); !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected path-like id to be rejected, got %v", err)
	}
}

func TestCorpusCoversEveryAcceptedID(t *testing.T) {
	for _, id := range knownLicenses {
		req, err := ParseRequirement(id)
		if err != nil {
			t.Fatalf(parseErrFmt, id, err)
		}
		if _, err := ResolveText(Corpus(), req); err != nil {
			t.Fatalf("accepted license %s has no text: %v", id, err)
		}
	}
	for _, id := range knownExceptions {
		req, err := ParseRequirement(apacheID + " WITH " + id)
		if err != nil {
			t.Fatalf(parseErrFmt, id, err)
		}
		if _, err := ResolveText(Corpus(), req); err != nil {
			t.Fatalf("accepted exception %s has no text: %v", id, err)
		}
	}
	for family, ids := range deprecatedFamilies {
		for _, id := range ids {
			if _, err := Corpus().Text(id); err != nil {
				t.Fatalf("deprecated %s maps to %s without text: %v", family, id, err)
			}
		}
	}
}

func TestCorpusHasNoUnlistedTexts(t *testing.T) {
	for dir, ids := range map[string][]string{"corpus/licenses": knownLicenses, "corpus/exceptions": knownExceptions} {
		entries, err := fs.ReadDir(corpusFS, dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		for _, entry := range entries {
			id := strings.TrimSuffix(entry.Name(), ".txt")
			if !slices.Contains(ids, id) {
				t.Fatalf("%s/%s is not an accepted identifier", dir, entry.Name())
			}
		}
		if len(entries) != len(ids) {
			t.Fatalf("%s holds %d texts for %d identifiers", dir, len(entries), len(ids))
		}
	}
}

func TestResolveTextAppendsException(t *testing.T) {
	text, err := ResolveText(Corpus(), Requirement{ID: apacheID, Exception: llvmExcID})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	license, _ := Corpus().Text(apacheID)
	exception, _ := Corpus().Text(llvmExcID)
	want := strings.TrimRight(license, "\n") + "\n\nWITH EXCEPTION:\n\n" + strings.TrimRight(exception, "\n")
	if text != want {
		t.Fatalf("unexpected combined text")
	}
}

func TestResolveTextIgnoresOrLaterFlag(t *testing.T) {
	plain, err := ResolveText(Corpus(), Requirement{ID: "MIT"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	later, err := ResolveText(Corpus(), Requirement{ID: "MIT", OrLater: true})
	if err != nil {
		t.Fatalf("resolve or-later: %v", err)
	}
	if plain != later {
		t.Fatalf("expected or-later flag not to change the text")
	}
}

func TestResolveTextUnknownException(t *testing.T) {
	_, err := ResolveText(Corpus(), Requirement{ID: apacheID, Exception: "Classpath-exception-2.0"})
	if !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected ErrTextNotFound, got %v", err)
	}
}

func TestDirProviderAndChain(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "GPL-3.0-only.txt"), "GNU GENERAL PUBLIC LICENSE\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "MIT.txt"), "local MIT\n")

	provider := ChainProvider(DirProvider(dir), Corpus())
	text, err := ResolveText(provider, Requirement{ID: "GPL-3.0-only"})
	if err != nil {
		t.Fatalf("resolve from dir: %v", err)
	}
	if text != "GNU GENERAL PUBLIC LICENSE" {
		t.Fatalf("unexpected dir text %q", text)
	}
	if text, _ := provider.Text("MIT"); text != "local MIT\n" {
		t.Fatalf("expected first provider to win, got %q", text)
	}
	if text, err := provider.Text("ISC"); err != nil || !strings.Contains(text, "ISC License") {
		t.Fatalf("expected fallback to corpus, got %q, %v", text, err)
	}
	if _, err := DirProvider(filepath.Join(dir, "missing")).Text("MIT"); !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected missing dir to report ErrTextNotFound, got %v", err)
	}
}
