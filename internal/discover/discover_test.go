package discover

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/phobologic/typguide/internal/ty"
)

func TestDiscoverPythonFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Create Python files
	writeFile(t, dir, "main.py", "print('hello')")
	writeFile(t, dir, "lib/util.py", "def helper(): pass")
	// Non-Python file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.py", "secret")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths)
	}

	// Should be sorted
	if entries[0].Path != filepath.Join("lib", "util.py") {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "main.py" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}

	for _, e := range entries {
		if e.Language != "python" {
			t.Errorf("entry %q: language = %q, want python", e.Path, e.Language)
		}
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.py", "pass")
	writeFile(t, dir, "node_modules/pkg.py", "pass")
	writeFile(t, dir, "__pycache__/cached.py", "pass")
	writeFile(t, dir, ".hidden/secret.py", "pass")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.py" {
		t.Errorf("expected main.py, got %q", entries[0].Path)
	}
}

func TestDiscoverLanguageFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.py", "pass")
	writeFile(t, dir, "lib.py", "pass")

	entries, err := Files(dir, []string{"python"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for python filter, got %d", len(entries))
	}

	entries, err = Files(dir, []string{"javascript"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries for javascript filter, got %d", len(entries))
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.py", "pass")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.py"), filepath.Join(dir, "link.py"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.py" {
		t.Errorf("expected real.py, got %q", entries[0].Path)
	}
}

func TestDiscoverTypstFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.typ", "#import \"lib.typ\": *")
	writeFile(t, dir, "lib.typ", "#let x = 1")
	writeFile(t, dir, "LOUD.TYP", "= Title")
	writeFile(t, dir, "data.csv", "a,b")

	entries, err := Files(dir, []string{"typst"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 typst entries, got %+v", entries)
	}
	for _, e := range entries {
		if e.Language != "typst" {
			t.Errorf("entry %q: language = %q, want typst", e.Path, e.Language)
		}
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "out/\n*.draft.typ\n")
	writeFile(t, dir, "main.typ", "")
	writeFile(t, dir, "notes.draft.typ", "")
	writeFile(t, dir, "out/gen.typ", "")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "main.typ" {
		t.Errorf("expected only main.typ, got %+v", entries)
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.typ", "")
	writeFile(t, dir, "figures/plot.PNG", "")
	writeFile(t, dir, "figures/logo.svg", "")
	writeFile(t, dir, "refs.bib", "")
	writeFile(t, dir, "data/config.yaml", "")
	writeFile(t, dir, "README", "")

	tests := []struct {
		name string
		pref ty.PathPreference
		want []string
	}{
		{"source", ty.Path(ty.PathSource), []string{"main.typ"}},
		{"image", ty.Path(ty.PathImage), []string{"figures/logo.svg", "figures/plot.PNG"}},
		{"bibliography", ty.Path(ty.PathBibliography), []string{"data/config.yaml", "refs.bib"}},
		{"none accepts any extension", ty.Path(ty.PathNone), []string{
			"data/config.yaml", "figures/logo.svg", "figures/plot.PNG", "main.typ", "refs.bib",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entries, err := Paths(dir, tt.pref)
			if err != nil {
				t.Fatalf("Paths: %v", err)
			}
			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.Path
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Paths = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathsClassifiesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "data/config.yaml", "")

	entries, err := Paths(dir, ty.Path(ty.PathBibliography))
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", entries)
	}
	// yaml is classified by its most specific preference.
	if entries[0].Kind.Kind != ty.PathYAML {
		t.Errorf("kind = %v, want Yaml", entries[0].Kind)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
