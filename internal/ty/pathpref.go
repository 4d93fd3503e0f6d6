package ty

import (
	"regexp"
	"strings"
	"sync"
)

// PathKind is the kind of file a path argument is expected to name.
type PathKind uint8

const (
	PathSource PathKind = iota
	PathWasm
	PathCsv
	PathImage
	PathJSON
	PathYAML
	PathXML
	PathTOML
	PathCsl
	PathBibliography
	PathRawTheme
	PathRawSyntax
	PathSpecial
	PathNone
)

// PathPreference classifies a path argument. AllowPackage only applies to
// PathSource.
type PathPreference struct {
	Kind         PathKind
	AllowPackage bool
}

// Path returns a preference of kind k.
func Path(k PathKind) PathPreference { return PathPreference{Kind: k} }

var pathNames = [...]string{
	PathSource:       "Source",
	PathWasm:         "Wasm",
	PathCsv:          "Csv",
	PathImage:        "Image",
	PathJSON:         "Json",
	PathYAML:         "Yaml",
	PathXML:          "Xml",
	PathTOML:         "Toml",
	PathCsl:          "Csl",
	PathBibliography: "Bibliography",
	PathRawTheme:     "RawTheme",
	PathRawSyntax:    "RawSyntax",
	PathSpecial:      "Special",
	PathNone:         "None",
}

func (k PathKind) String() string {
	if int(k) < len(pathNames) {
		return pathNames[k]
	}
	return "Unknown"
}

func (p PathPreference) String() string {
	if p.Kind == PathSource {
		if p.AllowPackage {
			return "Source { allow_package: true }"
		}
		return "Source { allow_package: false }"
	}
	return p.Kind.String()
}

// Compare orders preferences by kind, then AllowPackage.
func (p PathPreference) Compare(o PathPreference) int {
	switch {
	case p.Kind < o.Kind:
		return -1
	case p.Kind > o.Kind:
		return 1
	case p.AllowPackage == o.AllowPackage:
		return 0
	case !p.AllowPackage:
		return -1
	default:
		return 1
	}
}

var extensions = map[PathKind][]string{
	PathSource:       {"typ", "typc"},
	PathWasm:         {"wasm"},
	PathImage:        {"ico", "bmp", "png", "webp", "jpg", "jpeg", "jfif", "tiff", "gif", "svg", "svgz"},
	PathJSON:         {"json", "jsonc", "json5"},
	PathYAML:         {"yaml", "yml"},
	PathXML:          {"xml"},
	PathTOML:         {"toml"},
	PathCsv:          {"csv"},
	PathBibliography: {"yaml", "yml", "bib"},
	PathCsl:          {"csl"},
	PathRawTheme:     {"tmTheme", "xml"},
	PathRawSyntax:    {"tmLanguage", "sublime-syntax"},
}

func extPattern(exts []string) *regexp.Regexp {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = regexp.QuoteMeta(e)
	}
	return regexp.MustCompile("(?i)^(?:" + strings.Join(quoted, "|") + ")$")
}

var matchers = sync.OnceValue(func() map[PathKind]*regexp.Regexp {
	m := make(map[PathKind]*regexp.Regexp, len(pathNames))
	var all []string
	for k := PathSource; k < PathSpecial; k++ {
		m[k] = extPattern(extensions[k])
		all = append(all, extensions[k]...)
	}
	m[PathSpecial] = extPattern(all)
	m[PathNone] = regexp.MustCompile(".*")
	return m
})

// ExtMatcher returns the compiled case-insensitive pattern that accepts the
// extensions of p. The pattern is built once per process.
func (p PathPreference) ExtMatcher() *regexp.Regexp {
	return matchers()[p.Kind]
}

// IsMatch reports whether the extension of path is accepted by p. Paths
// without an extension never match.
func (p PathPreference) IsMatch(path string) bool {
	ext, ok := extension(path)
	if !ok {
		return false
	}
	m := p.ExtMatcher()
	return m != nil && m.MatchString(ext)
}

// AllPathPreferences lists every preference in priority order: specific
// kinds first, then Special and None.
func AllPathPreferences() []PathPreference {
	out := make([]PathPreference, 0, len(pathNames))
	for k := PathSource; k <= PathNone; k++ {
		out = append(out, PathPreference{Kind: k})
	}
	return out
}

// PathFromExt classifies path by its extension, returning the first
// matching preference in priority order.
func PathFromExt(path string) (PathPreference, bool) {
	for _, p := range AllPathPreferences() {
		if p.IsMatch(path) {
			return p, true
		}
	}
	return PathPreference{}, false
}

// extension returns the text after the last dot of the final path element.
// Names without a dot, or whose only dot is the leading one, have none.
func extension(p string) (string, bool) {
	p = strings.TrimRight(strings.ReplaceAll(p, "\\", "/"), "/")
	name := p[strings.LastIndexByte(p, '/')+1:]
	if name == "" || name == ".." {
		return "", false
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", false
	}
	return name[i+1:], true
}
