// Package lang provides a language registry mapping file extensions to the
// front ends that turn them into syntax trees.
package lang

import (
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language holds the configuration of a supported language. Languages with
// a tree-sitter grammar are converted by the parse package; the others are
// read by the built-in markup parser.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// Docstring returns the documentation attached to a definition node,
	// or "" if it has none.
	Docstring func(def *sitter.Node, source []byte) string
}

// GetLanguage returns the tree-sitter Language pointer, or nil for
// languages without a grammar.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// HasGrammar reports whether l is parsed with tree-sitter.
func (l *Language) HasGrammar() bool {
	return l.lang != nil
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
