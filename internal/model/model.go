// Package model defines the report records produced for an analyzed
// workspace.
package model

// SymbolKind indicates what a top-level definition binds.
type SymbolKind string

const (
	Function  SymbolKind = "function"
	Variable  SymbolKind = "variable"
	Module    SymbolKind = "module"
	Reference SymbolKind = "reference"
	Constant  SymbolKind = "constant"
)

// Symbol is one definition of a file.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Line      int        `json:"line"`
	Signature string     `json:"signature,omitempty"`
	Type      string     `json:"type,omitempty"`
	Docs      string     `json:"docs,omitempty"`
	Exported  bool       `json:"exported"`
	// Refs counts the resolved uses across the workspace.
	Refs int `json:"refs"`
}

// Use is one resolved name use whose definition lives in another file.
type Use struct {
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Target string `json:"target"`
}

// FileInfo holds metadata and extracted symbols for a single source file.
type FileInfo struct {
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Revision int      `json:"revision"`
	Docs     string   `json:"docs,omitempty"`
	Symbols  []Symbol `json:"symbols"`
	Uses     []Use    `json:"uses,omitempty"`
	Imports  []string `json:"imports,omitempty"`
	Rank     float64  `json:"rank"`
}

// Dependency represents an edge in the dependency graph:
// Source uses symbols defined in Target.
type Dependency struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Symbols []string `json:"symbols"`
}

// Location is a reference reported by a symbol query.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Workspace is the complete analyzed workspace, ready for serialization.
type Workspace struct {
	Name         string       `json:"name"`
	Root         string       `json:"root"`
	Files        []FileInfo   `json:"files"`
	Dependencies []Dependency `json:"dependencies"`
	References   []Location   `json:"references,omitempty"`
}
