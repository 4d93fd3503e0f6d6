// Package ranking narrows a workspace report to the files worth showing.
package ranking

import (
	"slices"
	"strings"

	"github.com/phobologic/typguide/internal/model"
)

// SelectFiles returns a new Workspace with only the top-ranked files.
// If maxFiles is <= 0 or >= len(files), ws is returned unchanged.
func SelectFiles(ws *model.Workspace, maxFiles int) *model.Workspace {
	if maxFiles <= 0 || maxFiles >= len(ws.Files) {
		return ws
	}

	selected := ws.Files[:maxFiles]
	selectedPaths := make(map[string]struct{}, maxFiles)
	for i := range selected {
		selectedPaths[selected[i].Path] = struct{}{}
	}

	var deps []model.Dependency
	for i := range ws.Dependencies {
		d := &ws.Dependencies[i]
		_, srcOK := selectedPaths[d.Source]
		_, tgtOK := selectedPaths[d.Target]
		if srcOK && tgtOK {
			deps = append(deps, *d)
		}
	}

	return &model.Workspace{
		Name:         ws.Name,
		Root:         ws.Root,
		Files:        selected,
		Dependencies: deps,
		References:   filterRefs(ws.References, selectedPaths),
	}
}

// FilterBySymbol returns a new Workspace containing only symbols whose name
// contains substr (case-insensitive), the files that define them and the
// files that use them through a dependency edge.
//
// Files kept only because they use a matched symbol list no symbols of their
// own.
func FilterBySymbol(ws *model.Workspace, substr string) *model.Workspace {
	lower := strings.ToLower(substr)

	matchedSymbols := make(map[string]struct{})
	matchedFiles := make(map[string]struct{})
	for i := range ws.Files {
		for _, sym := range ws.Files[i].Symbols {
			if strings.Contains(strings.ToLower(sym.Name), lower) {
				matchedSymbols[sym.Name] = struct{}{}
				matchedFiles[ws.Files[i].Path] = struct{}{}
			}
		}
	}

	// Users of a matched symbol come along for context.
	var deps []model.Dependency
	relatedFiles := make(map[string]struct{})
	for i := range ws.Dependencies {
		d := &ws.Dependencies[i]
		if _, ok := matchedFiles[d.Target]; !ok {
			continue
		}
		uses := slices.ContainsFunc(d.Symbols, func(s string) bool {
			_, ok := matchedSymbols[s]
			return ok
		})
		if uses {
			relatedFiles[d.Source] = struct{}{}
			deps = append(deps, *d)
		}
	}

	var files []model.FileInfo
	keep := make(map[string]struct{}, len(matchedFiles)+len(relatedFiles))
	for i := range ws.Files {
		fi := ws.Files[i]
		_, matched := matchedFiles[fi.Path]
		_, related := relatedFiles[fi.Path]
		if !matched && !related {
			continue
		}
		keep[fi.Path] = struct{}{}
		var symbols []model.Symbol
		for _, sym := range fi.Symbols {
			if _, ok := matchedSymbols[sym.Name]; ok {
				symbols = append(symbols, sym)
			}
		}
		fi.Symbols = symbols
		files = append(files, fi)
	}

	var refs []model.Location
	for _, ref := range filterRefs(ws.References, keep) {
		if _, ok := matchedSymbols[ref.Name]; ok {
			refs = append(refs, ref)
		}
	}

	return &model.Workspace{
		Name:         ws.Name,
		Root:         ws.Root,
		Files:        files,
		Dependencies: deps,
		References:   refs,
	}
}

// FilterByFile returns a new Workspace containing only files whose path
// contains substr (case-insensitive), with all dependency edges touching
// those files.
func FilterByFile(ws *model.Workspace, substr string) *model.Workspace {
	lower := strings.ToLower(substr)

	matchedFiles := make(map[string]struct{})
	var files []model.FileInfo
	for i := range ws.Files {
		if strings.Contains(strings.ToLower(ws.Files[i].Path), lower) {
			matchedFiles[ws.Files[i].Path] = struct{}{}
			files = append(files, ws.Files[i])
		}
	}

	var deps []model.Dependency
	for i := range ws.Dependencies {
		d := &ws.Dependencies[i]
		_, srcOK := matchedFiles[d.Source]
		_, tgtOK := matchedFiles[d.Target]
		if srcOK || tgtOK {
			deps = append(deps, *d)
		}
	}

	return &model.Workspace{
		Name:         ws.Name,
		Root:         ws.Root,
		Files:        files,
		Dependencies: deps,
		References:   filterRefs(ws.References, matchedFiles),
	}
}

func filterRefs(refs []model.Location, files map[string]struct{}) []model.Location {
	var out []model.Location
	for _, ref := range refs {
		if _, ok := files[ref.File]; ok {
			out = append(out, ref)
		}
	}
	return out
}
