// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of workspace reports.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/typguide/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Workspace into TOON format.
func Encode(ws *model.Workspace) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("workspace: %s", encodeValue(ws.Name)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(ws.Root)))

	var fileRows [][]any
	for i := range ws.Files {
		fi := &ws.Files[i]
		fileRows = append(fileRows, []any{
			fi.Path,
			fi.Language,
			fi.Revision,
			fmt.Sprintf("%.4f", fi.Rank),
		})
	}
	parts = append(parts, Table("files", []string{"path", "language", "revision", "rank"}, fileRows))

	var symbolRows [][]any
	for i := range ws.Files {
		fi := &ws.Files[i]
		for j := range fi.Symbols {
			sym := &fi.Symbols[j]
			symbolRows = append(symbolRows, []any{
				fi.Path,
				sym.Name,
				string(sym.Kind),
				sym.Line,
				sym.Signature,
				sym.Type,
				sym.Exported,
				sym.Refs,
			})
		}
	}
	parts = append(parts, Table("symbols",
		[]string{"file", "name", "kind", "line", "signature", "type", "exported", "refs"}, symbolRows))

	var depRows [][]any
	for i := range ws.Dependencies {
		d := &ws.Dependencies[i]
		depRows = append(depRows, []any{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, Table("dependencies", []string{"source", "target", "symbols"}, depRows))

	if len(ws.References) > 0 {
		parts = append(parts, Locations("references", ws.References))
	}

	return strings.Join(parts, "\n")
}

// Locations formats refs as a table named name.
func Locations(name string, refs []model.Location) string {
	rows := make([][]any, 0, len(refs))
	for i := range refs {
		r := &refs[i]
		rows = append(rows, []any{
			r.File,
			r.Line,
			r.Col,
			r.Name,
			r.Kind,
		})
	}
	return Table(name, []string{"file", "line", "col", "name", "kind"}, rows)
}

// Table formats rows as a tabular TOON array. Every row must have one
// cell per column. Strings are quoted as needed; bools and integers are
// written as literals.
func Table(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeCell(cell any) string {
	switch v := cell.(type) {
	case string:
		return encodeValue(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	}
	return encodeValue(fmt.Sprint(cell))
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
