package analysis

import (
	"regexp"
	"strings"

	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/ty"
)

var (
	paramDocRe  = regexp.MustCompile(`^-\s+([\w-]+)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)
	returnDocRe = regexp.MustCompile(`^->\s*(.+)$`)
)

// parseDocString splits a doc comment into prose, parameter entries of the
// form "- name (type): text" and a "-> type" result line.
func parseDocString(text string) *expr.DocString {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	ds := &expr.DocString{}
	var prose []string
	var last string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := paramDocRe.FindStringSubmatch(trimmed); m != nil {
			if ds.Vars == nil {
				ds.Vars = make(map[string]expr.VarDoc)
			}
			ds.Vars[m[1]] = expr.VarDoc{Docs: m[3], Ty: parseDocType(m[2])}
			last = m[1]
			continue
		}
		if m := returnDocRe.FindStringSubmatch(trimmed); m != nil {
			ds.Res = parseDocType(m[1])
			last = ""
			continue
		}
		// Indented lines continue the previous parameter.
		if last != "" && trimmed != "" && line != trimmed {
			v := ds.Vars[last]
			v.Docs += " " + trimmed
			ds.Vars[last] = v
			continue
		}
		last = ""
		prose = append(prose, line)
	}
	ds.Docs = strings.TrimSpace(strings.Join(prose, "\n"))
	return ds
}

// parseDocType reads a type annotation such as "int | none" against the
// standard library.
func parseDocType(s string) ty.Ty {
	var alts []ty.Ty
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name = strings.TrimSpace(name)
		switch name {
		case "none":
			alts = append(alts, ty.Lit(ty.KindNone))
			continue
		case "auto":
			alts = append(alts, ty.Lit(ty.KindAuto))
			continue
		case "any":
			alts = append(alts, ty.Any{})
			continue
		}
		v, ok := host.Std().Global().Scope().Get(name)
		if !ok {
			continue
		}
		if tv, ok := v.(host.TypeValue); ok {
			alts = append(alts, ty.FromBuiltin(tv.T))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return ty.NewUnion(alts...)
}
