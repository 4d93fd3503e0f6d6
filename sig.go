package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/toon"
	"github.com/phobologic/typguide/internal/ty"
)

// runSig implements `typguide sig`, which prints the parameter and return
// types the analyzer assumes for builtin functions.
func runSig(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("typguide sig", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: typguide sig name...

Print the refined signature of builtin functions. Dotted names such as
table.cell look inside function scopes.
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no function named")
	}

	var parts []string
	for _, name := range fs.Args() {
		f, ok := host.Std().Func(name)
		if !ok {
			return fmt.Errorf("unknown builtin function %q", name)
		}
		parts = append(parts, signature(name, f))
	}
	_, _ = fmt.Fprintln(stdout, strings.Join(parts, "\n\n"))
	return nil
}

func signature(name string, f *host.Func) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function: %s\n", name)
	fmt.Fprintf(&b, "kind: %s\n", f.Kind())
	fmt.Fprintf(&b, "returns: %s\n", ty.Describe(ty.FromReturnSite(f, f.Returns())))

	var rows [][]any
	for _, p := range f.Params() {
		def := ""
		if p.Default != nil {
			def = p.Default.Repr()
		}
		rows = append(rows, []any{
			p.Name,
			ty.Describe(ty.FromParamSite(f, p)),
			p.Positional,
			p.Named,
			p.Variadic,
			p.Required,
			p.Settable,
			def,
		})
	}
	b.WriteString(toon.Table("params",
		[]string{"name", "type", "positional", "named", "variadic", "required", "settable", "default"}, rows))
	return b.String()
}
