// typguide analyzes a typst workspace and prints a ranked map of its
// definitions, exports and cross-file references in TOON format.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/typguide/internal/discover"
	"github.com/phobologic/typguide/internal/graph"
	"github.com/phobologic/typguide/internal/lang"
	"github.com/phobologic/typguide/internal/model"
	"github.com/phobologic/typguide/internal/ranking"
	"github.com/phobologic/typguide/internal/report"
	"github.com/phobologic/typguide/internal/toon"
)

var version = "dev"

const defaultMaxFileSize = 1_000_000 // 1 MB

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "map":
			return runMap(args[1:], stdout, stderr)
		case "paths":
			return runPaths(args[1:], stdout, stderr)
		case "sig":
			return runSig(args[1:], stdout, stderr)
		case "query":
			return runQuery(args[1:], stdout, stderr)
		}
	}
	return runMap(args, stdout, stderr)
}

func runMap(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("typguide", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		maxFiles    int
		langs       string
		cachePath   string
		maxFileSize int
		format      string
		symbol      string
		file        string
		verbose     bool
		showVersion bool
	)

	fs.IntVar(&maxFiles, "n", 0, "maximum number of files to include")
	fs.IntVar(&maxFiles, "max-files", 0, "maximum number of files to include")
	fs.StringVar(&langs, "l", "", "comma-separated languages to include")
	fs.StringVar(&langs, "langs", "", "comma-separated languages to include")
	fs.StringVar(&cachePath, "cache", "", "cache file path")
	fs.IntVar(&maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.StringVar(&format, "format", "toon", "output format: toon or json")
	fs.StringVar(&symbol, "s", "", "only show symbols whose name contains this substring")
	fs.StringVar(&symbol, "symbol", "", "only show symbols whose name contains this substring")
	fs.StringVar(&file, "f", "", "only show files whose path contains this substring")
	fs.StringVar(&file, "file", "", "only show files whose path contains this substring")
	fs.BoolVar(&verbose, "v", false, "log analysis progress to stderr")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "typguide %s\n", version)
		return nil
	}

	if format != "toon" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	root, err := workspaceRoot(fs)
	if err != nil {
		return err
	}

	langFilter, err := parseLangs(langs)
	if err != nil {
		return err
	}

	// Discover files
	files, err := discover.Files(root, langFilter)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	// Filtered output is never cached.
	cacheable := cachePath != "" && format == "toon" && symbol == "" && file == ""
	if cacheable && cacheIsFresh(cachePath, root, files) {
		data, err := os.ReadFile(cachePath)
		if err == nil {
			_, _ = stdout.Write(data)
			return nil
		}
	}

	// Filter by size
	files = filterBySize(root, files, maxFileSize, stderr)
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found (all exceeded size limit)")
	}

	ctx := context.Background()
	w, err := openWorkspace(ctx, root, files, newLogger(stderr, verbose), stderr)
	if err != nil {
		return err
	}
	if len(w.entries) == 0 {
		return fmt.Errorf("no files could be parsed")
	}

	infos, err := w.a.AnalyzeAll(ctx)
	if err != nil {
		return fmt.Errorf("analyzing workspace: %w", err)
	}
	inputs := make([]report.Input, 0, len(w.entries))
	for _, e := range w.entries {
		inputs = append(inputs, report.Input{Info: infos[e.fid], Language: e.Language})
	}
	fileInfos := report.Files(inputs)

	// Build graph and rank
	deps := graph.BuildGraph(fileInfos)
	graph.Rank(fileInfos, deps)

	ws := &model.Workspace{
		Name:         filepath.Base(root),
		Root:         filepath.Base(root),
		Files:        fileInfos,
		Dependencies: deps,
	}

	if file != "" {
		ws = ranking.FilterByFile(ws, file)
	}
	if symbol != "" {
		refs, err := w.references(ctx, symbol)
		if err != nil {
			return err
		}
		ws.References = refs
		ws = ranking.FilterBySymbol(ws, symbol)
	}

	// Select top N files
	if maxFiles > 0 {
		ws = ranking.SelectFiles(ws, maxFiles)
	}

	if format == "json" {
		return report.JSON(stdout, ws)
	}

	output := toon.Encode(ws)

	// Write cache
	if cacheable {
		_ = os.WriteFile(cachePath, []byte(output+"\n"), 0o644)
	}

	_, _ = fmt.Fprintln(stdout, output)
	return nil
}

// workspaceRoot returns the absolute directory named by the first
// positional argument, defaulting to the working directory.
func workspaceRoot(fs *flag.FlagSet) (string, error) {
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

func parseLangs(langs string) ([]string, error) {
	if langs == "" {
		return nil, nil
	}
	var out []string
	for _, name := range strings.Split(langs, ",") {
		name = strings.TrimSpace(name)
		if _, ok := lang.Languages[name]; !ok {
			return nil, fmt.Errorf("unsupported language %q (have %s)", name, strings.Join(lang.Names(), ", "))
		}
		out = append(out, name)
	}
	return out, nil
}

func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-n": true, "--n": true,
	"-max-files": true, "--max-files": true,
	"-l": true, "--l": true,
	"-langs": true, "--langs": true,
	"-cache": true, "--cache": true,
	"-max-file-size": true, "--max-file-size": true,
	"-format": true, "--format": true,
	"-s": true, "--s": true,
	"-symbol": true, "--symbol": true,
	"-f": true, "--f": true,
	"-file": true, "--file": true,
	"-k": true, "--k": true,
	"-kind": true, "--kind": true,
	"-history": true, "--history": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
