// Package source defines file identities, spans and source texts.
package source

import (
	"cmp"
	"fmt"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
)

// PackageSpec identifies a published package, rendered as @namespace/name:version.
type PackageSpec struct {
	Namespace string
	Name      string
	Version   string
}

func (p PackageSpec) String() string {
	if p.Version == "" {
		return fmt.Sprintf("@%s/%s", p.Namespace, p.Name)
	}
	return fmt.Sprintf("@%s/%s:%s", p.Namespace, p.Name, p.Version)
}

// ParsePackageSpec parses "@namespace/name:version". The version is optional.
func ParsePackageSpec(s string) (PackageSpec, error) {
	rest, ok := strings.CutPrefix(s, "@")
	if !ok {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing @", s)
	}
	ns, rest, ok := strings.Cut(rest, "/")
	if !ok || ns == "" {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing namespace", s)
	}
	name, version, _ := strings.Cut(rest, ":")
	if name == "" {
		return PackageSpec{}, fmt.Errorf("package spec %q: missing name", s)
	}
	return PackageSpec{Namespace: ns, Name: name, Version: version}, nil
}

var nextUID atomic.Uint64

type fileEntry struct {
	uid    uint64
	seq    uint16
	pkg    PackageSpec
	hasPkg bool
	vpath  string
}

// FileID is an interned (package, virtual path) pair. The zero value means
// "no file". FileIDs are comparable and cheap to copy.
type FileID struct {
	e *fileEntry
}

// IsZero reports whether f identifies no file.
func (f FileID) IsZero() bool { return f.e == nil }

// Package returns the owning package, if any.
func (f FileID) Package() (PackageSpec, bool) {
	if f.e == nil || !f.e.hasPkg {
		return PackageSpec{}, false
	}
	return f.e.pkg, true
}

// VPath returns the rooted virtual path of the file inside its project or package.
func (f FileID) VPath() string {
	if f.e == nil {
		return ""
	}
	return f.e.vpath
}

// Seq returns the registration sequence number. It depends on the order
// in which files were registered.
func (f FileID) Seq() uint16 {
	if f.e == nil {
		return 0
	}
	return f.e.seq
}

// UID returns an identifier unique across all registries of the process.
func (f FileID) UID() uint64 {
	if f.e == nil {
		return 0
	}
	return f.e.uid
}

func (f FileID) String() string {
	if f.e == nil {
		return "<detached>"
	}
	if f.e.hasPkg {
		return f.e.pkg.String() + f.e.vpath
	}
	return f.e.vpath
}

// StrictCompare orders files by package then virtual path. Unlike Seq it
// does not depend on registration order. No file sorts first, then files
// without a package.
func (f FileID) StrictCompare(o FileID) int {
	switch {
	case f.e == nil && o.e == nil:
		return 0
	case f.e == nil:
		return -1
	case o.e == nil:
		return 1
	}
	if c := comparePackage(f.e, o.e); c != 0 {
		return c
	}
	return cmp.Compare(f.e.vpath, o.e.vpath)
}

func comparePackage(a, b *fileEntry) int {
	switch {
	case !a.hasPkg && !b.hasPkg:
		return 0
	case !a.hasPkg:
		return -1
	case !b.hasPkg:
		return 1
	}
	return cmp.Compare(a.pkg.String(), b.pkg.String())
}

type registryKey struct {
	pkg    PackageSpec
	hasPkg bool
	vpath  string
}

// Registry interns file identities. It is append-only and safe for
// concurrent use.
type Registry struct {
	mu    sync.Mutex
	files map[registryKey]*fileEntry
	order []*fileEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{files: make(map[registryKey]*fileEntry)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// File interns a project file by virtual path.
func (r *Registry) File(vpath string) FileID {
	return r.intern(registryKey{vpath: cleanVPath(vpath)})
}

// PackageFile interns a file that belongs to pkg.
func (r *Registry) PackageFile(pkg PackageSpec, vpath string) FileID {
	return r.intern(registryKey{pkg: pkg, hasPkg: true, vpath: cleanVPath(vpath)})
}

// Files returns every registered file in registration order.
func (r *Registry) Files() []FileID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FileID, len(r.order))
	for i, e := range r.order {
		out[i] = FileID{e: e}
	}
	return out
}

func (r *Registry) intern(k registryKey) FileID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.files[k]; ok {
		return FileID{e: e}
	}
	seq, err := safecast.Conv[uint16](len(r.order) + 1)
	if err != nil {
		panic(fmt.Sprintf("source: file registry exhausted: %v", err))
	}
	e := &fileEntry{uid: nextUID.Add(1), seq: seq, pkg: k.pkg, hasPkg: k.hasPkg, vpath: k.vpath}
	r.files[k] = e
	r.order = append(r.order, e)
	return FileID{e: e}
}

func cleanVPath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return p
}
