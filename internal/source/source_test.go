package source

import "testing"

func TestParsePackageSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    PackageSpec
		wantErr bool
	}{
		{"@preview/cetz:0.3.1", PackageSpec{"preview", "cetz", "0.3.1"}, false},
		{"@local/mylib", PackageSpec{"local", "mylib", ""}, false},
		{"preview/cetz", PackageSpec{}, true},
		{"@preview/", PackageSpec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePackageSpec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRegistryInternsOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	a := r.File("main.typ")
	b := r.File("/main.typ")
	c := r.File("lib.typ")

	if a != b {
		t.Error("same vpath should intern to the same id")
	}
	if a == c {
		t.Error("different vpaths should differ")
	}
	if a.VPath() != "/main.typ" {
		t.Errorf("vpath = %q", a.VPath())
	}
	if a.Seq() != 1 || c.Seq() != 2 {
		t.Errorf("seq: a=%d c=%d", a.Seq(), c.Seq())
	}
	if got := len(r.Files()); got != 2 {
		t.Errorf("Files() = %d entries, want 2", got)
	}
}

func TestSpanOrders(t *testing.T) {
	t.Parallel()

	// Register in opposite orders: raw order flips, strict order does not.
	r1 := NewRegistry()
	a1, b1 := r1.File("a.typ"), r1.File("b.typ")
	r2 := NewRegistry()
	b2 := r2.File("b.typ")
	a2 := r2.File("a.typ")

	s1a, s1b := NewSpan(a1, 5), NewSpan(b1, 3)
	s2a, s2b := NewSpan(a2, 5), NewSpan(b2, 3)

	if s1a.Compare(s1b) >= 0 {
		t.Error("run 1: a should sort before b in raw order")
	}
	if s2a.Compare(s2b) <= 0 {
		t.Error("run 2: a should sort after b in raw order")
	}
	if s1a.StrictCompare(s1b) >= 0 || s2a.StrictCompare(s2b) >= 0 {
		t.Error("strict order should put a.typ first in both runs")
	}
}

func TestDetachedSpan(t *testing.T) {
	t.Parallel()

	d := Detached()
	if !d.IsDetached() || d.Raw() != 1 {
		t.Errorf("detached: %v raw=%d", d, d.Raw())
	}
	if !NewSpan(FileID{}, 4).IsDetached() {
		t.Error("span without file should be detached")
	}
	f := NewRegistry().File("x.typ")
	if !NewSpan(f, 1).IsDetached() {
		t.Error("node numbers below 2 are reserved")
	}
}

func TestSourcePositions(t *testing.T) {
	t.Parallel()

	f := NewRegistry().File("doc.typ")
	src := New(f, "#let x = 1\n#x\n", map[uint64]Range{2: {Start: 5, End: 6}, 3: {Start: 12, End: 13}})

	if got := src.Slice(NewSpan(f, 2)); got != "x" {
		t.Errorf("Slice = %q", got)
	}
	if got := src.Line(NewSpan(f, 3)); got != 2 {
		t.Errorf("Line = %d, want 2", got)
	}
	if _, ok := src.Range(NewSpan(NewRegistry().File("doc.typ"), 2)); ok {
		t.Error("span of a foreign file should not resolve")
	}
	if src.Hash() != New(f, "#let x = 1\n#x\n", nil).Hash() {
		t.Error("hash should depend on text only")
	}
}
