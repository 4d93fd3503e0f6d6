package intern

import (
	"sync"
	"testing"
)

type pair struct {
	Ident
	a string
	b int64
}

func (p *pair) AppendKey(b []byte) []byte {
	b = AppendString(b, p.a)
	return AppendInt(b, p.b)
}

func TestInternDeduplicates(t *testing.T) {
	t.Parallel()

	tab := NewTable[pair]("pair")
	x := tab.Intern(pair{a: "x", b: 1})
	y := tab.Intern(pair{a: "x", b: 1})
	z := tab.Intern(pair{a: "x", b: 2})

	if x != y {
		t.Error("equal values should share a handle")
	}
	if x == z {
		t.Error("different values should not share a handle")
	}
	if x.ID() == 0 || x.ID() == z.ID() {
		t.Errorf("ids: x=%d z=%d", x.ID(), z.ID())
	}
	if got := tab.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestInternKeyPrefixing(t *testing.T) {
	t.Parallel()

	tab := NewTable[pair]("pair")
	// Without length prefixes "ab"+"" and "a"+"b" would collide.
	x := tab.Intern(pair{a: "ab"})
	y := tab.Intern(pair{a: "a", b: 'b'})
	if x == y {
		t.Error("distinct keys collapsed")
	}
}

func TestInternConcurrent(t *testing.T) {
	t.Parallel()

	tab := NewTable[pair]("pair")
	const n = 32
	got := make([]*pair, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = tab.Intern(pair{a: "shared", b: 7})
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d got a different handle", i)
		}
	}
}
