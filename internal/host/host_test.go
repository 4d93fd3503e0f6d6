package host

import "testing"

func TestStdLookup(t *testing.T) {
	t.Parallel()

	lib := Std()
	if lib != Std() {
		t.Fatal("Std should be built once")
	}

	tests := []struct {
		name string
		kind FuncKind
	}{
		{"csv", FuncNative},
		{"image", FuncElement},
		{"table.cell", FuncElement},
		{"polygon.regular", FuncElement},
		{"calc.pow", FuncNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, ok := lib.Func(tt.name)
			if !ok {
				t.Fatalf("%s not found", tt.name)
			}
			if f.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", f.Kind(), tt.kind)
			}
		})
	}

	if _, ok := lib.Func("nope"); ok {
		t.Error("unknown name should not resolve")
	}
	if _, ok := lib.Func("csv.nope"); ok {
		t.Error("csv has no scope")
	}
}

func TestWithDelegates(t *testing.T) {
	t.Parallel()

	f, _ := Std().Func("rect")
	w := f.With()

	if w.Kind() != FuncWith {
		t.Fatalf("kind = %v", w.Kind())
	}
	if w.Name() != "rect" {
		t.Errorf("name = %q", w.Name())
	}
	if _, ok := w.Param("fill"); !ok {
		t.Error("wrapped params should be visible")
	}
	inner, ok := w.Wrapped()
	if !ok || inner != f {
		t.Error("Wrapped should return the original function")
	}
}

func TestScopeOrder(t *testing.T) {
	t.Parallel()

	s := NewScope()
	s.Define("b", Int(1))
	s.Define("a", Int(2))
	s.Define("b", Int(3))

	var names []string
	for name := range s.All() {
		names = append(names, name)
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("names = %v", names)
	}
	if v, _ := s.Get("b"); v != Int(3) {
		t.Errorf("b = %v", v)
	}
}

func TestCastInfoString(t *testing.T) {
	t.Parallel()

	c := OneOf(Of(TypeStr), OneOf(Is(NoneValue{}, ""), Of(TypeInt)))
	if got := c.String(); got != "str | none | int" {
		t.Errorf("String = %q", got)
	}
}
