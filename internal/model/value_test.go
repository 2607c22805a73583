package model

import "testing"

func TestCoerce(t *testing.T) {
	t.Run("string from yaml scalars", func(t *testing.T) {
		cases := []struct {
			raw  any
			want string
		}{
			{"hello", "hello"},
			{42, "42"},
			{3.5, "3.5"},
			{true, "true"},
			{nil, ""},
		}
		for _, c := range cases {
			v, err := Coerce(c.raw, KindString)
			if err != nil {
				t.Fatalf("Coerce(%v) failed: %v", c.raw, err)
			}
			if got := v.Render(); got != c.want {
				t.Errorf("Coerce(%v) = %q, want %q", c.raw, got, c.want)
			}
		}
	})

	t.Run("integer", func(t *testing.T) {
		v, err := Coerce("42", KindInteger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n, _ := v.AsInteger(); n != 42 {
			t.Errorf("expected 42, got %d", n)
		}

		// Whole floats from YAML decode fine.
		v, err = Coerce(7.0, KindInteger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n, _ := v.AsInteger(); n != 7 {
			t.Errorf("expected 7, got %d", n)
		}

		if _, err := Coerce("4.5", KindInteger); err == nil {
			t.Error("expected error for fractional string")
		}
		if _, err := Coerce("abc", KindInteger); err == nil {
			t.Error("expected error for non-numeric string")
		}
	})

	t.Run("float", func(t *testing.T) {
		v, err := Coerce("0.9", KindFloat)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f, _ := v.AsFloat(); f != 0.9 {
			t.Errorf("expected 0.9, got %v", f)
		}

		v, err = Coerce(3, KindFloat)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f, _ := v.AsFloat(); f != 3.0 {
			t.Errorf("expected 3.0, got %v", f)
		}

		if _, err := Coerce("abc", KindFloat); err == nil {
			t.Error("expected error for non-numeric string")
		}
	})
}

func TestCompare(t *testing.T) {
	if Compare(Integer(2), Integer(10)) >= 0 {
		t.Error("expected 2 < 10 numerically")
	}
	if Compare(Integer(2), Float(2.5)) >= 0 {
		t.Error("expected 2 < 2.5 across numeric kinds")
	}
	if Compare(String("2"), String("10")) <= 0 {
		t.Error("expected \"2\" > \"10\" lexicographically")
	}
	if Compare(String("a"), String("a")) != 0 {
		t.Error("expected equal strings to compare equal")
	}
}

func TestRender(t *testing.T) {
	if got := Float(0.5).Render(); got != "0.5" {
		t.Errorf("expected 0.5, got %q", got)
	}
	if got := Integer(-3).Render(); got != "-3" {
		t.Errorf("expected -3, got %q", got)
	}
	if !String("  ").IsEmpty() {
		t.Error("whitespace string should be empty")
	}
	if Integer(0).IsEmpty() {
		t.Error("integer zero is a value, not empty")
	}
}

func TestSplitHintKey(t *testing.T) {
	cases := []struct {
		key    string
		name   string
		kind   Kind
		hinted bool
	}{
		{"confidence__float", "confidence", KindFloat, true},
		{"attempts__integer", "attempts", KindInteger, true},
		{"vendor__string", "vendor", KindString, true},
		{"plain", "plain", KindString, false},
		{"weird__suffix", "weird__suffix", KindString, false},
		{"__float", "__float", KindString, false},
		{"nested__name__integer", "nested__name", KindInteger, true},
	}
	for _, c := range cases {
		name, kind, hinted := SplitHintKey(c.key)
		if name != c.name || kind != c.kind || hinted != c.hinted {
			t.Errorf("SplitHintKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.key, name, kind, hinted, c.name, c.kind, c.hinted)
		}
	}
}

func TestHintKeyRoundTrip(t *testing.T) {
	key := HintKey("confidence", KindFloat)
	name, kind, hinted := SplitHintKey(key)
	if !hinted || name != "confidence" || kind != KindFloat {
		t.Fatalf("round trip failed: %q -> (%q, %q, %v)", key, name, kind, hinted)
	}
}
