package timeline

import "testing"

func TestBoolDualMerge(t *testing.T) {
	cases := []struct {
		current, history, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, c := range cases {
		d := NewBool()
		d.Current, d.History = c.current, c.history
		d.Merge()
		if d.Current != c.want {
			t.Fatalf("merge(%v, %v): expected %v, got %v", c.current, c.history, c.want, d.Current)
		}
		if d.History {
			t.Fatalf("expected history to reset to false after merge")
		}
	}
}

func TestIntDualPrefersCurrent(t *testing.T) {
	d := NewInt()
	d.History = 7
	if d.Value() != 7 {
		t.Fatalf("expected history when current is unset, got %d", d.Value())
	}
	d.Current = 12
	if d.Value() != 12 {
		t.Fatalf("expected current when set, got %d", d.Value())
	}
	d.Merge()
	if d.Current != 12 || d.History != Unset {
		t.Fatalf("expected (12, unset) after merge, got (%d, %d)", d.Current, d.History)
	}

	d.Current = Unset
	d.History = 4
	d.Merge()
	if d.Current != 4 {
		t.Fatalf("expected history to fill an unset current, got %d", d.Current)
	}
}

func TestDualClear(t *testing.T) {
	d := NewInt()
	d.Current, d.History = 3, 5
	d.ClearCurrent()
	if d.Current != Unset || d.History != 5 {
		t.Fatalf("expected only current cleared, got (%d, %d)", d.Current, d.History)
	}
	d.Clear()
	if d.IsSet(d.Current) || d.IsSet(d.History) {
		t.Fatalf("expected both phases cleared")
	}
}
