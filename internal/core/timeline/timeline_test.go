package timeline

import "testing"

func TestGetReturnsMostRecentAtOrBefore(t *testing.T) {
	tl := New(-1)
	tl.Set(5, 10, false, false)
	tl.Set(9, 20, false, false)

	cases := []struct {
		step int
		want int
	}{
		{0, -1},
		{4, -1},
		{5, 10},
		{8, 10},
		{9, 20},
		{100, 20},
	}
	for _, c := range cases {
		if got := tl.Get(c.step); got != c.want {
			t.Fatalf("Get(%d): expected %d, got %d", c.step, c.want, got)
		}
	}
}

func TestMonotonicLookupWithoutInterveningStore(t *testing.T) {
	tl := New(0)
	tl.Set(3, 7, false, false)
	tl.Set(20, 9, false, false)
	for t1 := 3; t1 < 20; t1++ {
		for t2 := t1 + 1; t2 < 20; t2++ {
			if tl.Get(t1) != tl.Get(t2) {
				t.Fatalf("expected Get(%d) == Get(%d), got %d and %d", t1, t2, tl.Get(t1), tl.Get(t2))
			}
		}
	}
}

func TestSetIsIdempotentWithoutForce(t *testing.T) {
	tl := New(0)
	tl.Set(4, 3, false, false)
	tl.Set(4, 3, false, false)
	if tl.Len() != 1 {
		t.Fatalf("expected 1 delta, got %d", tl.Len())
	}
	// same value implied by an earlier delta is not stored
	if tl.Set(6, 3, false, false) {
		t.Fatalf("expected no write for an implied value")
	}
	if tl.Len() != 1 {
		t.Fatalf("expected 1 delta after implied set, got %d", tl.Len())
	}
	if !tl.Set(6, 3, true, false) {
		t.Fatalf("expected forced write")
	}
	if tl.Len() != 2 {
		t.Fatalf("expected 2 deltas after forced set, got %d", tl.Len())
	}
}

func TestSetDefaultValueIsSkipped(t *testing.T) {
	tl := New(false)
	if tl.Set(0, false, false, false) {
		t.Fatalf("expected default value to be skipped")
	}
	if tl.Len() != 0 {
		t.Fatalf("expected empty timeline, got %d deltas", tl.Len())
	}
}

func TestClearFutureLaw(t *testing.T) {
	tl := New(0)
	tl.Set(10, 1, false, false)
	tl.Set(20, 2, false, false)
	tl.Set(30, 3, false, false)

	tl.Set(15, 9, false, true)
	for _, step := range []int{15, 16, 20, 30, 99} {
		if got := tl.Get(step); got != 9 {
			t.Fatalf("Get(%d) after clearFuture: expected 9, got %d", step, got)
		}
	}
	if got := tl.Get(12); got != 1 {
		t.Fatalf("expected the past to survive clearFuture, got %d", got)
	}

	// clearFuture applies even when the value itself is implied
	tl.Set(40, 4, false, false)
	tl.Set(17, 9, false, true)
	if got := tl.Get(40); got != 9 {
		t.Fatalf("expected implied clearFuture to drop step 40, got %d", got)
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	tl := New(0)
	for _, s := range []int{50, 10, 30, 20, 40} {
		tl.Set(s, s, false, false)
	}
	steps := tl.Steps()
	for i := 1; i < len(steps); i++ {
		if steps[i-1] >= steps[i] {
			t.Fatalf("expected ascending steps, got %v", steps)
		}
	}
	if tl.Get(35) != 30 {
		t.Fatalf("expected 30 at step 35, got %d", tl.Get(35))
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tl := New(0)
	tl.Set(1, 1, false, false)
	cp := tl.Copy()
	tl.Set(2, 2, false, false)
	if cp.Len() != 1 || cp.Get(5) != 1 {
		t.Fatalf("expected copy to be unaffected, got len=%d value=%d", cp.Len(), cp.Get(5))
	}
}

func TestHistoryTypedAccess(t *testing.T) {
	h := NewHistory(0)
	Set(h, "fuse", 3, 12, Unset, false, false)
	if got := Get(h, "fuse", 2, Unset); got != Unset {
		t.Fatalf("expected default before first delta, got %d", got)
	}
	if got := Get(h, "fuse", 4, Unset); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	// wrong type reads as default
	if got := Get(h, "fuse", 4, false); got {
		t.Fatalf("expected mismatched type to read default")
	}
	if got := Get[int](nil, "fuse", 4, 7); got != 7 {
		t.Fatalf("expected nil history to read default, got %d", got)
	}
}

func TestStoreCopyAndIDs(t *testing.T) {
	s := NewStore[int32]()
	Set(s.Ensure(4, 0), "x", 0, 1.5, 0.0, false, false)
	Set(s.Ensure(2, 3), "x", 3, 2.5, 0.0, false, false)

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 4 {
		t.Fatalf("expected sorted ids [2 4], got %v", ids)
	}

	cp := s.Copy()
	h, _ := s.Get(4)
	Set(h, "x", 10, 9.0, 0.0, false, false)
	ch, _ := cp.Get(4)
	if got := Get(ch, "x", 10, 0.0); got != 1.5 {
		t.Fatalf("expected copied history to be independent, got %v", got)
	}
	if ch2, _ := cp.Get(2); ch2.Start != 3 {
		t.Fatalf("expected start step 3, got %d", ch2.Start)
	}
	if s.Deltas() != 3 || cp.Deltas() != 2 {
		t.Fatalf("expected 3 and 2 deltas, got %d and %d", s.Deltas(), cp.Deltas())
	}
}

func TestPinKeepsLaterStepsFromInheritingAWrite(t *testing.T) {
	h := NewHistory(0)
	Set(h, "n", 0, 1, 0, false, false)

	Pin(h, "n", 5, 0)
	Set(h, "n", 4, 9, 0, false, false)

	if got := Get(h, "n", 5, 0); got != 1 {
		t.Fatalf("expected pinned value 1 at step 5, got %d", got)
	}
	if got := Get(h, "n", 4, 0); got != 9 {
		t.Fatalf("expected 9 at step 4, got %d", got)
	}
	deltas := h.Deltas()
	Pin(h, "n", 5, 0)
	if h.Deltas() != deltas {
		t.Fatalf("expected pinning an explicit step to be a no-op")
	}
}
