package track

import (
	"testing"
	"time"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAge_InfiniteBeforeFirstMark(t *testing.T) {
	tr := New()
	if _, ok := tr.Age(base); ok {
		t.Error("expected unknown (infinite) age before first mark")
	}
	if _, ok := tr.Last(); ok {
		t.Error("expected no last timestamp before first mark")
	}
}

func TestAge_MeasuresSinceLastMark(t *testing.T) {
	tr := New()
	tr.Mark(base)

	age, ok := tr.Age(base.Add(42 * time.Second))
	if !ok {
		t.Fatal("age unknown after mark")
	}
	if age != 42*time.Second {
		t.Errorf("age = %v, want 42s", age)
	}
}

func TestMark_LaterSuccessResetsAge(t *testing.T) {
	tr := New()
	tr.Mark(base)
	tr.Mark(base.Add(10 * time.Minute))

	age, _ := tr.Age(base.Add(10*time.Minute + time.Second))
	if age != time.Second {
		t.Errorf("age = %v, want 1s after re-mark", age)
	}
}
