package refval

import "testing"

func TestCreateRetainReleaseRelease(t *testing.T) {
	cleaned := 0
	v := New("payload", func(data any) { cleaned++ })

	if v.Count() != 1 {
		t.Fatalf("initial count = %d, want 1", v.Count())
	}
	if err := v.Retain(); err != nil {
		t.Fatalf("retain: %v", err)
	}
	if v.Count() != 2 {
		t.Fatalf("count after retain = %d, want 2", v.Count())
	}
	if err := v.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if cleaned != 0 {
		t.Fatalf("cleanup ran early, cleaned = %d", cleaned)
	}
	if err := v.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if cleaned != 1 {
		t.Fatalf("cleanup ran %d times, want exactly 1", cleaned)
	}
}

func TestDataWithoutRetain(t *testing.T) {
	v := New(42, nil)
	if got := v.Data(); got != 42 {
		t.Fatalf("Data() = %v, want 42", got)
	}
}

func TestNilValueMethods(t *testing.T) {
	var v *Value
	if v.Data() != nil {
		t.Fatalf("nil value Data() should be nil")
	}
	if v.Count() != 0 {
		t.Fatalf("nil value Count() should be 0")
	}
	if err := v.Retain(); err == nil {
		t.Fatalf("expected error retaining nil value")
	}
}
