package chctx

import (
	"testing"

	"github.com/danshapiro/coretiny/corerr"
)

func TestSetGetRoundTrip(t *testing.T) {
	ctx := New()
	if err := ctx.Set("source_code", "func main() : int { return 0; }"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := ctx.Get("source_code")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "func main() : int { return 0; }" {
		t.Fatalf("get returned %v", got)
	}
	if ctx.Count() != 1 {
		t.Fatalf("count = %d, want 1", ctx.Count())
	}
}

func TestSetOverwriteReleasesOldValue(t *testing.T) {
	ctx := New()
	released := 0
	if err := ctx.SetWithCleanup("k", "v1", func(any) { released++ }); err != nil {
		t.Fatalf("set v1: %v", err)
	}
	if err := ctx.Set("k", "v2"); err != nil {
		t.Fatalf("set v2: %v", err)
	}
	if released != 1 {
		t.Fatalf("v1 cleanup ran %d times, want 1", released)
	}
	if ctx.Count() != 1 {
		t.Fatalf("count = %d, want 1 (overwrite, not append)", ctx.Count())
	}
	got, _ := ctx.Get("k")
	if got != "v2" {
		t.Fatalf("get = %v, want v2", got)
	}
}

func TestGetNotFound(t *testing.T) {
	ctx := New()
	_, err := ctx.Get("missing")
	if err == nil {
		t.Fatal("expected error")
	}
	ce, ok := err.(*corerr.CoreError)
	if !ok || ce.Code != corerr.NotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	ctx := New()
	ctx.Set("a", 1)
	ctx.Set("b", 2)
	ctx.Set("c", 3)

	if err := ctx.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ctx.Count() != 2 {
		t.Fatalf("count = %d, want 2", ctx.Count())
	}
	if _, err := ctx.Get("b"); err == nil {
		t.Fatal("expected b to be gone")
	}
	if v, err := ctx.Get("c"); err != nil || v != 3 {
		t.Fatalf("c survived remove with wrong value: %v %v", v, err)
	}
}

func TestGetRefRetainsReference(t *testing.T) {
	ctx := New()
	ctx.Set("k", "v")
	ref, err := ctx.GetRef("k")
	if err != nil {
		t.Fatalf("get_ref: %v", err)
	}
	if ref.Count() != 2 {
		t.Fatalf("retained count = %d, want 2", ref.Count())
	}
	_ = ref.Release()
}

func TestHasConstantTimeAndStandard(t *testing.T) {
	ctx := New()
	ctx.Set("present", 1)
	if !ctx.Has("present", false) {
		t.Fatal("expected present key to be found (standard mode)")
	}
	if !ctx.Has("present", true) {
		t.Fatal("expected present key to be found (constant-time mode)")
	}
	if ctx.Has("absent", true) {
		t.Fatal("expected absent key to be missing")
	}
}

func TestMaxKeyLengthRejected(t *testing.T) {
	ctx := New()
	longKey := make([]byte, MaxKeyLength+1)
	for i := range longKey {
		longKey[i] = 'x'
	}
	err := ctx.Set(string(longKey), 1)
	if err == nil {
		t.Fatal("expected KeyTooLong error")
	}
}

func TestCapacityExceeded(t *testing.T) {
	ctx := New()
	for i := 0; i < MaxEntries; i++ {
		if err := ctx.Set(keyFor(i), i); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
	}
	err := ctx.Set(keyFor(MaxEntries), MaxEntries)
	if err == nil {
		t.Fatal("expected CapacityExceeded on entry beyond MaxEntries")
	}
	ce, ok := err.(*corerr.CoreError)
	if !ok || ce.Code != corerr.CapacityExceeded {
		t.Fatalf("err = %v, want CapacityExceeded", err)
	}
	if ctx.Count() != MaxEntries {
		t.Fatalf("count = %d, want %d (prior entries intact)", ctx.Count(), MaxEntries)
	}
}

func TestMemoryLimitRejectedWithoutSideEffects(t *testing.T) {
	ctx := New()
	if err := ctx.Set("warm", "kept"); err != nil {
		t.Fatalf("set warm: %v", err)
	}

	// Force memoryBytes to the edge so the next new key would cross
	// MaxMemory, without needing MaxEntries/MaxKeyLength-sized keys to
	// get there.
	ctx.mu.Lock()
	ctx.memoryBytes = MaxMemory - 1
	ctx.mu.Unlock()

	err := ctx.Set("new-key", "value")
	if err == nil {
		t.Fatal("expected MemoryLimitExceeded")
	}
	ce, ok := err.(*corerr.CoreError)
	if !ok || ce.Code != corerr.MemoryLimitExceeded {
		t.Fatalf("err = %v, want MemoryLimitExceeded", err)
	}
	if ctx.Count() != 1 {
		t.Fatalf("count = %d, want 1 (rejected set must not add an entry)", ctx.Count())
	}
	if _, err := ctx.Get("new-key"); err == nil {
		t.Fatal("rejected set must not be visible via Get")
	}
	if v, err := ctx.Get("warm"); err != nil || v != "kept" {
		t.Fatalf("prior entry disturbed by rejected set: %v %v", v, err)
	}
	ctx.mu.Lock()
	usageAfterRejection := ctx.memoryBytes
	ctx.mu.Unlock()
	if usageAfterRejection != MaxMemory-1 {
		t.Fatalf("memoryBytes = %d, want unchanged at %d after rejection", usageAfterRejection, MaxMemory-1)
	}
}

func keyFor(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := []byte{letters[i%26], letters[(i/26)%26], letters[(i/(26*26))%26]}
	return string(b) + "-key"
}

func TestClearResetsState(t *testing.T) {
	ctx := New()
	released := 0
	ctx.SetWithCleanup("a", 1, func(any) { released++ })
	ctx.SetWithCleanup("b", 2, func(any) { released++ })
	ctx.Clear()

	if ctx.Count() != 0 {
		t.Fatalf("count after clear = %d, want 0", ctx.Count())
	}
	if ctx.MemoryUsage() != 0 {
		t.Fatalf("memory after clear = %d, want 0", ctx.MemoryUsage())
	}
	if released != 2 {
		t.Fatalf("released = %d, want 2", released)
	}
}
