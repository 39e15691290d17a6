package corerr

import (
	"errors"
	"testing"
)

func TestCodeString(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{Success, "Success"},
		{Reentrancy, "Reentrancy"},
		{SignalInterrupted, "SignalInterrupted"},
		{Code(999), "Unknown error"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Errorf("Code(%d).String() = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestNewDetailLevels(t *testing.T) {
	full := New(NotFound, DetailFull, "key \"foo\" not found")
	if full.Error() != "key \"foo\" not found" {
		t.Errorf("full detail message = %q", full.Error())
	}

	minimal := New(NotFound, DetailMinimal, "key \"foo\" not found")
	if minimal.Error() != "Error code: 7" {
		t.Errorf("minimal detail message = %q", minimal.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(OutOfMemory, cause, "allocating %d bytes", 128)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is did not find wrapped cause")
	}
	if err.Code != OutOfMemory {
		t.Errorf("Code = %v, want OutOfMemory", err.Code)
	}
}
