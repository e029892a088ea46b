package logger

import (
	"strings"
	"testing"
)

func TestTruncateToken(t *testing.T) {
	short := "abc"
	if got := TruncateToken(short); got != short {
		t.Errorf("short token changed: %q", got)
	}

	long := strings.Repeat("x", 100)
	got := TruncateToken(long)
	if len(got) >= len(long) {
		t.Errorf("long token not truncated: %d chars", len(got))
	}
	if !strings.Contains(got, "...") {
		t.Errorf("truncated token %q has no ellipsis", got)
	}
	if !strings.HasPrefix(long, got[:MaxTokenLength/2]) {
		t.Error("truncated token does not keep the prefix")
	}
}

func TestTruncateTokenSensitiveMode(t *testing.T) {
	SetShowSensitiveData(true)
	defer SetShowSensitiveData(false)

	long := strings.Repeat("y", 100)
	if got := TruncateToken(long); got != long {
		t.Errorf("sensitive mode still truncates: %q", got)
	}
}

func TestSetMaxTokenLength(t *testing.T) {
	old := MaxTokenLength
	defer SetMaxTokenLength(old)

	SetMaxTokenLength(10)
	if MaxTokenLength != 10 {
		t.Errorf("MaxTokenLength = %d", MaxTokenLength)
	}
	SetMaxTokenLength(-1)
	if MaxTokenLength != 10 {
		t.Error("non-positive length was accepted")
	}

	got := TruncateToken(strings.Repeat("z", 50))
	if len(got) != 10+3 {
		t.Errorf("truncated length = %d, want 13", len(got))
	}
}
