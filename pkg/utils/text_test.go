package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncateRunes(t *testing.T) {
	if TruncateRunes("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if TruncateRunes("0123456789", 5) != "01234" {
		t.Errorf("got %s", TruncateRunes("0123456789", 5))
	}
	if TruncateRunes("x", 0) != "x" {
		t.Error("max 0 returns as-is")
	}
	// Cuts on rune boundaries, not bytes.
	if TruncateRunes("日本語のテキスト", 3) != "日本語" {
		t.Errorf("got %s", TruncateRunes("日本語のテキスト", 3))
	}
}
