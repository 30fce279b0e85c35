package hasher

import (
	"testing"
)

func TestHashWithSalt(t *testing.T) {
	h := New()

	tests := []struct {
		name string
		text string
	}{
		{name: "simple name", text: "alice"},
		{name: "empty text", text: ""},
		{name: "unicode text", text: "树洞用户"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := h.HashWithSalt(tt.text)
			second := h.HashWithSalt(tt.text)

			if first != second {
				t.Errorf("HashWithSalt() should be stable under one salt, got %s and %s", first, second)
			}
			if len(first) != 16 {
				t.Errorf("HashWithSalt() should return 16 characters, got length %d", len(first))
			}
		})
	}
}

func TestHashDependsOnSalt(t *testing.T) {
	a := &RandomHasher{Salt: "salt-a"}
	b := &RandomHasher{Salt: "salt-b"}

	if a.HashWithSalt("alice") == b.HashWithSalt("alice") {
		t.Error("different salts should produce different fingerprints")
	}
}

func TestRandomString(t *testing.T) {
	s := RandomString(16)
	if len(s) != 16 {
		t.Errorf("RandomString(16) length = %d", len(s))
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			t.Errorf("RandomString() produced non-alphanumeric rune %q", r)
		}
	}
}

func TestLook(t *testing.T) {
	if got := Look("ABCDEF0123456789"); got != "AB...89" {
		t.Errorf("Look() = %q, want %q", got, "AB...89")
	}
	if got := Look("ab"); got != "ab" {
		t.Errorf("Look() on short input = %q, want %q", got, "ab")
	}
}
