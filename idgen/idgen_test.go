package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv4_Format(t *testing.T) {
	gen := UUIDv4()
	id := gen()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("UUIDv4: expected 5 parts, got %d in %q", len(parts), id)
	}
	if len(id) != 36 {
		t.Fatalf("UUIDv4: expected length 36, got %d", len(id))
	}
	// Version nibble is the first character of the third group.
	if parts[2][0] != '4' {
		t.Fatalf("UUIDv4: expected version 4, got %q", parts[2])
	}
}

func TestUUIDv4_Uniqueness(t *testing.T) {
	gen := UUIDv4()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv4: duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNanoID_LengthAndAlphabet(t *testing.T) {
	for _, length := range []int{8, 12, 24} {
		id := NanoID(length)()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
		for _, c := range id {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
				t.Fatalf("NanoID: unexpected character %q in %q", c, id)
			}
		}
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("evt_", NanoID(8))()
	if !strings.HasPrefix(id, "evt_") {
		t.Fatalf("Prefixed: expected prefix 'evt_', got %q", id)
	}
	if len(id) != 4+8 {
		t.Fatalf("Prefixed: expected length 12, got %d", len(id))
	}
}

func TestParse(t *testing.T) {
	id := New()
	got, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if got != id {
		t.Fatalf("Parse: expected %q, got %q", id, got)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("Parse: expected error for garbage input")
	}
}
