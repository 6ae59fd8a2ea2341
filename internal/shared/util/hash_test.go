package util

import "testing"

func TestHashToken(t *testing.T) {
	id := "6f1c2c1e-8d8e-4a57-9a43-2f3b1f4f7a10"
	got := HashToken(id)
	if got != HashToken(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if short := ShortHash(id); short != got[:12] {
		t.Fatalf("expected short hash prefix, got %s", short)
	}
	if ShortHash("") != "" {
		t.Fatalf("expected empty short hash for empty input")
	}
}
