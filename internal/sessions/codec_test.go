package sessions

import (
	"errors"
	"testing"
	"time"
)

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	codec, err := NewCodec("secret", func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := codec.Encode("sid-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sid, err := codec.Decode(token)
	if err != nil || sid != "sid-1" {
		t.Fatalf("expected sid-1, got %q err=%v", sid, err)
	}
}

func TestCodecRejects(t *testing.T) {
	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	codec, _ := NewCodec("secret", func() time.Time { return now })
	other, _ := NewCodec("other-secret", func() time.Time { return now })

	forged, _ := other.Encode("sid-1", now.Add(time.Hour))
	expired, _ := codec.Encode("sid-1", now.Add(-time.Minute))

	tests := []struct {
		name  string
		value string
	}{
		{name: "wrong secret", value: forged},
		{name: "expired", value: expired},
		{name: "garbage", value: "not-a-token"},
		{name: "tampered", value: forged[:len(forged)-2] + "xx"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Decode(tt.value); !errors.Is(err, ErrInvalidCookie) {
				t.Fatalf("expected ErrInvalidCookie, got %v", err)
			}
		})
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("", nil); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
