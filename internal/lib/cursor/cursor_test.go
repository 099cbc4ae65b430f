package cursor

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	token := Encode(ts, "67a1b2c3d4e5f60718293a4b")

	got, id, ok := Decode(token)
	if !ok {
		t.Fatalf("decode failed for token %q", token)
	}
	if !got.Equal(ts) {
		t.Fatalf("timestamp mismatch: got %v want %v", got, ts)
	}
	if id != "67a1b2c3d4e5f60718293a4b" {
		t.Fatalf("id mismatch: got %q", id)
	}
}

func TestEncodeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, loc)

	got, _, ok := Decode(Encode(ts, "x"))
	if !ok {
		t.Fatal("decode failed")
	}
	if !got.Equal(ts) {
		t.Fatalf("instant changed across encode: got %v want %v", got, ts)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got.Location())
	}
}

func TestUUIDSessionID(t *testing.T) {
	ts := time.Now().UTC().Truncate(time.Millisecond)

	_, id, ok := Decode(Encode(ts, "3f2c9e1a-8b4d-4f6e-9a0c-1d2e3f4a5b6c"))
	if !ok {
		t.Fatal("decode failed")
	}
	if id != "3f2c9e1a-8b4d-4f6e-9a0c-1d2e3f4a5b6c" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestMalformedCursors(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"not base64":         "!!!not base64!!!",
		"no separator":       base64.StdEncoding.EncodeToString([]byte("2025-01-01T00:00:00Z")),
		"bad timestamp":      base64.StdEncoding.EncodeToString([]byte("yesterday_abc")),
		"empty id":           base64.StdEncoding.EncodeToString([]byte("2025-01-01T00:00:00Z_")),
		"leading underscore": base64.StdEncoding.EncodeToString([]byte("_abc")),
	}

	for name, token := range cases {
		if _, _, ok := Decode(token); ok {
			t.Errorf("%s: expected ok=false for %q", name, token)
		}
	}
}
