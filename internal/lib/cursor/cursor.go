// Package cursor implements the opaque pagination token shared by the
// chat and message listings: base64("{RFC3339Nano timestamp}_{id}").
package cursor

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Encode builds an opaque cursor from the sort key of the last row on
// the page.
func Encode(ts time.Time, id string) string {
	raw := fmt.Sprintf("%s_%s", ts.UTC().Format(time.RFC3339Nano), id)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode reverses Encode. Malformed cursors return ok=false and are
// treated as "start from the first page", never as an error.
func Decode(token string) (ts time.Time, id string, ok bool) {
	if token == "" {
		return time.Time{}, "", false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", false
	}
	idx := strings.LastIndex(string(raw), "_")
	if idx <= 0 || idx == len(raw)-1 {
		return time.Time{}, "", false
	}
	ts, err = time.Parse(time.RFC3339Nano, string(raw[:idx]))
	if err != nil {
		return time.Time{}, "", false
	}
	return ts, string(raw[idx+1:]), true
}
