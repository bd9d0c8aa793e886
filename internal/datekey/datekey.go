// Package datekey produces the canonical YYYY-MM-DD keys that identify one
// calendar day's schedule.
package datekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical key layout.
const Layout = "2006-01-02"

// isoLayouts are the timestamp shapes accepted in addition to Y-M-D keys.
// A timestamp with an offset names an instant and resolves to the local
// calendar date of that instant; one without an offset is read as local.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// FromTime formats t's local calendar date as a key.
func FromTime(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the key for the current local date.
func Today() string {
	return FromTime(time.Now())
}

// Normalize converts a loosely spelled date into its canonical key. It
// accepts "2026-2-10", "2026-02-10" and ISO timestamps such as
// "2026-02-10T08:00:00Z". Normalizing a canonical key returns it unchanged.
func Normalize(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}

	if strings.ContainsAny(key, "T ") {
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, key, time.Local); err == nil {
				return FromTime(t.In(time.Local)), true
			}
		}
		return "", false
	}

	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return "", false
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return "", false
		}
		nums[i] = n
	}

	y, m, d := nums[0], nums[1], nums[2]
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	// Reject dates that roll over, e.g. 2026-2-30.
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// MustNormalize is Normalize for keys already known to be valid. It panics
// on malformed input and is intended for constants and tests.
func MustNormalize(key string) string {
	nk, ok := Normalize(key)
	if !ok {
		panic(fmt.Sprintf("datekey: invalid key %q", key))
	}
	return nk
}

// Parse returns midnight local time for key.
func Parse(key string) (time.Time, error) {
	nk, ok := Normalize(key)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	return time.ParseInLocation(Layout, nk, time.Local)
}

// AddDays shifts key by n days. Invalid keys are returned unchanged.
func AddDays(key string, n int) string {
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return FromTime(t.AddDate(0, 0, n))
}
