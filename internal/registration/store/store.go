// Package store persists registrations.
//
// Error contract, shared by every implementation:
// - sentinel.ErrNotFound when a lookup key does not resolve
// - sentinel.ErrConflict when the email uniqueness constraint rejects a write
// - sentinel.ErrUnavailable (wrapped) for connectivity or timeout failures
//
// The storage layer is the authoritative uniqueness guarantee; the intake
// pipeline's pre-check is an optimization only.
package store

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// formatRegistrationID renders the human-facing yearly identifier, e.g.
// REG-2024-003 for the third record created in 2024.
func formatRegistrationID(year, seq int) string {
	return fmt.Sprintf("REG-%d-%03d", year, seq)
}

// newParticipantID renders PART-<epoch-millis>-<5-char uppercase token>.
func newParticipantID(now time.Time) string {
	return fmt.Sprintf("PART-%d-%s", now.UnixMilli(), randomToken(5))
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a zeroed token
		// is still well-formed if it somehow does.
		_ = err
	}
	for i := range buf {
		buf[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(buf)
}

// yearBounds returns [start, end) of the calendar year containing t, in t's
// location. The yearly sequence counts records created in this window.
func yearBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(1, 0, 0)
}
