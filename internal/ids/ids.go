// Package ids generates record and note identifiers.
//
// Generated ids are time-ordered and collision-resistant without any central
// counter: <PREFIX>-<zero-padded base36 seconds since a scheme epoch><2 random
// hex chars>, uppercased. The fixed-width timestamp keeps lexicographic order
// equal to creation order, and two processes creating records in the same
// second still differ in the random tail.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	goslug "github.com/gosimple/slug"
)

const (
	// RecordPrefix is the default id prefix for records; templates may
	// override it per record kind.
	RecordPrefix = "REC"

	// NotePrefix is the fixed id prefix for notes.
	NotePrefix = "NT"

	// recordEpoch is 2025-01-01T00:00:00Z; record timestamps count from here.
	recordEpoch = 1735689600

	// noteEpoch is 2026-02-05T12:40:00Z; notes got their own, later epoch
	// when they became separately indexed entities.
	noteEpoch = 1770300000

	// timestampWidth is the zero-padded width of the base36 seconds
	// component. 36^7 seconds is roughly 2480 years past the epoch.
	timestampWidth = 7
)

var customIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generator produces ids. Now is swappable for tests.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// NewRecordID generates a record id with the given prefix (RecordPrefix when
// empty).
func (g *Generator) NewRecordID(prefix string) string {
	if prefix == "" {
		prefix = RecordPrefix
	}
	return generate(prefix, g.Now().Unix()-recordEpoch)
}

// NewNoteID generates a note id.
func (g *Generator) NewNoteID() string {
	return generate(NotePrefix, g.Now().Unix()-noteEpoch)
}

func generate(prefix string, seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	ts := toBase36(seconds)
	if len(ts) < timestampWidth {
		ts = strings.Repeat("0", timestampWidth-len(ts)) + ts
	}
	return strings.ToUpper(fmt.Sprintf("%s-%s%s", prefix, ts, randomHex()))
}

// toBase36 converts a non-negative integer to base36 (0-9, A-Z).
func toBase36(n int64) string {
	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = chars[n%36]
		n /= 36
	}
	return string(buf[i:])
}

func randomHex() string {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a constant rather than panicking mid-create.
		return "00"
	}
	return hex.EncodeToString(b[:])
}

// ValidateCustom checks a user-supplied id: letters, digits, underscore, and
// hyphen only.
func ValidateCustom(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !customIDRegex.MatchString(id) {
		return fmt.Errorf("invalid id %q: only letters, digits, '_' and '-' are allowed", id)
	}
	return nil
}

// FromTitle derives a custom id from a record title: slugified, uppercased,
// with an optional prefix. "Payment outage" with prefix "REC" becomes
// "REC-PAYMENT-OUTAGE".
func FromTitle(title, prefix string) (string, error) {
	slugged := goslug.Make(title)
	if slugged == "" {
		return "", fmt.Errorf("cannot derive an id from title %q", title)
	}
	id := strings.ToUpper(slugged)
	if prefix != "" {
		id = strings.ToUpper(prefix) + "-" + id
	}
	if err := ValidateCustom(id); err != nil {
		return "", err
	}
	return id, nil
}
