// Package id implements the 128-bit identifier used for traces and
// observations. Trace ids arrive over the wire as 16-byte OTLP trace ids;
// observation ids arrive as 8-byte OTLP span ids right-padded with zeros
// (see internal/otlp). Both are represented the same way so they share one
// type, printed as 32 lowercase hex characters.
package id

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
)

// ID is a 128-bit identifier, stored and compared as raw bytes.
type ID [16]byte

// Nil is the zero-valued ID.
var Nil ID

// New generates a random 128-bit ID (used for ids the core mints itself,
// e.g. synthetic metric row ids are int64 not ID, but ingest debug routes
// that omit an id still need one).
func New() ID {
	var out ID
	if _, err := rand.Read(out[:]); err != nil {
		panic(fmt.Sprintf("id: failed to read random bytes: %v", err))
	}
	return out
}

// FromHex parses a hex string of up to 32 characters. Shorter inputs (e.g.
// an 8-byte/16-char span id) are right-padded with zero bytes, matching the
// OTLP span-id-to-observation-id mapping in spec §4.3/§9.
func FromHex(s string) (ID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Nil, fmt.Errorf("id: invalid hex %q: %w", s, err)
	}
	if len(raw) > 16 {
		return Nil, fmt.Errorf("id: hex %q decodes to %d bytes, want <= 16", s, len(raw))
	}
	var out ID
	copy(out[:], raw)
	return out, nil
}

// MustFromHex is FromHex but panics on error; for constants/tests.
func MustFromHex(s string) ID {
	out, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return out
}

// String renders the ID as 32 lowercase hex characters.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the nil ID.
func (id ID) IsZero() bool {
	return id == Nil
}

// MarshalJSON renders the ID as a hex-encoded JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON parses a hex-encoded JSON string into the ID.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("id: expected JSON string")
	}
	parsed, err := FromHex(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer so the store can write the ID as its hex
// string representation.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner for reading hex strings back out of Postgres.
func (id *ID) Scan(value interface{}) error {
	if value == nil {
		*id = Nil
		return nil
	}
	switch v := value.(type) {
	case string:
		parsed, err := FromHex(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case []byte:
		parsed, err := FromHex(string(v))
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	default:
		return fmt.Errorf("id: unsupported scan type %T", value)
	}
}
