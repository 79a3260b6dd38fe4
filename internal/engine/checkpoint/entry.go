package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the envelope version written by this build.
const SchemaVersion = "1.1.0"

// supportedSchemas lists the envelope versions this build can read.
const supportedSchemas = "^1.0.0"

// ErrIncompatibleSchema is returned when a stored checkpoint was written
// with an envelope version this build cannot read.
var ErrIncompatibleSchema = errors.New("incompatible checkpoint schema")

// Entry wraps one batch checkpoint.
type Entry struct {
	BatchID       string          `json:"batch_id"`
	SchemaVersion string          `json:"schema_version"`
	SavedAt       time.Time       `json:"saved_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEntry wraps data for batchID. A zero retention means the entry never
// expires.
func NewEntry(batchID string, data json.RawMessage, retention time.Duration, now time.Time) *Entry {
	e := &Entry{
		BatchID:       batchID,
		SchemaVersion: SchemaVersion,
		SavedAt:       now.UTC(),
		Data:          data,
	}
	if retention > 0 {
		exp := e.SavedAt.Add(retention)
		e.ExpiresAt = &exp
	}
	return e
}

// IsExpired reports whether the entry is past its expiry at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// CheckSchema verifies that the entry can be read by this build.
func (e *Entry) CheckSchema() error {
	v, err := semver.NewVersion(e.SchemaVersion)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", ErrIncompatibleSchema, e.SchemaVersion)
	}
	c, err := semver.NewConstraint(supportedSchemas)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: version %s, want %s", ErrIncompatibleSchema, v, supportedSchemas)
	}
	return nil
}

func encodeEntry(e *Entry) ([]byte, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint entry: %w", err)
	}
	return b, nil
}

func decodeEntry(raw []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint entry: %w", err)
	}
	return &e, nil
}
