package checkpoint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := json.RawMessage(`{"processedCount":3}`)

	t.Run("retention sets expiry", func(t *testing.T) {
		e := NewEntry("b1", data, time.Hour, now)
		require.NotNil(t, e.ExpiresAt)
		assert.Equal(t, now.Add(time.Hour), *e.ExpiresAt)
		assert.False(t, e.IsExpired(now.Add(59*time.Minute)))
		assert.True(t, e.IsExpired(now.Add(61*time.Minute)))
		assert.NoError(t, e.CheckSchema())
	})

	t.Run("zero retention never expires", func(t *testing.T) {
		e := NewEntry("b1", data, 0, now)
		assert.Nil(t, e.ExpiresAt)
		assert.False(t, e.IsExpired(now.Add(10000*time.Hour)))
	})

	t.Run("round trip keeps payload", func(t *testing.T) {
		raw, err := encodeEntry(NewEntry("b1", data, time.Hour, now))
		require.NoError(t, err)
		decoded, err := decodeEntry(raw)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(decoded.Data))
		assert.Equal(t, SchemaVersion, decoded.SchemaVersion)
		assert.True(t, now.Equal(decoded.SavedAt))
	})
}

func TestEntry_CheckSchema(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"1.4.2", false},
		{"2.0.0", true},
		{"0.9.0", true},
		{"not-a-version", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := (&Entry{SchemaVersion: tt.version}).CheckSchema()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIncompatibleSchema)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseRetention(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", DefaultRetention, false},
		{"0", 0, false},
		{"3600", time.Hour, false},
		{"36h", 36 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"91d", 0, true},
		{"-5m", 0, true},
		{"soon", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRetention(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "30m", FormatDuration(30*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "5h12m", FormatDuration(5*time.Hour+12*time.Minute))
	assert.Equal(t, "3d", FormatDuration(72*time.Hour))
	assert.Equal(t, "3d4h", FormatDuration(76*time.Hour))
}
