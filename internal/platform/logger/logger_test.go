package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []interface{}
	}{
		{
			name: "pairing key redacted",
			in:   []interface{}{"partner_key", "ABCD1234", "user_id", uint64(7)},
			want: []interface{}{"partner_key", "[REDACTED]", "user_id", uint64(7)},
		},
		{
			name: "token redacted",
			in:   []interface{}{"accessToken", "eyJ..."},
			want: []interface{}{"accessToken", "[REDACTED]"},
		},
		{
			name: "odd trailing value kept",
			in:   []interface{}{"a", 1, "dangling"},
			want: []interface{}{"a", 1, "dangling"},
		},
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeKVs(tt.in))
		})
	}
}

func TestLogger_RedactsThroughWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("own_key", "SECRET01").Info("issued", "couple_id", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "[REDACTED]", fields["own_key"])
		assert.EqualValues(t, 3, fields["couple_id"])
	}
}
