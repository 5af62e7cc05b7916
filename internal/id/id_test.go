package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Format(t *testing.T) {
	uid := New()
	require.NoError(t, Validate(uid))
	assert.Len(t, uid, 32)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		uid := New()
		assert.False(t, seen[uid], "duplicate UID %s", uid)
		seen[uid] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		wantErr bool
	}{
		{"valid", New(), false},
		{"empty", "", true},
		{"too short", "abc123", true},
		{"uppercase", "ABCDEF0123456789ABCDEF0123456789", true},
		{"non-hex", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.uid)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
