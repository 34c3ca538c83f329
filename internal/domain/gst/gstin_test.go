package gst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		gstin string
		valid bool
	}{
		{"empty", "", false},
		{"too short", "22AAAAA0000A1Z", false},
		{"too long", "22AAAAA0000A1Z55", false},
		{"well formed", "22AAAAA0000A1Z5", true},
		{"any 15 characters pass", strings.Repeat("x", 15), true},
		{"spaces count too", "               ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.gstin)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, "GSTIN format valid", got.Compliance)
			} else {
				assert.Empty(t, got.Compliance)
			}
		})
	}
}
