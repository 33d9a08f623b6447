package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare 10 digits gets country code", "9876543210", "919876543210"},
		{"leading zero dropped then prefixed", "09876543210", "919876543210"},
		{"already prefixed unchanged", "919876543210", "919876543210"},
		{"plus sign stripped", "+919876543210", "919876543210"},
		{"spaces and dashes stripped", "98765 432-10", "919876543210"},
		{"short number passes through", "12345", "12345"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}
