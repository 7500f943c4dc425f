package nats

import (
	"testing"
)

func TestNamespace(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "single value",
			input:    []string{"service"},
			expected: "strand.service",
		},
		{
			name:     "multiple values",
			input:    []string{"user", "service"},
			expected: "strand.user.service",
		},
		{
			name:     "empty values filtered",
			input:    []string{"user", "", "service"},
			expected: "strand.user.service",
		},
		{
			name:     "camel case conversion",
			input:    []string{"userService"},
			expected: "strand.user-service",
		},
		{
			name:     "underscore conversion",
			input:    []string{"user_service"},
			expected: "strand.user-service",
		},
		{
			name:     "mixed case",
			input:    []string{"UserService"},
			expected: "strand.User-service",
		},
		{
			name:     "dots preserved",
			input:    []string{"user.service"},
			expected: "strand.user.service",
		},
		{
			name:     "wildcards preserved",
			input:    []string{"user.*"},
			expected: "strand.user.*",
		},
		{
			name:     "numbers preserved",
			input:    []string{"service123"},
			expected: "strand.service123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := namespace(tt.input...)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}
