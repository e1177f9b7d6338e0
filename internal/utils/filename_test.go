package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "falls back for empty names",
			input:    "///",
			expected: "Untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 300),
			expected: strings.Repeat("a", 200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestEPUBNames(t *testing.T) {
	assert.True(t, HasEPUBExtension("Alice.epub"))
	assert.True(t, HasEPUBExtension("ALICE.EPUB"))
	assert.False(t, HasEPUBExtension("notes.txt"))
	assert.False(t, HasEPUBExtension("epub"))

	assert.Equal(t, "Alice", TrimEPUBExtension("Alice.epub"))
	assert.Equal(t, "Alice", TrimEPUBExtension("Alice.EPUB"))
	assert.Equal(t, "notes.txt", TrimEPUBExtension("notes.txt"))
}

func TestIsEPUBMediaType(t *testing.T) {
	assert.True(t, IsEPUBMediaType("application/epub+zip"))
	assert.True(t, IsEPUBMediaType("Application/EPUB+zip; charset=binary"))
	assert.False(t, IsEPUBMediaType("application/zip"))
	assert.False(t, IsEPUBMediaType(""))
}
