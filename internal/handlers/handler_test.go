package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeNameRuneBoundaryTruncation(t *testing.T) {
	long := strings.Repeat("ü", 150)
	got := sanitizeName(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
}

func TestSanitizeNameStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "alice", sanitizeName("  al\x00ice\n"))
}
