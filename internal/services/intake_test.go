package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDrawingSet(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"uploads/structural-set.pdf", true},
		{"structural-set.PDF", true},
		{"structural-set.Pdf", true},
		{"structural-set.pdf.sha256", false},
		{"transmittal.png", false},
		{"notes.txt", false},
		{"no-extension", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDrawingSet(tt.name), "name=%q", tt.name)
	}
}

func TestHashingCopyProducesSha256AndCopiesBytes(t *testing.T) {
	var dst bytes.Buffer

	hash, err := hashingCopy(&dst, strings.NewReader("hello"))

	require.NoError(t, err)
	assert.Equal(t, "hello", dst.String())
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)
}

func TestHashingCopyEmptyInput(t *testing.T) {
	var dst bytes.Buffer

	hash, err := hashingCopy(&dst, strings.NewReader(""))

	require.NoError(t, err)
	assert.Zero(t, dst.Len())
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hash)
}
