package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator(1024)

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))
	big := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o600))
	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf at all"), 0o600))

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{name: "empty path", path: "", message: "path cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "missing.pdf"), message: "file does not exist"},
		{name: "directory", path: dir, message: "is a directory"},
		{name: "wrong extension", path: text, message: "not a PDF"},
		{name: "empty file", path: empty, message: "file is empty"},
		{name: "too large", path: big, message: "file too large"},
		{name: "garbage", path: garbage, message: "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateFile(ValidateFileRequest{Path: tt.path})
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Message, tt.message)
			assert.False(t, v.IsValidPDF(tt.path))
		})
	}
}

func TestValidator_NoSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NoError(t, NewValidator(0).ValidateFileInfo(path, info))
}

func TestIsPDFFile(t *testing.T) {
	assert.True(t, isPDFFile("a.pdf"))
	assert.True(t, isPDFFile("A.PDF"))
	assert.False(t, isPDFFile("a.pdf.json"))
}
