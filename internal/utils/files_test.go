package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, SafeWriteFile(path, []byte("one")))
	require.NoError(t, SafeWriteFile(path, []byte("two")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSafeWriteFileMissingDir(t *testing.T) {
	err := SafeWriteFile(filepath.Join(t.TempDir(), "nope", "out.txt"), []byte("x"))
	assert.ErrorContains(t, err, "write temp file")
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))

	_, err = PrettyJSON(func() {})
	assert.ErrorContains(t, err, "marshal json")
}
