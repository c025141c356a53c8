package filesystem

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("b.csv", "b")
	mfs.AddFile("a.csv", "a")
	mfs.AddFile("archive/old.csv", "old")

	entries, err := mfs.ReadDir("/data")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "a.csv", entries[0].Name())
	assert.Equal(t, "archive", entries[1].Name())
	assert.True(t, entries[1].IsDir())
	assert.Equal(t, "b.csv", entries[2].Name())
}

func TestMemoryFileSystem_ReadDir_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")

	_, err := mfs.ReadDir("/elsewhere")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_ReadFile(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("s.csv", "content")

	content, err := mfs.ReadFile("/data/s.csv")
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	content[0] = 'X'
	again, _ := mfs.ReadFile("s.csv")
	assert.Equal(t, "content", string(again), "returned slice must not alias storage")

	_, err = mfs.ReadFile("/data")
	assert.Error(t, err)
}

func TestMemoryFileSystem_OpenAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("s.csv", "abc")

	rc, err := mfs.Open("s.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "abc", string(data))

	mfs.RemoveFile("s.csv")
	_, err = mfs.Open("s.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("s.csv", "12345")

	info, err := mfs.Stat("/data/s.csv")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(5), info.Size())

	info, err = mfs.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
