package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueplay/cueplay/internal/app/filter"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func newService(t *testing.T) *Service {
	t.Helper()
	types := filter.NewAllowedTypesFilter()
	require.NoError(t, types.ValidateConfig(map[string]any{}))
	sizes := filter.NewMaxSizeFilter()
	require.NoError(t, sizes.ValidateConfig(map[string]any{"max_megabytes": 1}))

	chain := filter.NewChain()
	chain.Add(sizes)
	chain.Add(types)
	return NewService(chain, nil)
}

func TestService_FromFile(t *testing.T) {
	dir := t.TempDir()
	s := newService(t)

	path := writeFile(t, dir, "song.mp3", 2048)
	tr, err := s.FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "song", tr.Name, "no embedded tag: falls back to file name")
	assert.Equal(t, int64(2048), tr.Size)
	assert.Equal(t, "audio/mpeg", tr.MIMEType)
	assert.True(t, strings.HasPrefix(tr.URI, "file://"))
	assert.True(t, strings.HasSuffix(tr.URI, "song.mp3"))
	assert.NotEmpty(t, tr.ID)
	assert.False(t, tr.HasDuration(), "duration unknown until metadata loads")
}

func TestService_FromFile_Rejections(t *testing.T) {
	dir := t.TempDir()
	s := newService(t)

	tests := []struct {
		name string
		file string
		size int
		code string
	}{
		{name: "unsupported type", file: "notes.txt", size: 10, code: "unsupported_type"},
		{name: "too large", file: "big.mp3", size: 2 << 20, code: "file_too_large"},
		{name: "empty", file: "empty.mp3", size: 0, code: "empty_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.size)
			_, err := s.FromFile(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRejected)
			assert.Contains(t, err.Error(), tt.code)
		})
	}
}

func TestService_FromFile_Missing(t *testing.T) {
	s := newService(t)
	_, err := s.FromFile(filepath.Join(t.TempDir(), "absent.mp3"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestService_FromFile_Directory(t *testing.T) {
	s := newService(t)
	_, err := s.FromFile(t.TempDir())
	assert.Error(t, err)
}

func TestService_ReleaseHookAttached(t *testing.T) {
	dir := t.TempDir()
	released := 0
	chain := filter.NewChain()
	s := NewService(chain, func(uri string) { released++ })

	tr, err := s.FromFile(writeFile(t, dir, "song.ogg", 64))
	require.NoError(t, err)

	tr.ReleaseURI()
	tr.ReleaseURI()
	assert.Equal(t, 1, released)
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "a.mp3", expected: "audio/mpeg"},
		{path: "a.FLAC", expected: "audio/flac"},
		{path: "dir/b.m4a", expected: "audio/mp4"},
		{path: "noext", expected: "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, detectMIME(tt.path), tt.path)
	}
}
