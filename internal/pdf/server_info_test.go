package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/instruction-pdf/internal/descriptions"
)

func TestServerInfo(t *testing.T) {
	svc, dir := newTestService(t, false)
	_, err := svc.SaveRecord(RecordSaveRequest{Path: "vw.json", Record: sampleRecord()})
	require.NoError(t, err)

	result, err := svc.ServerInfo(context.Background(), ServerInfoRequest{})
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, []string{"en", "ru"}, result.Languages)
	assert.Contains(t, result.SupportedFormats, "png")
	assert.Contains(t, result.UsageGuidance, descriptions.ToolGenerate)
	require.Len(t, result.DirectoryContents, 1)
	assert.Equal(t, "vw.json", result.DirectoryContents[0].Name)

	var names []string
	for _, tool := range result.AvailableTools {
		names = append(names, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, descriptions.GetAllToolNames(), names)
}

func TestServerInfo_CacheInvalidatedOnWrite(t *testing.T) {
	svc, _ := newTestService(t, false)

	first, err := svc.ServerInfo(context.Background(), ServerInfoRequest{})
	require.NoError(t, err)
	assert.Empty(t, first.DirectoryContents)

	_, err = svc.SaveRecord(RecordSaveRequest{Path: "new.json", Record: sampleRecord()})
	require.NoError(t, err)

	second, err := svc.ServerInfo(context.Background(), ServerInfoRequest{})
	require.NoError(t, err)
	assert.Len(t, second.DirectoryContents, 1)
}

func TestDirectoryCache(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	assert.Nil(t, cache.Get("/a"))

	assert.True(t, cache.TryStartScan("/a"))
	assert.False(t, cache.TryStartScan("/a"))
	assert.Nil(t, cache.Get("/a"))
	cache.FinishScan("/a")

	cache.Set("/a", []FileInfo{{Name: "x.json"}})
	entry := cache.Get("/a")
	require.NotNil(t, entry)
	assert.Len(t, entry.files, 1)

	cache.Invalidate("/a")
	assert.Nil(t, cache.Get("/a"))

	expired := NewDirectoryCache(0)
	expired.Set("/b", nil)
	time.Sleep(time.Millisecond)
	assert.Nil(t, expired.Get("/b"))
	expired.Clear()
	assert.Empty(t, expired.entries)
}

func TestLazyDirectoryScanner_Limits(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "c.pdf", "d.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	deep := filepath.Join(dir, "one", "two")
	require.NoError(t, os.MkdirAll(deep, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "deep.json"), []byte("x"), 0o600))

	all, err := NewLazyDirectoryScanner(0, 0, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, all.Files, 4)
	assert.False(t, all.Truncated)

	limited, err := NewLazyDirectoryScanner(0, 2, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, limited.Files, 2)
	assert.True(t, limited.Truncated)

	shallow, err := NewLazyDirectoryScanner(1, 0, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, shallow.Files, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLazyDirectoryScanner(0, 0, 0).ScanDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
