package record

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	rec := sampleRecord()

	require.NoError(t, store.Save("/data/vw-005540.json", rec))
	require.NoError(t, store.Save("/data/sub/audi-77.yaml", rec))
	require.NoError(t, store.Save("/data/.cache/hidden.json", rec))
	require.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("x"), 0o600))

	entries, err := store.List("/data", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/data/sub/audi-77.yaml", entries[0].Path)
	assert.Equal(t, "audi-77.yaml", entries[0].Name)
	assert.Equal(t, "/data/vw-005540.json", entries[1].Path)
	assert.Positive(t, entries[1].Size)
	assert.False(t, entries[1].ModTime.IsZero())

	filtered, err := store.List("/data", "005540")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "vw-005540.json", filtered[0].Name)

	_, err = store.List("/missing", "")
	assert.ErrorContains(t, err, "does not exist")
	_, err = store.List("", "")
	assert.Error(t, err)
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		filename string
		query    string
		want     bool
	}{
		{filename: "vw-005540.json", query: "", want: true},
		{filename: "vw-005540.json", query: "005540", want: true},
		{filename: "VW-005540.json", query: "vw", want: true},
		{filename: "VW-005540.json", query: "  VW ", want: true},
		{filename: "skoda_octavia-77_instruction.pdf", query: "octavia instruction", want: true},
		{filename: "skoda_octavia-77_instruction.pdf", query: "octavia audi", want: false},
		{filename: "audi-77.yaml", query: "json", want: false},
		{filename: "audi-77.yaml", query: "---", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesQuery(tt.filename, tt.query))
		})
	}
}

func TestSplitIntoWords(t *testing.T) {
	assert.Equal(t, []string{"skoda", "octavia", "77", "v2"}, splitIntoWords("Skoda_Octavia-77 (v2)"))
	assert.Empty(t, splitIntoWords("--"))
}
