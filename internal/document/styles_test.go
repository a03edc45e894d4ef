package document

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStyles_Fallback(t *testing.T) {
	styles := BuildStyles(FontSource{}, nil)

	assert.False(t, styles.Embedded())
	for _, s := range []Style{styles.Body, styles.Heading, styles.Detail, styles.DetailBold} {
		assert.Equal(t, FallbackFamily, s.Family, s.Name)
	}
}

func TestBuildStyles_Values(t *testing.T) {
	styles := BuildStyles(FontSource{}, nil)

	assert.Equal(t, 10.0, styles.Body.Size)
	assert.InDelta(t, 12.0, styles.Body.Leading, 1e-9)
	assert.False(t, styles.Body.Bold)
	assert.Equal(t, AlignLeft, styles.Body.Align)

	assert.Equal(t, 14.0, styles.Heading.Size)
	assert.True(t, styles.Heading.Bold)
	assert.Equal(t, AlignCenter, styles.Heading.Align)
	assert.Equal(t, 12.0, styles.Heading.SpaceAfter)

	assert.Equal(t, 7.0, styles.Detail.Size)
	assert.False(t, styles.Detail.Bold)
	assert.Equal(t, 7.0, styles.DetailBold.Size)
	assert.True(t, styles.DetailBold.Bold)

	// Copies never write through to the base style.
	assert.Equal(t, 0.0, styles.Body.SpaceAfter)
	assert.Equal(t, "Body", styles.Body.Name)
}

func TestBuildStyles_BrokenFontsFallBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultRegularFont), []byte("not a font"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultBoldFont), []byte("not a font"), 0o600))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	styles := BuildStyles(DefaultFontSource(dir), logger)

	assert.False(t, styles.Embedded())
	assert.Equal(t, FallbackFamily, styles.Body.Family)
	assert.Contains(t, logs.String(), "could not register embedded fonts")
}

func TestBuildStyles_MissingFontFiles(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	styles := BuildStyles(DefaultFontSource(t.TempDir()), logger)

	assert.False(t, styles.Embedded())
	assert.Contains(t, logs.String(), "read regular font")
}

func TestStyleSet_Text(t *testing.T) {
	styles := BuildStyles(FontSource{}, nil)

	assert.Equal(t, "Line A", styles.Text("Line A"))
	// Core fonts use cp1252.
	assert.Equal(t, "caf\xe9", styles.Text("café"))
}

func TestStyle_WithHelpersCopy(t *testing.T) {
	base := Style{Name: "Base", Family: FallbackFamily, Align: AlignLeft}.WithSize(10)
	big := base.WithSize(20).WithBold(true).Named("Big")

	assert.Equal(t, 10.0, base.Size)
	assert.False(t, base.Bold)
	assert.Equal(t, "Base", base.Name)
	assert.Equal(t, 20.0, big.Size)
	assert.InDelta(t, 24.0, big.Leading, 1e-9)
	assert.Equal(t, "B", big.fontStyle())
	assert.Equal(t, "", base.fontStyle())
}
