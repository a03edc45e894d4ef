package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsFor(t *testing.T) {
	en, err := LabelsFor("")
	require.NoError(t, err)
	assert.Equal(t, English(), en)
	assert.Equal(t, "Connection Diagram and Instructions", en.ConnectionHeading)
	assert.Equal(t, "Additional Description / Indicators", en.FullHeading)

	ru, err := LabelsFor("ru")
	require.NoError(t, err)
	assert.Equal(t, "Файл не найден", ru.FileNotFound)

	_, err = LabelsFor("de")
	assert.ErrorContains(t, err, "unsupported language")
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"en", "ru"}, Languages())
}
