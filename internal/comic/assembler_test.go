package comic

import (
	"testing"

	"github.com/eddogola/comic-gen/internal/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	descriptions := []string{"one", "two", "three"}
	imgs := []string{
		images.EncodeDataURI([]byte("1")),
		images.EncodeDataURI([]byte("2")),
		images.EncodeDataURI([]byte("3")),
	}

	comic, err := Assemble(descriptions, imgs)
	require.NoError(t, err)
	require.Len(t, comic.Panels, 3)
	for k, panel := range comic.Panels {
		assert.Equal(t, descriptions[k], panel.Description)
		assert.Equal(t, imgs[k], panel.Image)
		assert.Equal(t, k+1, panel.PanelNumber)
	}
}

func TestAssemble_Empty(t *testing.T) {
	comic, err := Assemble(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, comic.Panels)
	assert.Empty(t, comic.Panels)
}

func TestAssemble_LengthMismatch(t *testing.T) {
	_, err := Assemble([]string{"one", "two"}, []string{"img"})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "2 descriptions but 1 images")
}
