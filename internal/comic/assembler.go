package comic

import (
	"fmt"

	"github.com/eddogola/comic-gen/internal/models"
)

// Assemble pairs descriptions with their images by position.
// images[i] must belong to descriptions[i]; panel numbers start at 1.
func Assemble(descriptions, images []string) (*models.Comic, error) {
	if len(descriptions) != len(images) {
		return nil, newError(KindInternal, "failed to assemble comic",
			fmt.Errorf("%d descriptions but %d images", len(descriptions), len(images)))
	}

	panels := make([]models.Panel, 0, len(descriptions))
	for i, description := range descriptions {
		panels = append(panels, models.Panel{
			Description: description,
			Image:       images[i],
			PanelNumber: i + 1,
		})
	}
	return &models.Comic{Panels: panels}, nil
}
