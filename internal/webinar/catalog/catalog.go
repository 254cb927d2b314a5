// Package catalog holds the static webinar series.
package catalog

import (
	"fmt"

	"vaultflow/internal/webinar/models"
	dErrors "vaultflow/pkg/domain-errors"
)

const seriesDescription = "At Affinidi, we believe in the power of collaboration & innovation. " +
	"Thank you for diving into the world of digital trust, decentralised identity, and revolutionary " +
	"technologies that are shaping the future of identity management. " +
	"Reclaim Your Data. Reclaim Your Identity. Reclaim Your Self."

// Catalog is an immutable, ordered list of webinars.
type Catalog struct {
	webinars []models.Webinar
	byID     map[int]models.Webinar
}

func New(webinars ...models.Webinar) *Catalog {
	c := &Catalog{
		webinars: append([]models.Webinar(nil), webinars...),
		byID:     make(map[int]models.Webinar, len(webinars)),
	}
	for _, w := range webinars {
		c.byID[w.ID] = w
	}
	return c
}

// Default returns the developer webinar series.
func Default() *Catalog {
	return New(
		models.Webinar{
			ID:          1,
			Title:       "Revolutions Identity Management in the New Data Economy",
			Date:        "25th April 2024",
			Description: seriesDescription,
		},
		models.Webinar{
			ID:          2,
			Title:       "Harnessing Cross-Platform Loyalty with Zero Party Data and Holistic Identity",
			Date:        "23rd May 2024",
			Description: seriesDescription,
		},
		models.Webinar{
			ID:          3,
			Title:       "Customer-Centric Data Management Solutions with Holistic Identity",
			Date:        "20th June 2024",
			Description: seriesDescription,
		},
	)
}

// List returns the webinars in catalog order.
func (c *Catalog) List() []models.Webinar {
	return append([]models.Webinar(nil), c.webinars...)
}

func (c *Catalog) Get(id int) (models.Webinar, error) {
	w, ok := c.byID[id]
	if !ok {
		return models.Webinar{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("webinar %d not found", id))
	}
	return w, nil
}
