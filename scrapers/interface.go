package scrapers

import (
	"context"

	"github.com/raushankrgupta/eyewear-stylist/models"
)

// Scraper defines the interface for all product preview scrapers
type Scraper interface {
	// CanScrape checks if the scraper can handle the given URL
	CanScrape(url string) bool
	// ScrapeProduct scrapes a product preview from the given URL
	ScrapeProduct(ctx context.Context, url string) (*models.ProductPreview, error)
}
