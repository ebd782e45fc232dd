package scrapers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/raushankrgupta/eyewear-stylist/scrapers/base"
	"github.com/raushankrgupta/eyewear-stylist/scrapers/opengraph"
	"github.com/raushankrgupta/eyewear-stylist/utils"
)

// GetScraper resolves redirect links (grounding citations point at a
// redirect service) and returns the first registered scraper for the result.
func GetScraper(ctx context.Context, client *http.Client, url string, opts base.Options) (Scraper, string, error) {
	resolvedURL, err := utils.ResolveRedirectURL(ctx, client, url)
	if err != nil {
		return nil, url, fmt.Errorf("error resolving url: %w", err)
	}

	// Register scrapers here; the generic one goes last
	scrapers := []Scraper{
		opengraph.NewOpenGraphScraper(opts),
	}

	for _, s := range scrapers {
		if s.CanScrape(resolvedURL) {
			return s, resolvedURL, nil
		}
	}

	return nil, resolvedURL, fmt.Errorf("%w: %s", ErrUnsupportedURL, resolvedURL)
}
