package scrapers

import (
	"context"
	"errors"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/scrapers/base"
	"github.com/sirupsen/logrus"
)

var ErrUnsupportedURL = errors.New("no scraper found for url")

// Previewer builds product previews for shopping links and remembers them.
type Previewer struct {
	client *http.Client
	opts   base.Options
	cache  *lru.Cache[string, *models.ProductPreview]
}

func NewPreviewer(cacheSize int, opts base.Options) (*Previewer, error) {
	cache, err := lru.New[string, *models.ProductPreview](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Previewer{
		client: &http.Client{Timeout: 15 * time.Second, Transport: base.NewTransport(opts)},
		opts:   opts,
		cache:  cache,
	}, nil
}

// Preview returns the preview for url, scraping it on a cache miss.
// Failures are not cached.
func (p *Previewer) Preview(ctx context.Context, url string) (*models.ProductPreview, error) {
	if cached, ok := p.cache.Get(url); ok {
		copied := *cached
		return &copied, nil
	}

	scraper, resolvedURL, err := GetScraper(ctx, p.client, url, p.opts)
	if err != nil {
		return nil, err
	}

	preview, err := scraper.ScrapeProduct(ctx, resolvedURL)
	if err != nil {
		return nil, err
	}
	preview.URL = url
	preview.ResolvedURL = resolvedURL

	logrus.WithFields(logrus.Fields{"url": url, "resolved_url": resolvedURL}).Debug("scraped product preview")
	copied := *preview
	p.cache.Add(url, &copied)
	return preview, nil
}
