package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/sirupsen/logrus"
)

// Options configure how pages are fetched.
type Options struct {
	// UseBrowser enables the headless Chrome fallback
	UseBrowser bool
	// AllowPrivateHosts lifts the public-address restriction (tests only)
	AllowPrivateHosts bool
}

// NewTransport returns the transport for fetching third-party pages.
// Unless private hosts are allowed it refuses non-public peers.
func NewTransport(opts Options) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	dial := dialer.DialContext
	if !opts.AllowPrivateHosts {
		dial = utils.PublicOnlyDialer(dialer)
	}
	return &http.Transport{
		DialContext:           dial,
		ForceAttemptHTTP2:     false,
		TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// BaseScraper handles common scraping logic
type BaseScraper struct {
	Client *http.Client
	Options
}

// NewBaseScraper creates a new BaseScraper instance
func NewBaseScraper(opts Options) *BaseScraper {
	return &BaseScraper{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: NewTransport(opts),
		},
		Options: opts,
	}
}

// FetchDocument fetches the URL over HTTP and, when enabled, falls back to
// headless Chrome if the page fails the validator.
func (b *BaseScraper) FetchDocument(ctx context.Context, url string, validator func(*goquery.Document) bool) (*goquery.Document, error) {
	log := logrus.WithField("url", url)

	// Strategy 1: HTTP Client (Fastest)
	doc, err := b.FetchDocumentHTTP(ctx, url)
	if err == nil {
		if IsValidDocument(doc) && validator(doc) {
			log.Debug("http fetch succeeded")
			return doc, nil
		}
		log.Debug("http fetch yielded invalid content")
	} else {
		log.WithError(err).Debug("http fetch failed")
	}

	if !b.UseBrowser {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("page content rejected for %s", url)
	}

	// Strategy 2: ChromeDP (Headless)
	doc, err = b.FetchDocumentChromeDP(ctx, url)
	if err == nil && validator(doc) {
		log.Debug("chromedp fetch succeeded")
		return doc, nil
	}
	if err != nil {
		log.WithError(err).Warn("chromedp fetch failed")
	}

	return nil, fmt.Errorf("all strategies failed for %s", url)
}

// IsValidDocument rejects bot-check and access-denied pages.
func IsValidDocument(doc *goquery.Document) bool {
	lowerTitle := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	return !strings.Contains(lowerTitle, "robot check") &&
		!strings.Contains(lowerTitle, "captcha") &&
		!strings.Contains(lowerTitle, "access denied")
}

// FetchDocumentHTTP fetches the URL and returns a GoQuery document via standard HTTP
func (b *BaseScraper) FetchDocumentHTTP(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Common headers to mimic a real browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fa-IR,fa;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	res, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}
