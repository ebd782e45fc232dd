package opengraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/scrapers/base"
)

// OpenGraphScraper reads the OpenGraph tags and schema.org Product data
// that most shops publish for link previews.
type OpenGraphScraper struct {
	*base.BaseScraper
}

func NewOpenGraphScraper(opts base.Options) *OpenGraphScraper {
	return &OpenGraphScraper{
		BaseScraper: base.NewBaseScraper(opts),
	}
}

func (s *OpenGraphScraper) CanScrape(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *OpenGraphScraper) ScrapeProduct(ctx context.Context, pageURL string) (*models.ProductPreview, error) {
	doc, err := s.FetchDocument(ctx, pageURL, func(doc *goquery.Document) bool {
		return meta(doc, "og:title") != "" || strings.TrimSpace(doc.Find("title").Text()) != ""
	})
	if err != nil {
		return nil, err
	}

	preview := &models.ProductPreview{
		Title:       meta(doc, "og:title"),
		Description: meta(doc, "og:description"),
		Image:       meta(doc, "og:image"),
		SiteName:    meta(doc, "og:site_name"),
		Price:       firstNonEmpty(meta(doc, "product:price:amount"), meta(doc, "og:price:amount")),
		Currency:    firstNonEmpty(meta(doc, "product:price:currency"), meta(doc, "og:price:currency")),
		Brand:       meta(doc, "product:brand"),
	}

	// JSON-LD fills whatever the meta tags left out
	if product := findProductLD(doc); product != nil {
		preview.Title = firstNonEmpty(preview.Title, getString(product, "name"))
		preview.Description = firstNonEmpty(preview.Description, getString(product, "description"))
		preview.Image = firstNonEmpty(preview.Image, firstString(product["image"]))
		preview.Brand = firstNonEmpty(preview.Brand, nameOf(product["brand"]))
		if offer := firstObject(product["offers"]); offer != nil {
			preview.Price = firstNonEmpty(preview.Price, getString(offer, "price"), getString(offer, "lowPrice"))
			preview.Currency = firstNonEmpty(preview.Currency, getString(offer, "priceCurrency"))
		}
	}

	// Fallback to plain HTML
	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		preview.Description = strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", ""))
	}
	if preview.Title == "" {
		return nil, fmt.Errorf("no product title found at %s", pageURL)
	}

	preview.Image = absoluteURL(pageURL, preview.Image)
	return preview, nil
}

func meta(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf("meta[property='%s']", property))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf("meta[name='%s']", property))
	}
	return strings.TrimSpace(sel.First().AttrOr("content", ""))
}

// findProductLD returns the first schema.org Product object, including ones
// nested in arrays or an @graph.
func findProductLD(doc *goquery.Document) map[string]interface{} {
	var product map[string]interface{}
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		product = searchProduct(data)
		return product == nil
	})
	return product
}

func searchProduct(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if p := searchProduct(item); p != nil {
				return p
			}
		}
	case map[string]interface{}:
		if isProductType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return searchProduct(graph)
		}
	}
	return nil
}

func isProductType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == "Product" || t == "ProductGroup"
	case []interface{}:
		for _, item := range t {
			if isProductType(item) {
				return true
			}
		}
	}
	return false
}

func getString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	}
	return ""
}

func firstString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			return firstString(t[0])
		}
	case map[string]interface{}:
		return getString(t, "url")
	}
	return ""
}

func firstObject(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return t
	case []interface{}:
		if len(t) > 0 {
			return firstObject(t[0])
		}
	}
	return nil
}

func nameOf(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if m := firstObject(v); m != nil {
		return getString(m, "name")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func absoluteURL(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	u, err := page.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
