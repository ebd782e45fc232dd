package models

// ProductPreview represents the details scraped from a shopping link
type ProductPreview struct {
	URL         string `json:"url"`
	ResolvedURL string `json:"resolved_url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Brand       string `json:"brand,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}
