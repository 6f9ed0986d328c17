package sitemeta

import (
	"strings"
)

const (
	DefaultBaseURL = "https://astroclock.app"

	title       = "Astro Clock | Discover Your Exact Birth Time"
	description = "Astro Clock uses AI and Vedic astrology to determine your exact birth time based on physical traits and astrological patterns. Get precise birth time predictions for accurate birth charts."
	keywords    = "birth time, astrology, vedic astrology, birth chart, horoscope, birth time prediction, AI astrology"
)

// Metadata is the sharing and search metadata of the site.
type Metadata struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Keywords     string         `json:"keywords"`
	CanonicalURL string         `json:"canonicalUrl"`
	ThemeColor   string         `json:"themeColor"`
	OpenGraph    OpenGraph      `json:"openGraph"`
	Twitter      TwitterCard    `json:"twitter"`
	Structured   map[string]any `json:"structuredData"`
}

// OpenGraph holds og: properties.
type OpenGraph struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

// TwitterCard holds twitter: properties.
type TwitterCard struct {
	Card  string `json:"card"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

// Build returns the metadata for a deployment served at baseURL.
func Build(baseURL string) Metadata {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ogImage := base + "/images/og-image.jpg"
	return Metadata{
		Title:        title,
		Description:  description,
		Keywords:     keywords,
		CanonicalURL: base,
		ThemeColor:   "#111827",
		OpenGraph:    OpenGraph{Type: "website", URL: base, Image: ogImage},
		Twitter:      TwitterCard{Card: "summary_large_image", URL: base, Image: base + "/images/twitter-image.jpg"},
		Structured: map[string]any{
			"@context":            "https://schema.org",
			"@type":               "WebApplication",
			"name":                "Astro Clock",
			"description":         description,
			"applicationCategory": "LifestyleApplication",
			"operatingSystem":     "Web",
			"offers": map[string]any{
				"@type":         "Offer",
				"price":         "1.00",
				"priceCurrency": "USD",
			},
			"screenshot":  ogImage,
			"featureList": "Birth time prediction, Astrological analysis, Physical trait correlation",
			"author": map[string]any{
				"@type": "Organization",
				"name":  "Astro Clock",
			},
		},
	}
}
