package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"discount-extractor/internal/types"
)

// BaseAdapter provides the goquery helpers shared by listing adapters.
// Every helper works on an already captured snapshot and never touches the browser.
type BaseAdapter struct {
	selectors types.Selectors
	logger    types.Logger
	baseURL   *url.URL
}

// NewBaseAdapter creates a base adapter. baseURL is used to absolutise
// relative links and image sources; it may be empty.
func NewBaseAdapter(selectors types.Selectors, baseURL string, logger types.Logger) (*BaseAdapter, error) {
	b := &BaseAdapter{
		selectors: selectors,
		logger:    logger,
	}
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		b.baseURL = parsed
	}
	return b, nil
}

// ParseHTML parses an HTML fragment into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractText returns the whitespace-collapsed text of the first match.
func (b *BaseAdapter) ExtractText(doc *goquery.Document, selector string) (string, error) {
	element := doc.Find(selector).First()
	if element.Length() == 0 {
		return "", fmt.Errorf("element not found with selector: %s", selector)
	}

	return strings.Join(strings.Fields(element.Text()), " "), nil
}

// ExtractAttribute extracts an attribute value from the first match
func (b *BaseAdapter) ExtractAttribute(doc *goquery.Document, selector string, attribute string) (string, error) {
	element := doc.Find(selector).First()
	if element.Length() == 0 {
		return "", fmt.Errorf("element not found with selector: %s", selector)
	}

	value, exists := element.Attr(attribute)
	if !exists {
		return "", fmt.Errorf("attribute %s not found on element %s", attribute, selector)
	}

	return strings.TrimSpace(value), nil
}

// ResolveURL makes href absolute against the adapter's base URL.
func (b *BaseAdapter) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || b.baseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.baseURL.ResolveReference(ref).String()
}

// Selectors returns the selectors the adapter was built with
func (b *BaseAdapter) Selectors() types.Selectors {
	return b.selectors
}
