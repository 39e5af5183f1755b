package adapters

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"discount-extractor/internal/types"
)

// DiscountAdapter turns the rendered product cards of one listing page into
// DiscountRecords.
type DiscountAdapter struct {
	*BaseAdapter
}

// NewDiscountAdapter creates a new discount listing adapter
func NewDiscountAdapter(selectors types.Selectors, baseURL string, logger types.Logger) (*DiscountAdapter, error) {
	base, err := NewBaseAdapter(selectors, baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &DiscountAdapter{BaseAdapter: base}, nil
}

// Items yields one record per card snapshot, in rendering order. The
// sequence can be ranged over once; it stops after the first error.
func (d *DiscountAdapter) Items(snapshots []string, pageNumber int) iter.Seq2[types.DiscountRecord, error] {
	cards := slices.Clone(snapshots)
	consumed := false

	return func(yield func(types.DiscountRecord, error) bool) {
		if consumed {
			return
		}
		consumed = true

		for i, html := range cards {
			record, err := d.extractItem(html, pageNumber, i+1)
			if !yield(record, err) || err != nil {
				return
			}
		}
	}
}

// Extract collects every record of a page, failing on the first bad card.
func (d *DiscountAdapter) Extract(snapshots []string, pageNumber int) ([]types.DiscountRecord, error) {
	records := make([]types.DiscountRecord, 0, len(snapshots))
	for record, err := range d.Items(snapshots, pageNumber) {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Fingerprint identifies a set of card snapshots by their link targets, so
// attribute changes on the same cards (image load classes) keep it stable.
// Cards without a resolvable link contribute their raw markup.
func (d *DiscountAdapter) Fingerprint(snapshots []string) string {
	keys := make([]string, 0, len(snapshots))
	for _, html := range snapshots {
		key := html
		if doc, err := d.ParseHTML(html); err == nil {
			if href, err := d.ExtractAttribute(doc, d.selectors.Link, "href"); err == nil && href != "" {
				key = href
			}
		}
		keys = append(keys, key)
	}
	return strings.Join(keys, "\n")
}

func (d *DiscountAdapter) extractItem(html string, pageNumber, order int) (types.DiscountRecord, error) {
	record := types.DiscountRecord{
		Page: types.PagePosition{Number: pageNumber, Order: order},
	}

	doc, err := d.ParseHTML(html)
	if err != nil {
		return record, itemError(pageNumber, order, "card", &types.ParseError{Field: "card", Err: err})
	}

	title, err := d.ExtractText(doc, d.selectors.Title)
	if err != nil || title == "" {
		return record, itemError(pageNumber, order, "title", &types.ParseError{Field: "title", Input: title, Err: err})
	}
	record.Title = title

	href, err := d.ExtractAttribute(doc, d.selectors.Link, "href")
	if err != nil || href == "" {
		return record, itemError(pageNumber, order, "link", &types.ParseError{Field: "link", Input: href, Err: err})
	}
	record.Link = d.ResolveURL(href)
	record.ImageURL = d.resolveImage(doc)

	baseText, err := d.ExtractText(doc, d.selectors.BasePrice)
	if err != nil {
		return record, itemError(pageNumber, order, "basePrice", &types.ParseError{Field: "basePrice", Err: err})
	}
	if record.BasePrice, err = ParsePrice(baseText); err != nil {
		return record, itemError(pageNumber, order, "basePrice", err)
	}

	saleText, err := d.ExtractText(doc, d.selectors.SalePrice)
	if err != nil {
		return record, itemError(pageNumber, order, "discountPrice", &types.ParseError{Field: "discountPrice", Err: err})
	}
	if record.DiscountPrice, err = ParsePrice(saleText); err != nil {
		return record, itemError(pageNumber, order, "discountPrice", err)
	}

	record.DiscountDiff = ComputeDiff(record.BasePrice, record.DiscountPrice)
	return record, nil
}

// resolveImage prefers the lazy-load source while the primary source is
// still an inline placeholder.
func (d *DiscountAdapter) resolveImage(doc *goquery.Document) string {
	img := doc.Find(d.selectors.Image).First()
	if img.Length() == 0 {
		return ""
	}

	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || isPlaceholder(src) {
		lazy := strings.TrimSpace(img.AttrOr("data-src", ""))
		if lazy == "" || isPlaceholder(lazy) {
			return ""
		}
		return d.ResolveURL(lazy)
	}
	return d.ResolveURL(src)
}

func itemError(pageNumber, order int, field string, err error) error {
	var parseErr *types.ParseError
	if errors.As(err, &parseErr) {
		parseErr.Field = field
	}
	return fmt.Errorf("page %d item %d: %w", pageNumber, order, err)
}

func isPlaceholder(src string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(src)), "data:")
}
