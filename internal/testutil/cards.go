// Package testutil builds product card snapshots shaped like the rendered
// discount listing.
package testutil

import (
	"fmt"
	"html"
)

// Card describes one product card of a listing page.
type Card struct {
	Title     string
	Link      string
	Src       string
	LazySrc   string
	NoImage   bool
	BasePrice string
	SalePrice string
}

// HTML renders the card the way the listing does: two decorative children,
// the title block (image link + name) and the price block.
func (c Card) HTML() string {
	image := ""
	if !c.NoImage {
		lazy := ""
		if c.LazySrc != "" {
			lazy = fmt.Sprintf(` data-src="%s"`, html.EscapeString(c.LazySrc))
		}
		image = fmt.Sprintf(`<img class="product-image ng-star-inserted loaded" src="%s"%s alt="">`,
			html.EscapeString(c.Src), lazy)
	}

	sale := ""
	if c.SalePrice != "" {
		sale = fmt.Sprintf(`<span id="sale-price" class="sale-price">%s<span _ngcontent-ng-c627854318=""> TL</span></span>`,
			html.EscapeString(c.SalePrice))
	}

	return fmt.Sprintf(`<mat-card class="mat-card product-card">
  <div class="badges"></div>
  <div class="favourite"></div>
  <div class="product-title">
    <div class="image-container"><a class="product-link" href="%s">%s</a></div>
    <span class="product-name">%s</span>
  </div>
  <div class="price-container">
    <span class="single-price-amount">%s TL</span>
    %s
  </div>
</mat-card>`, html.EscapeString(c.Link), image, html.EscapeString(c.Title), html.EscapeString(c.BasePrice), sale)
}

// Snapshots renders every card.
func Snapshots(cards ...Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.HTML())
	}
	return out
}
