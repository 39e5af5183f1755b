package extractor

import (
	"context"
	"fmt"

	"discount-extractor/internal/types"
)

const listingURL = "https://shop.example/indirimli-urunler"

// fakeSite scripts a paginated discount listing behind the Session interface.
type fakeSite struct {
	selectors types.Selectors
	pages     map[int][]string
	total     int

	page     int
	filtered bool
	address  string

	// landing is the page listed right after the discount filter is applied.
	landing int
	// stalePolls keeps the previous page's cards on screen for this many
	// snapshots after a page change.
	stalePolls int
	shown      int
	staleLeft  int

	// addressFor overrides the address shown for a page.
	addressFor func(page int) string
	// addressLag delays address updates by this many CurrentURL calls.
	addressLag     int
	pendingAddress string
	pendingCalls   int

	// growth lists item counts reported on successive polls of a page.
	growth     map[int][]int
	unstable   bool
	countCalls map[int]int

	failWait map[string]int

	cookies     map[string]string
	navigations []string
	snapshotted []int
	clicks      []string
}

func newFakeSite(selectors types.Selectors, pages map[int][]string) *fakeSite {
	return &fakeSite{
		selectors:  selectors,
		pages:      pages,
		total:      len(pages),
		growth:     map[int][]int{},
		countCalls: map[int]int{},
		failWait:   map[string]int{},
		cookies:    map[string]string{},
	}
}

func (f *fakeSite) pageAddress(page int) string {
	if f.addressFor != nil {
		return f.addressFor(page)
	}
	return fmt.Sprintf("%s?sayfa=%d&sirala=indirim-orani", listingURL, page)
}

func (f *fakeSite) moveTo(page int) {
	if f.stalePolls > 0 && f.page > 0 {
		f.shown = f.page
		f.staleLeft = f.stalePolls
	}
	f.page = page
	next := f.pageAddress(page)
	if f.addressLag > 0 {
		f.pendingAddress = next
		f.pendingCalls = f.addressLag
		return
	}
	f.address = next
}

// displayed is the page whose cards are currently rendered.
func (f *fakeSite) displayed() int {
	if f.staleLeft > 0 {
		return f.shown
	}
	return f.page
}

func (f *fakeSite) SetCookie(ctx context.Context, name, value, domain string) error {
	f.cookies[name+"@"+domain] = value
	return nil
}

func (f *fakeSite) Navigate(ctx context.Context, url string) error {
	f.navigations = append(f.navigations, url)
	if url == listingURL {
		f.page = 0
		f.filtered = false
	}
	f.staleLeft = 0
	f.address = url
	return nil
}

func (f *fakeSite) WaitForElement(ctx context.Context, selector string) error {
	if f.failWait[selector] > 0 {
		f.failWait[selector]--
		return &types.SelectorTimeoutError{Selector: selector, Err: context.DeadlineExceeded}
	}
	return nil
}

func (f *fakeSite) Click(ctx context.Context, selector string) error {
	f.clicks = append(f.clicks, selector)
	switch selector {
	case f.selectors.DiscountFilter:
		f.filtered = true
		f.page = f.landing
	case f.selectors.LastPage:
		if !f.filtered {
			return fmt.Errorf("pagination not rendered")
		}
		f.moveTo(f.total)
	case f.selectors.PreviousPage:
		if f.page <= 1 {
			return fmt.Errorf("no previous page")
		}
		f.moveTo(f.page - 1)
	default:
		return fmt.Errorf("unknown selector %s", selector)
	}
	return nil
}

func (f *fakeSite) CurrentURL(ctx context.Context) (string, error) {
	if f.pendingCalls > 0 {
		f.pendingCalls--
		if f.pendingCalls == 0 {
			f.address = f.pendingAddress
		}
	}
	return f.address, nil
}

func (f *fakeSite) Count(ctx context.Context, selector string) (int, error) {
	switch selector {
	case f.selectors.Item, f.selectors.LoadedImage:
	default:
		return 0, nil
	}

	if selector == f.selectors.Item {
		f.countCalls[f.page]++
	}
	call := f.countCalls[f.page]

	if f.unstable {
		return call, nil
	}
	if steps := f.growth[f.page]; call <= len(steps) {
		return steps[call-1], nil
	}
	return len(f.pages[f.displayed()]), nil
}

func (f *fakeSite) Snapshot(ctx context.Context, selector string) ([]string, error) {
	if selector != f.selectors.Item {
		return nil, fmt.Errorf("unexpected snapshot selector %s", selector)
	}
	f.snapshotted = append(f.snapshotted, f.page)
	shown := f.displayed()
	if f.staleLeft > 0 {
		f.staleLeft--
	}
	return f.pages[shown], nil
}
