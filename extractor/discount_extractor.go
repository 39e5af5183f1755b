package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"discount-extractor/adapters"
	"discount-extractor/internal/types"
)

// Session is the browser capability set the extractor drives.
type Session interface {
	SetCookie(ctx context.Context, name, value, domain string) error
	Navigate(ctx context.Context, url string) error
	WaitForElement(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	CurrentURL(ctx context.Context) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	Snapshot(ctx context.Context, selector string) ([]string, error)
}

// State is the traversal state of a DiscountExtractor.
type State int

const (
	StateInit State = iota
	StateTraversing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateTraversing:
		return "traversing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of a complete traversal.
type Result struct {
	Records      []types.DiscountRecord
	PagesVisited []int
	TotalPages   int
	Duration     time.Duration
}

// DiscountExtractor walks the discount listing from its last page back to
// the first, one page at a time. An extractor runs once.
type DiscountExtractor struct {
	config  *types.Config
	session Session
	adapter *adapters.DiscountAdapter
	logger  types.Logger
	metrics *Metrics

	state       State
	currentPage int
	totalPages  int
	records     []types.DiscountRecord
	visited     []int

	// staleCards fingerprints the cards shown before the last navigation;
	// a page is not ready while it still shows them.
	staleCards string
}

// NewDiscountExtractor creates a new extractor. metrics may be nil.
func NewDiscountExtractor(config *types.Config, session Session, logger types.Logger, metrics *Metrics) (*DiscountExtractor, error) {
	adapter, err := adapters.NewDiscountAdapter(config.Selectors, config.TargetURL, logger)
	if err != nil {
		return nil, &types.StartupConfigError{Field: "URL", Err: err}
	}

	return &DiscountExtractor{
		config:  config,
		session: session,
		adapter: adapter,
		logger:  logger,
		metrics: metrics,
		state:   StateInit,
	}, nil
}

// State returns the current traversal state
func (e *DiscountExtractor) State() State {
	return e.state
}

// ExtractAll runs the whole traversal. On failure no records are returned;
// the error is a *types.PartialFailureError describing how far it got.
func (e *DiscountExtractor) ExtractAll(ctx context.Context) (*Result, error) {
	if e.state != StateInit {
		return nil, errors.New("extractor has already run")
	}
	startTime := time.Now()

	if err := e.open(ctx); err != nil {
		return nil, e.fail(err)
	}
	e.state = StateTraversing

	for e.currentPage > 0 {
		if err := e.visitPage(ctx); err != nil {
			return nil, e.fail(err)
		}

		if e.currentPage > 1 {
			if err := e.previousPage(ctx); err != nil {
				return nil, e.fail(err)
			}
		}
		e.currentPage--
	}
	e.state = StateDone

	result := &Result{
		Records:      e.records,
		PagesVisited: e.visited,
		TotalPages:   e.totalPages,
		Duration:     time.Since(startTime),
	}
	e.logger.Infof("Extracted %d discounts from %d pages in %v", len(result.Records), len(result.PagesVisited), result.Duration)
	return result, nil
}

func (e *DiscountExtractor) fail(err error) error {
	e.state = StateDone
	e.metrics.ObserveError(err)

	partial := &types.PartialFailureError{
		PagesCompleted:   len(e.visited),
		TotalPages:       e.totalPages,
		RecordsCollected: len(e.records),
		Err:              err,
	}
	e.records = nil
	return partial
}

// open brings the browser to the last page of the discount listing and
// discovers the page count from its address.
func (e *DiscountExtractor) open(ctx context.Context) error {
	sel := e.config.Selectors

	if e.config.SessionToken != "" {
		e.logger.Info("Setting the cookies...")
		if err := e.session.SetCookie(ctx, e.config.CookieName, e.config.SessionToken, e.config.CookieDomain); err != nil {
			return err
		}
	}

	e.logger.Info("Navigating to the page...")
	if err := e.session.Navigate(ctx, e.config.TargetURL); err != nil {
		return err
	}

	e.logger.Info("Waiting for the page to load the discounts button...")
	if err := e.session.WaitForElement(ctx, sel.DiscountFilter); err != nil {
		return err
	}
	e.logger.Info("Clicking the discounts button...")
	if err := e.session.Click(ctx, sel.DiscountFilter); err != nil {
		return err
	}

	e.logger.Info("Waiting for the page to load the discounts pages...")
	if err := e.session.WaitForElement(ctx, sel.LastPage); err != nil {
		return err
	}
	before, err := e.session.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if e.staleCards, err = e.visibleCards(ctx); err != nil {
		return err
	}

	e.logger.Info("Clicking the last page button...")
	if err := e.session.Click(ctx, sel.LastPage); err != nil {
		return err
	}
	address, err := e.waitForAddress(ctx, "last page", func(address string) bool {
		return address != before
	})
	if err != nil {
		return err
	}

	total, err := e.discoverPageCount(address)
	if err != nil {
		return err
	}

	// With a single page the cards already shown are the ones to extract.
	if total == 1 {
		e.staleCards = ""
	}

	e.totalPages = total
	e.currentPage = total
	e.metrics.SetTotalPages(total)
	e.logger.Infof("Found %d discount pages", total)
	return nil
}

// visitPage waits for the current page to render and extracts its items.
func (e *DiscountExtractor) visitPage(ctx context.Context) error {
	page := e.currentPage
	pageStart := time.Now()

	var snapshots []string
	var err error
	for attempt := 0; attempt <= e.config.PageRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warnf("Page %d did not become ready (%v), reloading (retry %d/%d)", page, err, attempt, e.config.PageRetries)
			e.metrics.IncRetry()
			if reloadErr := e.reload(ctx); reloadErr != nil {
				return reloadErr
			}
		}

		snapshots, err = e.waitForItems(ctx, page)
		var timeout *types.SelectorTimeoutError
		if err == nil || !errors.As(err, &timeout) {
			break
		}
	}
	if err != nil {
		return err
	}

	e.logger.Infof("Getting the discounts list from %d page...", page)
	records, err := e.adapter.Extract(snapshots, page)
	if err != nil {
		return err
	}

	e.records = append(e.records, records...)
	e.visited = append(e.visited, page)
	e.staleCards = e.adapter.Fingerprint(snapshots)
	e.metrics.ObservePage(len(records), time.Since(pageStart))
	e.logger.Debugf("Page %d yielded %d discounts (%d total)", page, len(records), len(e.records))
	return nil
}

func (e *DiscountExtractor) waitForItems(ctx context.Context, page int) ([]string, error) {
	sel := e.config.Selectors

	e.logger.Infof("Waiting for the %d page to load the discounts list...", page)
	if err := e.session.WaitForElement(ctx, sel.Grid); err != nil {
		return nil, err
	}
	if sel.LoadedImage != "" {
		if err := e.session.WaitForElement(ctx, sel.LoadedImage); err != nil {
			return nil, err
		}
	}

	// The address changes before the listing re-renders, so the previous
	// page's cards can still be on screen here.
	deadline := time.Now().Add(e.config.SettleTimeout)
	for {
		if err := e.waitUntilStable(ctx); err != nil {
			return nil, err
		}
		snapshots, err := e.session.Snapshot(ctx, sel.Item)
		if err != nil {
			return nil, err
		}
		if e.staleCards == "" || e.adapter.Fingerprint(snapshots) != e.staleCards {
			return snapshots, nil
		}

		if time.Now().After(deadline) {
			return nil, &types.SelectorTimeoutError{
				Selector: sel.Item,
				Timeout:  e.config.SettleTimeout,
				Err:      fmt.Errorf("page %d still shows the previous page's cards", page),
			}
		}
		e.logger.Debugf("Page %d still shows the previous page's cards, waiting", page)
		if err := sleep(ctx, e.config.PollInterval); err != nil {
			return nil, err
		}
	}
}

// visibleCards fingerprints the cards currently rendered, if any.
func (e *DiscountExtractor) visibleCards(ctx context.Context) (string, error) {
	n, err := e.session.Count(ctx, e.config.Selectors.Item)
	if err != nil || n == 0 {
		return "", err
	}
	snapshots, err := e.session.Snapshot(ctx, e.config.Selectors.Item)
	if err != nil {
		return "", err
	}
	return e.adapter.Fingerprint(snapshots), nil
}

// waitUntilStable polls the item and loaded-image counts until both have
// stayed unchanged for StableRounds consecutive polls.
func (e *DiscountExtractor) waitUntilStable(ctx context.Context) error {
	sel := e.config.Selectors
	deadline := time.Now().Add(e.config.SettleTimeout)

	prevItems, prevImages := -1, -1
	stable := 0
	for {
		items, err := e.session.Count(ctx, sel.Item)
		if err != nil {
			return err
		}
		images := 0
		if sel.LoadedImage != "" {
			if images, err = e.session.Count(ctx, sel.LoadedImage); err != nil {
				return err
			}
		}

		if items > 0 && items == prevItems && images == prevImages {
			stable++
		} else {
			stable = 0
		}
		if stable >= e.config.StableRounds {
			e.logger.Debugf("Listing settled with %d items and %d loaded images", items, images)
			return nil
		}
		prevItems, prevImages = items, images

		if time.Now().After(deadline) {
			return &types.SelectorTimeoutError{
				Selector: sel.Item,
				Timeout:  e.config.SettleTimeout,
				Err:      fmt.Errorf("item count did not settle (last %d items, %d images)", items, images),
			}
		}
		if err := sleep(ctx, e.config.PollInterval); err != nil {
			return err
		}
	}
}

func (e *DiscountExtractor) previousPage(ctx context.Context) error {
	want := e.currentPage - 1

	e.logger.Info("Routing to the previous page...")
	if err := e.session.Click(ctx, e.config.Selectors.PreviousPage); err != nil {
		return err
	}

	_, err := e.waitForAddress(ctx, "previous page", func(address string) bool {
		n, ok := e.pageNumber(address)
		if !ok {
			return want == 1
		}
		return n == want
	})
	return err
}

func (e *DiscountExtractor) reload(ctx context.Context) error {
	address, err := e.session.CurrentURL(ctx)
	if err != nil {
		return err
	}
	return e.session.Navigate(ctx, address)
}

// waitForAddress polls the tab address until ready accepts it or the step
// timeout passes.
func (e *DiscountExtractor) waitForAddress(ctx context.Context, op string, ready func(string) bool) (string, error) {
	deadline := time.Now().Add(e.config.Timeout)
	for {
		address, err := e.session.CurrentURL(ctx)
		if err != nil {
			return "", err
		}
		if ready(address) {
			return address, nil
		}
		if time.Now().After(deadline) {
			return address, &types.NavigationError{
				Op:  op,
				URL: address,
				Err: fmt.Errorf("navigation did not settle within %v", e.config.Timeout),
			}
		}
		if err := sleep(ctx, e.config.PollInterval); err != nil {
			return address, err
		}
	}
}

// discoverPageCount reads the page number from the last page's address.
func (e *DiscountExtractor) discoverPageCount(address string) (int, error) {
	raw, err := e.pageValue(address)
	if err != nil {
		return 0, &types.NavigationError{Op: "discover page count", URL: address, Err: err}
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &types.NavigationError{
			Op:  "discover page count",
			URL: address,
			Err: fmt.Errorf("page parameter %q is not a positive number", raw),
		}
	}
	return n, nil
}

// pageNumber reports the page number carried by address, if any.
func (e *DiscountExtractor) pageNumber(address string) (int, bool) {
	raw, err := e.pageValue(address)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// pageValue returns the configured page parameter, or the first query
// parameter when none is configured.
func (e *DiscountExtractor) pageValue(address string) (string, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}

	if e.config.PageParam != "" {
		values := parsed.Query()
		if !values.Has(e.config.PageParam) {
			return "", fmt.Errorf("page parameter %q missing", e.config.PageParam)
		}
		return values.Get(e.config.PageParam), nil
	}

	if parsed.RawQuery == "" {
		return "", errors.New("address has no query parameters")
	}
	first, _, _ := strings.Cut(parsed.RawQuery, "&")
	_, value, found := strings.Cut(first, "=")
	if !found {
		return "", fmt.Errorf("query parameter %q has no value", first)
	}
	return url.QueryUnescape(value)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
