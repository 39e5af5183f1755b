package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"discount-extractor/internal/types"
)

const (
	windowWidth  = 1920
	windowHeight = 1080
)

// BrowserSession drives a single Chrome tab. Every call is bounded by the
// configured step timeout and by the caller's context.
type BrowserSession struct {
	config *types.Config
	logger types.Logger

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewBrowserSession launches Chrome and opens an empty tab
func NewBrowserSession(ctx context.Context, config *types.Config, logger types.Logger) (*BrowserSession, error) {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(windowWidth, windowHeight),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debugf))

	b := &BrowserSession{
		config:      config,
		logger:      logger,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// The first Run allocates the browser; it must not carry the step timeout.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(windowWidth, windowHeight)); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return b, nil
}

// run executes actions on the tab with the step timeout applied
func (b *BrowserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// SetCookie installs a cookie for the given domain
func (b *BrowserSession) SetCookie(ctx context.Context, name, value, domain string) error {
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).
			WithDomain(domain).
			WithPath("/").
			Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to set cookie %s: %w", name, err)
	}
	return nil
}

// Navigate loads url and waits until the document body is ready
func (b *BrowserSession) Navigate(ctx context.Context, url string) error {
	err := b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return &types.NavigationError{Op: "navigate", URL: url, Err: err}
	}

	b.logger.Debugf("Navigated to %s", url)
	return nil
}

// WaitForElement waits for an element matching selector to be present
func (b *BrowserSession) WaitForElement(ctx context.Context, selector string) error {
	if err := b.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return &types.SelectorTimeoutError{Selector: selector, Timeout: b.config.Timeout, Err: err}
	}
	return nil
}

// Click clicks the first visible element matching selector
func (b *BrowserSession) Click(ctx context.Context, selector string) error {
	err := b.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.SelectorTimeoutError{Selector: selector, Timeout: b.config.Timeout, Err: err}
	}
	if err != nil {
		return &types.NavigationError{Op: "click " + selector, Err: err}
	}
	return nil
}

// CurrentURL returns the address of the tab
func (b *BrowserSession) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := b.run(ctx, chromedp.Location(&location)); err != nil {
		return "", &types.NavigationError{Op: "read address", Err: err}
	}
	return location, nil
}

// Count returns how many elements currently match selector
func (b *BrowserSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf("document.querySelectorAll(%s).length", strconv.Quote(selector))
	if err := b.run(ctx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", selector, err)
	}
	return n, nil
}

// Snapshot returns the outer HTML of every element matching selector, in
// document order.
func (b *BrowserSession) Snapshot(ctx context.Context, selector string) ([]string, error) {
	var items []string
	script := fmt.Sprintf("Array.from(document.querySelectorAll(%s), el => el.outerHTML)", strconv.Quote(selector))
	if err := b.run(ctx, chromedp.Evaluate(script, &items)); err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", selector, err)
	}

	b.logger.Debugf("Captured %d elements for %s", len(items), selector)
	return items, nil
}

// PageContent retrieves the HTML content of the current page
func (b *BrowserSession) PageContent(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

// Close shuts the tab and the browser process
func (b *BrowserSession) Close() {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}
