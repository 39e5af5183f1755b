// Command inspect opens the discount listing, extracts the first visible
// page and prints what the selectors find. Use it to check selector
// overrides against the live site before a full run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"discount-extractor/adapters"
	"discount-extractor/config"
	"discount-extractor/internal/types"
	"discount-extractor/report"
	"discount-extractor/utils"
)

func main() {
	_ = godotenv.Load()

	var (
		selectorsFile = flag.String("selectors", "", "YAML file overriding the default selectors")
		headless      = flag.Bool("headless", false, "Run Chrome without a window")
		dump          = flag.String("dump", "", "Write the rendered page HTML to this file")
		timeout       = flag.Duration("timeout", 30*time.Second, "Timeout for every single browser step")
	)
	flag.Parse()

	logger, err := utils.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"), true, os.Getenv("LOG_TIMEZONE"))
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	cfg.Headless = *headless
	cfg.Timeout = *timeout
	if *selectorsFile != "" {
		if cfg.Selectors, err = config.LoadSelectors(*selectorsFile, cfg.Selectors); err != nil {
			logger.Fatalf("Invalid configuration: %v", err)
		}
	}

	if err := inspect(context.Background(), cfg, logger, *dump); err != nil {
		logger.Fatalf("Inspection failed: %v", err)
	}
}

func inspect(ctx context.Context, cfg *types.Config, logger *logrus.Logger, dump string) error {
	sel := cfg.Selectors

	session, err := utils.NewBrowserSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if cfg.SessionToken != "" {
		if err := session.SetCookie(ctx, cfg.CookieName, cfg.SessionToken, cfg.CookieDomain); err != nil {
			return err
		}
	}
	if err := session.Navigate(ctx, cfg.TargetURL); err != nil {
		return err
	}
	if err := session.WaitForElement(ctx, sel.DiscountFilter); err != nil {
		return err
	}
	if err := session.Click(ctx, sel.DiscountFilter); err != nil {
		return err
	}
	if err := session.WaitForElement(ctx, sel.Grid); err != nil {
		return err
	}

	address, err := session.CurrentURL(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Address: %s\n", address)

	for _, s := range []string{sel.Item, sel.LoadedImage, sel.LastPage, sel.PreviousPage} {
		if s == "" {
			continue
		}
		n, err := session.Count(ctx, s)
		if err != nil {
			return err
		}
		fmt.Printf("%-70s %d\n", s, n)
	}

	if dump != "" {
		html, err := session.PageContent(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dump, []byte(html), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dump, err)
		}
		fmt.Printf("Page HTML written to %s\n", dump)
	}

	snapshots, err := session.Snapshot(ctx, sel.Item)
	if err != nil {
		return err
	}

	adapter, err := adapters.NewDiscountAdapter(sel, cfg.TargetURL, logger)
	if err != nil {
		return err
	}

	// Parse cards one at a time so every bad card is reported.
	var records []types.DiscountRecord
	for i, html := range snapshots {
		parsed, err := adapter.Extract([]string{html}, 1)
		if err != nil {
			fmt.Printf("card %d: %v\n", i+1, err)
			continue
		}
		parsed[0].Page.Order = i + 1
		records = append(records, parsed[0])
	}

	fmt.Printf("Cards: %d, parsed: %d\n", len(snapshots), len(records))
	report.Build(records, cfg.Currency).Summary(os.Stdout, 0)
	return nil
}
