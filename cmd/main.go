package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"discount-extractor/config"
	"discount-extractor/extractor"
	"discount-extractor/internal/types"
	"discount-extractor/publisher"
	"discount-extractor/report"
	"discount-extractor/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	defaults := types.DefaultConfig()

	// Parse command line flags
	var (
		outDir        = flag.String("out-dir", defaults.OutputDir, "Directory for data.json, data.md and data.html")
		writeHTML     = flag.Bool("html", false, "Also render the markdown report to data.html")
		timeout       = flag.Duration("timeout", defaults.Timeout, "Timeout for every single browser step")
		settleTimeout = flag.Duration("settle-timeout", defaults.SettleTimeout, "Maximum time to wait for a page's items to settle")
		poll          = flag.Duration("poll", defaults.PollInterval, "Polling interval for readiness and navigation checks")
		pageRetries   = flag.Int("page-retries", defaults.PageRetries, "Reloads allowed when a page does not become ready")
		headless      = flag.Bool("headless", defaults.Headless, "Run Chrome without a window")
		selectorsFile = flag.String("selectors", "", "YAML file overriding the default selectors")
		pageParam     = flag.String("page-param", "", "Query parameter carrying the page number (default: first parameter)")
		currency      = flag.String("currency", defaults.Currency, "Currency label used in the markdown report")
		preflight     = flag.Bool("preflight", false, "Check the target URL over HTTP before starting the browser")
		summary       = flag.Int("summary", 10, "Print the top N discounts after the run (0 disables)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Setup logging
	logger, err := utils.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"), *verbose, os.Getenv("LOG_TIMEZONE"))
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	cfg.OutputDir = *outDir
	cfg.Timeout = *timeout
	cfg.SettleTimeout = *settleTimeout
	cfg.PollInterval = *poll
	cfg.PageRetries = *pageRetries
	cfg.Headless = *headless
	cfg.PageParam = *pageParam
	cfg.Currency = *currency
	if *selectorsFile != "" {
		if cfg.Selectors, err = config.LoadSelectors(*selectorsFile, cfg.Selectors); err != nil {
			logger.Fatalf("Invalid configuration: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *preflight {
		client := utils.NewHTTPClient(cfg, logger)
		err := client.Check(ctx, cfg.TargetURL)
		client.Close()
		if err != nil {
			logger.Fatalf("Target is not reachable: %v", err)
		}
	}

	result, err := extractor.Run(ctx, cfg, logger, extractor.NewMetrics())
	if err != nil {
		logger.Fatalf("Extraction failed, nothing was written: %v", err)
	}

	r := report.Build(result.Records, cfg.Currency)

	logger.Info("Writing the data to the files...")
	files, err := r.Write(cfg.OutputDir, *writeHTML)
	if err != nil {
		logger.Fatalf("Failed to write output: %v", err)
	}
	logger.Infof("Results written to: %s, %s", files.JSON, files.Markdown)
	if files.HTML != "" {
		logger.Infof("HTML report written to: %s", files.HTML)
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		p := publisher.NewRedisPublisher(addr, os.Getenv("REDIS_CHANNEL"))
		if err := publish(ctx, p, r); err != nil {
			logger.Warnf("Failed to publish report: %v", err)
		} else {
			logger.Infof("Report published to %s", p.Channel())
		}
		p.Close()
	}

	if *summary > 0 {
		r.Summary(os.Stdout, *summary)
	}

	// Print summary
	logger.Infof("Extraction completed in %v", result.Duration.Round(time.Millisecond))
	logger.Infof("Total pages visited: %d", len(result.PagesVisited))
	logger.Infof("Total discounts found: %d", len(result.Records))
}

// publish sends the page-ordered JSON. The files are already on disk, so
// the caller only logs a failure.
func publish(ctx context.Context, p publisher.Publisher, r *report.Report) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	return p.Publish(ctx, data)
}
