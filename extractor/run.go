package extractor

import (
	"context"

	"discount-extractor/internal/types"
	"discount-extractor/utils"
)

// Run launches a browser, walks the whole listing and closes the browser.
func Run(ctx context.Context, config *types.Config, logger types.Logger, metrics *Metrics) (*Result, error) {
	logger.Info("Starting the browser...")
	session, err := utils.NewBrowserSession(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		logger.Info("Closing the browser...")
		session.Close()
	}()

	e, err := NewDiscountExtractor(config, session, logger, metrics)
	if err != nil {
		return nil, err
	}
	return e.ExtractAll(ctx)
}
