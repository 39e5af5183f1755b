package types

import (
	"time"
)

// PagePosition locates a record in the listing it was extracted from.
type PagePosition struct {
	Number int `json:"number"`
	Order  int `json:"order"`
}

// DiscountRecord represents one discounted product card
type DiscountRecord struct {
	Page          PagePosition `json:"page"`
	Title         string       `json:"title"`
	ImageURL      string       `json:"img,omitempty"`
	Link          string       `json:"link"`
	BasePrice     Amount       `json:"basePrice"`
	DiscountPrice Amount       `json:"discountPrice"`
	DiscountDiff  Amount       `json:"discountDiff"`
}

// HasImage reports whether an image URL could be resolved for the record.
func (r DiscountRecord) HasImage() bool {
	return r.ImageURL != ""
}

// Selectors holds the CSS selectors describing the discount listing DOM.
// Item-level selectors are evaluated against a single card snapshot.
type Selectors struct {
	DiscountFilter string `yaml:"discount_filter"`
	LastPage       string `yaml:"last_page"`
	PreviousPage   string `yaml:"previous_page"`
	Grid           string `yaml:"grid"`
	LoadedImage    string `yaml:"loaded_image"`
	Item           string `yaml:"item"`
	Title          string `yaml:"title"`
	Link           string `yaml:"link"`
	Image          string `yaml:"image"`
	BasePrice      string `yaml:"base_price"`
	SalePrice      string `yaml:"sale_price"`
}

// DefaultSelectors returns the selectors for the supported discount listing
func DefaultSelectors() Selectors {
	return Selectors{
		DiscountFilter: "#header-money-discounts",
		LastPage:       "#pagination-button-last",
		PreviousPage:   "#pagination-button-previous",
		Grid:           ".mdc-layout-grid__inner.product-cards.list.ng-star-inserted",
		LoadedImage:    "img.product-image.ng-star-inserted.loaded",
		Item:           "mat-card",
		Title:          "mat-card > :nth-child(3)",
		Link:           "mat-card > :nth-child(3) a[href]",
		Image:          "mat-card > :nth-child(3) img",
		BasePrice:      ".single-price-amount",
		SalePrice:      "#sale-price",
	}
}

// Config holds the configuration for a discount extraction run
type Config struct {
	TargetURL    string
	SessionToken string
	CookieName   string
	CookieDomain string

	Headless      bool
	Timeout       time.Duration // budget for every single browser step
	SettleTimeout time.Duration
	PollInterval  time.Duration
	StableRounds  int
	PageRetries   int
	PageParam     string

	RequestDelay time.Duration
	MaxRetries   int
	UserAgent    string

	Currency  string
	OutputDir string
	Selectors Selectors
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CookieName:    "SESSION",
		Headless:      true,
		Timeout:       30 * time.Second,
		SettleTimeout: 15 * time.Second,
		PollInterval:  250 * time.Millisecond,
		StableRounds:  2,
		PageRetries:   0,
		RequestDelay:  1 * time.Second,
		MaxRetries:    3,
		UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Currency:      "TL",
		OutputDir:     ".",
		Selectors:     DefaultSelectors(),
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
