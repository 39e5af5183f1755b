package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"discount-extractor/internal/types"
)

// Environment variable names read at startup.
const (
	EnvTargetURL    = "URL"
	EnvSession      = "SESSION"
	EnvCookieName   = "SESSION_COOKIE"
	EnvCookieDomain = "SESSION_DOMAIN"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv builds a Config from defaults plus the environment. It is called
// once in main; nothing below main reads the environment.
func FromEnv(lookup LookupFunc) (*types.Config, error) {
	config := types.DefaultConfig()

	target, _ := lookup(EnvTargetURL)
	config.TargetURL = strings.TrimSpace(target)
	if config.TargetURL == "" {
		return nil, &types.StartupConfigError{Field: EnvTargetURL, Err: errors.New("target URL is not set")}
	}

	if session, ok := lookup(EnvSession); ok {
		config.SessionToken = strings.TrimSpace(session)
	}
	if name, ok := lookup(EnvCookieName); ok && strings.TrimSpace(name) != "" {
		config.CookieName = strings.TrimSpace(name)
	}
	if domain, ok := lookup(EnvCookieDomain); ok && strings.TrimSpace(domain) != "" {
		config.CookieDomain = strings.TrimSpace(domain)
	}

	if err := Validate(config); err != nil {
		return nil, err
	}
	if config.CookieDomain == "" {
		config.CookieDomain = CookieDomainFor(config.TargetURL)
	}

	return config, nil
}

// Validate ensures all configuration values are coherent.
func Validate(c *types.Config) error {
	parsed, err := url.Parse(c.TargetURL)
	if err != nil {
		return &types.StartupConfigError{Field: EnvTargetURL, Err: fmt.Errorf("invalid target URL: %w", err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &types.StartupConfigError{Field: EnvTargetURL, Err: fmt.Errorf("target URL must be http(s), got %q", c.TargetURL)}
	}
	if parsed.Host == "" {
		return &types.StartupConfigError{Field: EnvTargetURL, Err: errors.New("target URL must include a host")}
	}

	switch {
	case c.Timeout <= 0:
		return &types.StartupConfigError{Field: "timeout", Err: errors.New("timeout must be positive")}
	case c.SettleTimeout <= 0:
		return &types.StartupConfigError{Field: "settle-timeout", Err: errors.New("settle timeout must be positive")}
	case c.PollInterval <= 0:
		return &types.StartupConfigError{Field: "poll", Err: errors.New("poll interval must be positive")}
	case c.StableRounds < 1:
		return &types.StartupConfigError{Field: "stable-rounds", Err: errors.New("stable rounds must be at least 1")}
	case c.PageRetries < 0:
		return &types.StartupConfigError{Field: "page-retries", Err: errors.New("page retries cannot be negative")}
	case c.MaxRetries < 0:
		return &types.StartupConfigError{Field: "retries", Err: errors.New("retries cannot be negative")}
	case c.RequestDelay <= 0:
		return &types.StartupConfigError{Field: "delay", Err: errors.New("request delay must be positive")}
	}

	return validateSelectors(c.Selectors)
}

// CookieDomainFor derives the session cookie domain from the target host,
// e.g. https://www.shop.example/x -> .shop.example
func CookieDomainFor(target string) string {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return "." + strings.TrimPrefix(parsed.Hostname(), "www.")
}

// LoadSelectors overlays the non-empty selectors found in a YAML file on base.
func LoadSelectors(path string, base types.Selectors) (types.Selectors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &types.StartupConfigError{Field: "selectors", Err: err}
	}

	var override types.Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, &types.StartupConfigError{Field: "selectors", Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	merged := base
	overlay(&merged.DiscountFilter, override.DiscountFilter)
	overlay(&merged.LastPage, override.LastPage)
	overlay(&merged.PreviousPage, override.PreviousPage)
	overlay(&merged.Grid, override.Grid)
	overlay(&merged.LoadedImage, override.LoadedImage)
	overlay(&merged.Item, override.Item)
	overlay(&merged.Title, override.Title)
	overlay(&merged.Link, override.Link)
	overlay(&merged.Image, override.Image)
	overlay(&merged.BasePrice, override.BasePrice)
	overlay(&merged.SalePrice, override.SalePrice)

	return merged, nil
}

func overlay(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func validateSelectors(s types.Selectors) error {
	required := map[string]string{
		"discount_filter": s.DiscountFilter,
		"last_page":       s.LastPage,
		"previous_page":   s.PreviousPage,
		"grid":            s.Grid,
		"item":            s.Item,
		"title":           s.Title,
		"link":            s.Link,
		"base_price":      s.BasePrice,
		"sale_price":      s.SalePrice,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return &types.StartupConfigError{Field: "selectors." + name, Err: errors.New("selector cannot be empty")}
		}
	}
	return nil
}
