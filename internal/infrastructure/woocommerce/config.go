package woocommerce

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopsync/backend/internal/domain/shared"
)

const (
	// APIPath is the REST prefix appended to a storefront root URL
	APIPath = "/wp-json/wc/v3"

	DefaultTimeout     = 60 * time.Second
	DefaultPerPage     = 100
	DefaultPageCeiling = 500
	// maxResponseSize bounds the body read from a storefront (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// Errors for site configuration
var (
	ErrMissingCredentials = errors.New("woocommerce: site credentials are required")
	ErrInvalidBaseURL     = errors.New("woocommerce: invalid base url")
	ErrInvalidSiteCode    = errors.New("woocommerce: invalid site code")
)

// SiteConfig binds a client to one storefront
type SiteConfig struct {
	// Code is the site code (com, uk, de, fr)
	Code shared.SiteCode
	// BaseURL is the storefront root, e.g. https://shop.example.co.uk
	BaseURL string
	// ConsumerKey and ConsumerSecret are the REST API key pair
	ConsumerKey    string
	ConsumerSecret string
	// Timeout bounds every single HTTP attempt
	Timeout time.Duration
	// PerPage is the default page size of listings
	PerPage int
	// PageCeiling stops pagination after this many pages
	PageCeiling int
	// RequestsPerSecond paces outbound calls; zero disables pacing
	RequestsPerSecond float64
	// Burst is the limiter burst size
	Burst int
}

// Validate checks the configuration and fills defaults.
// Missing credentials fail here so that a misconfigured site never reaches a call.
func (c *SiteConfig) Validate() error {
	if !c.Code.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSiteCode, c.Code)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: site %s has no base url", ErrMissingCredentials, c.Code)
	}
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return fmt.Errorf("%w: site %s has no consumer key", ErrMissingCredentials, c.Code)
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("%w: site %s has no consumer secret", ErrMissingCredentials, c.Code)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PerPage <= 0 || c.PerPage > 100 {
		c.PerPage = DefaultPerPage
	}
	if c.PageCeiling <= 0 {
		c.PageCeiling = DefaultPageCeiling
	}
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}

// APIBase returns the REST root of the site
func (c *SiteConfig) APIBase() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if strings.Contains(base, "/wp-json/") {
		return base
	}
	return base + APIPath
}
