package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that urlStr is an absolute http(s) URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ValidateProxy accepts the proxy schemes the HTTP transport can dial
func ValidateProxy(proxyStr string) error {
	parsed, err := url.Parse(proxyStr)
	if err != nil {
		return fmt.Errorf("invalid proxy: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("invalid proxy scheme: must be http, https or socks5, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid proxy: missing host")
	}

	return nil
}

// CookieDomain returns the host cookies for urlStr are scoped to, without port
func CookieDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
