package utils

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateURL checks that a destination URL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("URL must use http or https scheme")
	}

	if parsed.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// ValidateSlug checks slug length and character set.
func ValidateSlug(slug string, minLength, maxLength int) error {
	if len(slug) < minLength {
		return errors.New("slug is too short")
	}
	if len(slug) > maxLength {
		return errors.New("slug is too long")
	}
	if !slugPattern.MatchString(slug) {
		return errors.New("slug may only contain letters, digits, hyphens, and underscores")
	}
	return nil
}

// ValidateDomainName performs a light sanity check on a custom domain
// name before attempting DNS resolution.
func ValidateDomainName(name string) error {
	if name == "" {
		return errors.New("domain name is required")
	}
	if strings.Contains(name, "/") || strings.Contains(name, " ") {
		return errors.New("invalid domain name")
	}
	if !strings.Contains(name, ".") {
		return errors.New("domain name must be fully qualified")
	}
	return nil
}
