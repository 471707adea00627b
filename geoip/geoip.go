// Package geoip resolves a client's approximate geography from its IP
// address and classifies its user-agent string. Both are best-effort:
// every failure degrades to "Unknown" rather than an error.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"
)

// Unknown is the fallback value for any field that cannot be resolved.
const Unknown = "Unknown"

// Location is the approximate geography of a client address.
type Location struct {
	Country string
	City    string
}

// Client is the classification of a user-agent string.
type Client struct {
	Browser string
	OS      string
	Device  string
}

// Resolver performs geography lookups against an ip-api style endpoint.
// Lookups are bounded by the configured timeout and never return errors.
type Resolver struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

func NewResolver(endpoint string, timeout time.Duration) *Resolver {
	return &Resolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

type geoResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// LookupGeo resolves the country and city for an IP address. Timeouts,
// network errors, and malformed responses all fall back to Unknown; the
// lookup is never retried.
func (r *Resolver) LookupGeo(ctx context.Context, ip string) Location {
	unknown := Location{Country: Unknown, City: Unknown}
	if ip == "" {
		return unknown
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", r.endpoint, ip), nil)
	if err != nil {
		return unknown
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unknown
	}

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return unknown
	}
	if geo.Status != "success" {
		return unknown
	}

	loc := Location{Country: geo.Country, City: geo.City}
	if loc.Country == "" {
		loc.Country = Unknown
	}
	if loc.City == "" {
		loc.City = Unknown
	}
	return loc
}

// ClassifyUserAgent parses a user-agent string into browser, OS, and
// device type. It never fails; unclassifiable fields come back Unknown.
func ClassifyUserAgent(raw string) Client {
	client := Client{Browser: Unknown, OS: Unknown, Device: Unknown}
	if raw == "" {
		return client
	}

	ua := useragent.Parse(raw)
	if ua.Name != "" {
		client.Browser = ua.Name
	}
	if ua.OS != "" {
		client.OS = ua.OS
	}

	switch {
	case ua.Bot:
		client.Device = "bot"
	case ua.Mobile:
		client.Device = "mobile"
	case ua.Tablet:
		client.Device = "tablet"
	case ua.Desktop:
		client.Device = "desktop"
	}
	return client
}

// ClientIP picks the originating address: the first X-Forwarded-For
// entry when present, otherwise the connection's remote address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		if idx := strings.Index(forwardedFor, ","); idx >= 0 {
			forwardedFor = forwardedFor[:idx]
		}
		return strings.TrimSpace(forwardedFor)
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
