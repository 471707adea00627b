package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLookupGeo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","country":"India","city":"Delhi"}`)
	}))
	defer srv.Close()

	resolver := NewResolver(srv.URL, time.Second)
	loc := resolver.LookupGeo(context.Background(), "1.2.3.4")

	if loc.Country != "India" || loc.City != "Delhi" {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestLookupGeo_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json")
			},
		},
		{
			name: "Lookup failed status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status":"fail","message":"private range"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			resolver := NewResolver(srv.URL, time.Second)
			loc := resolver.LookupGeo(context.Background(), "1.2.3.4")

			if loc.Country != Unknown || loc.City != Unknown {
				t.Errorf("expected Unknown fallback, got %+v", loc)
			}
		})
	}
}

func TestLookupGeo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `{"status":"success","country":"India","city":"Delhi"}`)
	}))
	defer srv.Close()

	resolver := NewResolver(srv.URL, 50*time.Millisecond)

	start := time.Now()
	loc := resolver.LookupGeo(context.Background(), "1.2.3.4")
	elapsed := time.Since(start)

	if loc.Country != Unknown {
		t.Errorf("expected Unknown on timeout, got %+v", loc)
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("lookup did not honor timeout, took %v", elapsed)
	}
}

func TestLookupGeo_EmptyIP(t *testing.T) {
	resolver := NewResolver("http://ip-api.invalid", 50*time.Millisecond)
	loc := resolver.LookupGeo(context.Background(), "")
	if loc.Country != Unknown || loc.City != Unknown {
		t.Errorf("expected Unknown fallback, got %+v", loc)
	}
}

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser string
		os      string
		device  string
	}{
		{
			name:    "Chrome on Android phone",
			ua:      "Mozilla/5.0 (Linux; Android 10; SM-G975F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.141 Mobile Safari/537.36",
			browser: "Chrome",
			os:      "Android",
			device:  "mobile",
		},
		{
			name:    "Firefox on Windows desktop",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
			browser: "Firefox",
			os:      "Windows",
			device:  "desktop",
		},
		{
			name:    "Empty UA",
			ua:      "",
			browser: Unknown,
			os:      Unknown,
			device:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := ClassifyUserAgent(tt.ua)
			if client.Browser != tt.browser {
				t.Errorf("browser = %s, want %s", client.Browser, tt.browser)
			}
			if client.OS != tt.os {
				t.Errorf("os = %s, want %s", client.OS, tt.os)
			}
			if client.Device != tt.device {
				t.Errorf("device = %s, want %s", client.Device, tt.device)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		remoteAddr   string
		want         string
	}{
		{"Forwarded single", "203.0.113.9", "10.0.0.1:1234", "203.0.113.9"},
		{"Forwarded chain takes first", "203.0.113.9, 10.0.0.2", "10.0.0.1:1234", "203.0.113.9"},
		{"Falls back to remote addr", "", "203.0.113.9:443", "203.0.113.9"},
		{"Remote addr without port", "", "203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(tt.forwardedFor, tt.remoteAddr); got != tt.want {
				t.Errorf("ClientIP() = %s, want %s", got, tt.want)
			}
		})
	}
}
