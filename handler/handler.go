package handler

import (
	"fmt"

	"trimurl/analytics"
	"trimurl/cache"
	"trimurl/config"
	"trimurl/store"
)

const (
	minSlugLength = 3
	maxSlugLength = 64
)

// URLHandler handles link creation, the redirect gate, and owner-scoped
// link management.
type URLHandler struct {
	links       *store.LinkStore
	cache       *cache.Cache
	recorder    *analytics.Recorder
	config      config.Config
	baseURL     string
	frontendURL string
}

// NewURLHandler creates a new URL handler
func NewURLHandler(links *store.LinkStore, cacheClient *cache.Cache, recorder *analytics.Recorder, cfg config.Config) *URLHandler {
	// Use configured base_url if provided, otherwise construct from scheme, IP, and port
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &URLHandler{
		links:       links,
		cache:       cacheClient,
		recorder:    recorder,
		config:      cfg,
		baseURL:     baseURL,
		frontendURL: cfg.Frontend.BaseURL,
	}
}

func (h *URLHandler) shortURL(slug string) string {
	return fmt.Sprintf("%s/%s", h.baseURL, slug)
}
