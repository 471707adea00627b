package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trimurl/model"
	"trimurl/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Redirect handles GET /{slug}.
//
// The decision is computed from the store lookup alone. All gated
// outcomes and the final redirect use 302: destinations, active state,
// and protection are mutable at any time, and a permanent redirect would
// be cached by clients. Click accounting happens after the response, in
// a detached goroutine that this handler never waits on.
func (h *URLHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	slug := mux.Vars(r)["slug"]
	if slug == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing slug"), "Slug is required")
		return
	}

	link, err := h.lookupLink(ctx, slug)
	if err == store.ErrNotFound {
		log.Warn().Str("slug", slug).Msg("Slug not found")
		SendJSONError(w, http.StatusNotFound, errors.New("slug not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to resolve slug")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to resolve slug")
		return
	}

	if !link.Active {
		http.Redirect(w, r, fmt.Sprintf("%s/in-active", h.frontendURL), http.StatusFound)
		return
	}

	if link.Protected {
		http.Redirect(w, r, fmt.Sprintf("%s/protected/%s", h.frontendURL, link.Slug), http.StatusFound)
		return
	}

	http.Redirect(w, r, link.Destination, http.StatusFound)

	go h.recorder.Record(link.Slug, r.RemoteAddr, r.Header.Get("X-Forwarded-For"), r.Header.Get("User-Agent"))
}

// lookupLink fetches a link record, consulting the hot cache first.
func (h *URLHandler) lookupLink(ctx context.Context, slug string) (*model.Link, error) {
	if h.config.Cache.Enabled && h.cache != nil {
		if cached, found := h.cache.Get(slug); found {
			if link, ok := cached.(model.Link); ok {
				return &link, nil
			}
		}
	}

	link, err := h.links.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if h.config.Cache.Enabled && h.cache != nil {
		h.cache.Set(slug, *link, 1024)
	}
	return link, nil
}

// VerifyProtected handles POST /protected-url.
//
// It is idempotent and side-effect free: the stored password is compared
// verbatim against the supplied one and no click accounting happens here.
func (h *URLHandler) VerifyProtected(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	var req model.VerifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.Slug == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing slug"), "Slug is required")
		return
	}

	link, err := h.links.FindBySlug(ctx, req.Slug)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("slug not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", req.Slug).Msg("Failed to look up protected slug")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to look up slug")
		return
	}

	if link.Password != req.Password {
		log.Info().Str("slug", req.Slug).Msg("Failed password verification attempt")
		SendJSONError(w, http.StatusForbidden, errors.New("incorrect password"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"destination": link.Destination,
		"message":     "Authentication successful. Redirecting...",
	})
}
