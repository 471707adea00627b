package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"
	"trimurl/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// UpdateLink handles PUT /api/v1/short-url/{id}. Only the owner may
// update; slug renames re-check uniqueness.
func (h *URLHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	id := mux.Vars(r)["id"]

	link, err := h.links.FindByID(ctx, id)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("short URL not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to load short URL")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load short URL")
		return
	}

	if link.UserID != userID {
		SendJSONError(w, http.StatusForbidden, errors.New("not authorized to update this link"), "")
		return
	}

	var req model.UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.Destination != nil {
		if err := utils.ValidateURL(*req.Destination); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
		link.Destination = *req.Destination
	}

	if req.Tags != nil {
		link.Tags = *req.Tags
	}

	if req.Active != nil {
		link.Active = *req.Active
	}

	if req.Protected != nil {
		link.Protected = *req.Protected
		if link.Protected {
			if req.Password != nil && *req.Password != "" {
				link.Password = *req.Password
			} else if link.Password == "" {
				link.Password = uuid.New().String()
			}
		} else {
			link.Password = ""
		}
	} else if req.Password != nil && link.Protected {
		link.Password = *req.Password
	}

	oldSlug := link.Slug
	if req.Slug != nil && *req.Slug != oldSlug {
		if err := utils.ValidateSlug(*req.Slug, minSlugLength, maxSlugLength); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
		link.Slug = *req.Slug
		link.ShortURL = h.shortURL(link.Slug)
	}

	if err := h.links.Rename(ctx, oldSlug, link); err == store.ErrSlugExists {
		SendJSONError(w, http.StatusConflict, errors.New("slug name already exists"), "Choose a different slug")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", link.Slug).Msg("Failed to update short URL")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to update short URL")
		return
	}

	// Drop stale cache entries so the redirect gate sees the new state.
	if h.cache != nil {
		h.cache.Delete(oldSlug)
		h.cache.Delete(link.Slug)
	}

	log.Info().Str("slug", link.Slug).Str("user_id", userID).Msg("Short URL updated")

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Short URL updated successfully",
		"data":    link,
	})
}

// DeleteLink handles DELETE /api/v1/delete/{slug}.
func (h *URLHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	slug := mux.Vars(r)["slug"]

	if err := h.links.Delete(ctx, userID, slug); err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("url not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to delete short URL")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete short URL")
		return
	}

	if h.cache != nil {
		h.cache.Delete(slug)
	}

	log.Info().Str("slug", slug).Str("user_id", userID).Msg("Short URL deleted")

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"message": "url deleted successfully",
	})
}

// ListLinks handles GET /api/v1/short-urls.
func (h *URLHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	links, err := h.links.ListByOwner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list short URLs")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list short URLs")
		return
	}

	SendJSONSuccess(w, http.StatusOK, links)
}

// GetLink handles GET /api/v1/short-url/{slug}; stats are merged in.
func (h *URLHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	slug := mux.Vars(r)["slug"]

	link, err := h.links.FindBySlugWithStats(ctx, slug)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("short url data not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to load short URL")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load short URL")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"result": link})
}

// SearchLinks handles GET /api/v1/search?tag=&date=. At least one filter
// is required; date matches the creation day.
func (h *URLHandler) SearchLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	tag := r.URL.Query().Get("tag")
	date := r.URL.Query().Get("date")

	if tag == "" && date == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing filters"), "Provide at least a tag or a date to search")
		return
	}

	var day time.Time
	if date != "" {
		var err error
		day, err = time.Parse("2006-01-02", date)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid date"), "Use YYYY-MM-DD")
			return
		}
	}

	links, err := h.links.ListByOwner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to search short URLs")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to search short URLs")
		return
	}

	matched := make([]model.Link, 0)
	for _, link := range links {
		if tag != "" && !link.HasTag(tag) {
			continue
		}
		if date != "" {
			y1, m1, d1 := link.CreatedAt.Date()
			y2, m2, d2 := day.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		matched = append(matched, link)
	}

	if len(matched) == 0 {
		SendJSONError(w, http.StatusNotFound, errors.New("no URLs found"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"count":   len(matched),
		"results": matched,
	})
}

// ListTags handles GET /api/v1/tags.
func (h *URLHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	tags, err := h.links.DistinctTags(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list tags")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"count": len(tags),
		"tags":  tags,
	})
}

// MatchedLinks handles POST /api/v1/matched-urls: links carrying every
// supplied tag. An empty list matches everything.
func (h *URLHandler) MatchedLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	var req model.MatchedURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.TagsList == nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing tag list"), "Send a tag list to find matching URLs")
		return
	}

	links, err := h.links.ListByOwner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to match short URLs")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to match short URLs")
		return
	}

	matched := make([]model.Link, 0)
	for _, link := range links {
		if link.HasAllTags(req.TagsList) {
			matched = append(matched, link)
		}
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"count": len(matched),
		"urls":  matched,
	})
}

// TotalLinks handles GET /api/v1/total-short-urls.
func (h *URLHandler) TotalLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	count, err := h.links.CountByOwner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to count short URLs")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to count short URLs")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]int64{"total": count})
}
