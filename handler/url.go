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
	"github.com/rs/zerolog/log"
)

// CreateLink handles POST /api/v1/create.
func (h *URLHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	if userID == "" {
		SendJSONError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Authentication required")
		return
	}

	var req model.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := utils.ValidateURL(req.Destination); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.GenerateSlug()
	} else if err := utils.ValidateSlug(slug, minSlugLength, maxSlugLength); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	// A protected link always carries a password; generate one when the
	// caller supplied none.
	password := ""
	if req.Protected {
		password = req.Password
		if password == "" {
			password = uuid.New().String()
		}
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	link := model.Link{
		ID:          uuid.New().String(),
		Slug:        slug,
		Destination: req.Destination,
		ShortURL:    h.shortURL(slug),
		Active:      true,
		Protected:   req.Protected,
		Password:    password,
		Tags:        tags,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}

	if err := h.links.CreateUnique(ctx, &link); err == store.ErrSlugExists {
		SendJSONError(w, http.StatusConflict, errors.New("slug name already exists"), "Choose a different slug")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to create short URL")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create short URL")
		return
	}

	log.Info().
		Str("slug", slug).
		Str("destination", link.Destination).
		Str("user_id", userID).
		Bool("protected", link.Protected).
		Msg("Short URL created")

	SendJSONSuccess(w, http.StatusCreated, map[string]interface{}{
		"message": "Short URL created successfully",
		"data":    link,
	})
}
