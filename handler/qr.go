package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"trimurl/config"
	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"
	"trimurl/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// QRHandler stores QR-code records and renders QR PNGs for slugs.
type QRHandler struct {
	qrcodes *store.QRStore
	links   *store.LinkStore
	config  config.Config
	baseURL string
}

func NewQRHandler(qrcodes *store.QRStore, links *store.LinkStore, cfg config.Config) *QRHandler {
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &QRHandler{qrcodes: qrcodes, links: links, config: cfg, baseURL: baseURL}
}

// SaveQRCode handles POST /api/v1/qrcode.
func (qh *QRHandler) SaveQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(qh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	var req model.SaveQRCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.QRUrl == "" || req.Destination == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing fields"), "qrUrl and destinationUrl are required")
		return
	}
	if err := utils.ValidateURL(req.Destination); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	qr := model.QRCode{
		ID:          uuid.New().String(),
		UserID:      userID,
		Destination: req.Destination,
		QRUrl:       req.QRUrl,
		CreatedAt:   time.Now(),
	}

	if err := qh.qrcodes.Create(ctx, &qr); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to save QR code")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"message":    "successfully saved to data base",
		"qrCodeData": qr,
	})
}

// ListQRCodes handles GET /api/v1/my-qrcodes.
func (qh *QRHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(qh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	codes, err := qh.qrcodes.ListByOwner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list QR codes")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to retrieve QR codes")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"count": len(codes),
		"data":  codes,
	})
}

// DeleteQRCode handles DELETE /api/v1/qrcodes/{id}.
func (qh *QRHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(qh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	id := mux.Vars(r)["id"]

	if err := qh.qrcodes.Delete(ctx, userID, id); err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found or access denied"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete QR code")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"message": "QR code deleted successfully",
	})
}

// GenerateQR handles GET /qr/{slug}: renders a QR PNG for an existing
// short link. Size is clamped to 128-1024, level to the four qrcode
// recovery levels.
func (qh *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(qh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	slug := mux.Vars(r)["slug"]

	if _, err := qh.links.FindBySlug(ctx, slug); err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("slug not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to check slug for QR")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to verify slug")
		return
	}

	query := r.URL.Query()

	size := 256
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil || parsed < 128 || parsed > 1024 {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size"), "Size must be a number between 128 and 1024")
			return
		}
		size = parsed
	}

	level := qrcode.Medium
	switch query.Get("level") {
	case "", "medium":
	case "low":
		level = qrcode.Low
	case "high":
		level = qrcode.High
	case "highest":
		level = qrcode.Highest
	default:
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid level"), "Level must be: low, medium, high, or highest")
		return
	}

	fullURL := fmt.Sprintf("%s/%s", qh.baseURL, slug)

	png, err := qrcode.Encode(fullURL, level, size)
	if err != nil {
		log.Error().Err(err).Str("url", fullURL).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))

	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write QR code response")
	}
}
