package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"trimurl/auth"
	"trimurl/config"
	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles registration, login, and user-record operations.
type UserHandler struct {
	users  *store.UserStore
	jwt    *auth.JWTManager
	config config.Config
}

func NewUserHandler(users *store.UserStore, jwtManager *auth.JWTManager, cfg config.Config) *UserHandler {
	return &UserHandler{users: users, jwt: jwtManager, config: cfg}
}

// Register handles POST /auth/register.
func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing fields"), "username, email, and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to register")
		return
	}

	user := model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := uh.users.Create(ctx, &user); err == store.ErrEmailExists {
		SendJSONError(w, http.StatusConflict, errors.New("email already registered"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to register")
		return
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	SendJSONSuccess(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /auth/login.
func (uh *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := uh.users.FindByEmail(ctx, req.Email)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusUnauthorized, errors.New("invalid credentials"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to load user for login")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to log in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info().Str("email", req.Email).Msg("Failed login attempt")
		SendJSONError(w, http.StatusUnauthorized, errors.New("invalid credentials"), "")
		return
	}

	token, err := uh.jwt.Generate(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to log in")
		return
	}

	SendJSONSuccess(w, http.StatusOK, model.LoginResponse{
		AccessToken: token,
		User:        user.ToResponse(),
	})
}

// GetUser handles GET /api/v1/get-user.
func (uh *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	user, err := uh.users.FindByID(ctx, userID)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("user not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"userData": user.ToResponse()})
}

// CreateToken handles POST /api/v1/create-token.
func (uh *UserHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	var req model.CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.TokenName == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing token name"), "")
		return
	}

	user, err := uh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for token create")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	token := model.APIToken{
		Name:    req.TokenName,
		TokenID: uuid.New().String(),
	}
	user.Tokens = append(user.Tokens, token)

	if err := uh.users.Save(ctx, user); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save token")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to save token")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, token)
}

// DeleteToken handles DELETE /api/v1/delete-token/{tokenId}.
func (uh *UserHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	tokenID := mux.Vars(r)["tokenId"]

	user, err := uh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for token delete")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	kept := user.Tokens[:0]
	removed := false
	for _, t := range user.Tokens {
		if t.TokenID == tokenID {
			removed = true
			continue
		}
		kept = append(kept, t)
	}

	if !removed {
		SendJSONError(w, http.StatusNotFound, errors.New("token not found"), "")
		return
	}

	user.Tokens = kept
	if err := uh.users.Save(ctx, user); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to remove token")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to remove token")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{"message": "Token deleted"})
}

// ListTokens handles GET /api/v1/tokens.
func (uh *UserHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(uh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	user, err := uh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for token list")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	tokens := user.Tokens
	if tokens == nil {
		tokens = []model.APIToken{}
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}
