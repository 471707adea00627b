package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"trimurl/config"
	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"
	"trimurl/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// CNAMEResolver resolves a hostname's canonical DNS name. Satisfied by
// *net.Resolver; injected so verification is testable without DNS.
type CNAMEResolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// DomainHandler verifies and manages user custom domains.
type DomainHandler struct {
	users         *store.UserStore
	resolver      CNAMEResolver
	config        config.Config
	canonicalHost string
}

func NewDomainHandler(users *store.UserStore, resolver CNAMEResolver, cfg config.Config) *DomainHandler {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DomainHandler{
		users:         users,
		resolver:      resolver,
		config:        cfg,
		canonicalHost: cfg.Domain.CanonicalHost,
	}
}

// AddDomain handles POST /api/v1/add-domain.
//
// Verification is a one-time gate: the domain's CNAME record must
// resolve, and its target must equal the canonical host exactly. DNS
// failures and mismatches come back as 400 with the raw diagnostic so
// the user can fix their configuration.
func (dh *DomainHandler) AddDomain(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	var req model.AddDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	domainName := strings.ToLower(strings.TrimSpace(req.DomainName))
	if err := utils.ValidateDomainName(domainName); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	user, err := dh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for domain add")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	if user.HasDomain(domainName) {
		SendJSONError(w, http.StatusConflict, errors.New("domain already registered"), "")
		return
	}

	cname, err := dh.resolver.LookupCNAME(ctx, domainName)
	if err != nil {
		log.Warn().Err(err).Str("domain", domainName).Msg("CNAME resolution failed")
		SendJSONError(w, http.StatusBadRequest, errors.New("DNS configuration error"), err.Error())
		return
	}

	target := strings.TrimSuffix(cname, ".")
	if target != dh.canonicalHost {
		log.Warn().
			Str("domain", domainName).
			Str("target", target).
			Str("canonical", dh.canonicalHost).
			Msg("CNAME target mismatch")
		SendJSONErrorWithRecords(w, http.StatusBadRequest,
			errors.New("CNAME does not point at the service"),
			"Point the domain's CNAME record at "+dh.canonicalHost,
			[]string{target})
		return
	}

	user.Domains = append(user.Domains, model.CustomDomain{
		Name:        domainName,
		CNAMETarget: target,
		AddedAt:     time.Now(),
	})

	if err := dh.users.Save(ctx, user); err != nil {
		log.Error().Err(err).Str("domain", domainName).Msg("Failed to save verified domain")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to save domain")
		return
	}

	log.Info().Str("domain", domainName).Str("user_id", userID).Msg("Custom domain verified")

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Domain verified and added successfully",
		"domains": user.Domains,
	})
}

// ListDomains handles GET /api/v1/domains.
func (dh *DomainHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(dh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)

	user, err := dh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for domain list")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	domains := user.Domains
	if domains == nil {
		domains = []model.CustomDomain{}
	}

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"domains": domains})
}

// DeleteDomain handles DELETE /api/v1/domain/{domainName}.
func (dh *DomainHandler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(dh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	domainName := strings.ToLower(mux.Vars(r)["domainName"])

	user, err := dh.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for domain delete")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	kept := user.Domains[:0]
	removed := false
	for _, d := range user.Domains {
		if d.Name == domainName {
			removed = true
			continue
		}
		kept = append(kept, d)
	}

	if !removed {
		SendJSONError(w, http.StatusNotFound, errors.New("domain not found"), "")
		return
	}

	user.Domains = kept
	if err := dh.users.Save(ctx, user); err != nil {
		log.Error().Err(err).Str("domain", domainName).Msg("Failed to remove domain")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to remove domain")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"message": "Domain removed successfully",
	})
}
