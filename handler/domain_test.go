package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"

	"github.com/gorilla/mux"
)

// fakeResolver returns a fixed CNAME answer or error for every lookup.
type fakeResolver struct {
	cname string
	err   error
}

func (f fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return f.cname, f.err
}

func newDomainHandler(t *testing.T, resolver CNAMEResolver) (*DomainHandler, *store.UserStore) {
	t.Helper()
	client, _ := setupTestRedis(t)
	users := store.NewUserStore(client)
	return NewDomainHandler(users, resolver, testConfig()), users
}

func seedUser(t *testing.T, users *store.UserStore, id string) {
	t.Helper()
	err := users.Create(context.Background(), &model.User{
		ID:        id,
		Username:  "tester",
		Email:     id + "@example.com",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
}

func doAddDomain(dh *DomainHandler, userID, domainName string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(model.AddDomainRequest{DomainName: domainName})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/add-domain", bytes.NewBuffer(data))
	req = middleware.WithUserID(req, userID)
	w := httptest.NewRecorder()
	dh.AddDomain(w, req)
	return w
}

func TestAddDomain_Verified(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{cname: "app.trimurl.site."})
	seedUser(t, users, "user-1")

	w := doAddDomain(dh, "user-1", "links.example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	user, err := users.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(user.Domains) != 1 {
		t.Fatalf("expected 1 domain, got %d", len(user.Domains))
	}
	if user.Domains[0].Name != "links.example.com" {
		t.Errorf("unexpected domain name %q", user.Domains[0].Name)
	}
	if user.Domains[0].CNAMETarget != "app.trimurl.site" {
		t.Errorf("expected trailing dot stripped, got %q", user.Domains[0].CNAMETarget)
	}
}

func TestAddDomain_CNAMEMismatch(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{cname: "other.host.com."})
	seedUser(t, users, "user-1")

	w := doAddDomain(dh, "user-1", "links.example.com")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0] != "other.host.com" {
		t.Errorf("expected mismatched target in records, got %v", resp.Records)
	}

	user, _ := users.FindByID(context.Background(), "user-1")
	if len(user.Domains) != 0 {
		t.Error("mismatched domain must not be saved")
	}
}

func TestAddDomain_ResolutionFailure(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{err: context.DeadlineExceeded})
	seedUser(t, users, "user-1")

	w := doAddDomain(dh, "user-1", "links.example.com")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !strings.Contains(resp.Message, "deadline") {
		t.Errorf("expected raw resolver error in message, got %q", resp.Message)
	}
}

func TestAddDomain_Duplicate(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{cname: "app.trimurl.site."})
	seedUser(t, users, "user-1")

	if w := doAddDomain(dh, "user-1", "links.example.com"); w.Code != http.StatusOK {
		t.Fatalf("first add failed: %d", w.Code)
	}

	w := doAddDomain(dh, "user-1", "links.example.com")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate, got %d", w.Code)
	}
}

func TestAddDomain_InvalidName(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{cname: "app.trimurl.site."})
	seedUser(t, users, "user-1")

	w := doAddDomain(dh, "user-1", "not a domain")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed name, got %d", w.Code)
	}
}

func TestDeleteDomain(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{cname: "app.trimurl.site."})
	seedUser(t, users, "user-1")

	if w := doAddDomain(dh, "user-1", "links.example.com"); w.Code != http.StatusOK {
		t.Fatalf("add failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/domain/links.example.com", nil)
	req = mux.SetURLVars(req, map[string]string{"domainName": "links.example.com"})
	req = middleware.WithUserID(req, "user-1")
	w := httptest.NewRecorder()
	dh.DeleteDomain(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	user, _ := users.FindByID(context.Background(), "user-1")
	if len(user.Domains) != 0 {
		t.Errorf("expected domain removed, got %v", user.Domains)
	}
}

func TestDeleteDomain_NotFound(t *testing.T) {
	dh, users := newDomainHandler(t, fakeResolver{})
	seedUser(t, users, "user-1")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/domain/nope.example.com", nil)
	req = mux.SetURLVars(req, map[string]string{"domainName": "nope.example.com"})
	req = middleware.WithUserID(req, "user-1")
	w := httptest.NewRecorder()
	dh.DeleteDomain(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
