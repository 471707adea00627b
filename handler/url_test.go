package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trimurl/analytics"
	"trimurl/geoip"
	"trimurl/middleware"
	"trimurl/model"
	"trimurl/store"

	"github.com/gorilla/mux"
)

func newLinkHandler(t *testing.T) (*URLHandler, *store.LinkStore) {
	t.Helper()
	client, _ := setupTestRedis(t)
	links := store.NewLinkStore(client)
	recorder := analytics.NewRecorder(links, geoip.NewResolver("http://127.0.0.1:1", 50*time.Millisecond))
	return NewURLHandler(links, nil, recorder, testConfig()), links
}

func doCreate(h *URLHandler, userID string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/create", bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	req = middleware.WithUserID(req, userID)
	w := httptest.NewRecorder()
	h.CreateLink(w, req)
	return w
}

func TestCreateLink_InvalidJSON(t *testing.T) {
	h, _ := newLinkHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/create", bytes.NewBufferString(`{"destinationUrl": invalid}`))
	req = middleware.WithUserID(req, "user-1")
	w := httptest.NewRecorder()
	h.CreateLink(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateLink_MissingDestination(t *testing.T) {
	h, _ := newLinkHandler(t)

	w := doCreate(h, "user-1", model.CreateLinkRequest{Slug: "abc123"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateLink_SlugConflict(t *testing.T) {
	h, _ := newLinkHandler(t)

	first := doCreate(h, "user-1", model.CreateLinkRequest{Destination: "https://example.com", Slug: "abc123"})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	second := doCreate(h, "user-2", model.CreateLinkRequest{Destination: "https://other.example.com", Slug: "abc123"})
	if second.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate slug, got %d", second.Code)
	}
}

func TestCreateLink_GeneratesSlugAndPassword(t *testing.T) {
	h, _ := newLinkHandler(t)

	w := doCreate(h, "user-1", model.CreateLinkRequest{Destination: "https://example.com", Protected: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data model.Link `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Data.Slug) != 8 {
		t.Errorf("expected generated 8-char slug, got %q", resp.Data.Slug)
	}
	if !resp.Data.Active {
		t.Error("expected new link to be active")
	}
	if resp.Data.Password == "" {
		t.Error("expected generated password for protected link")
	}
}

func doUpdate(h *URLHandler, userID, id string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/short-url/"+id, bytes.NewBuffer(data))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req = middleware.WithUserID(req, userID)
	w := httptest.NewRecorder()
	h.UpdateLink(w, req)
	return w
}

func TestUpdateLink_OwnershipEnforced(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "abc123", Destination: "https://example.com", Active: true, UserID: "user-1"})

	active := false
	w := doUpdate(h, "intruder", "id-abc123", model.UpdateLinkRequest{Active: &active})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner, got %d", w.Code)
	}
}

func TestUpdateLink_TogglesActiveAndClearsPassword(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "abc123", Destination: "https://example.com", Active: true, Protected: true, Password: "hunter2", UserID: "user-1"})

	active := false
	protected := false
	w := doUpdate(h, "user-1", "id-abc123", model.UpdateLinkRequest{Active: &active, Protected: &protected})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	link, err := links.FindBySlug(req().Context(), "abc123")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if link.Active {
		t.Error("expected link to be inactive")
	}
	if link.Protected || link.Password != "" {
		t.Error("expected protection and password cleared")
	}
}

func req() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/", nil)
}

func TestUpdateLink_RenameConflict(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "abc123", Destination: "https://example.com", Active: true, UserID: "user-1"})
	seedLink(t, links, model.Link{Slug: "taken", Destination: "https://example.org", Active: true, UserID: "user-2"})

	slug := "taken"
	w := doUpdate(h, "user-1", "id-abc123", model.UpdateLinkRequest{Slug: &slug})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 renaming onto taken slug, got %d", w.Code)
	}
}

func TestDeleteLink(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "abc123", Destination: "https://example.com", Active: true, UserID: "user-1"})

	request := httptest.NewRequest(http.MethodDelete, "/api/v1/delete/abc123", nil)
	request = mux.SetURLVars(request, map[string]string{"slug": "abc123"})
	request = middleware.WithUserID(request, "user-1")
	w := httptest.NewRecorder()
	h.DeleteLink(w, request)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if _, err := links.FindBySlug(req().Context(), "abc123"); err != store.ErrNotFound {
		t.Errorf("expected link gone, got %v", err)
	}
}

func TestSearchLinks_RequiresFilter(t *testing.T) {
	h, _ := newLinkHandler(t)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	request = middleware.WithUserID(request, "user-1")
	w := httptest.NewRecorder()
	h.SearchLinks(w, request)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without filters, got %d", w.Code)
	}
}

func TestSearchLinks_ByTag(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "aaa111", Destination: "https://example.com", Active: true, UserID: "user-1", Tags: []string{"work"}})
	seedLink(t, links, model.Link{Slug: "bbb222", Destination: "https://example.org", Active: true, UserID: "user-1", Tags: []string{"personal"}})

	request := httptest.NewRequest(http.MethodGet, "/api/v1/search?tag=work", nil)
	request = middleware.WithUserID(request, "user-1")
	w := httptest.NewRecorder()
	h.SearchLinks(w, request)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Count   int          `json:"count"`
		Results []model.Link `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].Slug != "aaa111" {
		t.Errorf("unexpected search result: %+v", resp)
	}
}

func TestMatchedLinks_AllTagsRequired(t *testing.T) {
	h, links := newLinkHandler(t)
	seedLink(t, links, model.Link{Slug: "aaa111", Destination: "https://example.com", Active: true, UserID: "user-1", Tags: []string{"work", "docs"}})
	seedLink(t, links, model.Link{Slug: "bbb222", Destination: "https://example.org", Active: true, UserID: "user-1", Tags: []string{"work"}})

	data, _ := json.Marshal(model.MatchedURLsRequest{TagsList: []string{"work", "docs"}})
	request := httptest.NewRequest(http.MethodPost, "/api/v1/matched-urls", bytes.NewBuffer(data))
	request = middleware.WithUserID(request, "user-1")
	w := httptest.NewRecorder()
	h.MatchedLinks(w, request)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Count int          `json:"count"`
		URLs  []model.Link `json:"urls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Count != 1 || resp.URLs[0].Slug != "aaa111" {
		t.Errorf("unexpected matched result: %+v", resp)
	}
}
