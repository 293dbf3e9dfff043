package content

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(store))
	return r
}

func getJSON(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestStore_LoadsEmbeddedContent(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if len(store.Events()) == 0 {
		t.Fatal("no events loaded")
	}
	if len(store.News()) == 0 {
		t.Fatal("no news loaded")
	}
	if len(store.Members()) == 0 {
		t.Fatal("no members loaded")
	}

	events := store.Events()
	for i := 1; i < len(events); i++ {
		if events[i-1].Date > events[i].Date {
			t.Fatalf("events not sorted soonest first: %q after %q", events[i-1].Date, events[i].Date)
		}
	}
	news := store.News()
	for i := 1; i < len(news); i++ {
		if news[i-1].PublishedAt < news[i].PublishedAt {
			t.Fatalf("news not sorted newest first: %q before %q", news[i-1].PublishedAt, news[i].PublishedAt)
		}
	}
}

func TestContentEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/events", "/news", "/members", "/pages/history"} {
		rec, resp := getJSON(t, router, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, rec.Code)
		}
		if !resp.Success || resp.Data == nil {
			t.Fatalf("GET %s returned empty envelope: %s", path, rec.Body.String())
		}
	}
}

func TestGetPage_UnknownSlug(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := getJSON(t, router, "/pages/press-kit")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Success {
		t.Fatal("response should report failure")
	}
}
