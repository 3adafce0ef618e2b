package indexing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

func TestIndexPagePostsProjection(t *testing.T) {
	var got indexRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/index" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	approved := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	forwarder := NewForwarder(srv.URL, time.Second)
	err := forwarder.IndexPage(context.Background(), domain.IndexedPage{
		RawText:      "page text",
		DocumentID:   "doc-1",
		PageID:       "page-1",
		UserID:       "user-9",
		Title:        "Quarterly Report",
		ApprovedDate: &approved,
		Owner:        "finance",
		Username:     "fin-admin",
		AccessLevel:  "internal",
	})
	if err != nil {
		t.Fatalf("IndexPage error = %v", err)
	}

	if got.RawText != "page text" {
		t.Fatalf("unexpected raw text %q", got.RawText)
	}
	meta := got.Metadata
	if meta.DocumentID != "doc-1" || meta.PageID != "page-1" {
		t.Fatalf("unexpected ids: %+v", meta)
	}
	if meta.Title != "Quarterly Report" || meta.Owner != "finance" || meta.AccessLevel != "internal" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.ApprovedDate == nil || !meta.ApprovedDate.Equal(approved) {
		t.Fatalf("unexpected approved date: %v", meta.ApprovedDate)
	}
}

func TestIndexPageStatusErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("missing access_level"))
	}))
	defer srv.Close()

	forwarder := NewForwarder(srv.URL, time.Second)
	err := forwarder.IndexPage(context.Background(), domain.IndexedPage{DocumentID: "doc-1"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "missing access_level") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
