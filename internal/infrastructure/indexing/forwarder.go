package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

// Forwarder pushes extracted page text to the downstream indexing service.
// Callers treat its errors as advisory.
type Forwarder struct {
	baseURL    string
	httpClient *http.Client
}

func NewForwarder(baseURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type indexRequest struct {
	RawText  string        `json:"raw_text"`
	Metadata indexMetadata `json:"metadata"`
}

type indexMetadata struct {
	DocumentID    string     `json:"document_id"`
	PageID        string     `json:"page_id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	ApprovedDate  *time.Time `json:"approved_date,omitempty"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	Owner         string     `json:"owner"`
	Username      string     `json:"username"`
	AccessLevel   string     `json:"access_level"`
}

func (f *Forwarder) IndexPage(ctx context.Context, page domain.IndexedPage) error {
	payload := indexRequest{
		RawText: page.RawText,
		Metadata: indexMetadata{
			DocumentID:    page.DocumentID,
			PageID:        page.PageID,
			UserID:        page.UserID,
			Title:         page.Title,
			ApprovedDate:  page.ApprovedDate,
			EffectiveDate: page.EffectiveDate,
			Owner:         page.Owner,
			Username:      page.Username,
			AccessLevel:   page.AccessLevel,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/v1/index", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index forward request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return fmt.Errorf("index forward status: %s", resp.Status)
		}
		return fmt.Errorf("index forward status: %s: %s", resp.Status, msg)
	}
	return nil
}
