package domain

import (
	"fmt"
	"time"
)

// OCRStatus is the lifecycle tag tracked per document and per page-child.
type OCRStatus string

const (
	StatusPending    OCRStatus = "pending"
	StatusProcessing OCRStatus = "processing"
	StatusCompleted  OCRStatus = "completed"
	StatusFailed     OCRStatus = "failed"
)

// ParseOCRStatus validates a raw status value against the four-value vocabulary.
func ParseOCRStatus(raw string) (OCRStatus, error) {
	switch status := OCRStatus(raw); status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return status, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse ocr status", fmt.Errorf("unknown status %q", raw))
	}
}

// OCRMetadata is the per-document processing audit trail. It never drives
// transitions on its own; ocr_status stays authoritative.
type OCRMetadata struct {
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	ProcessedAt         *time.Time `json:"processed_at,omitempty"`
	FailedAt            *time.Time `json:"failed_at,omitempty"`
	Error               string     `json:"error,omitempty"`
	TextLength          int        `json:"text_length,omitempty"`
	FailedPage          *int       `json:"failed_page,omitempty"`
	ProcessedBy         string     `json:"processed_by,omitempty"`
}

// Document is both the record for an uploaded file and, when IsPageDocument
// is set, the synthetic record holding one page's OCR result. Page-children
// are separate rows so each can be upserted without touching the parent.
type Document struct {
	ID                 string      `json:"id"`
	Filename           string      `json:"filename"`
	Extension          string      `json:"extension,omitempty"`
	SourceLocation     string      `json:"source_location"`
	Title              string      `json:"title,omitempty"`
	Owner              string      `json:"owner,omitempty"`
	OwnerUserID        string      `json:"owner_user_id,omitempty"`
	Username           string      `json:"username,omitempty"`
	AccessLevel        string      `json:"access_level,omitempty"`
	ApprovedAt         *time.Time  `json:"approved_at,omitempty"`
	EffectiveAt        *time.Time  `json:"effective_at,omitempty"`
	OCRStatus          OCRStatus   `json:"ocr_status"`
	RawText            string      `json:"raw_text,omitempty"`
	IsPageDocument     bool        `json:"is_page_document"`
	OriginalDocumentID string      `json:"original_document_id,omitempty"`
	PageNumber         int         `json:"page_number,omitempty"`
	OCRMetadata        OCRMetadata `json:"ocr_metadata"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Terminal reports whether the document reached a final OCR state.
func (d *Document) Terminal() bool {
	return d.OCRStatus == StatusCompleted || d.OCRStatus == StatusFailed
}

// DocumentSummary is the read-model row for listing originals with their
// computed page count.
type DocumentSummary struct {
	Document
	PageCount int `json:"page_count"`
}

// NewDocumentInput carries the caller-supplied fields for document creation.
type NewDocumentInput struct {
	Filename       string     `json:"filename"`
	Extension      string     `json:"extension"`
	SourceLocation string     `json:"source_location"`
	Title          string     `json:"title"`
	Owner          string     `json:"owner"`
	OwnerUserID    string     `json:"owner_user_id"`
	Username       string     `json:"username"`
	AccessLevel    string     `json:"access_level"`
	ApprovedAt     *time.Time `json:"approved_at"`
	EffectiveAt    *time.Time `json:"effective_at"`
}

// OCRResult is an inbound extraction result. Page == nil means the text covers
// the whole document; otherwise it is scoped to that 1-based page.
type OCRResult struct {
	DocumentID  string
	Page        *int
	Text        string
	ProcessedBy string
}

// OCRFailure is an inbound provider-side error report, optionally page-scoped.
type OCRFailure struct {
	DocumentID string
	Page       *int
	Message    string
}

// IndexedPage is the curated projection forwarded to the downstream indexing
// service after a page result lands.
type IndexedPage struct {
	RawText       string
	DocumentID    string
	PageID        string
	UserID        string
	Title         string
	ApprovedDate  *time.Time
	EffectiveDate *time.Time
	Owner         string
	Username      string
	AccessLevel   string
}

// SweepReport summarizes one timeout-reconciliation pass.
type SweepReport struct {
	Candidates int
	Promoted   int
}
