package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo mimics the store's upsert/update-by-filter semantics in memory so
// the use cases can be exercised against realistic behavior.
type memRepo struct {
	docs map[string]*domain.Document

	statusCalls []statusCall

	setStatusErrFor   map[domain.OCRStatus]error
	deletePagesErr    error
	listPagesErrFor   map[string]error
	clearResultErr    error
	listByStatusErr   error
	saveFullResultErr error
}

type statusCall struct {
	id     string
	status domain.OCRStatus
	meta   domain.OCRMetadata
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]*domain.Document{}}
}

func (r *memRepo) add(doc domain.Document) {
	copyDoc := doc
	r.docs[doc.ID] = &copyDoc
}

func mergeMeta(dst *domain.OCRMetadata, patch domain.OCRMetadata) {
	if patch.ProcessingStartedAt != nil {
		dst.ProcessingStartedAt = patch.ProcessingStartedAt
	}
	if patch.ProcessedAt != nil {
		dst.ProcessedAt = patch.ProcessedAt
	}
	if patch.FailedAt != nil {
		dst.FailedAt = patch.FailedAt
	}
	if patch.Error != "" {
		dst.Error = patch.Error
	}
	if patch.TextLength != 0 {
		dst.TextLength = patch.TextLength
	}
	if patch.FailedPage != nil {
		dst.FailedPage = patch.FailedPage
	}
	if patch.ProcessedBy != "" {
		dst.ProcessedBy = patch.ProcessedBy
	}
}

func (r *memRepo) Create(_ context.Context, doc *domain.Document) error {
	copyDoc := *doc
	r.docs[doc.ID] = &copyDoc
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (r *memRepo) SetStatus(_ context.Context, id string, status domain.OCRStatus, meta domain.OCRMetadata) (*domain.Document, error) {
	r.statusCalls = append(r.statusCalls, statusCall{id: id, status: status, meta: meta})
	if err := r.setStatusErrFor[status]; err != nil {
		return nil, err
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "set status", fmt.Errorf("id %s", id))
	}
	doc.OCRStatus = status
	mergeMeta(&doc.OCRMetadata, meta)
	doc.UpdatedAt = time.Now().UTC()
	copyDoc := *doc
	return &copyDoc, nil
}

func (r *memRepo) SaveFullResult(_ context.Context, id, text string, meta domain.OCRMetadata) (*domain.Document, error) {
	if r.saveFullResultErr != nil {
		return nil, r.saveFullResultErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "save full result", fmt.Errorf("id %s", id))
	}
	doc.RawText = text
	doc.OCRStatus = domain.StatusCompleted
	mergeMeta(&doc.OCRMetadata, meta)
	doc.UpdatedAt = time.Now().UTC()
	copyDoc := *doc
	return &copyDoc, nil
}

func (r *memRepo) pageKey(originalID string, pageNumber int) string {
	return fmt.Sprintf("%s/%d", originalID, pageNumber)
}

func (r *memRepo) findPage(originalID string, pageNumber int) *domain.Document {
	for _, doc := range r.docs {
		if doc.IsPageDocument && doc.OriginalDocumentID == originalID && doc.PageNumber == pageNumber {
			return doc
		}
	}
	return nil
}

func (r *memRepo) UpsertPage(_ context.Context, page *domain.Document) (*domain.Document, error) {
	if existing := r.findPage(page.OriginalDocumentID, page.PageNumber); existing != nil {
		existing.RawText = page.RawText
		existing.OCRStatus = page.OCRStatus
		existing.OCRMetadata = page.OCRMetadata
		existing.UpdatedAt = page.UpdatedAt
		copyDoc := *existing
		return &copyDoc, nil
	}
	copyDoc := *page
	r.docs[page.ID] = &copyDoc
	result := copyDoc
	return &result, nil
}

func (r *memRepo) ListPages(_ context.Context, originalID string) ([]domain.Document, error) {
	if err := r.listPagesErrFor[originalID]; err != nil {
		return nil, err
	}
	var pages []domain.Document
	for _, doc := range r.docs {
		if doc.IsPageDocument && doc.OriginalDocumentID == originalID {
			pages = append(pages, *doc)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (r *memRepo) DeletePages(_ context.Context, originalID string) error {
	if r.deletePagesErr != nil {
		return r.deletePagesErr
	}
	for id, doc := range r.docs {
		if doc.IsPageDocument && doc.OriginalDocumentID == originalID {
			delete(r.docs, id)
		}
	}
	return nil
}

func (r *memRepo) ClearResult(_ context.Context, id string) (*domain.Document, error) {
	if r.clearResultErr != nil {
		return nil, r.clearResultErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "clear result", fmt.Errorf("id %s", id))
	}
	doc.OCRStatus = domain.StatusPending
	doc.RawText = ""
	doc.OCRMetadata = domain.OCRMetadata{}
	doc.UpdatedAt = time.Now().UTC()
	copyDoc := *doc
	return &copyDoc, nil
}

func (r *memRepo) ListByStatus(_ context.Context, status domain.OCRStatus) ([]domain.Document, error) {
	if r.listByStatusErr != nil {
		return nil, r.listByStatusErr
	}
	var docs []domain.Document
	for _, doc := range r.docs {
		if !doc.IsPageDocument && doc.OCRStatus == status {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (r *memRepo) ListOriginals(_ context.Context, limit, offset int) ([]domain.DocumentSummary, int, error) {
	var originals []domain.Document
	for _, doc := range r.docs {
		if !doc.IsPageDocument {
			originals = append(originals, *doc)
		}
	}
	sort.Slice(originals, func(i, j int) bool { return originals[i].ID < originals[j].ID })

	total := len(originals)
	if offset > len(originals) {
		offset = len(originals)
	}
	end := offset + limit
	if end > len(originals) {
		end = len(originals)
	}

	var summaries []domain.DocumentSummary
	for _, doc := range originals[offset:end] {
		pages, _ := r.ListPages(context.Background(), doc.ID)
		summaries = append(summaries, domain.DocumentSummary{Document: doc, PageCount: len(pages)})
	}
	return summaries, total, nil
}
