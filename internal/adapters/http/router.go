package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/config"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/observability/metrics"
)

type Router struct {
	cfg         config.Config
	ingestUC    ports.DocumentIngestor
	results     ports.ResultRecorder
	statusUC    ports.StatusService
	reader      ports.DocumentReader
	httpMetrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.DocumentIngestor,
	results ports.ResultRecorder,
	statusUC ports.StatusService,
	reader ports.DocumentReader,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		ingestUC:    ingestUC,
		results:     results,
		statusUC:    statusUC,
		reader:      reader,
		httpMetrics: httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documentsCollection)
	mux.HandleFunc("/v1/documents/", rt.documentsItem)
	mux.HandleFunc("/v1/ocr/results", rt.submitOCRResult)
	mux.HandleFunc("/v1/ocr/errors", rt.reportOCRError)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware("api", handler)
	}
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createDocument(w, r)
	case http.MethodGet:
		if status := r.URL.Query().Get("status"); status != "" {
			rt.listByStatus(w, r, status)
			return
		}
		rt.listOriginals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	var input domain.NewDocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.ingestUC.Create(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listByStatus(w http.ResponseWriter, r *http.Request, status string) {
	docs, err := rt.statusUC.ListByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) listOriginals(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	summaries, total, err := rt.reader.ListOriginals(r.Context(), page, perPage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": summaries,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
	})
}

func (rt *Router) documentsItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rt.getDocument(w, r, id)
	case action == "pages" && r.Method == http.MethodGet:
		rt.listPages(w, r, id)
	case action == "processing" && r.Method == http.MethodPost:
		rt.markProcessing(w, r, id)
	case action == "reset" && r.Method == http.MethodPost:
		rt.resetDocument(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listPages(w http.ResponseWriter, r *http.Request, id string) {
	pages, err := rt.reader.ListPages(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if pages == nil {
		pages = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (rt *Router) markProcessing(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.statusUC.MarkProcessing(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) resetDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.statusUC.Reset(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) submitOCRResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		DocumentID  string `json:"document_id"`
		Text        string `json:"text"`
		Page        *int   `json:"page"`
		ProcessedBy string `json:"processed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.results.SubmitResult(r.Context(), domain.OCRResult{
		DocumentID:  req.DocumentID,
		Page:        req.Page,
		Text:        req.Text,
		ProcessedBy: req.ProcessedBy,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) reportOCRError(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
		Page       *int   `json:"page"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.results.ReportError(r.Context(), domain.OCRFailure{
		DocumentID: req.DocumentID,
		Page:       req.Page,
		Message:    req.Message,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapErrorToHTTPStatus(err), err.Error())
}
