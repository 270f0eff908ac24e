package filings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phuslu/log"

	"edgar_export/pkg/core/export"
	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/store"
	"edgar_export/pkg/models"
)

// FilingSource returns cached filing bundles. *cache.FilingCache implements it.
type FilingSource interface {
	GetOrBuild(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool)
}

// ReportExporter writes report workbooks. *export.Exporter implements it.
type ReportExporter interface {
	ExportResult(ctx context.Context, url, dest, category string) (*export.Result, error)
}

// ExportRecorder keeps the export history. *store.ExportLog implements it.
type ExportRecorder interface {
	Record(ctx context.Context, rec *store.ExportRecord) error
	Recent(ctx context.Context, ticker string, limit int) ([]store.ExportRecord, error)
}

// FilingsResponse lists a ticker's indexed filings.
type FilingsResponse struct {
	Ticker      string                 `json:"ticker"`
	Since       string                 `json:"since,omitempty"`
	FilingTypes []string               `json:"filing_types"`
	Filings     []models.FilingSummary `json:"filings"`
}

// ExportRequest asks for one report to be written as a workbook.
type ExportRequest struct {
	URL        string `json:"url"`
	Ticker     string `json:"ticker"`
	ReportName string `json:"report_name"`
	FilingDate string `json:"filing_date"`
	FilingType string `json:"filing_type"`
	Category   string `json:"category"` // defaults to "statement"
}

// ExportResponse reports a written workbook.
type ExportResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path"`
	Tables int    `json:"tables"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves filing listings and report exports.
type Handler struct {
	filings   FilingSource
	exporter  ReportExporter
	exportLog ExportRecorder
	forms     models.FormSet
	exportDir string
	logger    *log.Logger
}

// New creates a filings handler. Workbooks are written under exportDir.
func New(filings FilingSource, exporter ReportExporter, exportLog ExportRecorder, forms models.FormSet, exportDir string, logger *log.Logger) *Handler {
	return &Handler{
		filings:   filings,
		exporter:  exporter,
		exportLog: exportLog,
		forms:     forms,
		exportDir: exportDir,
		logger:    logging.OrDiscard(logger),
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/filings/{ticker}", h.handleFilings)
	r.Post("/api/export", h.handleExport)
	r.Get("/api/exports", h.handleExports)
}

func (h *Handler) handleFilings(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))
	if ticker == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ticker is required"})
		return
	}

	window, err := models.ParseWindow(r.URL.Query().Get("since"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be YYYY-MM-DD"})
		return
	}

	bundles, ok := h.filings.GetOrBuild(r.Context(), ticker, window, h.forms)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "could not resolve ticker " + ticker})
		return
	}

	resp := FilingsResponse{
		Ticker:      ticker,
		FilingTypes: models.FilingTypes(bundles),
		Filings:     models.Summarize(bundles),
	}
	if window.Active() {
		resp.Since = window.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.URL == "" || req.Ticker == "" || req.ReportName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url, ticker and report_name are required"})
		return
	}
	if req.Category == "" {
		req.Category = export.StatementCategory
	}

	dest := export.PathIn(h.exportDir, req.Ticker, req.ReportName, req.FilingDate, req.FilingType)
	res, err := h.exporter.ExportResult(r.Context(), req.URL, dest, req.Category)
	switch {
	case errors.Is(err, export.ErrFetchFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	rec := &store.ExportRecord{
		Ticker:     req.Ticker,
		URL:        req.URL,
		Path:       res.Path,
		Category:   req.Category,
		ReportName: req.ReportName,
		FilingDate: req.FilingDate,
		Form:       req.FilingType,
		Tables:     res.Tables,
	}
	if err := h.exportLog.Record(r.Context(), rec); err != nil {
		// The workbook is written; report it even without a history entry.
		h.logger.Warn().Err(err).Str("path", res.Path).Msg("failed to record export")
		rec.ID = ""
	}

	writeJSON(w, http.StatusOK, ExportResponse{Status: "ok", ID: rec.ID, Path: res.Path, Tables: res.Tables})
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.exportLog.Recent(r.Context(), r.URL.Query().Get("ticker"), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list exports")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list exports"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
