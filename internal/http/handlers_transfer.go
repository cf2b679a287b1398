package http

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"planner/internal/core"
	plog "planner/internal/log"
	"planner/internal/services"
	"planner/internal/transfer"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultPushLimit = 100
)

// Reports

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var ref core.Date
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, badRequest("invalid date %q, want YYYY-MM-DD", v))
			return
		}
		ref = d
	}
	dash, err := s.ledger.Dashboard(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// handleSuggestions serves ?kind=income|expense&q=; kind defaults to expense.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	kind := core.KindExpense
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		kind = core.CategoryKind(v)
	}
	list, err := s.ledger.Suggestions(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: list})
}

// Export

func (s *Server) attachment(w http.ResponseWriter, contentType, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="planner-%s.%s"`, s.ledger.Today(), ext))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.ListEntries(r.Context(), core.Month{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := transfer.WriteCSV(&buf, entries); err != nil {
		writeError(w, r, err)
		return
	}
	s.attachment(w, contentTypeCSV, "csv")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := transfer.WriteSnapshot(&buf, snap); err != nil {
		writeError(w, r, err)
		return
	}
	s.attachment(w, "application/json; charset=utf-8", "json")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.ListEntries(r.Context(), core.Month{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := transfer.WriteXLSX(&buf, entries); err != nil {
		writeError(w, r, err)
		return
	}
	s.attachment(w, contentTypeXLSX, "xlsx")
	_, _ = buf.WriteTo(w)
}

// Import

// uploadBody returns the uploaded file: the "file" part of a multipart
// form, or the raw request body otherwise.
func (s *Server) uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		return nil, badRequest("invalid multipart form: %v", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("missing file field: %v", err)
	}
	return file, nil
}

func (s *Server) importEntries(w http.ResponseWriter, r *http.Request, read func(io.Reader) ([]core.Entry, error)) {
	body, err := s.uploadBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	entries, err := read(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.ReplaceEntries(r.Context(), entries); err != nil {
		writeError(w, r, err)
		return
	}
	plog.FromContext(r.Context()).InfoContext(r.Context(), "Entries imported", plog.FieldCount, len(entries))
	writeJSON(w, http.StatusOK, countResponse{Count: len(entries)})
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	s.importEntries(w, r, transfer.ReadCSV)
}

func (s *Server) handleImportXLSX(w http.ResponseWriter, r *http.Request) {
	s.importEntries(w, r, transfer.ReadXLSX)
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := s.uploadBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	snap, err := transfer.ReadSnapshot(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.Restore(r.Context(), snap); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: len(snap.Entries)})
}

// Sync

func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	limit := defaultPushLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, badRequest("invalid limit %q", v))
			return
		}
		limit = n
	}
	n, err := s.ledger.PushPending(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	strategy, err := services.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.ledger.Reconcile(r.Context(), strategy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// handleClearData resets every collection to a fresh install.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	plog.FromContext(r.Context()).WarnContext(r.Context(), "All data cleared")
	w.WriteHeader(http.StatusNoContent)
}
