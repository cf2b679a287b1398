package http

import (
	"net/http"
	"strings"

	"planner/internal/core"
	plog "planner/internal/log"
)

// monthParam reads ?month=YYYY-MM; absent means the zero month.
func monthParam(r *http.Request) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.Month{}, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, badRequest("invalid month %q, want YYYY-MM", v)
	}
	return m, nil
}

// Entries

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.ledger.ListEntries(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.ledger.CreateEntry(r.Context(), req.entry())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req entryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, r, badRequest("body id %q does not match path id %q", req.ID, id))
		return
	}
	req.ID = id
	e, err := s.ledger.UpdateEntry(r.Context(), req.entry())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recurring rules

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.ledger.ListRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := s.ledger.CreateRule(r.Context(), req.rule())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ruleRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, r, badRequest("body id %q does not match path id %q", req.ID, id))
		return
	}
	req.ID = id
	rule, err := s.ledger.UpdateRule(r.Context(), req.rule())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMaterialize expands every due rule up to today.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.Materialize(r.Context(), s.ledger.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	plog.FromContext(r.Context()).InfoContext(r.Context(), "Materialization requested", plog.FieldCount, n)
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// Budget goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.ListGoals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.ledger.CreateGoal(r.Context(), req.goal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := s.ledger.GoalProgress(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// Categories and settings

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	set, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.AddCategory(r.Context(), core.Category{Name: req.Name, Icon: req.Icon, Kind: req.Kind})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryRequest{Kind: c.Kind, Name: c.Name, Icon: c.Icon})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	kind := core.CategoryKind(r.PathValue("kind"))
	if err := s.ledger.DeleteCategory(r.Context(), kind, r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	code, err := s.ledger.Currency(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyFor(code))
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	code, err := s.ledger.SetCurrency(r.Context(), req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyFor(code))
}

func currencyFor(code string) currencyResponse {
	symbol, ok := core.SymbolFor(code)
	if !ok {
		symbol = core.DefaultSymbol
	}
	return currencyResponse{Currency: code, Symbol: symbol, Supported: core.Currencies()}
}
