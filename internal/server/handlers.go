package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"secai/internal/domain"
	"secai/internal/edgar"
	"secai/internal/loader"
	"secai/internal/service"
	"secai/internal/session"
)

type filingsPage struct {
	Filings    []domain.Filing `json:"filings"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

type sessionView struct {
	ID         string          `json:"id"`
	Selected   []string        `json:"selected"`
	Loaded     bool            `json:"loaded"`
	Summary    string          `json:"summary,omitempty"`
	Transcript []session.Turn  `json:"transcript"`
	Company    *domain.Company `json:"company,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	companies, err := s.source.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}
	filings, err := s.source.Filings(r.Context(), chi.URLParam(r, "cik"))
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	total := session.TotalPages(len(filings), s.cfg.PageSize)
	if page > total {
		page = max(total, 1)
	}
	items := session.PageItems(filings, page, s.cfg.PageSize)
	if items == nil {
		items = []domain.Filing{}
	}
	writeJSON(w, http.StatusOK, filingsPage{Filings: items, Page: page, TotalPages: total, Total: len(filings)})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, sess := s.sessions.Create()
	key := req.APIKey
	if key == "" {
		key = s.cfg.APIKey
	}
	sess.SetAPIKey(key)
	writeJSON(w, http.StatusCreated, s.view(id, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Warn("session index not released", "session", id, "error", err)
	}
	s.logger.Info("session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	docURL := strings.TrimSpace(req.URL)
	if !s.source.IsArchiveURL(docURL) {
		writeError(w, http.StatusBadRequest, "url must point to an EDGAR archive document")
		return
	}
	status := http.StatusCreated
	if !sess.Select(docURL) {
		status = http.StatusOK
	}
	writeJSON(w, status, s.view(id, sess))
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if !sess.Remove(url) {
		writeError(w, http.StatusNotFound, "document not selected")
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, sess))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ix, err := s.loader.Load(r.Context(), sess.APIKey(), sess.Selected(), nil)
	if err != nil {
		if errors.Is(err, service.ErrNoDocuments) || errors.Is(err, loader.ErrNotArchiveURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.upstreamError(w, err)
		return
	}
	sess.Attach(ix)
	s.logger.Info("session loaded", "session", id, "documents", len(sess.Selected()))
	writeJSON(w, http.StatusOK, s.view(id, sess))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	turn, err := sess.Ask(r.Context(), req.Question)
	switch {
	case errors.Is(err, service.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotLoaded):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.upstreamError(w, err)
	default:
		writeJSON(w, http.StatusOK, turn)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", nil, false
	}
	return id, sess, true
}

func (s *Server) view(id string, sess *session.Session) sessionView {
	v := sessionView{
		ID:         id,
		Selected:   sess.Selected(),
		Loaded:     sess.Loaded(),
		Summary:    sess.Summary(),
		Transcript: sess.Transcript(),
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}
	if v.Transcript == nil {
		v.Transcript = []session.Turn{}
	}
	if c, ok := sess.Company(); ok {
		v.Company = &c
	}
	return v
}

func (s *Server) upstreamError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	var statusErr *edgar.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
