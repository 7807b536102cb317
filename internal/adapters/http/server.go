// Package http exposes one session to a browser front-end. The server is a
// thin translation layer: rendering happens on the client, navigation and
// persistence stay in the core. One process serves one session.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/session"
)

// Server translates HTTP calls into session operations.
type Server struct {
	session *session.Session
	logger  *slog.Logger
}

// NewHandler builds the router for one session.
func NewHandler(sess *session.Session, logger *slog.Logger) http.Handler {
	s := &Server{session: sess, logger: logger}
	r := chi.NewRouter()
	r.Get("/page", s.getPage)
	r.Get("/jumplist", s.getJumplist)
	r.Post("/move/{direction}", s.move)
	r.Post("/jump", s.jump)
	r.Post("/finish", s.finish)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// pageDocument is the view of the current page the front-end renders.
type pageDocument struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Body        string `json:"body,omitempty"`
	Path        []int  `json:"path"`
	CanForward  bool   `json:"can_forward"`
	CanBackward bool   `json:"can_backward"`
	Finished    bool   `json:"finished"`
}

func (s *Server) currentDocument() pageDocument {
	doc := pageDocument{
		Path:        s.session.CurrentPath(),
		CanForward:  s.session.CanForward(),
		CanBackward: s.session.CanBackward(),
		Finished:    s.session.Finished(),
	}
	if page := s.session.CurrentPage(); page != nil {
		doc.Title = page.Title()
		doc.Subtitle = page.Subtitle()
		doc.Body = page.Body()
	}
	return doc
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentDocument())
}

type jumplistEntry struct {
	Path  []int  `json:"path"`
	Label string `json:"label"`
}

func (s *Server) getJumplist(w http.ResponseWriter, r *http.Request) {
	entries := []jumplistEntry{}
	for _, e := range s.session.Jumplist() {
		entries = append(entries, jumplistEntry{Path: e.Path, Label: e.Label})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var err error
	switch direction := chi.URLParam(r, "direction"); direction {
	case "forward":
		err = s.session.Forward()
	case "backward":
		err = s.session.Backward()
	case "first":
		err = s.session.JumpFirst()
	case "last":
		err = s.session.JumpLast()
	default:
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return
	}
	s.respondAfterMove(w, err)
}

func (s *Server) jump(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path []int `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.respondAfterMove(w, s.session.JumpTo(body.Path))
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request) {
	s.session.Finish()
	writeJSON(w, http.StatusOK, s.currentDocument())
}

// respondAfterMove maps navigation refusals onto responses the front-end can
// show as corrective feedback; the participant never sees a persistence
// problem here.
func (s *Server) respondAfterMove(w http.ResponseWriter, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, s.currentDocument())
		return
	}
	var moveErr *domain.MoveError
	switch {
	case errors.As(err, &moveErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": moveErr.Reason,
			"hints": moveErr.Hints,
		})
	case errors.Is(err, domain.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		s.logger.Error("navigation failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
