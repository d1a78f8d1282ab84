package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/rebase"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, analysis.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, analysis.ErrNotFound), errors.Is(err, rebase.ErrNoAnchorFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, model.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", RequestID: RequestID(r.Context())})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) indices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Indices())
}

func (s *Server) constituents(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Constituents(r.Context(), mux.Vars(r)["index"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(analysis.ErrInvalidArgument, errors.New(name+" must be an integer"))
	}
	return v, nil
}

func dateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return time.Time{}, errors.Join(analysis.ErrInvalidArgument, errors.New("date must be YYYY-MM-DD"))
	}
	return d, nil
}

func (s *Server) crosses(w http.ResponseWriter, r *http.Request) {
	lookback, err := intParam(r, "lookback")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asOf, err := dateParam(r.URL.Query().Get("as_of"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index := r.URL.Query().Get("index")
	if index == "" {
		index = constituents.SP500
	}
	rep, err := s.svc.CrossAlerts(r.Context(), index, lookback, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) candidates(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "max")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, err := s.svc.Candidates(r.Context(), limit, time.Time{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) changes(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Changes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) changePerformance(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(mux.Vars(r)["date"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	frames := r.URL.Query().Get("frames") == "true"
	perf, err := s.svc.ChangePerformance(r.Context(), date, frames)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

func (s *Server) rebase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := dateParam(vars["date"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Rebase(r.Context(), vars["ticker"], date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
