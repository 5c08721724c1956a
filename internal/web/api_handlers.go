package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/registry"
	"github.com/evcraddock/curbing/internal/session"
	"github.com/evcraddock/curbing/internal/store"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiFailure maps err to a status code and writes it.
func apiFailure(w http.ResponseWriter, err error) {
	apiJSON(w, map[string]string{
		"error": err.Error(),
		"kind":  store.KindOf(err).String(),
	}, statusFor(err))
}

func statusFor(err error) int {
	if errors.Is(err, session.ErrInProgress) || errors.Is(err, registry.ErrRemoveInProgress) {
		return http.StatusConflict
	}
	switch store.KindOf(err) {
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindInvalid:
		return http.StatusBadRequest
	case store.KindPermission:
		return http.StatusForbidden
	case store.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// handleAPIHouses routes /api/houses requests.
func (s *Server) handleAPIHouses(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/houses")
	path = strings.TrimPrefix(path, "/")

	// /api/houses: list or add
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			apiJSON(w, s.reg.State(), http.StatusOK)
		case http.MethodPost:
			s.apiAddHouse(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/houses/{id}/status
	if id, ok := strings.CutSuffix(path, "/status"); ok {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUpdateStatus(w, r, id)
		return
	}

	// /api/houses/{id}
	if strings.Contains(path, "/") {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.apiRemoveHouse(w, r, path)
}

// apiAddHouse creates a house from {"address": "..."}.
func (s *Server) apiAddHouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.detach(r)
	defer cancel()
	h, err := s.reg.Create(ctx, req.Address)
	if err != nil {
		apiFailure(w, err)
		return
	}
	apiJSON(w, h, http.StatusCreated)
}

// apiUpdateStatus sets a house's status from {"status": "..."}.
func (s *Server) apiUpdateStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status, err := house.ParseStatus(req.Status)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.detach(r)
	defer cancel()
	if err := s.reg.UpdateStatus(ctx, id, status); err != nil {
		apiFailure(w, err)
		return
	}
	apiJSON(w, s.reg.State(), http.StatusOK)
}

func (s *Server) apiRemoveHouse(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := s.detach(r)
	defer cancel()
	if err := s.reg.Remove(ctx, id); err != nil {
		apiFailure(w, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}

func (s *Server) apiReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.detach(r)
	defer cancel()
	if err := s.reg.LoadActive(ctx); err != nil {
		apiFailure(w, err)
		return
	}
	apiJSON(w, s.reg.State(), http.StatusOK)
}

func (s *Server) apiFinishDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.detach(r)
	defer cancel()
	sum, err := s.sess.FinishDay(ctx)
	if errors.Is(err, session.ErrInProgress) {
		apiFailure(w, err)
		return
	}
	// A failed reload still reports the resets that ran.
	apiJSON(w, sum, http.StatusOK)
}
