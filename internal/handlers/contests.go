package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/go-chi/chi/v5"
)

const maxPageSize = 100

// ListContests returns a newest-first page of contests
// GET /api/v1/contests?start=&limit=
func (h *Handler) ListContests(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", 0)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var start *int64
	if r.URL.Query().Get("start") != "" {
		s, err := parseIntParam(r, "start", 0)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start")
			return
		}
		start = &s
	}

	page, err := h.contests.List(r.Context(), start, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetContest returns one contest snapshot
// GET /api/v1/contests/{id}
func (h *Handler) GetContest(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	contest, err := h.contests.GetOrAssembleContest(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, contest)
}

// InvalidateContest drops a contest's cached snapshot and roster
// POST /api/v1/contests/{id}/invalidate
func (h *Handler) InvalidateContest(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	h.contests.InvalidateContest(r.Context(), id)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contest_id":  id,
		"invalidated": true,
	})
}

// GetPlayers returns the box owner roster
// GET /api/v1/contests/{id}/players
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	players, err := h.contests.Roster(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, players)
}

// GetBox evaluates one box
// GET /api/v1/contests/{id}/boxes/{box}
func (h *Handler) GetBox(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}
	box, err := strconv.Atoi(chi.URLParam(r, "box"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid box index")
		return
	}

	view, err := h.contests.Box(r.Context(), id, box)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetWinners returns the winning box of every confirmed quarter
// GET /api/v1/contests/{id}/winners
func (h *Handler) GetWinners(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	winners, err := h.contests.Winners(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, winners)
}

// GetPayouts returns the per-quarter payout table
// GET /api/v1/contests/{id}/payouts
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	payouts, err := h.contests.Payouts(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payouts)
}

// GetGame returns live game progress
// GET /api/v1/games/{game_id}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if _, err := strconv.ParseUint(gameID, 10, 64); err != nil {
		h.respondServiceError(w, r, fmt.Errorf("%w: game id %q", squares.ErrInvalidInput, gameID))
		return
	}

	game, err := h.contests.Game(r.Context(), gameID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}
