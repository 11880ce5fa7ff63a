package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
)

// ClaimRewardCall prepares an unsigned claimReward transaction
// GET /api/v1/contests/{id}/calls/claim?token_id=
func (h *Handler) ClaimRewardCall(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}
	tokenID, err := strconv.ParseInt(r.URL.Query().Get("token_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid token_id")
		return
	}

	tx, err := h.calls.ClaimReward(id, tokenID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

type claimBoxesRequest struct {
	Boxes  []int  `json:"boxes"`
	Player string `json:"player"`
}

// ClaimBoxesCall prepares an unsigned claimBoxes transaction for local box indexes
// POST /api/v1/contests/{id}/calls/claim-boxes {"boxes": [0, 17], "player": "0x…"}
func (h *Handler) ClaimBoxesCall(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	var req claimBoxesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(req.Player) {
		respondError(w, http.StatusBadRequest, "invalid player address")
		return
	}

	tokenIDs := make([]int64, 0, len(req.Boxes))
	for _, box := range req.Boxes {
		if _, _, err := squares.BoxPosition(box); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		tokenIDs = append(tokenIDs, models.TokenID(id, box))
	}

	contest, err := h.contests.GetOrAssembleContest(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if !contest.BoxesCanBeClaimed {
		respondError(w, http.StatusConflict, "boxes can no longer be claimed")
		return
	}

	nativePrice := contest.BoxCost.Amount
	if !contest.BoxCost.IsNative() {
		nativePrice = nil
	}

	tx, err := h.calls.ClaimBoxes(tokenIDs, common.HexToAddress(req.Player), nativePrice)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// RandomValuesCall prepares an unsigned fetchRandomValues transaction carrying the VRF fee
// GET /api/v1/contests/{id}/calls/random-values
func (h *Handler) RandomValuesCall(w http.ResponseWriter, r *http.Request) {
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
	if contest.RandomValuesSet {
		respondError(w, http.StatusConflict, "random values already assigned")
		return
	}

	fee, err := h.fees.VRFFee(r.Context())
	if err != nil {
		h.respondServiceError(w, r, fmt.Errorf("%w: reading vrf fee: %v", assembler.ErrUpstreamUnavailable, err))
		return
	}

	tx, err := h.calls.FetchRandomValues(id, fee)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// RefreshScoresCall prepares an unsigned oracle refresh for the contest's game
// GET /api/v1/contests/{id}/calls/refresh-scores
func (h *Handler) RefreshScoresCall(w http.ResponseWriter, r *http.Request) {
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

	tx, err := h.calls.FetchFreshGameScores(h.scoreRequest, contest.GameID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

type trackClaimRequest struct {
	TxHash string `json:"tx_hash"`
}

// TrackClaim starts following a claim transaction the wallet has sent
// POST /api/v1/contests/{id}/claims {"tx_hash": "0x…"}
func (h *Handler) TrackClaim(w http.ResponseWriter, r *http.Request) {
	id, err := contestIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	var req trackClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hash, ok := parseTxHash(req.TxHash)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tx_hash")
		return
	}

	claim := h.claims.Track(h.ctx, id, hash)
	respondJSON(w, http.StatusAccepted, claim)
}

// GetClaim reports a tracked claim's status
// GET /api/v1/claims/{tx_hash}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseTxHash(chi.URLParam(r, "tx_hash"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tx_hash")
		return
	}

	claim, found := h.claims.Status(hash)
	if !found {
		respondError(w, http.StatusNotFound, "claim not tracked")
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

func parseTxHash(s string) (common.Hash, bool) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}
