package handlers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

var coinIDPattern = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

// ListTokens returns the currencies offered when creating a contest
// GET /api/v1/tokens
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	list := h.tokens.DefaultTokens()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": list,
		"count":  len(list),
	})
}

// GetTokenPrice quotes a coin in USD
// GET /api/v1/tokens/{coin_id}/price
func (h *Handler) GetTokenPrice(w http.ResponseWriter, r *http.Request) {
	if h.prices == nil {
		respondError(w, http.StatusNotImplemented, "price lookups disabled")
		return
	}

	coinID := chi.URLParam(r, "coin_id")
	if !coinIDPattern.MatchString(coinID) {
		respondError(w, http.StatusBadRequest, "invalid coin id")
		return
	}

	price, err := h.prices.Price(r.Context(), coinID)
	if err != nil {
		h.log.WithError(err).WithField("coin_id", coinID).Warn("price lookup failed")
		respondError(w, http.StatusBadGateway, "price unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coin_id": coinID,
		"usd":     price,
	})
}
