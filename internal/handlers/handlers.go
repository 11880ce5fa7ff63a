package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/assembler"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/chain"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/hub"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/poller"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/squares"
	"github.com/XavierBriggs/fortuna/services/boxes-service/internal/tokens"
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ContestService is the contest read side the API serves
type ContestService interface {
	GetOrAssembleContest(ctx context.Context, contestID int64) (*models.Contest, error)
	InvalidateContest(ctx context.Context, contestID int64)
	List(ctx context.Context, start *int64, limit int64) (*models.ContestPage, error)
	Roster(ctx context.Context, contestID int64) (*models.Players, error)
	Box(ctx context.Context, contestID int64, localIndex int) (*models.BoxView, error)
	Winners(ctx context.Context, contestID int64) (*models.WinnersView, error)
	Payouts(ctx context.Context, contestID int64) (*models.PayoutsView, error)
	Game(ctx context.Context, gameID string) (*models.Game, error)
}

// ClaimTracker follows submitted claim transactions
type ClaimTracker interface {
	Track(ctx context.Context, contestID int64, txHash common.Hash) poller.Claim
	Status(txHash common.Hash) (poller.Claim, bool)
}

// FeeSource reads the VRF fee sent with fetchRandomValues
type FeeSource interface {
	VRFFee(ctx context.Context) (*big.Int, error)
}

// TokenCatalog lists the tokens contests can be priced in
type TokenCatalog interface {
	DefaultTokens() []tokens.Token
}

// PriceSource quotes a coin in USD
type PriceSource interface {
	Price(ctx context.Context, coinID string) (float64, error)
}

// Deps wires a Handler. Prices and Hub may be nil.
type Deps struct {
	Contests     ContestService
	Calls        *chain.Calls
	Fees         FeeSource
	ScoreRequest chain.ScoreRequest
	Claims       ClaimTracker
	Tokens       TokenCatalog
	Prices       PriceSource
	Hub          *hub.Hub

	// Origins allowed to open websockets; empty allows all
	Origins []string
	Log     logrus.FieldLogger
}

// Handler serves the boxes HTTP API
type Handler struct {
	contests     ContestService
	calls        *chain.Calls
	fees         FeeSource
	scoreRequest chain.ScoreRequest
	claims       ClaimTracker
	tokens       TokenCatalog
	prices       PriceSource
	hub          *hub.Hub
	upgrader     websocket.Upgrader
	log          logrus.FieldLogger

	// outlives requests; claim tracking and websocket pumps run on it
	ctx context.Context
}

// NewHandler creates a new handler instance
func NewHandler(ctx context.Context, d Deps) *Handler {
	return &Handler{
		contests:     d.Contests,
		calls:        d.Calls,
		fees:         d.Fees,
		scoreRequest: d.ScoreRequest,
		claims:       d.Claims,
		tokens:       d.Tokens,
		prices:       d.Prices,
		hub:          d.Hub,
		upgrader:     newUpgrader(d.Origins),
		log:          d.Log.WithField("component", "handlers"),
		ctx:          ctx,
	}
}

// Routes mounts every endpoint on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", metrics.Handler())
	if h.hub != nil {
		r.Get("/ws", h.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/contests", h.ListContests)
		r.Route("/contests/{id}", func(r chi.Router) {
			r.Get("/", h.GetContest)
			r.Post("/invalidate", h.InvalidateContest)
			r.Get("/players", h.GetPlayers)
			r.Get("/boxes/{box}", h.GetBox)
			r.Get("/winners", h.GetWinners)
			r.Get("/payouts", h.GetPayouts)

			r.Get("/calls/claim", h.ClaimRewardCall)
			r.Post("/calls/claim-boxes", h.ClaimBoxesCall)
			r.Get("/calls/random-values", h.RandomValuesCall)
			r.Get("/calls/refresh-scores", h.RefreshScoresCall)
			r.Post("/claims", h.TrackClaim)
		})
		r.Get("/claims/{tx_hash}", h.GetClaim)

		r.Get("/games/{game_id}", h.GetGame)

		r.Get("/tokens", h.ListTokens)
		r.Get("/tokens/{coin_id}/price", h.GetTokenPrice)
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "boxes-service",
	}
	if h.hub != nil {
		health["active_clients"] = h.hub.GetClientCount()
	}
	respondJSON(w, http.StatusOK, health)
}

func contestIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		return 0, squares.ErrInvalidInput
	}
	return id, nil
}

func parseIntParam(r *http.Request, param string, defaultValue int64) (int64, error) {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(valueStr, 10, 64)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondServiceError maps domain errors onto HTTP statuses. Upstream
// failures are reported as unknown and retryable, never as a result.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, squares.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assembler.ErrContestNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assembler.ErrUpstreamUnavailable):
		h.log.WithError(err).WithField("path", r.URL.Path).Warn("upstream unavailable")
		respondJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     http.StatusText(http.StatusServiceUnavailable),
			Message:   "upstream unavailable",
			Code:      http.StatusServiceUnavailable,
			Status:    models.BoxStatusUnknown,
			Retryable: true,
		})
	case errors.Is(err, squares.ErrPermutationNotSet), errors.Is(err, squares.ErrMissingData):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
