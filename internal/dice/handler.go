package dice

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/drblury/hostbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hostbridge/internal/runtime/logging"
)

const maxBodyBytes = 1 << 16

// Handler serves POST bet requests.
type Handler struct {
	game    *Game
	limiter *Limiter
	logger  loggingpkg.ServiceLogger
	now     func() time.Time
}

// NewHandler wraps game. limiter may be nil.
func NewHandler(game *Game, limiter *Limiter, log loggingpkg.ServiceLogger) *Handler {
	return &Handler{
		game:    game,
		limiter: limiter,
		logger:  loggingpkg.OrNop(log),
		now:     time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		sendErrorStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		sendError(w, invalidParamsMessage)
		return
	}
	var req Request
	if err := jsoncodec.Unmarshal(raw, &req); err != nil {
		sendError(w, invalidParamsMessage)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Debug("Rejected bet payload", loggingpkg.LogFields{"reason": err.Error()})
		sendError(w, invalidParamsMessage)
		return
	}

	if !h.limiter.Allow(req.PaymentAddress, h.now()) {
		sendErrorStatus(w, http.StatusTooManyRequests, "too many bets, slow down")
		return
	}

	result, err := h.game.Play(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidParams) {
			sendError(w, invalidParamsMessage)
			return
		}
		h.logger.Error("Bet failed", err, loggingpkg.LogFields{"payment_address": req.PaymentAddress})
		sendError(w, err.Error())
		return
	}
	sendData(w, result)
}
