package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MoizAhmedd/nitro-enclave-wallet/internal/protocol"
)

// SignRequest is the POST /sign body.
type SignRequest struct {
	Message string `json:"message" validate:"required,hexadecimal"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string `json:"status"`
}

type handler struct {
	enclave  Enclave
	logger   *slog.Logger
	metrics  *Metrics
	validate *validator.Validate
	timeout  time.Duration
}

// health handles GET /health. It never contacts the enclave.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// publicKey handles GET /public-key and GET /address.
func (h *handler) publicKey(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, protocol.NewPublicKeyRequest())
}

// sign handles POST /sign.
func (h *handler) sign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	body := http.MaxBytesReader(w, r.Body, protocol.MaxMessageSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		badRequest(w, "request body must be a JSON object with a hex message")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, "message must be a non-empty hex string")
		return
	}

	h.forward(w, r, protocol.NewSignRequest(req.Message))
}

// forward sends req to the enclave and relays the response. Enclave-side
// errors keep their message; transport failures become 502.
func (h *handler) forward(w http.ResponseWriter, r *http.Request, req protocol.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.enclave.Do(ctx, req)
	if err != nil {
		h.metrics.ObserveExchange(req.Action, "unavailable")
		h.logger.Error("enclave exchange failed",
			slog.String("action", req.Action),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, ErrEnclaveUnavailable)
		return
	}

	if resp.Failed() {
		h.metrics.ObserveExchange(req.Action, "rejected")
		writeError(w, ErrEnclaveRejected.WithMessage(resp.Error))
		return
	}

	h.metrics.ObserveExchange(req.Action, "ok")
	writeJSON(w, http.StatusOK, resp)
}
