package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/metrics"
	"reward-management-api/internal/common/observability"
	selectreward "reward-management-api/internal/workers/rewards/select-reward"
)

const maxRequestBytes = 64 << 10

// Handler serves the reward selection endpoint and the probes.
type Handler struct {
	pipeline       selectreward.Pipeline
	logger         logger.Logger
	obs            *observability.Observability
	requestTimeout time.Duration
}

func NewHandler(pipeline selectreward.Pipeline, log logger.Logger, obs *observability.Observability, requestTimeout time.Duration) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		pipeline:       pipeline,
		logger:         log,
		obs:            obs,
		requestTimeout: requestTimeout,
	}
}

// SelectReward handles POST /select-reward. Success is 202 with a plain-text
// acknowledgment; failures are JSON with a status derived from the error kind.
func (h *Handler) SelectReward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}
	requestID := RequestIDFromContext(ctx)

	ack, err := h.run(ctx, w, r)

	outcome := selectreward.Outcome(err)
	metrics.RewardSelections.WithLabelValues("http", outcome).Inc()
	h.obs.RecordPipelineRun(ctx, "http", outcome)

	if err != nil {
		h.logger.Warn("Reward selection failed", map[string]interface{}{
			"requestId": requestID,
			"errorCode": outcome,
			"status":    errors.HTTPStatus(err),
		})
		writeError(w, err, requestID)
		return
	}

	writeText(w, http.StatusAccepted, ack)
}

func (h *Handler) run(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return "", errors.NewValidationError("request body could not be read: " + err.Error())
	}

	req, err := selectreward.ParseSelection(body)
	if err != nil {
		return "", err
	}

	return h.pipeline.Execute(ctx, req)
}

// Readiness answers /healthz.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Ready")
}

// Liveness answers /livez.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Alive")
}
