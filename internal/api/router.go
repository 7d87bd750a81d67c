package api

import (
	"net/http"

	"reward-management-api/internal/common/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Logger         logger.Logger
	MetricsHandler http.Handler
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the reward endpoints. Only /select-reward is rate limited.
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware(log), MetricsMiddleware)

	limit := RateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst)
	r.Handle("/select-reward", limit(http.HandlerFunc(h.SelectReward))).Methods(http.MethodPost)

	r.HandleFunc("/healthz", h.Readiness).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.Liveness).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	return r
}
