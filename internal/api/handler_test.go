package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Execute(ctx context.Context, req *models.RewardSelectionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newTestRouter(t *testing.T, pipeline *MockPipeline, opts RouterOptions) http.Handler {
	t.Helper()
	opts.Logger = logger.NewTestLogger(t)
	return NewRouter(NewHandler(pipeline, opts.Logger, nil, 0), opts)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSelectReward_Success(t *testing.T) {
	pipeline := &MockPipeline{}
	pipeline.On("Execute", mock.Anything, &models.RewardSelectionRequest{
		UserID:               "u1",
		SelectedRewardDealID: "deal-7",
		AcceptedTnC:          true,
	}).Return("reward selection received successfully", nil).Once()

	router := newTestRouter(t, pipeline, RouterOptions{})
	req := httptest.NewRequest(http.MethodPost, "/select-reward",
		strings.NewReader(`{"userId":"u1","selectedRewardDealId":"deal-7","acceptedTnC":true}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "reward selection received successfully", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	pipeline.AssertExpectations(t)
}

func TestSelectReward_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantKind   string
	}{
		{"lookup timeout", errors.NewUpstreamTimeoutError("loyalty", nil), http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "upstream_timeout"},
		{"vendor bad status", errors.NewUpstreamBadStatusError("vendor", 500, "boom"), http.StatusBadGateway, "UPSTREAM_BAD_STATUS", "upstream_bad_status"},
		{"loyalty bad body", errors.NewUpstreamBadBodyError("loyalty", nil), http.StatusBadGateway, "UPSTREAM_BAD_BODY", "upstream_bad_body"},
		{"unavailable", errors.NewUpstreamUnavailableError("vendor", nil), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream_unavailable"},
		{"terms", errors.NewTermsNotAcceptedError("u1"), http.StatusBadRequest, "TERMS_NOT_ACCEPTED", "terms_not_accepted"},
		{"canceled", context.Canceled, http.StatusBadRequest, "REQUEST_CANCELED", "canceled"},
		{"internal", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR", "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &MockPipeline{}
			pipeline.On("Execute", mock.Anything, mock.Anything).Return("", tt.err)

			router := newTestRouter(t, pipeline, RouterOptions{})
			req := httptest.NewRequest(http.MethodPost, "/select-reward",
				strings.NewReader(`{"userId":"u1","selectedRewardDealId":"deal-7"}`))
			req.Header.Set(RequestIDHeader, "req-123")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantKind, body.Error.Kind)
			assert.Equal(t, "req-123", body.RequestID)
			assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestSelectReward_InvalidBodies(t *testing.T) {
	bodies := map[string]string{
		"malformed json": `{"userId":`,
		"empty body":     ``,
		"missing userId": `{"selectedRewardDealId":"deal-7"}`,
		"empty deal":     `{"userId":"u1","selectedRewardDealId":""}`,
		"wrong type":     `{"userId":["u1"],"selectedRewardDealId":"deal-7"}`,
		"not an object":  `"u1"`,
		"case variant":   `{"userId":"u1","selectedRewardDealId":"deal-7","UserId":"u2"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			pipeline := &MockPipeline{}
			router := newTestRouter(t, pipeline, RouterOptions{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select-reward", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.Code)
			pipeline.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
		})
	}
}

func TestSelectReward_BodyTooLarge(t *testing.T) {
	pipeline := &MockPipeline{}
	router := newTestRouter(t, pipeline, RouterOptions{})

	huge := `{"userId":"` + strings.Repeat("a", maxRequestBytes) + `","selectedRewardDealId":"deal-7"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select-reward", strings.NewReader(huge)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipeline.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestSelectReward_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &MockPipeline{}, RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/select-reward", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSelectReward_RequestTimeoutReachesPipeline(t *testing.T) {
	pipeline := &MockPipeline{}
	pipeline.On("Execute", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(ackText, nil)

	h := NewHandler(pipeline, logger.NewTestLogger(t), nil, time.Second)
	router := NewRouter(h, RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select-reward",
		strings.NewReader(`{"userId":"u1","selectedRewardDealId":"deal-7"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	pipeline.AssertExpectations(t)
}

const ackText = "reward selection received successfully"

func TestSelectReward_RateLimited(t *testing.T) {
	pipeline := &MockPipeline{}
	pipeline.On("Execute", mock.Anything, mock.Anything).Return(ackText, nil)

	router := newTestRouter(t, pipeline, RouterOptions{RateLimitRPS: 0.001, RateLimitBurst: 1})

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select-reward",
			strings.NewReader(`{"userId":"u1","selectedRewardDealId":"deal-7"}`)))
		return rec
	}

	assert.Equal(t, http.StatusAccepted, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Error.Code)
	pipeline.AssertNumberOfCalls(t, "Execute", 1)

	// probes are never limited
	probe := httptest.NewRecorder()
	router.ServeHTTP(probe, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, probe.Code)
}

func TestProbesAndMetrics(t *testing.T) {
	router := newTestRouter(t, &MockPipeline{}, RouterOptions{})

	tests := []struct {
		path     string
		wantBody string
	}{
		{"/healthz", "Ready"},
		{"/livez", "Alive"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.wantBody, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
