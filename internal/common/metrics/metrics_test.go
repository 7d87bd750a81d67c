package metrics

import (
	"context"
	"fmt"
	"testing"

	"reward-management-api/internal/common/errors"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, ResultSuccess},
		{"timeout", errors.NewUpstreamTimeoutError("loyalty", nil), ResultTimeout},
		{"bad status", errors.NewUpstreamBadStatusError("loyalty", 404, ""), ResultBadStatus},
		{"bad body", errors.NewUpstreamBadBodyError("loyalty", nil), ResultBadBody},
		{"unavailable", errors.NewUpstreamUnavailableError("vendor", nil), ResultUnavailable},
		{"canceled", context.Canceled, ResultCanceled},
		{"wrapped", fmt.Errorf("submit: %w", errors.NewUpstreamTimeoutError("vendor", nil)), ResultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpstreamResult(tt.err))
		})
	}
}

func TestUpstreamRequestsCounter(t *testing.T) {
	counter := UpstreamRequests.WithLabelValues("metrics-test", ResultSuccess)
	counter.Inc()
	counter.Inc()

	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())
}
