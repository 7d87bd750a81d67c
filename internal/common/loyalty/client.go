// Package loyalty fetches member profiles from the loyalty service.
package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reward-management-api/internal/common/errors"
	commonhttp "reward-management-api/internal/common/http"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/metrics"
	"reward-management-api/internal/common/validation"
	"reward-management-api/internal/models"
)

const ServiceName = "loyalty"

const maxBodyBytes = 1 << 20

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("loyalty base url must be absolute, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("loyalty timeout must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("loyalty max attempts must be at least 1")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("loyalty retry backoff must not be negative")
	}
	return nil
}

type Client struct {
	config     Config
	baseURL    string
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(cfg Config, httpClient *commonhttp.Client, log logger.Logger) (*Client, error) {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = commonhttp.NewClient(cfg.Timeout)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config:     cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     log.WithFields(map[string]interface{}{"service": ServiceName}),
	}, nil
}

// FetchUser issues GET {base}/user/{userID} and decodes the profile.
// Timeouts, unavailability and 5xx responses are retried up to MaxAttempts.
func (c *Client) FetchUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		profile, err := c.fetchOnce(ctx, userID)
		if err == nil {
			return profile, nil
		}
		lastErr = err

		if attempt == c.config.MaxAttempts || !retryable(err) {
			break
		}

		c.logger.Warn("User lookup failed, retrying", map[string]interface{}{
			"userId":  userID,
			"attempt": attempt,
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return nil, commonhttp.TransportError(ServiceName, ctx.Err())
		case <-time.After(c.config.RetryBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, userID string) (profile *models.UserProfile, err error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamRequests.WithLabelValues(ServiceName, metrics.UpstreamResult(err)).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues(ServiceName).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/user/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, commonhttp.TransportError(ServiceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, commonhttp.TransportError(ServiceName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamBadStatusError(ServiceName, resp.StatusCode, truncate(string(body), 512))
	}

	return decodeProfile(body)
}

func decodeProfile(body []byte) (*models.UserProfile, error) {
	result, err := validation.ValidateBytes(body, ProfileSchema())
	if err != nil {
		return nil, errors.NewUpstreamBadBodyError(ServiceName, err)
	}
	if !result.Valid {
		return nil, errors.NewUpstreamBadBodyError(ServiceName, fmt.Errorf("invalid user profile: %s", result.String()))
	}

	var profile models.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, errors.NewUpstreamBadBodyError(ServiceName, err)
	}
	return &profile, nil
}

// ProfileSchema requires every UserProfile field as a string. userId must be non-empty.
func ProfileSchema() validation.Schema {
	return validation.ObjectSchema(map[string]interface{}{
		"userId":    validation.NonEmptyString(),
		"firstName": map[string]interface{}{"type": "string"},
		"lastName":  map[string]interface{}{"type": "string"},
		"email":     map[string]interface{}{"type": "string"},
	}, "userId", "firstName", "lastName", "email")
}

func retryable(err error) bool {
	stdErr := errors.AsStandardError(err)
	switch stdErr.UpstreamKind() {
	case errors.UpstreamTimeout, errors.UpstreamUnavailable:
		return true
	case errors.UpstreamBadStatus:
		return stdErr.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
