package loyalty

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:     baseURL,
		Timeout:     500 * time.Millisecond,
		MaxAttempts: 1,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	client, err := NewClient(cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return client
}

func TestFetchUser_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/user/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId":"u1","firstName":"Ann","lastName":"Lee","email":"ann@x.com"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/")

	profile, err := client.FetchUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, "Ann", profile.FirstName)
	assert.Equal(t, "Lee", profile.LastName)
	assert.Equal(t, "ann@x.com", profile.Email)
}

func TestFetchUser_EscapesUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/a%2Fb", r.URL.EscapedPath())
		w.Write([]byte(`{"userId":"a/b","firstName":"","lastName":"","email":""}`))
	}))
	defer server.Close()

	profile, err := newTestClient(t, server.URL).FetchUser(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", profile.UserID)
}

func TestFetchUser_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   errors.UpstreamKind
		wantStatus int
	}{
		{"not found", http.StatusNotFound, `{"message":"no such user"}`, errors.UpstreamBadStatus, http.StatusNotFound},
		{"server error", http.StatusInternalServerError, "boom", errors.UpstreamBadStatus, http.StatusInternalServerError},
		{"created is not ok", http.StatusCreated, `{}`, errors.UpstreamBadStatus, http.StatusCreated},
		{"not json", http.StatusOK, "<html>", errors.UpstreamBadBody, 0},
		{"missing field", http.StatusOK, `{"userId":"u1","firstName":"Ann","lastName":"Lee"}`, errors.UpstreamBadBody, 0},
		{"wrong type", http.StatusOK, `{"userId":"u1","firstName":1,"lastName":"Lee","email":"a@b.c"}`, errors.UpstreamBadBody, 0},
		{"array body", http.StatusOK, `[]`, errors.UpstreamBadBody, 0},
		{"empty body", http.StatusOK, ``, errors.UpstreamBadBody, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			profile, err := newTestClient(t, server.URL).FetchUser(context.Background(), "u1")
			require.Error(t, err)
			assert.Nil(t, profile)
			assert.True(t, errors.HasUpstreamKind(err, tt.wantKind), "got %v", err)

			stdErr := errors.AsStandardError(err)
			assert.Equal(t, ServiceName, stdErr.Service)
			assert.Equal(t, tt.wantStatus, stdErr.StatusCode)
		})
	}
}

func TestFetchUser_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	_, err := client.FetchUser(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.HasUpstreamKind(err, errors.UpstreamTimeout), "got %v", err)
}

func TestFetchUser_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).FetchUser(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.HasUpstreamKind(err, errors.UpstreamUnavailable), "got %v", err)
}

func TestFetchUser_CallerCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := newTestClient(t, server.URL).FetchUser(ctx, "u1")
	require.Error(t, err)
	assert.Equal(t, "canceled", errors.Kind(err))
}

func TestFetchUser_SingleAttemptByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *Config) { c.MaxAttempts = 0 })

	_, err := client.FetchUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchUser_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"userId":"u1","firstName":"Ann","lastName":"Lee","email":"ann@x.com"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *Config) {
		c.MaxAttempts = 3
		c.RetryBackoff = time.Millisecond
	})

	profile, err := client.FetchUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.FirstName)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchUser_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *Config) {
		c.MaxAttempts = 3
		c.RetryBackoff = time.Millisecond
	})

	_, err := client.FetchUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://loyalty:8080", Timeout: time.Second, MaxAttempts: 1}, false},
		{"relative url", Config{BaseURL: "loyalty", Timeout: time.Second, MaxAttempts: 1}, true},
		{"empty url", Config{Timeout: time.Second, MaxAttempts: 1}, true},
		{"zero timeout", Config{BaseURL: "http://loyalty", MaxAttempts: 1}, true},
		{"negative backoff", Config{BaseURL: "http://loyalty", Timeout: time.Second, MaxAttempts: 1, RetryBackoff: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
