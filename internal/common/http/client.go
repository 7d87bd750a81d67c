// internal/common/http/client.go
package http

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"reward-management-api/internal/common/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuthCredentials configures the client-credentials grant used for outbound calls.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Enabled reports whether enough is set to request a token.
func (c *OAuthCredentials) Enabled() bool {
	return c != nil && c.ClientID != "" && c.TokenURL != ""
}

type Options struct {
	Timeout   time.Duration
	OAuth     *OAuthCredentials
	Transport http.RoundTripper
}

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithOptions(Options{Timeout: timeout})
}

// NewClientWithOptions builds a client. With OAuth set, every request carries a
// bearer token that is fetched and refreshed through the same base transport.
// Redirects are never followed; a 3xx is returned to the caller as-is.
func NewClientWithOptions(opts Options) *Client {
	base := &http.Client{Transport: opts.Transport, CheckRedirect: noRedirect}
	if opts.OAuth.Enabled() {
		cc := &clientcredentials.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			TokenURL:     opts.OAuth.TokenURL,
			Scopes:       opts.OAuth.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		base = cc.Client(ctx)
	}
	// cc.Client returns a fresh http.Client, so the policy is set again here.
	base.CheckRedirect = noRedirect
	base.Timeout = opts.Timeout
	return &Client{httpClient: base}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// FailureKind classifies a transport error returned by Do.
type FailureKind int

const (
	FailureUnavailable FailureKind = iota
	FailureTimeout
	FailureCanceled
)

// ClassifyError maps a transport error onto timeout, cancellation or unavailability.
func ClassifyError(err error) FailureKind {
	if stderrors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnavailable
}

// TransportError converts a failed call to service into the upstream error taxonomy.
func TransportError(service string, err error) *errors.StandardError {
	switch ClassifyError(err) {
	case FailureCanceled:
		return errors.NewRequestCanceledError(err)
	case FailureTimeout:
		return errors.NewUpstreamTimeoutError(service, err)
	default:
		return errors.NewUpstreamUnavailableError(service, err)
	}
}
