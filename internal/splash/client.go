package splash

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"go.uber.org/zap"
)

var retryStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// NewHTTPClient builds the transport shared by the API client and the token endpoint:
// optional HTTPS proxy, optional certificate verification, request timeout.
func NewHTTPClient(cfg config.Config) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport is not *http.Transport")
	}
	transport := base.Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !cfg.Splash.VerifyCert, //nolint:gosec // VERIFY_CERT=false is an explicit operator choice
	}
	if proxy := strings.TrimSpace(cfg.Splash.HTTPSProxy); proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse HTTPS_PROXY: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Splash.Timeout,
	}, nil
}

// NewRestyClient configures retries the way the API expects: RetryTotal attempts in all,
// doubling waits from RetryBackoff, GET only, on 429 and 5xx gateway errors.
func NewRestyClient(cfg config.Config, httpClient *http.Client, log *zap.Logger) *resty.Client {
	sc := cfg.Splash
	attempts := sc.RetryTotal
	if attempts < 1 {
		attempts = 1
	}
	backoff := sc.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(sc.BaseURL, "/")).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Accept", "application/json").
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff << uint(attempts)).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			attempt := 1
			if r != nil && r.Request != nil && r.Request.Attempt > 0 {
				attempt = r.Request.Attempt
			}
			return backoff << uint(attempt-1), nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil {
				return err != nil
			}
			if r.Request.Method != http.MethodGet {
				return false
			}
			if err != nil {
				return true
			}
			_, retry := retryStatuses[r.StatusCode()]
			return retry
		})

	if sc.Timeout > 0 {
		client.SetTimeout(sc.Timeout)
	}
	if log != nil {
		client.SetLogger(log.Named("resty").Sugar())
	}

	InstrumentClient(client, nil)
	return client
}
