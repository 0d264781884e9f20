// Package fetch implements the retrying JSON retrieval layer in front of the
// remote API. Each attempt is bounded by the client timeout; transient
// failures (rate limiting, server errors, connection faults) are retried
// with exponential backoff, everything else fails immediately.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 300 * time.Millisecond
)

// Shared HTTP transport tunings，复用长连接并集中配置握手/空闲超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Options 控制单个 Client 的重试与超时行为，零值字段回落到默认值。
type Options struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	Logger         *logrus.Logger
}

// Client 包装共享 http.Client，对外提供带重试与退避的 JSON GET。
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logrus.Logger
	sleep      func(time.Duration)
}

// NewClient 构造共享的上游客户端，所有远端请求复用同一份连接池。
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport.Clone(),
		},
		maxRetries: retries,
		backoff:    backoff,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// GetJSON 获取并解析 url 指向的 JSON 文档。仅对瞬时失败重试，
// 最多尝试 maxRetries 次，退避时间按 2 的幂递增；永久失败立即返回。
func (c *Client) GetJSON(ctx context.Context, url string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			c.sleep(c.backoff << (attempt - 2))
		}

		raw, err := c.getOnce(ctx, url)
		if err == nil {
			return raw, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"action":  "fetch_retry",
			"url":     url,
			"attempt": attempt,
		}).Warn(err.Error())
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body from %s: %w", url, err)
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("invalid json from %s", url)
		}
		return json.RawMessage(body), nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", url, ErrNotFound)
	default:
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
}
