// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"

	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/logging"
)

// DefaultTimeout bounds a single request/response exchange.
const DefaultTimeout = 2 * time.Minute

// Doer executes a request descriptor and returns the raw response body.
type Doer interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// TransportOptions configures a Transport.
type TransportOptions struct {
	// Proxy is a forward proxy address ("host:port" or a URL). Empty means
	// the HTTPS_PROXY/NO_PROXY environment is honored.
	Proxy         string
	ProxyUsername string
	ProxyPassword string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	Logger  *zap.Logger
	// Client replaces the HTTP client built from the options above. Tests use
	// it to trust an httptest server.
	Client *http.Client
}

// Transport performs one HTTPS round trip per call. It never retries and
// never interprets the body: any status code yields the body as read.
type Transport struct {
	client *http.Client
	log    *zap.Logger
}

// NewTransport builds a Transport. It fails only when the proxy setting
// cannot be parsed.
func NewTransport(opts TransportOptions) (*Transport, error) {
	log := logging.OrNop(opts.Logger)
	if opts.Client != nil {
		return &Transport{client: opts.Client, log: log}, nil
	}

	proxy, err := proxyFunc(opts.Proxy, opts.ProxyUsername, opts.ProxyPassword)
	if err != nil {
		return nil, bferrors.Wrap(bferrors.Config, "invalid proxy", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = proxy
	base.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	return &Transport{
		client: &http.Client{Timeout: timeout, Transport: base},
		log:    log,
	}, nil
}

// Do sends req to https://{req.Host}{req.Path}.
func (t *Transport) Do(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), body)
	if err != nil {
		return nil, &bferrors.TransportError{Host: req.Host, Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	t.log.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("host", req.Host),
		zap.String("path", req.Path),
		zap.Int("body_bytes", len(req.Body)))
	if ce := t.log.Check(zap.DebugLevel, "request body"); ce != nil && isText(req.Headers[HeaderContentType]) {
		ce.Write(zap.String("body", logging.Mask(string(req.Body))))
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &bferrors.TransportError{Host: req.Host, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &bferrors.TransportError{Host: req.Host, Err: fmt.Errorf("read response: %w", err)}
	}

	t.log.Debug("response received",
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return data, nil
}

// proxyFunc returns the proxy selector for the transport. A configured
// proxy applies to every HTTPS request not excluded by NO_PROXY.
func proxyFunc(proxy, username, password string) (func(*http.Request) (*url.URL, error), error) {
	env := httpproxy.FromEnvironment()
	if proxy != "" {
		if !strings.Contains(proxy, "://") {
			proxy = "http://" + proxy
		}
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, err
		}
		if u.Host == "" {
			return nil, fmt.Errorf("proxy %q has no host", proxy)
		}
		if username != "" {
			u.User = url.UserPassword(username, password)
		}
		env = &httpproxy.Config{HTTPSProxy: u.String(), HTTPProxy: u.String(), NoProxy: env.NoProxy}
	}

	fn := env.ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return fn(r.URL)
	}, nil
}

func isText(contentType string) bool {
	return contentType != "" && contentType != contentZip
}
