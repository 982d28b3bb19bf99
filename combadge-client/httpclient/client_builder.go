// Copyright (c) 2018 Palantir Technologies. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal/refreshingclient"
	"github.com/palantir/go-combadge/combadge-contract/useragent"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/metrics"
	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/pkg/tlsconfig"
)

const (
	defaultDialTimeout           = 10 * time.Second
	defaultHTTPTimeout           = 60 * time.Second
	defaultKeepAlive             = 30 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 200
	defaultMaxIdleConnsPerHost   = 100
	defaultInitialBackoff        = 250 * time.Millisecond
	defaultMaxBackoff            = 2 * time.Second
)

type clientBuilder struct {
	httpClientBuilder *httpClientBuilder

	URIs         refreshable.StringSlice
	ErrorDecoder ErrorDecoder

	BytesBufferPool bytesbuffers.Pool
	MaxAttempts     refreshable.IntPtr // 0 means no limit. If nil, uses 2*len(uris).
	Backoff         refreshingclient.BackoffSource
	UserAgent       string
}

type httpClientBuilder struct {
	ServiceName     metrics.Tag
	Timeout         refreshable.Duration
	Conn            refreshingclient.ConnSource
	AuthMiddleware  Middleware
	Middlewares     []Middleware

	DisableMetrics      refreshable.Bool
	DisableRecovery     refreshable.Bool
	DisableTracing      refreshable.Bool
	MetricsTagProviders []TagsProvider
}

// Build returns the refreshable *http.Client. The transport chain, outermost first, is
// recovery, metrics, tracing, authentication and then the configured middleware.
func (b *httpClientBuilder) Build(ctx context.Context, params ...HTTPClientParam) (refreshingclient.RefreshableHTTPClient, error) {
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.applyHTTPClient(b); err != nil {
			return nil, err
		}
	}
	var transport http.RoundTripper = refreshingclient.NewTransport(ctx, b.Conn)
	transport = wrapTransport(transport, b.Middlewares...)
	transport = wrapTransport(transport,
		newRecoveryMiddleware(b.DisableRecovery),
		newMetricsMiddleware(b.ServiceName, b.MetricsTagProviders, b.DisableMetrics),
		traceMiddleware{Disabled: b.DisableTracing},
		b.AuthMiddleware,
	)
	return refreshingclient.NewRefreshableHTTPClient(ctx, transport, b.Timeout), nil
}

// NewClient returns a configured client ready for use.
// We apply "sane defaults" before applying the provided params.
func NewClient(params ...ClientParam) (Client, error) {
	return newClient(context.TODO(), newClientBuilder(), params...)
}

// NewClientFromRefreshableConfig returns a client whose URIs, timeouts, retries and transport follow config.
func NewClientFromRefreshableConfig(ctx context.Context, config RefreshableClientConfig, params ...ClientParam) (Client, error) {
	b, err := newClientBuilderFromRefreshableConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, b, params...)
}

func newClient(ctx context.Context, b *clientBuilder, params ...ClientParam) (Client, error) {
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.apply(b); err != nil {
			return nil, err
		}
	}
	userAgent := b.UserAgent
	if userAgent == "" {
		userAgent = useragent.ForService(b.httpClientBuilder.ServiceName.Value(), "")
	}
	httpClient, err := b.httpClientBuilder.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		client:       httpClient,
		errorDecoder: b.ErrorDecoder,
		uris:         b.URIs,
		maxAttempts:  b.MaxAttempts,
		backoff:      b.Backoff,
		bufferPool:   b.BytesBufferPool,
		userAgent:    userAgent,
	}, nil
}

// NewHTTPClient returns a configured http client ready for use.
// We apply "sane defaults" before applying the provided params.
func NewHTTPClient(params ...HTTPClientParam) (*http.Client, error) {
	provider, err := newClientBuilder().httpClientBuilder.Build(context.TODO(), params...)
	if err != nil {
		return nil, err
	}
	return provider.CurrentHTTPClient(), nil
}

func newClientBuilder() *clientBuilder {
	defaultTLSConfig, _ := tlsconfig.NewClientConfig()
	return &clientBuilder{
		httpClientBuilder: &httpClientBuilder{
			ServiceName: metrics.Tag{},
			Timeout:     refreshable.NewDuration(refreshable.NewDefaultRefreshable(defaultHTTPTimeout)),
			Conn: refreshingclient.StaticConnSource(refreshingclient.ConnParams{
				DialTimeout:           defaultDialTimeout,
				KeepAlive:             defaultKeepAlive,
				ProxyFromEnvironment:  true,
				TLS:                   defaultTLSConfig,
				MaxIdleConns:          defaultMaxIdleConns,
				MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
				IdleConnTimeout:       defaultIdleConnTimeout,
				TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
				ExpectContinueTimeout: defaultExpectContinueTimeout,
			}),
			DisableMetrics:  refreshable.NewBool(refreshable.NewDefaultRefreshable(false)),
			DisableRecovery: refreshable.NewBool(refreshable.NewDefaultRefreshable(false)),
			DisableTracing:  refreshable.NewBool(refreshable.NewDefaultRefreshable(false)),
		},
		URIs:         refreshable.NewStringSlice(refreshable.NewDefaultRefreshable([]string(nil))),
		ErrorDecoder: restErrorDecoder{},
		Backoff: refreshingclient.StaticBackoffSource(refreshingclient.Backoff{
			Initial: defaultInitialBackoff,
			Max:     defaultMaxBackoff,
		}),
	}
}
