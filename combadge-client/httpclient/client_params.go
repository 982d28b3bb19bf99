// Copyright (c) 2026 Palantir Technologies. All rights reserved.
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
	"net/url"
	"time"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal/refreshingclient"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/metrics"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// ClientParam is a param that can be used to build a Client.
type ClientParam interface {
	apply(builder *clientBuilder) error
}

// HTTPClientParam is a param that can be used to build a Client or an *http.Client.
type HTTPClientParam interface {
	applyHTTPClient(builder *httpClientBuilder) error
}

// ClientOrHTTPClientParam is a param that can be used to build a Client or an http.Client.
type ClientOrHTTPClientParam interface {
	ClientParam
	HTTPClientParam
}

type clientParamFunc func(builder *clientBuilder) error

func (f clientParamFunc) apply(b *clientBuilder) error {
	return f(b)
}

type httpClientParamFunc func(builder *httpClientBuilder) error

func (f httpClientParamFunc) apply(b *clientBuilder) error {
	return f(b.httpClientBuilder)
}

func (f httpClientParamFunc) applyHTTPClient(b *httpClientBuilder) error {
	return f(b)
}

// WithConfig applies every setting of c.
func WithConfig(c ClientConfig) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		params, err := configToParams(c)
		if err != nil {
			return err
		}
		for _, p := range params {
			if err := p.apply(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithServiceName sets the value of the service-name tag of client metrics and the User-Agent product.
func WithServiceName(serviceName string) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		tag, err := metrics.NewTag(MetricTagServiceName, serviceName)
		if err != nil {
			return werror.Wrap(err, "invalid service name", werror.SafeParam("serviceName", serviceName))
		}
		b.ServiceName = tag
		return nil
	})
}

// WithBaseURLs sets the base URLs requests are sent to. When several are given, requests start at a
// random URL and fail over to the next on connection errors and QoS responses.
func WithBaseURLs(urls []string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		for _, u := range urls {
			if _, err := url.ParseRequestURI(u); err != nil {
				return werror.Wrap(err, "invalid base URL", werror.UnsafeParam("url", u))
			}
		}
		b.URIs = refreshable.NewStringSlice(refreshable.NewDefaultRefreshable(append([]string(nil), urls...)))
		return nil
	})
}

// WithRefreshableBaseURLs sets base URLs which follow urls, a refreshable containing []string.
func WithRefreshableBaseURLs(urls refreshable.StringSlice) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.URIs = urls
		return nil
	})
}

// WithHTTPTimeout sets the timeout of the underlying http.Client, which bounds each attempt.
func WithHTTPTimeout(timeout time.Duration) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Timeout = refreshable.NewDuration(refreshable.NewDefaultRefreshable(timeout))
		return nil
	})
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(maxRetries int) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		if maxRetries < 0 {
			return werror.Error("invalid max retries", werror.SafeParam("maxRetries", maxRetries))
		}
		attempts := maxRetries + 1
		b.MaxAttempts = refreshable.NewIntPtr(refreshable.NewDefaultRefreshable(&attempts))
		return nil
	})
}

// WithInitialBackoff sets the first backoff interval between attempts.
func WithInitialBackoff(initialBackoff time.Duration) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.Backoff = b.Backoff.Derive(func(p *refreshingclient.Backoff) {
			p.Initial = initialBackoff
		})
		return nil
	})
}

// WithMaxBackoff caps the backoff interval between attempts.
func WithMaxBackoff(maxBackoff time.Duration) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.Backoff = b.Backoff.Derive(func(p *refreshingclient.Backoff) {
			p.Max = maxBackoff
		})
		return nil
	})
}

// WithErrorDecoder sets the decoder turning error responses into errors.
func WithErrorDecoder(errorDecoder ErrorDecoder) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.ErrorDecoder = errorDecoder
		return nil
	})
}

// WithDisableRestErrors returns every response to the caller, whatever its status code.
func WithDisableRestErrors() ClientParam {
	return WithErrorDecoder(nil)
}

// WithMiddleware adds middleware to every request. The first middleware is the outermost.
func WithMiddleware(h ...Middleware) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Middlewares = append(b.Middlewares, h...)
		return nil
	})
}

// WithMetrics adds tag providers to the client.response timer.
func WithMetrics(tagProviders ...TagsProvider) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.MetricsTagProviders = append(b.MetricsTagProviders, tagProviders...)
		return nil
	})
}

// WithDisableMetrics stops the client from recording metrics.
func WithDisableMetrics() ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.DisableMetrics = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithDisableRecovery lets panics in round trips propagate.
func WithDisableRecovery() ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.DisableRecovery = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithDisableTracing stops the client from propagating trace headers.
func WithDisableTracing() ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.DisableTracing = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithUserAgent sets the User-Agent header of requests which do not set one.
func WithUserAgent(userAgent string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.UserAgent = userAgent
		return nil
	})
}

// WithAuthToken sets a bearer token on every request.
func WithAuthToken(token string) ClientOrHTTPClientParam {
	return WithAuthTokenProvider(func(context.Context) (string, error) {
		return token, nil
	})
}

// WithAuthTokenProvider sets the bearer token returned by provider on every request.
func WithAuthTokenProvider(provider TokenProvider) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.AuthMiddleware = newAuthTokenMiddleware(provider)
		return nil
	})
}

// WithBasicAuth sets basic auth credentials on every request.
func WithBasicAuth(user, password string) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		auth := BasicAuth{User: user, Password: password}
		b.AuthMiddleware = newBasicAuthMiddleware(func(context.Context) (BasicAuth, error) {
			return auth, nil
		})
		return nil
	})
}

// WithTLSConfig sets the TLS configuration of the transport.
func WithTLSConfig(params refreshingclient.TLSParams) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		tlsConfig, err := refreshingclient.NewTLSConfig(params)
		if err != nil {
			return err
		}
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.TLS = tlsConfig
		})
		return nil
	})
}

// WithTLSInsecureSkipVerify disables verification of the server certificate.
func WithTLSInsecureSkipVerify() ClientOrHTTPClientParam {
	return WithTLSConfig(refreshingclient.TLSParams{InsecureSkipVerify: true})
}

// WithProxyURL routes requests through an http, https or socks5 proxy.
func WithProxyURL(proxyURLString string) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		proxyURL, err := parseProxyURL(proxyURLString)
		if err != nil {
			return err
		}
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.Proxy = proxyURL
		})
		return nil
	})
}

// WithProxyFromEnvironment reads the proxy from the HTTP_PROXY, HTTPS_PROXY and NO_PROXY variables.
func WithProxyFromEnvironment() ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.ProxyFromEnvironment = true
		})
		return nil
	})
}

// WithDisableHTTP2 restricts the transport to HTTP/1.1.
func WithDisableHTTP2() ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.DisableHTTP2 = true
		})
		return nil
	})
}

// WithMaxIdleConns sets the maximum number of idle connections kept by the transport.
func WithMaxIdleConns(conns int) ClientOrHTTPClientParam {
	return httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.MaxIdleConns = conns
		})
		return nil
	})
}

// WithBytesBufferPool encodes request bodies into buffers taken from pool.
func WithBytesBufferPool(pool bytesbuffers.Pool) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.BytesBufferPool = pool
		return nil
	})
}

func parseProxyURL(proxyURLString string) (*url.URL, error) {
	proxyURL, err := url.Parse(proxyURLString)
	if err != nil {
		return nil, werror.Wrap(err, "invalid proxy url")
	}
	switch proxyURL.Scheme {
	case "http", "https", "socks5", "socks5h":
		return proxyURL, nil
	}
	return nil, werror.Error("proxy url scheme not supported", werror.SafeParam("scheme", proxyURL.Scheme))
}
