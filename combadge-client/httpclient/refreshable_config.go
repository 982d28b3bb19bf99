// Copyright (c) 2021 Palantir Technologies. All rights reserved.
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

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal/refreshingclient"
	"github.com/palantir/pkg/metrics"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// RefreshableClientConfig holds a ClientConfig which may change while the program runs.
type RefreshableClientConfig interface {
	refreshable.Refreshable
	CurrentClientConfig() ClientConfig
}

type refreshableClientConfig struct {
	refreshable.Refreshable // contains ClientConfig
}

// NewRefreshableClientConfig wraps r, which must contain a ClientConfig.
func NewRefreshableClientConfig(r refreshable.Refreshable) RefreshableClientConfig {
	return refreshableClientConfig{Refreshable: r}
}

func (r refreshableClientConfig) CurrentClientConfig() ClientConfig {
	return r.Current().(ClientConfig)
}

func (r refreshableClientConfig) mapConfig(mapFn func(ClientConfig) interface{}) refreshable.Refreshable {
	return r.Map(func(i interface{}) interface{} {
		return mapFn(i.(ClientConfig))
	})
}

// newClientBuilderFromRefreshableConfig returns a builder whose parameters follow config.
// The service name and static metrics tags are read once.
func newClientBuilderFromRefreshableConfig(ctx context.Context, config RefreshableClientConfig) (*clientBuilder, error) {
	rc := refreshableClientConfig{Refreshable: config}
	current := config.CurrentClientConfig()
	b := newClientBuilder()

	if current.ServiceName != "" {
		serviceNameTag, err := metrics.NewTag(MetricTagServiceName, current.ServiceName)
		if err != nil {
			return nil, werror.WrapWithContextParams(ctx, err, "invalid service name metrics tag")
		}
		b.httpClientBuilder.ServiceName = serviceNameTag
	}
	if len(current.Metrics.Tags) > 0 {
		tags, err := newMetricsTags(current.Metrics.Tags)
		if err != nil {
			return nil, err
		}
		b.httpClientBuilder.MetricsTagProviders = append(b.httpClientBuilder.MetricsTagProviders, StaticTagsProvider(tags))
	}

	connDefaults := b.httpClientBuilder.Conn.Params()
	conn, err := refreshable.NewMapValidatingRefreshable(config, func(i interface{}) (interface{}, error) {
		return connParamsFromConfig(connDefaults, i.(ClientConfig))
	})
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "invalid client configuration")
	}
	b.httpClientBuilder.Conn = refreshingclient.ConnSource{Refreshable: conn}

	b.httpClientBuilder.Timeout = refreshable.NewDuration(rc.mapConfig(func(c ClientConfig) interface{} {
		if timeout := maxTimeout(c); timeout > 0 {
			return timeout
		}
		return defaultHTTPTimeout
	}))
	b.httpClientBuilder.DisableMetrics = refreshable.NewBool(rc.mapConfig(func(c ClientConfig) interface{} {
		return c.Metrics.Enabled != nil && !*c.Metrics.Enabled
	}))
	b.httpClientBuilder.AuthMiddleware = newAuthTokenMiddleware(func(context.Context) (string, error) {
		c := config.CurrentClientConfig()
		if c.APIToken != nil {
			return *c.APIToken, nil
		}
		if c.APITokenFile != nil {
			return readTokenFile(*c.APITokenFile)
		}
		return "", nil
	})
	b.httpClientBuilder.Middlewares = append(b.httpClientBuilder.Middlewares, newBasicAuthMiddleware(func(context.Context) (BasicAuth, error) {
		c := config.CurrentClientConfig()
		if c.APIToken != nil || c.APITokenFile != nil || c.BasicAuth == nil {
			return BasicAuth{}, nil
		}
		return *c.BasicAuth, nil
	}))

	b.URIs = refreshable.NewStringSlice(rc.mapConfig(func(c ClientConfig) interface{} {
		return c.URIs
	}))
	b.MaxAttempts = refreshable.NewIntPtr(rc.mapConfig(func(c ClientConfig) interface{} {
		if c.MaxNumRetries == nil {
			return (*int)(nil)
		}
		attempts := *c.MaxNumRetries + 1
		return &attempts
	}))
	backoffDefaults := b.Backoff.Backoff()
	b.Backoff = refreshingclient.BackoffSource{Refreshable: rc.mapConfig(func(c ClientConfig) interface{} {
		return refreshingclient.Backoff{
			Initial: derefDurationPtr(c.InitialBackoff, backoffDefaults.Initial),
			Max:     derefDurationPtr(c.MaxBackoff, backoffDefaults.Max),
		}
	})}
	return b, nil
}

// connParamsFromConfig overlays the connection settings of c on defaults. An unset proxy URL keeps
// the default proxy behavior.
func connParamsFromConfig(defaults refreshingclient.ConnParams, c ClientConfig) (refreshingclient.ConnParams, error) {
	p := defaults
	tlsConfig, err := refreshingclient.NewTLSConfig(tlsParamsFromConfig(c.Security))
	if err != nil {
		return p, err
	}
	p.TLS = tlsConfig
	if c.ProxyURL != nil {
		if p.Proxy, err = parseProxyURL(*c.ProxyURL); err != nil {
			return p, err
		}
	}
	p.ProxyFromEnvironment = derefBoolPtr(c.ProxyFromEnvironment, defaults.ProxyFromEnvironment)
	p.DisableHTTP2 = derefBoolPtr(c.DisableHTTP2, false)
	p.DialTimeout = derefDurationPtr(c.ConnectTimeout, defaults.DialTimeout)
	p.IdleConnTimeout = derefDurationPtr(c.IdleConnTimeout, defaults.IdleConnTimeout)
	p.TLSHandshakeTimeout = derefDurationPtr(c.TLSHandshakeTimeout, defaults.TLSHandshakeTimeout)
	p.ResponseHeaderTimeout = derefDurationPtr(c.ResponseHeaderTimeout, defaults.ResponseHeaderTimeout)
	p.MaxIdleConns = derefIntPtr(c.MaxIdleConns, defaults.MaxIdleConns)
	return p, nil
}
