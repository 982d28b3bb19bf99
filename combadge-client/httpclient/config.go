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
	"os"
	"sort"
	"strings"
	"time"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal/refreshingclient"
	"github.com/palantir/pkg/metrics"
	werror "github.com/palantir/witchcraft-go-error"
)

// ServicesConfig is the configuration of every service a program binds to.
type ServicesConfig struct {
	// Default values will be used for any field which is not set for a specific client.
	Default ClientConfig `json:",inline" yaml:",inline"`
	// Services is a map of serviceName (e.g. "my-api") to service-specific configuration.
	Services map[string]ClientConfig `json:"services,omitempty" yaml:"services,omitempty"`
}

// ClientConfig is the configuration of a single service client.
type ClientConfig struct {
	ServiceName string `json:"-" yaml:"-"`
	// URIs is a list of fully specified base URIs for the service. These can optionally include a path
	// which will be prepended to the request path specified when invoking the client.
	URIs []string `json:"uris,omitempty" yaml:"uris,omitempty"`
	// APIToken is a string which, if provided, will be used as a Bearer token in the Authorization header.
	// This takes precedence over APITokenFile.
	APIToken *string `json:"api-token,omitempty" yaml:"api-token,omitempty"`
	// APITokenFile is an on-disk location containing a Bearer token.
	APITokenFile *string `json:"api-token-file,omitempty" yaml:"api-token-file,omitempty"`
	// BasicAuth is used when neither APIToken nor APITokenFile is set.
	BasicAuth *BasicAuth `json:"basic-auth,omitempty" yaml:"basic-auth,omitempty"`
	// DisableHTTP2, if true, restricts the client to HTTP/1.1.
	DisableHTTP2 *bool `json:"disable-http2,omitempty" yaml:"disable-http2,omitempty"`
	// ProxyFromEnvironment enables reading HTTP proxy information from environment variables.
	ProxyFromEnvironment *bool `json:"proxy-from-environment,omitempty" yaml:"proxy-from-environment,omitempty"`
	// ProxyURL uses the provided URL for proxying the request. Schemes http, https, and socks5 are supported.
	ProxyURL *string `json:"proxy-url,omitempty" yaml:"proxy-url,omitempty"`

	// MaxNumRetries controls the number of times the client will retry retryable failures.
	// If unset, this defaults to twice the number of URIs provided.
	MaxNumRetries *int `json:"max-num-retries,omitempty" yaml:"max-num-retries,omitempty"`
	// InitialBackoff controls the duration of the first backoff interval.
	InitialBackoff *time.Duration `json:"initial-backoff,omitempty" yaml:"initial-backoff,omitempty"`
	// MaxBackoff controls the maximum duration the client will sleep before retrying a request.
	MaxBackoff *time.Duration `json:"max-backoff,omitempty" yaml:"max-backoff,omitempty"`

	// ConnectTimeout is the maximum time for the net.Dialer to connect to the remote host.
	ConnectTimeout *time.Duration `json:"connect-timeout,omitempty" yaml:"connect-timeout,omitempty"`
	// ReadTimeout and WriteTimeout bound each attempt; the larger of the two is used.
	ReadTimeout  *time.Duration `json:"read-timeout,omitempty" yaml:"read-timeout,omitempty"`
	WriteTimeout *time.Duration `json:"write-timeout,omitempty" yaml:"write-timeout,omitempty"`
	// IdleConnTimeout sets the timeout for idle connections.
	IdleConnTimeout *time.Duration `json:"idle-conn-timeout,omitempty" yaml:"idle-conn-timeout,omitempty"`
	// TLSHandshakeTimeout sets the timeout for TLS handshakes
	TLSHandshakeTimeout *time.Duration `json:"tls-handshake-timeout,omitempty" yaml:"tls-handshake-timeout,omitempty"`
	// ResponseHeaderTimeout, if non-zero, bounds the wait for response headers after the request is written.
	ResponseHeaderTimeout *time.Duration `json:"response-header-timeout,omitempty" yaml:"response-header-timeout,omitempty"`
	// MaxIdleConns sets the number of reusable TCP connections the client will maintain.
	MaxIdleConns *int `json:"max-idle-conns,omitempty" yaml:"max-idle-conns,omitempty"`

	// Metrics allows disabling metric emission or adding additional static tags to the client metrics.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Security configures TLS. File paths are absolute or relative to the working directory.
	Security SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
}

// MetricsConfig configures client metrics.
type MetricsConfig struct {
	// Enabled can be used to disable metrics with an explicit 'false'. Metrics are enabled if this is unset.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Tags allows setting arbitrary additional tags on the metrics emitted by the client.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// SecurityConfig configures TLS.
type SecurityConfig struct {
	CAFiles  []string `json:"ca-files,omitempty" yaml:"ca-files,omitempty"`
	CertFile string   `json:"cert-file,omitempty" yaml:"cert-file,omitempty"`
	KeyFile  string   `json:"key-file,omitempty" yaml:"key-file,omitempty"`
	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify *bool `json:"insecure-skip-verify,omitempty" yaml:"insecure-skip-verify,omitempty"`
}

// MustClientConfig returns the configuration of serviceName, failing when the service is not configured.
func (c ServicesConfig) MustClientConfig(serviceName string) (ClientConfig, error) {
	if _, ok := c.Services[serviceName]; !ok {
		return ClientConfig{}, werror.Error("ClientConfiguration not found for serviceName", werror.SafeParam("serviceName", serviceName))
	}
	return c.ClientConfig(serviceName), nil
}

// ClientConfig returns the configuration of serviceName merged with the defaults.
func (c ServicesConfig) ClientConfig(serviceName string) ClientConfig {
	conf := c.Services[serviceName]
	conf.ServiceName = serviceName
	return MergeClientConfig(conf, c.Default)
}

// MergeClientConfig fills the unset fields of conf from defaults.
func MergeClientConfig(conf, defaults ClientConfig) ClientConfig {
	if len(conf.URIs) == 0 {
		conf.URIs = defaults.URIs
	}
	if conf.APIToken == nil && conf.APITokenFile == nil {
		conf.APIToken = defaults.APIToken
		conf.APITokenFile = defaults.APITokenFile
	}
	if conf.BasicAuth == nil {
		conf.BasicAuth = defaults.BasicAuth
	}
	if conf.DisableHTTP2 == nil {
		conf.DisableHTTP2 = defaults.DisableHTTP2
	}
	if conf.ProxyFromEnvironment == nil {
		conf.ProxyFromEnvironment = defaults.ProxyFromEnvironment
	}
	if conf.ProxyURL == nil {
		conf.ProxyURL = defaults.ProxyURL
	}
	if conf.MaxNumRetries == nil {
		conf.MaxNumRetries = defaults.MaxNumRetries
	}
	if conf.InitialBackoff == nil {
		conf.InitialBackoff = defaults.InitialBackoff
	}
	if conf.MaxBackoff == nil {
		conf.MaxBackoff = defaults.MaxBackoff
	}
	if conf.ConnectTimeout == nil {
		conf.ConnectTimeout = defaults.ConnectTimeout
	}
	if conf.ReadTimeout == nil {
		conf.ReadTimeout = defaults.ReadTimeout
	}
	if conf.WriteTimeout == nil {
		conf.WriteTimeout = defaults.WriteTimeout
	}
	if conf.IdleConnTimeout == nil {
		conf.IdleConnTimeout = defaults.IdleConnTimeout
	}
	if conf.TLSHandshakeTimeout == nil {
		conf.TLSHandshakeTimeout = defaults.TLSHandshakeTimeout
	}
	if conf.ResponseHeaderTimeout == nil {
		conf.ResponseHeaderTimeout = defaults.ResponseHeaderTimeout
	}
	if conf.MaxIdleConns == nil {
		conf.MaxIdleConns = defaults.MaxIdleConns
	}
	if conf.Metrics.Enabled == nil {
		conf.Metrics.Enabled = defaults.Metrics.Enabled
	}
	if len(defaults.Metrics.Tags) > 0 {
		tags := make(map[string]string, len(defaults.Metrics.Tags)+len(conf.Metrics.Tags))
		for k, v := range defaults.Metrics.Tags {
			tags[k] = v
		}
		for k, v := range conf.Metrics.Tags {
			tags[k] = v
		}
		conf.Metrics.Tags = tags
	}
	if len(conf.Security.CAFiles) == 0 {
		conf.Security.CAFiles = defaults.Security.CAFiles
	}
	if conf.Security.CertFile == "" && conf.Security.KeyFile == "" {
		conf.Security.CertFile = defaults.Security.CertFile
		conf.Security.KeyFile = defaults.Security.KeyFile
	}
	if conf.Security.InsecureSkipVerify == nil {
		conf.Security.InsecureSkipVerify = defaults.Security.InsecureSkipVerify
	}
	return conf
}

func configToParams(c ClientConfig) ([]ClientParam, error) {
	var params []ClientParam
	if c.ServiceName != "" {
		params = append(params, WithServiceName(c.ServiceName))
	}
	if len(c.URIs) > 0 {
		params = append(params, WithBaseURLs(c.URIs))
	}

	switch {
	case c.APIToken != nil:
		params = append(params, WithAuthToken(*c.APIToken))
	case c.APITokenFile != nil:
		token, err := readTokenFile(*c.APITokenFile)
		if err != nil {
			return nil, err
		}
		params = append(params, WithAuthToken(token))
	case c.BasicAuth != nil:
		params = append(params, WithBasicAuth(c.BasicAuth.User, c.BasicAuth.Password))
	}

	if c.DisableHTTP2 != nil && *c.DisableHTTP2 {
		params = append(params, WithDisableHTTP2())
	}
	if c.ProxyURL != nil {
		params = append(params, WithProxyURL(*c.ProxyURL))
	} else if c.ProxyFromEnvironment != nil && *c.ProxyFromEnvironment {
		params = append(params, WithProxyFromEnvironment())
	}

	if c.MaxNumRetries != nil {
		params = append(params, WithMaxRetries(*c.MaxNumRetries))
	}
	if c.InitialBackoff != nil {
		params = append(params, WithInitialBackoff(*c.InitialBackoff))
	}
	if c.MaxBackoff != nil {
		params = append(params, WithMaxBackoff(*c.MaxBackoff))
	}

	if timeout := maxTimeout(c); timeout > 0 {
		params = append(params, WithHTTPTimeout(timeout))
	}
	transportParams := httpClientParamFunc(func(b *httpClientBuilder) error {
		b.Conn = b.Conn.Derive(func(p *refreshingclient.ConnParams) {
			p.DialTimeout = derefDurationPtr(c.ConnectTimeout, p.DialTimeout)
			p.IdleConnTimeout = derefDurationPtr(c.IdleConnTimeout, p.IdleConnTimeout)
			p.TLSHandshakeTimeout = derefDurationPtr(c.TLSHandshakeTimeout, p.TLSHandshakeTimeout)
			p.ResponseHeaderTimeout = derefDurationPtr(c.ResponseHeaderTimeout, p.ResponseHeaderTimeout)
			p.MaxIdleConns = derefIntPtr(c.MaxIdleConns, p.MaxIdleConns)
		})
		return nil
	})
	params = append(params, transportParams)

	if c.Metrics.Enabled != nil && !*c.Metrics.Enabled {
		params = append(params, WithDisableMetrics())
	}
	if len(c.Metrics.Tags) > 0 {
		tags, err := newMetricsTags(c.Metrics.Tags)
		if err != nil {
			return nil, err
		}
		params = append(params, WithMetrics(StaticTagsProvider(tags)))
	}

	if len(c.Security.CAFiles) > 0 || c.Security.CertFile != "" || c.Security.KeyFile != "" || c.Security.InsecureSkipVerify != nil {
		params = append(params, WithTLSConfig(tlsParamsFromConfig(c.Security)))
	}
	return params, nil
}

func tlsParamsFromConfig(c SecurityConfig) refreshingclient.TLSParams {
	return refreshingclient.TLSParams{
		CAFiles:            c.CAFiles,
		CertFile:           c.CertFile,
		KeyFile:            c.KeyFile,
		InsecureSkipVerify: derefBoolPtr(c.InsecureSkipVerify, false),
	}
}

func readTokenFile(path string) (string, error) {
	token, err := os.ReadFile(path)
	if err != nil {
		return "", werror.Wrap(err, "failed to read api-token-file", werror.SafeParam("file", path))
	}
	return strings.TrimSpace(string(token)), nil
}

func maxTimeout(c ClientConfig) time.Duration {
	rt := derefDurationPtr(c.ReadTimeout, 0)
	wt := derefDurationPtr(c.WriteTimeout, 0)
	if rt > wt {
		return rt
	}
	return wt
}

func derefDurationPtr(durPtr *time.Duration, defaultVal time.Duration) time.Duration {
	if durPtr == nil {
		return defaultVal
	}
	return *durPtr
}

func derefIntPtr(intPtr *int, defaultVal int) int {
	if intPtr == nil {
		return defaultVal
	}
	return *intPtr
}

func derefBoolPtr(boolPtr *bool, defaultVal bool) bool {
	if boolPtr == nil {
		return defaultVal
	}
	return *boolPtr
}

func newMetricsTags(tagMap map[string]string) (metrics.Tags, error) {
	keys := make([]string, 0, len(tagMap))
	for k := range tagMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tags := make(metrics.Tags, 0, len(keys))
	for _, k := range keys {
		tag, err := metrics.NewTag(k, tagMap[k])
		if err != nil {
			return nil, werror.Wrap(err, "invalid metrics tag", werror.SafeParam("tagKey", k))
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
