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
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"time"

	"github.com/palantir/pkg/metrics"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	MetricTagServiceName = "service-name"
	MetricClientResponse = "client.response"

	MetricTLSHandshakeAttempt = "tls.handshake.attempt.count"
	MetricTLSHandshakeFailure = "tls.handshake.failure.count"
	MetricTLSHandshake        = "tls.handshake.count"
	CipherTagKey              = "cipher"
	NextProtocolTagKey        = "next_protocol"
	TLSVersionTagKey          = "tls_version"

	metricTagFamily     = "family"
	metricTagMethod     = "method"
	metricRPCMethodName = "method-name"
)

// A TagsProvider returns metrics tags based on an http round trip.
type TagsProvider interface {
	Tags(*http.Request, *http.Response) metrics.Tags
}

// TagsProviderFunc is a convenience type that implements TagsProvider.
type TagsProviderFunc func(*http.Request, *http.Response) metrics.Tags

func (f TagsProviderFunc) Tags(req *http.Request, resp *http.Response) metrics.Tags {
	return f(req, resp)
}

// StaticTagsProvider adds the same tags to every request.
type StaticTagsProvider metrics.Tags

func (s StaticTagsProvider) Tags(*http.Request, *http.Response) metrics.Tags {
	return metrics.Tags(s)
}

// MetricsMiddleware records every round trip in the client.response timer of the registry found in
// the request context. Timers are tagged with the service name, the status family, the HTTP method,
// the bound method name and whatever the providers add.
func MetricsMiddleware(serviceName string, tagProviders ...TagsProvider) (Middleware, error) {
	serviceNameTag, err := metrics.NewTag(MetricTagServiceName, serviceName)
	if err != nil {
		return nil, werror.Wrap(err, "invalid service name for metrics", werror.SafeParam("serviceName", serviceName))
	}
	return newMetricsMiddleware(serviceNameTag, tagProviders, nil), nil
}

type metricsMiddleware struct {
	disabled  refreshable.Bool
	service   metrics.Tags // the service-name tag, when one is set
	providers []TagsProvider
}

func newMetricsMiddleware(serviceNameTag metrics.Tag, tagProviders []TagsProvider, disabled refreshable.Bool) *metricsMiddleware {
	m := &metricsMiddleware{disabled: disabled, providers: tagProviders}
	if serviceNameTag.Key() != "" {
		m.service = metrics.Tags{serviceNameTag}
	}
	return m
}

func (m *metricsMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if m.disabled != nil && m.disabled.CurrentBool() {
		return next.RoundTrip(req)
	}
	registry := metrics.FromContext(req.Context())
	traced := req.WithContext(httptrace.WithClientTrace(req.Context(), m.handshakeTrace(registry)))
	start := time.Now()
	resp, err := next.RoundTrip(traced)
	registry.Timer(MetricClientResponse, m.responseTags(req, resp)...).Update(time.Since(start) / time.Microsecond)
	return resp, err
}

func (m *metricsMiddleware) responseTags(req *http.Request, resp *http.Response) metrics.Tags {
	var tags metrics.Tags
	for _, p := range m.providers {
		tags = append(tags, p.Tags(req, resp)...)
	}
	tags = append(tags,
		metrics.MustNewTag(metricTagFamily, statusFamily(resp)),
		metrics.MustNewTag(metricTagMethod, req.Method),
		methodNameTag(RPCMethodNameFromContext(req.Context())),
	)
	return append(tags, m.service...)
}

// statusFamily buckets a response into 1xx to 5xx, or other when no valid status arrived.
func statusFamily(resp *http.Response) string {
	if resp == nil || resp.StatusCode < 100 || resp.StatusCode > 599 {
		return "other"
	}
	return strconv.Itoa(resp.StatusCode/100) + "xx"
}

func methodNameTag(name string) metrics.Tag {
	if name == "" {
		return metrics.MustNewTag(metricRPCMethodName, "RPCMethodNameMissing")
	}
	return metrics.NewTagWithFallbackValue(metricRPCMethodName, name, "RPCMethodNameInvalid")
}

func (m *metricsMiddleware) handshakeTrace(registry metrics.Registry) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		TLSHandshakeStart: func() {
			registry.Meter(MetricTLSHandshakeAttempt, m.service...).Mark(1)
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			name := MetricTLSHandshake
			if err != nil {
				name = MetricTLSHandshakeFailure
			}
			registry.Meter(name, append(handshakeTags(state), m.service...)...).Mark(1)
		},
	}
}

func handshakeTags(state tls.ConnectionState) metrics.Tags {
	var tags metrics.Tags
	if state.Version == 0 {
		return tags
	}
	tags = append(tags, metrics.MustNewTag(TLSVersionTagKey, strings.ReplaceAll(tls.VersionName(state.Version), " ", "")))
	if suite := tls.CipherSuiteName(state.CipherSuite); suite != "" {
		tags = append(tags, metrics.MustNewTag(CipherTagKey, suite))
	}
	if state.NegotiatedProtocol != "" {
		tags = append(tags, metrics.MustNewTag(NextProtocolTagKey, state.NegotiatedProtocol))
	}
	return tags
}
