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
	"net/url"
	"strings"

	"github.com/palantir/pkg/bytesbuffers"
	werror "github.com/palantir/witchcraft-go-error"
)

type requestBuilder struct {
	method         string
	path           string
	headers        http.Header
	query          url.Values
	bodyMiddleware *bodyMiddleware
	bufferPool     bytesbuffers.Pool

	errorDecoder    ErrorDecoder
	errorDecoderSet bool
	middlewares     []Middleware
	configureCtx    []func(context.Context) context.Context
}

// A RequestParam modifies a single request.
type RequestParam interface {
	apply(*requestBuilder) error
}

type requestParamFunc func(*requestBuilder) error

func (f requestParamFunc) apply(b *requestBuilder) error {
	return f(b)
}

func (c *clientImpl) newRequest(ctx context.Context, baseURL string, params ...RequestParam) (*http.Request, []Middleware, error) {
	b := &requestBuilder{
		headers:        make(http.Header),
		query:          make(url.Values),
		bodyMiddleware: &bodyMiddleware{bufferPool: c.bufferPool},
		bufferPool:     c.bufferPool,
	}
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.apply(b); err != nil {
			return nil, nil, err
		}
	}
	for _, configure := range b.configureCtx {
		ctx = configure(ctx)
	}
	if b.method == "" {
		return nil, nil, werror.ErrorWithContextParams(ctx, "httpclient: use WithRequestMethod() to specify HTTP method")
	}
	req, err := http.NewRequestWithContext(ctx, b.method, joinURL(baseURL, b.path), nil)
	if err != nil {
		return nil, nil, werror.WrapWithContextParams(ctx, err, "failed to build new HTTP request")
	}
	for k, v := range b.headers {
		req.Header[k] = v
	}
	if q := b.query.Encode(); q != "" {
		if req.URL.RawQuery != "" {
			req.URL.RawQuery += "&" + q
		} else {
			req.URL.RawQuery = q
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	errorDecoder := c.errorDecoder
	if b.errorDecoderSet {
		errorDecoder = b.errorDecoder
	}
	middlewares := append([]Middleware{b.bodyMiddleware}, b.middlewares...)
	if errorDecoder != nil {
		middlewares = append(middlewares, errorDecoderMiddleware(errorDecoder))
	}
	return req, middlewares, nil
}

// joinURL appends path to baseURL, which may carry its own path prefix.
func joinURL(baseURL, path string) string {
	if path == "" {
		return baseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
