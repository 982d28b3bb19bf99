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
	"fmt"
	"net/url"
	"strings"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

// WithRPCMethodName sets the method name reported in the method-name tag of client metrics.
func WithRPCMethodName(name string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.configureCtx = append(b.configureCtx, func(ctx context.Context) context.Context {
			return ContextWithRPCMethodName(ctx, name)
		})
		return nil
	})
}

// WithRequestMethod sets the HTTP method of the request.
func WithRequestMethod(method string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		if method == "" {
			return werror.Error("httpclient.RequestMethod: method can not be empty")
		}
		b.method = strings.ToUpper(method)
		return nil
	})
}

// WithPath sets the path of the request, which is appended to the base URL.
// The path must already be escaped.
func WithPath(path string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.path = path
		return nil
	})
}

// WithPathf sets the path of the request from a format string.
func WithPathf(format string, args ...interface{}) RequestParam {
	return WithPath(fmt.Sprintf(format, args...))
}

// WithHeader sets a header, replacing any existing values.
func WithHeader(key, value string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.headers.Set(key, value)
		return nil
	})
}

// WithHeaders adds every value of headers.
func WithHeaders(headers map[string][]string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		for key, values := range headers {
			for _, value := range values {
				b.headers.Add(key, value)
			}
		}
		return nil
	})
}

// WithQueryValues adds query parameters to the request.
func WithQueryValues(query url.Values) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		for key, values := range query {
			for _, value := range values {
				b.query.Add(key, value)
			}
		}
		return nil
	})
}

// WithRequestBody encodes input as the request body using encoder, which also sets the Content-Type.
func WithRequestBody(input interface{}, encoder codecs.Encoder) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.out = outgoingBody{value: input, encoder: encoder}
		b.headers.Set("Content-Type", encoder.ContentType())
		return nil
	})
}

// WithRawRequestBody sends body without encoding it. Content-Type defaults to application/octet-stream.
func WithRawRequestBody(body RequestBody) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.out = outgoingBody{value: body}
		if b.headers.Get("Content-Type") == "" {
			b.headers.Set("Content-Type", codecs.Binary.ContentType())
		}
		return nil
	})
}

// WithJSONRequest encodes input as JSON.
func WithJSONRequest(input interface{}) RequestParam {
	return WithRequestBody(input, codecs.JSON)
}

// WithCompressedRequest encodes input with codec and compresses it with zlib.
func WithCompressedRequest(input interface{}, codec codecs.Codec) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.headers.Set("Content-Encoding", "deflate")
		b.bodyMiddleware.out = outgoingBody{value: input, encoder: codecs.ZLIB(codec)}
		b.headers.Set("Content-Type", codec.ContentType())
		return nil
	})
}

// WithResponseBody decodes a successful response body into output.
func WithResponseBody(output interface{}, decoder codecs.Decoder) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.in = incomingBody{target: output, decoder: decoder}
		b.headers.Set("Accept", decoder.Accept())
		return nil
	})
}

// WithJSONResponse decodes a successful JSON response body into output.
func WithJSONResponse(output interface{}) RequestParam {
	return WithResponseBody(output, codecs.JSON)
}

// WithRawResponseBody returns the response without reading its body. The caller must close it.
func WithRawResponseBody() RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.in = incomingBody{raw: true}
		return nil
	})
}

// WithRequestErrorDecoder overrides the client's error decoder for one request.
// A nil decoder returns every response, whatever its status, to the caller.
func WithRequestErrorDecoder(errorDecoder ErrorDecoder) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.errorDecoder = errorDecoder
		b.errorDecoderSet = true
		return nil
	})
}

// WithRequestMiddleware adds middleware to this request only. They run inside the client middleware.
func WithRequestMiddleware(middleware ...Middleware) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.middlewares = append(b.middlewares, middleware...)
		return nil
	})
}
