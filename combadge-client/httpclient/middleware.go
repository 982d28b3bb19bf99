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
	"fmt"
	"net/http"

	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// A Middleware wraps the round trip of a request. Implementations call next.RoundTrip to continue.
type Middleware interface {
	RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// MiddlewareFunc is a Middleware function.
type MiddlewareFunc func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func (f MiddlewareFunc) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	return f(req, next)
}

// wrapTransport wraps rt so that the first middleware is the outermost.
func wrapTransport(rt http.RoundTripper, middleware ...Middleware) http.RoundTripper {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] == nil {
			continue
		}
		rt = &wrappedClient{baseTransport: rt, middleware: middleware[i]}
	}
	return rt
}

type wrappedClient struct {
	baseTransport http.RoundTripper
	middleware    Middleware
}

func (c *wrappedClient) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.middleware.RoundTrip(req, c.baseTransport)
}

// newRecoveryMiddleware converts a panic further down the chain into an error naming the request.
// The recovered value may hold request arguments such as credentials, so it is an unsafe param.
func newRecoveryMiddleware(disabled refreshable.Bool) Middleware {
	return MiddlewareFunc(func(req *http.Request, next http.RoundTripper) (resp *http.Response, err error) {
		if disabled != nil && disabled.CurrentBool() {
			return next.RoundTrip(req)
		}
		defer func() {
			if r := recover(); r != nil {
				resp = nil
				err = werror.ErrorWithContextParams(req.Context(), "client transport panicked",
					werror.SafeParam("requestMethod", req.Method),
					werror.UnsafeParam("requestPath", req.URL.Path),
					werror.UnsafeParam("recovered", fmt.Sprint(r)))
			}
		}()
		return next.RoundTrip(req)
	})
}
