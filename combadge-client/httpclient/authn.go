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
	"encoding/base64"
	"net/http"

	werror "github.com/palantir/witchcraft-go-error"
)

// TokenProvider returns the bearer token for a request.
type TokenProvider func(context.Context) (string, error)

// BasicAuthProvider returns the basic auth credentials for a request.
type BasicAuthProvider func(context.Context) (BasicAuth, error)

// BasicAuth is a user/password pair.
type BasicAuth struct {
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

func newAuthTokenMiddleware(provider TokenProvider) Middleware {
	return MiddlewareFunc(func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
		token, err := provider(req.Context())
		if err != nil {
			return nil, werror.WrapWithContextParams(req.Context(), err, "failed to get auth token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return next.RoundTrip(req)
	})
}

func newBasicAuthMiddleware(provider BasicAuthProvider) Middleware {
	return MiddlewareFunc(func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
		auth, err := provider(req.Context())
		if err != nil {
			return nil, werror.WrapWithContextParams(req.Context(), err, "failed to get basic auth credentials")
		}
		if auth.User != "" || auth.Password != "" {
			req.Header.Set("Authorization", "Basic "+basicAuthValue(auth))
		}
		return next.RoundTrip(req)
	})
}

func basicAuthValue(auth BasicAuth) string {
	return base64.StdEncoding.EncodeToString([]byte(auth.User + ":" + auth.Password))
}
