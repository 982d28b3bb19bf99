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
	"net/http"

	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/witchcraft-go-tracing/wtracing"
)

const traceIDHeaderKey = "X-B3-TraceId"

// traceMiddleware propagates the trace ID of the request context.
type traceMiddleware struct {
	Disabled refreshable.Bool
}

func (t traceMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if t.Disabled != nil && t.Disabled.CurrentBool() {
		return next.RoundTrip(req)
	}
	if traceID := wtracing.TraceIDFromContext(req.Context()); traceID != "" && req.Header.Get(traceIDHeaderKey) == "" {
		req.Header.Set(traceIDHeaderKey, string(traceID))
	}
	return next.RoundTrip(req)
}
