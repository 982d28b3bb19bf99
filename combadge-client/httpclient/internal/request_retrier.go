// Copyright (c) 2020 Palantir Technologies. All rights reserved.
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

package internal

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/palantir/pkg/retry"
	werror "github.com/palantir/witchcraft-go-error"
)

const meshSchemePrefix = "mesh-"

// RequestRetrier manages the lifecycle of a single request across the configured base URIs. It tracks
// the backoff between attempts and moves to the next URI when one is unavailable or throttling.
// A mesh URI is attempted exactly once.
type RequestRetrier struct {
	retrier retry.Retrier

	uris          []string
	offset        int
	currentURI    string
	failedURIs    map[string]struct{}
	relocatedURIs map[string]struct{}

	maxAttempts  int
	attemptCount int
}

// NewRequestRetrier creates a new request retrier starting at the first URI.
// A maxAttempts of 0 means attempts are only bounded by the retrier.
func NewRequestRetrier(uris []string, retrier retry.Retrier, maxAttempts int) *RequestRetrier {
	return NewRequestRetrierWithOffset(uris, retrier, maxAttempts, 0)
}

// NewRequestRetrierWithOffset creates a new request retrier starting at uris[offset].
func NewRequestRetrierWithOffset(uris []string, retrier retry.Retrier, maxAttempts, offset int) *RequestRetrier {
	if len(uris) == 1 && isMeshURI(uris[0]) {
		maxAttempts = 1
	}
	if len(uris) > 0 {
		offset = offset % len(uris)
	}
	return &RequestRetrier{
		retrier:       retrier,
		uris:          uris,
		offset:        offset,
		failedURIs:    map[string]struct{}{},
		relocatedURIs: map[string]struct{}{},
		maxAttempts:   maxAttempts,
	}
}

func (r *RequestRetrier) attemptsRemaining() bool {
	if r.maxAttempts == 0 {
		return true
	}
	return r.attemptCount < r.maxAttempts
}

// ShouldGetNextURI reports whether another attempt should be made given the outcome of the previous one.
func (r *RequestRetrier) ShouldGetNextURI(resp *http.Response, respErr error) bool {
	if len(r.uris) == 0 {
		return false
	}
	if r.attemptCount == 0 {
		return true
	}
	return r.attemptsRemaining() && isRetryable(resp, respErr)
}

// GetNextURI returns the base URI of the next attempt, waiting for the backoff interval first when every
// URI has already failed.
func (r *RequestRetrier) GetNextURI(ctx context.Context, resp *http.Response, respErr error) (string, error) {
	if !r.ShouldGetNextURI(resp, respErr) {
		return "", werror.ErrorWithContextParams(ctx, "GetNextURI called, but retry should not be attempted",
			werror.SafeParam("attemptCount", r.attemptCount),
			werror.SafeParam("maxAttempts", r.maxAttempts))
	}
	defer func() { r.attemptCount++ }()

	if r.attemptCount == 0 {
		// the first Next of a retrier never waits
		_ = r.retrier.Next()
		r.currentURI = r.uris[r.offset]
		return r.removeMeshScheme(r.currentURI), nil
	}
	if location, ok := relocation(resp, respErr); ok {
		uri := location.String()
		r.relocatedURIs[uri] = struct{}{}
		r.currentURI = uri
		return uri, nil
	}

	_, backoff := r.failedURIs[r.currentURI]
	r.failedURIs[r.currentURI] = struct{}{}
	if throttled(resp, respErr) {
		backoff = true
	}
	if len(r.uris) > 1 {
		r.offset = (r.offset + 1) % len(r.uris)
	}
	next := r.uris[r.offset]
	if _, failed := r.failedURIs[next]; failed {
		backoff = true
	}
	if backoff && (!r.retrier.Next() || ctx.Err() != nil) {
		if err := ctx.Err(); err != nil {
			return "", werror.WrapWithContextParams(ctx, err, "request cancelled while backing off")
		}
		return "", werror.ErrorWithContextParams(ctx, "retries exhausted", werror.SafeParam("attemptCount", r.attemptCount))
	}
	r.currentURI = next
	return r.removeMeshScheme(next), nil
}

// IsRelocatedURI reports whether uri came from a redirect rather than the configured URIs.
func (r *RequestRetrier) IsRelocatedURI(uri string) bool {
	_, ok := r.relocatedURIs[uri]
	return ok
}

func (*RequestRetrier) removeMeshScheme(uri string) string {
	return strings.TrimPrefix(uri, meshSchemePrefix)
}

func isMeshURI(uri string) bool {
	return strings.HasPrefix(uri, meshSchemePrefix)
}

func isRetryable(resp *http.Response, respErr error) bool {
	if _, ok := relocation(resp, respErr); ok {
		return true
	}
	statusCode, ok := statusCode(resp, respErr)
	if !ok {
		// connection level failures have neither a response nor a status code
		return resp == nil
	}
	switch statusCode {
	case StatusCodeThrottle, StatusCodeUnavailable:
		return true
	}
	return false
}

func throttled(resp *http.Response, respErr error) bool {
	code, ok := statusCode(resp, respErr)
	return ok && code == StatusCodeThrottle
}

func statusCode(resp *http.Response, respErr error) (int, bool) {
	if resp != nil {
		return resp.StatusCode, true
	}
	return StatusCodeFromError(respErr)
}

func relocation(resp *http.Response, respErr error) (*url.URL, bool) {
	if location, ok := LocationFromResponse(resp); ok {
		return location, true
	}
	if code, ok := StatusCodeFromError(respErr); ok && (code == StatusCodeRetryOther || code == StatusCodeRetryTemp) {
		return LocationFromError(respErr)
	}
	return nil, false
}
