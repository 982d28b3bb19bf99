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
	"testing"
	"time"

	"github.com/palantir/pkg/retry"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ retry.Retrier = &mockRetrier{}

type mockRetrier struct {
	nextCalls int
	next      bool
}

func (m *mockRetrier) Reset() {}

func (m *mockRetrier) Next() bool {
	m.nextCalls++
	return m.next
}

func (m *mockRetrier) CurrentAttempt() int {
	return m.nextCalls
}

func TestRequestRetrier_HandleMeshURI(t *testing.T) {
	ctx := context.Background()
	r := NewRequestRetrier([]string{"mesh-http://example.com"}, retry.Start(ctx), 5)
	require.True(t, r.ShouldGetNextURI(nil, nil))
	uri, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "http://example.com", uri)
	respErr := werror.ErrorWithContextParams(ctx, "error", werror.SafeParam("statusCode", 429))
	require.False(t, r.ShouldGetNextURI(nil, respErr))
	_, err = r.GetNextURI(ctx, nil, respErr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetNextURI called, but retry should not be attempted")
}

func TestRequestRetrier_AttemptCount(t *testing.T) {
	ctx := context.Background()
	maxAttempts := 3
	r := NewRequestRetrier([]string{"https://example.com"}, &mockRetrier{next: true}, maxAttempts)
	require.True(t, r.ShouldGetNextURI(nil, nil))
	_, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	for i := 0; i < maxAttempts-1; i++ {
		_, err = r.GetNextURI(ctx, nil, nil)
		require.NoError(t, err)
	}
	require.False(t, r.ShouldGetNextURI(nil, nil))
	_, err = r.GetNextURI(ctx, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetNextURI called, but retry should not be attempted")
}

func TestRequestRetrier_NoURIs(t *testing.T) {
	r := NewRequestRetrier(nil, &mockRetrier{next: true}, 0)
	require.False(t, r.ShouldGetNextURI(nil, nil))
}

func TestRequestRetrier_UsesLocationHeader(t *testing.T) {
	resp := &http.Response{
		StatusCode: StatusCodeRetryOther,
		Header:     http.Header{"Location": {"http://example.com"}},
	}
	ctx := context.Background()
	r := NewRequestRetrier([]string{"a"}, &mockRetrier{next: true}, 2)
	_, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	require.True(t, r.ShouldGetNextURI(resp, nil))
	uri, err := r.GetNextURI(ctx, resp, nil)
	require.NoError(t, err)
	require.Equal(t, "http://example.com", uri)
	require.True(t, r.IsRelocatedURI(uri))
}

func TestRequestRetrier_UsesLocationFromErr(t *testing.T) {
	ctx := context.Background()
	r := NewRequestRetrier([]string{"http://example-1.com"}, &mockRetrier{next: true}, 2)
	respErr := werror.ErrorWithContextParams(ctx, "307",
		werror.SafeParam("statusCode", 307),
		werror.SafeParam("location", "http://example-2.com"))
	uri, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "http://example-1.com", uri)
	require.False(t, r.IsRelocatedURI(uri))

	require.True(t, r.ShouldGetNextURI(nil, respErr))
	uri, err = r.GetNextURI(ctx, nil, respErr)
	require.NoError(t, err)
	require.Equal(t, "http://example-2.com", uri)
	require.True(t, r.IsRelocatedURI(uri))
}

func TestRequestRetrier_ShouldGetNextURI(t *testing.T) {
	for _, tc := range []struct {
		name        string
		resp        *http.Response
		respErr     error
		shouldRetry bool
	}{
		{
			name:        "success response",
			resp:        &http.Response{StatusCode: http.StatusOK},
			shouldRetry: false,
		},
		{
			name:        "client error response",
			resp:        &http.Response{StatusCode: http.StatusBadRequest},
			shouldRetry: false,
		},
		{
			name:        "internal server error response",
			resp:        &http.Response{StatusCode: http.StatusInternalServerError},
			shouldRetry: false,
		},
		{
			name:        "unavailable response",
			resp:        &http.Response{StatusCode: http.StatusServiceUnavailable},
			shouldRetry: true,
		},
		{
			name:        "throttle error",
			respErr:     werror.Error("throttled", werror.SafeParam("statusCode", 429)),
			shouldRetry: true,
		},
		{
			name:        "non-retryable error",
			respErr:     werror.Error("not found", werror.SafeParam("statusCode", 404)),
			shouldRetry: false,
		},
		{
			name:        "connection error",
			respErr:     werror.Error("connection refused"),
			shouldRetry: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRequestRetrier([]string{"a", "b"}, &mockRetrier{next: true}, 0)
			_, err := r.GetNextURI(context.Background(), nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.shouldRetry, r.ShouldGetNextURI(tc.resp, tc.respErr))
		})
	}
}

func TestRequestRetrier_FailsOverBeforeBackingOff(t *testing.T) {
	ctx := context.Background()
	backoff := &mockRetrier{next: true}
	r := NewRequestRetrier([]string{"a", "b"}, backoff, 0)
	unavailable := &http.Response{StatusCode: http.StatusServiceUnavailable}

	uri, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", uri)

	uri, err = r.GetNextURI(ctx, unavailable, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", uri)
	assert.Equal(t, 1, backoff.nextCalls)

	uri, err = r.GetNextURI(ctx, unavailable, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", uri)
	assert.Equal(t, 2, backoff.nextCalls)
}

func TestRequestRetrier_BacksOffWhenThrottled(t *testing.T) {
	ctx := context.Background()
	backoff := &mockRetrier{next: true}
	r := NewRequestRetrier([]string{"a", "b"}, backoff, 0)
	_, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	_, err = r.GetNextURI(ctx, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, backoff.nextCalls)
}

func TestRequestRetrier_RetrierExhausted(t *testing.T) {
	ctx := context.Background()
	r := NewRequestRetrier([]string{"a"}, &mockRetrier{next: false}, 0)
	_, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	_, err = r.GetNextURI(ctx, nil, werror.Error("connection refused"))
	require.EqualError(t, err, "retries exhausted")
}

func TestRequestRetrier_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRequestRetrier([]string{"a"}, retry.Start(ctx, retry.WithInitialBackoff(time.Hour)), 0)
	_, err := r.GetNextURI(ctx, nil, nil)
	require.NoError(t, err)
	cancel()
	_, err = r.GetNextURI(ctx, nil, werror.Error("connection refused"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request cancelled while backing off")
}
