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

package errors

import (
	"net/http"
	"testing"
	"time"

	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQOSFromResponse(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		header http.Header
		want   *QOSError
	}{
		{
			name:   "throttle with delay",
			status: http.StatusTooManyRequests,
			header: http.Header{"Retry-After": []string{"3"}},
			want:   &QOSError{Kind: QOSThrottle, StatusCode: 429, RetryAfter: 3 * time.Second},
		},
		{
			name:   "unavailable with garbage delay",
			status: http.StatusServiceUnavailable,
			header: http.Header{"Retry-After": []string{"soon"}},
			want:   &QOSError{Kind: QOSUnavailable, StatusCode: 503},
		},
		{
			name:   "retry other",
			status: http.StatusPermanentRedirect,
			header: http.Header{"Location": []string{"https://other"}},
			want:   &QOSError{Kind: QOSRetryOther, StatusCode: 308, Location: "https://other"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			qos, ok := QOSFromResponse(tc.status, tc.header)
			require.True(t, ok)
			assert.Equal(t, tc.want, qos)
		})
	}

	_, ok := QOSFromResponse(http.StatusInternalServerError, http.Header{})
	assert.False(t, ok)
}

func TestRetryAfter_HTTPDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	header := http.Header{"Retry-After": []string{now.Add(90 * time.Second).Format(http.TimeFormat)}}
	assert.Equal(t, 90*time.Second, retryAfter(header, now))

	header.Set("Retry-After", now.Add(-time.Minute).Format(http.TimeFormat))
	assert.Zero(t, retryAfter(header, now))
}

func TestQOSError_Params(t *testing.T) {
	qos := &QOSError{Kind: QOSRetryOther, StatusCode: 308, Location: "https://other"}
	assert.EqualError(t, qos, "308 retry other")
	assert.Equal(t, map[string]interface{}{"statusCode": 308, "qosKind": "retry-other"}, qos.SafeParams())
	assert.Equal(t, map[string]interface{}{"location": "https://other"}, qos.UnsafeParams())

	throttle := &QOSError{Kind: QOSThrottle, StatusCode: 429, RetryAfter: time.Second}
	assert.Equal(t, "1s", throttle.SafeParams()["retryAfter"])
	assert.Empty(t, throttle.UnsafeParams())
}

func TestQOSFromError(t *testing.T) {
	qos := &QOSError{Kind: QOSUnavailable, StatusCode: 503}
	got, ok := QOSFromError(werror.Wrap(qos, "call failed"))
	require.True(t, ok)
	assert.Same(t, qos, got)

	_, ok = QOSFromError(werror.Error("plain"))
	assert.False(t, ok)
}
