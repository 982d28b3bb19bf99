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
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	werror "github.com/palantir/witchcraft-go-error"
)

// QOSKind classifies why a service declined a call.
type QOSKind int

const (
	// QOSThrottle is a 429: the caller should slow down.
	QOSThrottle QOSKind = iota + 1
	// QOSUnavailable is a 503: this node cannot serve the call right now.
	QOSUnavailable
	// QOSRetryOther is a 308: the call belongs on the node named by Location.
	QOSRetryOther
)

func (k QOSKind) String() string {
	switch k {
	case QOSThrottle:
		return "throttle"
	case QOSUnavailable:
		return "unavailable"
	case QOSRetryOther:
		return "retry-other"
	}
	return "QOSKind(" + strconv.Itoa(int(k)) + ")"
}

// QOSError reports a call a service declined for capacity or placement reasons rather than
// failed. No error model is matched against these statuses.
type QOSError struct {
	Kind       QOSKind
	StatusCode int
	// RetryAfter is the wait the service asked for, zero when it gave none.
	RetryAfter time.Duration
	// Location is the node to retry against for QOSRetryOther.
	Location string
}

func (e *QOSError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, strings.ReplaceAll(e.Kind.String(), "-", " "))
}

func (e *QOSError) SafeParams() map[string]interface{} {
	params := map[string]interface{}{"statusCode": e.StatusCode, "qosKind": e.Kind.String()}
	if e.RetryAfter > 0 {
		params["retryAfter"] = e.RetryAfter.String()
	}
	return params
}

func (e *QOSError) UnsafeParams() map[string]interface{} {
	if e.Location == "" {
		return map[string]interface{}{}
	}
	return map[string]interface{}{"location": e.Location}
}

// QOSFromResponse returns the QOSError for a 308, 429 or 503 response. ok is false for any other
// status.
func QOSFromResponse(statusCode int, header http.Header) (qos *QOSError, ok bool) {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &QOSError{Kind: QOSThrottle, StatusCode: statusCode, RetryAfter: retryAfter(header, time.Now())}, true
	case http.StatusServiceUnavailable:
		return &QOSError{Kind: QOSUnavailable, StatusCode: statusCode, RetryAfter: retryAfter(header, time.Now())}, true
	case http.StatusPermanentRedirect:
		return &QOSError{Kind: QOSRetryOther, StatusCode: statusCode, Location: header.Get("Location")}, true
	}
	return nil, false
}

// QOSFromError returns the QOSError err was built from, if any.
func QOSFromError(err error) (*QOSError, bool) {
	qos, ok := werror.RootCause(err).(*QOSError)
	return qos, ok
}

// retryAfter reads Retry-After as delta seconds or an HTTP date.
func retryAfter(header http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return 0
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now).Truncate(time.Second)
	}
	return 0
}
