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
	"io"
	"net/http"
	"net/url"

	"github.com/palantir/go-combadge/combadge-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	StatusCodeRetryOther  = http.StatusPermanentRedirect
	StatusCodeRetryTemp   = http.StatusTemporaryRedirect
	StatusCodeThrottle    = http.StatusTooManyRequests
	StatusCodeUnavailable = http.StatusServiceUnavailable
)

// StatusCodeFromError returns the status code carried by the root cause of err, falling back to the
// "statusCode" parameter of a werror.
func StatusCodeFromError(err error) (statusCode int, ok bool) {
	if err == nil {
		return 0, false
	}
	switch cause := werror.RootCause(err).(type) {
	case errors.Error:
		return cause.Code().StatusCode(), true
	case interface{ StatusCode() int }:
		return cause.StatusCode(), true
	}
	statusCodeI, ok := werror.ParamFromError(err, "statusCode")
	if !ok {
		return 0, false
	}
	statusCode, ok = statusCodeI.(int)
	return statusCode, ok
}

// LocationFromError returns the "location" parameter of a werror as a URL.
func LocationFromError(err error) (*url.URL, bool) {
	locationI, ok := werror.ParamFromError(err, "location")
	if !ok {
		return nil, false
	}
	location, ok := locationI.(string)
	if !ok || location == "" {
		return nil, false
	}
	u, parseErr := url.Parse(location)
	if parseErr != nil {
		return nil, false
	}
	return u, true
}

// LocationFromResponse returns the Location header of a redirect response.
func LocationFromResponse(resp *http.Response) (*url.URL, bool) {
	if resp == nil {
		return nil, false
	}
	if resp.StatusCode != StatusCodeRetryOther && resp.StatusCode != StatusCodeRetryTemp {
		return nil, false
	}
	location, err := resp.Location()
	if err != nil {
		return nil, false
	}
	return location, true
}

// DrainBody reads the remaining body so the connection can be reused, then closes it.
func DrainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
