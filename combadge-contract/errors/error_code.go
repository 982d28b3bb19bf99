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

	werror "github.com/palantir/witchcraft-go-error"
)

// ErrorCode is an enum describing the category of a remote structured error.
type ErrorCode int16

const (
	_ ErrorCode = iota
	// PermissionDenied has status code 403 Forbidden.
	PermissionDenied
	// InvalidArgument has status code 400 BadRequest.
	InvalidArgument
	// NotFound has status code 404 NotFound.
	NotFound
	// Conflict has status code 409 Conflict.
	Conflict
	// RequestEntityTooLarge has status code 413 RequestEntityTooLarge.
	RequestEntityTooLarge
	// FailedPrecondition has status code 500 InternalServerError.
	FailedPrecondition
	// Internal has status code 500 InternalServerError.
	Internal
	// Timeout has status code 500 InternalServerError.
	Timeout
	// CustomClient has status code 400 BadRequest.
	CustomClient
	// CustomServer has status code 500 InternalServerError.
	CustomServer
	// Unauthorized has status code 401 Unauthorized.
	Unauthorized
	// ServiceUnavailable has status code 503 ServiceUnavailable.
	ServiceUnavailable
)

var errorCodeNames = map[ErrorCode]string{
	Unauthorized:          "UNAUTHORIZED",
	PermissionDenied:      "PERMISSION_DENIED",
	InvalidArgument:       "INVALID_ARGUMENT",
	NotFound:              "NOT_FOUND",
	Conflict:              "CONFLICT",
	RequestEntityTooLarge: "REQUEST_ENTITY_TOO_LARGE",
	FailedPrecondition:    "FAILED_PRECONDITION",
	Internal:              "INTERNAL",
	Timeout:               "TIMEOUT",
	CustomClient:          "CUSTOM_CLIENT",
	CustomServer:          "CUSTOM_SERVER",
	ServiceUnavailable:    "SERVICE_UNAVAILABLE",
}

// String representation of this error code.
func (ec ErrorCode) String() string {
	if name, ok := errorCodeNames[ec]; ok {
		return name
	}
	return fmt.Sprintf("<invalid error code: %d>", ec)
}

// StatusCode returns the HTTP status code associated with this error code.
func (ec ErrorCode) StatusCode() int {
	switch ec {
	case Unauthorized:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case InvalidArgument, CustomClient:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RequestEntityTooLarge:
		return http.StatusRequestEntityTooLarge
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (ec ErrorCode) MarshalText() ([]byte, error) {
	if _, ok := errorCodeNames[ec]; !ok {
		return nil, werror.Error("invalid error code", werror.SafeParam("errorCode", int(ec)))
	}
	return []byte(ec.String()), nil
}

func (ec *ErrorCode) UnmarshalText(data []byte) error {
	for code, name := range errorCodeNames {
		if name == string(data) {
			*ec = code
			return nil
		}
	}
	return werror.Error("unknown error code", werror.UnsafeParam("errorCode", string(data)))
}
