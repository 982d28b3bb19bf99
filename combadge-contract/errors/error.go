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

// Package errors defines the error values produced when a call fails: typed faults for declared
// error models, remote structured errors, and QoS errors.
package errors

import (
	"encoding/json"
	"fmt"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/pkg/uuid"
	werror "github.com/palantir/witchcraft-go-error"
	wparams "github.com/palantir/witchcraft-go-params"
)

// Error is a structured error reported by a remote service in its response body.
//
// Error is represented by its error code, an error name identifying the type of error and
// an optional set of named parameters detailing the error.
type Error interface {
	error
	// Code returns an enum describing error category.
	Code() ErrorCode
	// Name returns an error name identifying error type.
	Name() string
	// InstanceID returns unique identifier of this particular error instance.
	InstanceID() uuid.UUID

	wparams.ParamStorer
}

// SerializableError is the wire representation of a remote structured error.
type SerializableError struct {
	ErrorCode       ErrorCode       `json:"errorCode"`
	ErrorName       string          `json:"errorName"`
	ErrorInstanceID uuid.UUID       `json:"errorInstanceId"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
}

// remoteError implements Error for a decoded SerializableError.
// Parameters received from a remote service are always unsafe.
type remoteError struct {
	code       ErrorCode
	name       string
	instanceID uuid.UUID
	parameters map[string]interface{}
}

var _ Error = (*remoteError)(nil)

// NewError returns an Error with the provided code and name, e.g. for use in tests or fakes.
func NewError(code ErrorCode, name string, parameters map[string]interface{}) Error {
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	return &remoteError{
		code:       code,
		name:       name,
		instanceID: uuid.NewUUID(),
		parameters: parameters,
	}
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("%s %s (%s)", e.code, e.name, e.instanceID)
}

func (e *remoteError) Code() ErrorCode {
	return e.code
}

func (e *remoteError) Name() string {
	return e.name
}

func (e *remoteError) InstanceID() uuid.UUID {
	return e.instanceID
}

func (e *remoteError) SafeParams() map[string]interface{} {
	return map[string]interface{}{
		"errorInstanceId": e.instanceID,
		"errorName":       e.name,
	}
}

func (e *remoteError) UnsafeParams() map[string]interface{} {
	return e.parameters
}

func (e *remoteError) MarshalJSON() ([]byte, error) {
	params, err := codecs.JSON.Marshal(e.parameters)
	if err != nil {
		return nil, err
	}
	return codecs.JSON.Marshal(SerializableError{
		ErrorCode:       e.code,
		ErrorName:       e.name,
		ErrorInstanceID: e.instanceID,
		Parameters:      params,
	})
}

// UnmarshalError decodes a remote structured error from a response body.
// It fails if the body is not a JSON object with a valid errorCode and errorName.
func UnmarshalError(body []byte) (Error, error) {
	var se SerializableError
	if err := codecs.JSON.Unmarshal(body, &se); err != nil {
		return nil, werror.Wrap(err, "failed to unmarshal body as remote error")
	}
	if se.ErrorName == "" {
		return nil, werror.Error("remote error is missing errorName")
	}
	if se.ErrorCode == 0 {
		return nil, werror.Error("remote error is missing errorCode", werror.SafeParam("errorName", se.ErrorName))
	}
	params := map[string]interface{}{}
	if len(se.Parameters) > 0 && string(se.Parameters) != "null" {
		if err := codecs.JSON.Unmarshal(se.Parameters, &params); err != nil {
			return nil, werror.Wrap(err, "failed to unmarshal remote error parameters",
				werror.SafeParam("errorName", se.ErrorName))
		}
	}
	return &remoteError{
		code:       se.ErrorCode,
		name:       se.ErrorName,
		instanceID: se.ErrorInstanceID,
		parameters: params,
	}, nil
}
