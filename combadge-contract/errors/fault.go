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
	goerrors "errors"
	"fmt"

	"github.com/palantir/pkg/uuid"
)

// Fault is returned by a bound method when the response matched the error model of type T.
type Fault[T any] struct {
	// Model is the decoded error payload.
	Model T
	// ModelName is the name of the matched model.
	ModelName string
	// Status is the HTTP status code of the response.
	Status int
	// Reason is the HTTP reason phrase of the response.
	Reason     string
	InstanceID uuid.UUID
}

func (f *Fault[T]) Error() string {
	return fmt.Sprintf("%s: %d %s (%s)", f.ModelName, f.Status, f.Reason, f.InstanceID)
}

// StatusCode returns the HTTP status code of the response the fault was decoded from.
func (f *Fault[T]) StatusCode() int {
	return f.Status
}

func (f *Fault[T]) SafeParams() map[string]interface{} {
	return map[string]interface{}{
		"errorName":       f.ModelName,
		"errorInstanceId": f.InstanceID,
		"statusCode":      f.Status,
	}
}

func (f *Fault[T]) UnsafeParams() map[string]interface{} {
	return map[string]interface{}{
		"errorModel": f.Model,
	}
}

// AsFault finds the first *Fault[T] in err's chain.
func AsFault[T any](err error) (*Fault[T], bool) {
	var fault *Fault[T]
	if goerrors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
