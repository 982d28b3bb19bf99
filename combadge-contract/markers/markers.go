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

// Package markers defines the metadata attached to service methods, request fields and
// response fields, and the struct tag grammar that produces it.
package markers

import (
	"context"
	"reflect"

	"github.com/palantir/go-combadge/combadge-contract/transport"
)

// CallFunc executes a prepared request.
type CallFunc func(ctx context.Context, req *transport.Request) (*transport.Response, error)

// MethodMarker modifies the request of every call to the method it is attached to.
type MethodMarker interface {
	PrepareRequest(req *transport.Request) error
}

// Wrapper is implemented by method markers which wrap the call itself, e.g. to bound its duration.
type Wrapper interface {
	Wrap(next CallFunc) CallFunc
}

// ParameterMarker copies the value of a bound argument into the request.
type ParameterMarker interface {
	PrepareRequest(req *transport.Request, value reflect.Value) error
}

// ResponseMarker populates a field of the response model from the raw response.
type ResponseMarker interface {
	Apply(resp *transport.Response, field reflect.Value) error
}
