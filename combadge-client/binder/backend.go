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

package binder

import (
	"context"

	"github.com/palantir/go-combadge/combadge-contract/markers"
	"github.com/palantir/go-combadge/combadge-contract/transport"
)

// Backend executes requests assembled by the binder and returns the fully read response.
// Error statuses are returned as responses, not errors, so that error models can match them.
// Implementations must be safe for concurrent use.
type Backend interface {
	Call(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// BackendFunc adapts a function to a Backend.
type BackendFunc func(ctx context.Context, req *transport.Request) (*transport.Response, error)

func (f BackendFunc) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return f(ctx, req)
}

// SignatureValidator is implemented by backends which reject methods they can not execute,
// e.g. a REST method without an HTTP method marker. It is called once per method at bind time.
type SignatureValidator interface {
	ValidateSignature(sig *Signature) error
}

// ErrorDecoder is implemented by backends which understand the error payloads of their protocol.
// It is used for non-2xx responses that match no declared error model.
type ErrorDecoder interface {
	DecodeError(ctx context.Context, resp *transport.Response) error
}

// CallMiddleware wraps every call of a bound method.
type CallMiddleware interface {
	Call(ctx context.Context, req *transport.Request, next markers.CallFunc) (*transport.Response, error)
}

// CallMiddlewareFunc adapts a function to a CallMiddleware.
type CallMiddlewareFunc func(ctx context.Context, req *transport.Request, next markers.CallFunc) (*transport.Response, error)

func (f CallMiddlewareFunc) Call(ctx context.Context, req *transport.Request, next markers.CallFunc) (*transport.Response, error) {
	return f(ctx, req, next)
}

// wrapCall composes middleware around call. The first middleware is the outermost.
func wrapCall(call markers.CallFunc, middlewares ...CallMiddleware) markers.CallFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		middleware, next := middlewares[i], call
		call = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			return middleware.Call(ctx, req, next)
		}
	}
	return call
}
