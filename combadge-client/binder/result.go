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

	werror "github.com/palantir/witchcraft-go-error"
)

// Result is the outcome of an asynchronous call. Asynchronous methods return a channel which
// receives exactly one Result and is then closed.
type Result[T any] struct {
	Value T
	Err   error
}

// Get returns the value and error of the result.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

func (Result[T]) isResult() {}

type result interface {
	isResult()
}

// Await waits for the result of an asynchronous call.
func Await[T any](ctx context.Context, results <-chan Result[T]) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, werror.WrapWithContextParams(ctx, ctx.Err(), "cancelled while awaiting result")
	case r, ok := <-results:
		if !ok {
			return zero, werror.ErrorWithContextParams(ctx, "result channel closed without a result")
		}
		return r.Get()
	}
}
