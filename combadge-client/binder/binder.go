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
	"reflect"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
)

// Bind implements every exported func field of the struct svc points to by calling backend.
// Each field must have one of the shapes
//
//	func(context.Context[, Req]) (Resp, error)
//	func(context.Context[, Req]) error
//	func(context.Context[, Req]) <-chan Result[Resp]
//
// and carries its method markers in struct tags, e.g.
//
//	type Users struct {
//		Get func(context.Context, GetUserRequest) (User, error) `http:"GET /users/{id}" errors:"NotFound"`
//	}
//
// Errors of all methods are reported together and leave svc unchanged.
func Bind(svc interface{}, backend Backend, opts ...Option) error {
	if backend == nil {
		return werror.Error("backend can not be nil")
	}
	v := reflect.ValueOf(svc)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return werror.Error("Bind requires a non-nil pointer to a struct", werror.SafeParam("type", reflect.TypeOf(svc)))
	}
	cfg, err := newBindConfig(opts)
	if err != nil {
		return err
	}
	methods, err := boundSignatures(v.Elem().Type(), backend, cfg.registry)
	if err != nil {
		return err
	}
	for _, method := range methods {
		field := v.Elem().Field(method.index)
		field.Set(newBoundMethod(method.sig, backend, cfg).makeFunc(field.Type()))
	}
	return nil
}

// BindMethod returns a function calling backend for a method declared without struct tags.
func BindMethod[Req, Resp any](backend Backend, decl Declaration, opts ...Option) (func(context.Context, Req) (Resp, error), error) {
	m, err := bindDeclaration(backend, decl, typeOf[Req](), typeOf[Resp](), opts)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req Req) (Resp, error) {
		return call[Req, Resp](ctx, m, req)
	}, nil
}

// BindAsyncMethod is the asynchronous form of BindMethod. The returned channel receives exactly
// one Result and is then closed.
func BindAsyncMethod[Req, Resp any](backend Backend, decl Declaration, opts ...Option) (func(context.Context, Req) <-chan Result[Resp], error) {
	m, err := bindDeclaration(backend, decl, typeOf[Req](), typeOf[Resp](), opts)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req Req) <-chan Result[Resp] {
		if ctx == nil {
			ctx = context.Background()
		}
		results := make(chan Result[Resp], 1)
		go func() {
			defer close(results)
			if err := m.acquire(ctx); err != nil {
				results <- Result[Resp]{Err: err}
				return
			}
			defer m.release()
			value, err := call[Req, Resp](ctx, m, req)
			results <- Result[Resp]{Value: value, Err: err}
		}()
		return results
	}, nil
}

func call[Req, Resp any](ctx context.Context, m *boundMethod, req Req) (Resp, error) {
	var zero Resp
	value, err := m.invoke(ctx, reflect.ValueOf(&req).Elem())
	if err != nil || !value.IsValid() {
		return zero, err
	}
	return value.Interface().(Resp), nil
}

func bindDeclaration(backend Backend, decl Declaration, requestType, responseType reflect.Type, opts []Option) (*boundMethod, error) {
	if backend == nil {
		return nil, werror.Error("backend can not be nil")
	}
	cfg, err := newBindConfig(opts)
	if err != nil {
		return nil, err
	}
	if isEmptyStruct(responseType) {
		responseType = nil
	}
	sig, err := NewSignature(decl, requestType, responseType)
	if err != nil {
		return nil, err
	}
	if err := validateSignature(backend, sig); err != nil {
		return nil, err
	}
	return newBoundMethod(sig, backend, cfg), nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func validateSignature(backend Backend, sig *Signature) error {
	validator, ok := backend.(SignatureValidator)
	if !ok {
		return nil
	}
	if err := validator.ValidateSignature(sig); err != nil {
		return werror.Wrap(err, "backend rejected method", werror.SafeParam("methodName", sig.Name))
	}
	return nil
}

type boundSignature struct {
	index int
	sig   *Signature
}

type bindCacheKey struct {
	service  reflect.Type
	backend  reflect.Type
	registry *errors.Registry
}

type bindCacheEntry struct {
	methods []boundSignature
}

var bindCache sync.Map // bindCacheKey -> *bindCacheEntry

// boundSignatures returns the signatures of the func fields of serviceType. Successful results
// are cached per service type, backend type and registry; failures are parsed again on the next
// call since the registry may have gained the missing models.
func boundSignatures(serviceType reflect.Type, backend Backend, registry *errors.Registry) ([]boundSignature, error) {
	key := bindCacheKey{service: serviceType, backend: reflect.TypeOf(backend), registry: registry}
	if cached, ok := bindCache.Load(key); ok {
		return cached.(*bindCacheEntry).methods, nil
	}
	methods, err := parseService(serviceType, backend, registry)
	if err != nil {
		return nil, err
	}
	entry, _ := bindCache.LoadOrStore(key, &bindCacheEntry{methods: methods})
	return entry.(*bindCacheEntry).methods, nil
}

func parseService(serviceType reflect.Type, backend Backend, registry *errors.Registry) ([]boundSignature, error) {
	var methods []boundSignature
	var errs error
	for i := 0; i < serviceType.NumField(); i++ {
		field := serviceType.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		sig, err := SignatureFromField(field, registry)
		if err == nil {
			err = validateSignature(backend, sig)
		}
		if err != nil {
			errs = multierror.Append(errs, werror.Wrap(err, "failed to bind method", werror.SafeParam("methodName", field.Name)))
			continue
		}
		methods = append(methods, boundSignature{index: i, sig: sig})
	}
	if errs != nil {
		return nil, werror.Wrap(errs, "failed to bind service", werror.SafeParam("service", serviceType.String()))
	}
	return methods, nil
}
