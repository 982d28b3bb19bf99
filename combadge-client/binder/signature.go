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

	"github.com/go-playground/validator/v10"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	"github.com/palantir/go-combadge/combadge-contract/markers"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
)

// Args holds the arguments of a method whose parameters are declared with Declaration.Parameters
// rather than struct tags. Keys are parameter names.
type Args map[string]interface{}

var (
	contextType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	rawResponseType = reflect.TypeOf((*transport.Response)(nil))
	argsType        = reflect.TypeOf(Args(nil))
	resultIfaceType = reflect.TypeOf((*result)(nil)).Elem()
)

// Signature is the information extracted from one service method: its markers, how the request
// argument maps onto the request and how the response is read.
type Signature struct {
	// Name is the method name. A name marker may override it in requests.
	Name          string
	MethodMarkers []markers.MethodMarker
	Parameters    []BoundParameter
	// ErrorModels are matched in order against every response before the success model.
	ErrorModels []errors.Model

	// RequestType is nil for methods without a request argument.
	RequestType reflect.Type
	// ResponseType is nil for methods which only return an error.
	ResponseType    reflect.Type
	ResponseMarkers []BoundResponseMarker
	// Async is set for methods returning a result channel.
	Async bool
}

// BoundParameter binds a parameter marker to a field of the request argument.
type BoundParameter struct {
	Name string
	// Index is the field index path within the request struct. It is nil when the marker
	// receives the whole argument or, for Args requests, the named argument.
	Index  []int
	Marker markers.ParameterMarker
}

// BoundResponseMarker binds a response marker to a field of the response model.
type BoundResponseMarker struct {
	Name   string
	Index  []int
	Marker markers.ResponseMarker
}

// Declaration describes a method without struct tags, for use with NewSignature and BindMethod.
type Declaration struct {
	Name        string
	Markers     []markers.MethodMarker
	Parameters  []Parameter
	ErrorModels []errors.Model
}

// Parameter declares a named parameter. For Args requests the name is the key of the argument,
// for struct requests it is the name of the struct field.
type Parameter struct {
	Name   string
	Marker markers.ParameterMarker
}

// Param returns a Parameter.
func Param(name string, marker markers.ParameterMarker) Parameter {
	return Parameter{Name: name, Marker: marker}
}

// SignatureFromField extracts the signature of a func-typed struct field. Error model names
// are resolved in registry, or in the global registry when registry is nil.
func SignatureFromField(field reflect.StructField, registry *errors.Registry) (*Signature, error) {
	shape, err := shapeOf(field.Type)
	if err != nil {
		return nil, err
	}
	spec, err := markers.ParseMethodTag(field.Tag)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = errors.GlobalRegistry()
	}
	models, err := registry.Models(spec.ErrorModels...)
	if err != nil {
		return nil, err
	}
	return newSignature(Declaration{
		Name:        field.Name,
		Markers:     spec.Markers,
		ErrorModels: models,
	}, shape)
}

// NewSignature returns the signature of a declared method with the given request and response
// types. A nil requestType declares a method without a request argument and a nil responseType
// a method which only returns an error.
func NewSignature(decl Declaration, requestType, responseType reflect.Type) (*Signature, error) {
	return newSignature(decl, methodShape{requestType: requestType, responseType: responseType})
}

func newSignature(decl Declaration, shape methodShape) (*Signature, error) {
	if decl.Name == "" {
		return nil, werror.Error("method name can not be empty")
	}
	sig := &Signature{
		Name:          decl.Name,
		MethodMarkers: append([]markers.MethodMarker(nil), decl.Markers...),
		ErrorModels:   append([]errors.Model(nil), decl.ErrorModels...),
		RequestType:   shape.requestType,
		ResponseType:  shape.responseType,
		Async:         shape.async,
	}
	for _, m := range sig.MethodMarkers {
		if m == nil {
			return nil, werror.Error("method marker can not be nil", werror.SafeParam("methodName", decl.Name))
		}
	}
	params, err := parameterMarkers(shape.requestType, decl.Parameters)
	if err != nil {
		return nil, werror.Wrap(err, "invalid request type", werror.SafeParam("methodName", decl.Name))
	}
	sig.Parameters = params
	responseMarkers, err := responseMarkers(shape.responseType)
	if err != nil {
		return nil, werror.Wrap(err, "invalid response type", werror.SafeParam("methodName", decl.Name))
	}
	sig.ResponseMarkers = responseMarkers
	return sig, nil
}

// Template applies the method markers to an empty request. Backends use it to validate the
// signature at bind time.
func (s *Signature) Template() (*transport.Request, error) {
	req := transport.NewRequest(s.Name)
	for _, m := range s.MethodMarkers {
		if err := m.PrepareRequest(req); err != nil {
			return nil, werror.Wrap(err, "failed to apply method marker", werror.SafeParam("methodName", s.Name))
		}
	}
	return req, nil
}

// Wrappers returns the method markers which wrap the call.
func (s *Signature) Wrappers() []markers.Wrapper {
	var wrappers []markers.Wrapper
	for _, m := range s.MethodMarkers {
		if w, ok := m.(markers.Wrapper); ok {
			wrappers = append(wrappers, w)
		}
	}
	return wrappers
}

// BuildRequest assembles the request of a call: method markers are applied in order, then
// parameter markers in field order. The path and payload are checked before returning so that
// malformed requests fail before any I/O.
func (s *Signature) BuildRequest(arg reflect.Value) (*transport.Request, error) {
	req, err := s.Template()
	if err != nil {
		return nil, err
	}
	for _, p := range s.Parameters {
		if err := p.Marker.PrepareRequest(req, argument(arg, p)); err != nil {
			return nil, werror.Wrap(err, "failed to apply parameter marker",
				werror.SafeParam("methodName", s.Name),
				werror.SafeParam("parameter", p.Name))
		}
	}
	if _, err := req.Path(); err != nil {
		return nil, werror.Wrap(err, "invalid request path", werror.SafeParam("methodName", s.Name))
	}
	if _, _, err := req.Payload(); err != nil {
		return nil, err
	}
	return req, nil
}

// argument returns the value a parameter marker receives. The result is the invalid Value
// when the argument or an enclosing pointer is nil.
func argument(arg reflect.Value, p BoundParameter) reflect.Value {
	if !arg.IsValid() {
		return reflect.Value{}
	}
	if arg.Type() == argsType {
		if arg.IsNil() {
			return reflect.Value{}
		}
		value := arg.MapIndex(reflect.ValueOf(p.Name))
		if value.IsValid() && value.Kind() == reflect.Interface {
			if value.IsNil() {
				return reflect.Value{}
			}
			value = value.Elem()
		}
		return value
	}
	if p.Index == nil {
		return arg
	}
	for arg.Kind() == reflect.Ptr {
		if arg.IsNil() {
			return reflect.Value{}
		}
		arg = arg.Elem()
	}
	field, err := arg.FieldByIndexErr(p.Index)
	if err != nil {
		return reflect.Value{}
	}
	return field
}

// ReadResponse turns a response into the method result:
//  1. the first error model matching the response yields its error;
//  2. a non-2xx response yields the error of fallback, or a status error when fallback is nil;
//  3. a raw response type receives the response itself;
//  4. otherwise the body is decoded into a new response value, response markers are applied
//     and the value is validated.
func (s *Signature) ReadResponse(ctx context.Context, resp *transport.Response, fallback ErrorDecoder) (reflect.Value, error) {
	value, _, err := s.readResponse(ctx, resp, fallback, errors.DefaultValidator())
	return value, err
}

func (s *Signature) readResponse(ctx context.Context, resp *transport.Response, fallback ErrorDecoder, validate *validator.Validate) (reflect.Value, outcome, error) {
	for _, model := range s.ErrorModels {
		if err, ok := model.Match(ctx, resp); ok {
			return reflect.Value{}, outcomeFault, err
		}
	}
	if !resp.IsSuccess() {
		if fallback != nil {
			return reflect.Value{}, outcomeRemote, fallback.DecodeError(ctx, resp)
		}
		return reflect.Value{}, outcomeRemote, statusError(ctx, resp)
	}
	value, err := s.decodeResponse(resp, validate)
	if err != nil {
		return reflect.Value{}, outcomeValidation, werror.WrapWithContextParams(ctx, err, "invalid response",
			werror.SafeParam("methodName", s.Name),
			werror.SafeParam("statusCode", resp.StatusCode))
	}
	return value, outcomeSuccess, nil
}

func statusError(ctx context.Context, resp *transport.Response) error {
	return werror.ErrorWithContextParams(ctx, "server returned an error status",
		werror.SafeParam("statusCode", resp.StatusCode),
		werror.UnsafeParam("responseBody", resp.Text()))
}

func (s *Signature) decodeResponse(resp *transport.Response, validate *validator.Validate) (reflect.Value, error) {
	t := s.ResponseType
	switch t {
	case nil:
		return reflect.Value{}, nil
	case rawResponseType:
		return reflect.ValueOf(resp), nil
	}
	target := t
	if t.Kind() == reflect.Ptr {
		target = t.Elem()
	}
	out := reflect.New(target)
	if !resp.IsEmpty() && !isEmptyStruct(target) && !markersCoverStruct(target, s.ResponseMarkers) {
		if target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8 {
			out.Elem().SetBytes(append([]byte(nil), resp.Body...))
		} else if err := resp.Decode(out.Interface()); err != nil {
			return reflect.Value{}, err
		}
	}
	for _, m := range s.ResponseMarkers {
		if err := m.Marker.Apply(resp, out.Elem().FieldByIndex(m.Index)); err != nil {
			return reflect.Value{}, werror.Wrap(err, "failed to apply response marker", werror.SafeParam("field", m.Name))
		}
	}
	if err := errors.ValidateValue(validate, out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	if t.Kind() == reflect.Ptr {
		return out, nil
	}
	return out.Elem(), nil
}

func isEmptyStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

// markersCoverStruct reports whether every exported field of t is filled by a response marker,
// in which case the body is not decoded.
func markersCoverStruct(t reflect.Type, bound []BoundResponseMarker) bool {
	if t.Kind() != reflect.Struct || len(bound) == 0 {
		return false
	}
	exported := 0
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			exported++
		}
	}
	return exported == len(bound)
}

type methodShape struct {
	requestType  reflect.Type
	responseType reflect.Type
	async        bool
}

// shapeOf checks that t is one of the supported method shapes:
//
//	func(context.Context[, Req]) (Resp, error)
//	func(context.Context[, Req]) error
//	func(context.Context[, Req]) <-chan Result[Resp]
func shapeOf(t reflect.Type) (methodShape, error) {
	if t.Kind() != reflect.Func {
		return methodShape{}, werror.Error("method must be a func", werror.SafeParam("type", t.String()))
	}
	if t.IsVariadic() || t.NumIn() < 1 || t.NumIn() > 2 || t.In(0) != contextType {
		return methodShape{}, werror.Error("method must take a context.Context and at most one request argument",
			werror.SafeParam("type", t.String()))
	}
	var shape methodShape
	if t.NumIn() == 2 {
		shape.requestType = t.In(1)
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) == errorType:
	case t.NumOut() == 1 && isResultChan(t.Out(0)):
		shape.async = true
		shape.responseType = t.Out(0).Elem().Field(0).Type
		if isEmptyStruct(shape.responseType) {
			shape.responseType = nil
		}
	case t.NumOut() == 2 && t.Out(1) == errorType:
		shape.responseType = t.Out(0)
	default:
		return methodShape{}, werror.Error("method must return (Resp, error), error or <-chan Result[Resp]",
			werror.SafeParam("type", t.String()))
	}
	return shape, nil
}

func isResultChan(t reflect.Type) bool {
	return t.Kind() == reflect.Chan && t.ChanDir() == reflect.RecvDir && t.Elem().Implements(resultIfaceType)
}

// parameterMarkers binds the parameter markers of a request type. Struct fields are bound from
// their tags; a struct without tagged fields is sent as the whole payload. Declared parameters
// name Args keys or struct fields.
func parameterMarkers(t reflect.Type, declared []Parameter) ([]BoundParameter, error) {
	if t == nil {
		if len(declared) > 0 {
			return nil, werror.Error("parameters declared for a method without a request argument")
		}
		return nil, nil
	}
	if t == argsType {
		if len(declared) == 0 {
			return nil, werror.Error("methods taking binder.Args must declare their parameters")
		}
		params := make([]BoundParameter, 0, len(declared))
		for _, p := range declared {
			if p.Marker == nil {
				return nil, werror.Error("parameter marker can not be nil", werror.SafeParam("parameter", p.Name))
			}
			params = append(params, BoundParameter{Name: p.Name, Marker: p.Marker})
		}
		return params, nil
	}
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		if len(declared) > 0 {
			return nil, werror.Error("parameters can only be declared for struct or binder.Args requests",
				werror.SafeParam("type", t.String()))
		}
		return []BoundParameter{{Name: t.String(), Marker: markers.Body()}}, nil
	}
	params, err := structParameters(structType, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range declared {
		field, ok := structType.FieldByName(p.Name)
		if !ok {
			return nil, werror.Error("declared parameter is not a field of the request type",
				werror.SafeParam("parameter", p.Name),
				werror.SafeParam("type", t.String()))
		}
		if p.Marker == nil {
			return nil, werror.Error("parameter marker can not be nil", werror.SafeParam("parameter", p.Name))
		}
		params = append(params, BoundParameter{Name: p.Name, Index: field.Index, Marker: p.Marker})
	}
	if len(params) == 0 && hasExportedField(structType) {
		params = append(params, BoundParameter{Name: structType.String(), Marker: markers.Body()})
	}
	return params, nil
}

func structParameters(t reflect.Type, prefix []int) ([]BoundParameter, error) {
	var params []BoundParameter
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		marker, ok, err := markers.ParseParameterTag(field)
		if err != nil {
			return nil, err
		}
		if ok {
			if !field.IsExported() {
				return nil, werror.Error("parameter field must be exported", werror.SafeParam("field", field.Name))
			}
			params = append(params, BoundParameter{Name: field.Name, Index: index, Marker: marker})
			continue
		}
		if field.Anonymous && field.IsExported() && field.Tag == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				nested, err := structParameters(embedded, index)
				if err != nil {
					return nil, err
				}
				params = append(params, nested...)
			}
		}
	}
	return params, nil
}

func hasExportedField(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

// responseMarkers binds the response markers of a struct response type.
func responseMarkers(t reflect.Type) ([]BoundResponseMarker, error) {
	if t == nil || t == rawResponseType {
		return nil, nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	var bound []BoundResponseMarker
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		marker, ok, err := markers.ParseResponseTag(field)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !field.IsExported() {
			return nil, werror.Error("response field must be exported", werror.SafeParam("field", field.Name))
		}
		bound = append(bound, BoundResponseMarker{Name: field.Name, Index: field.Index, Marker: marker})
	}
	return bound, nil
}
