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
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	"github.com/palantir/go-combadge/combadge-contract/markers"
	"github.com/palantir/pkg/metrics"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"github.com/palantir/witchcraft-go-tracing/wtracing"
	"golang.org/x/sync/semaphore"
)

const (
	// MetricCall is the timer updated by every call of a bound method.
	MetricCall = "combadge.call"

	metricTagMethodName = "method-name"
	metricTagOutcome    = "outcome"
)

type outcome string

const (
	outcomeSuccess    outcome = "success"
	outcomeFault      outcome = "fault"
	outcomeRemote     outcome = "remote"
	outcomeTransport  outcome = "transport"
	outcomeValidation outcome = "validation"
	outcomeRequest    outcome = "request"
	outcomePanic      outcome = "panic"
)

// boundMethod executes the calls of one method against a backend.
type boundMethod struct {
	sig      *Signature
	rpcName  string
	call     markers.CallFunc
	fallback ErrorDecoder
	limiter  *semaphore.Weighted
	validate *validator.Validate
}

func newBoundMethod(sig *Signature, backend Backend, cfg *bindConfig) *boundMethod {
	if len(cfg.errorModels) > 0 {
		withModels := *sig
		withModels.ErrorModels = append(append([]errors.Model(nil), sig.ErrorModels...), cfg.errorModels...)
		sig = &withModels
	}
	call := markers.CallFunc(backend.Call)
	wrappers := sig.Wrappers()
	for i := len(wrappers) - 1; i >= 0; i-- {
		call = wrappers[i].Wrap(call)
	}
	fallback, _ := backend.(ErrorDecoder)
	rpcName := sig.Name
	if template, err := sig.Template(); err == nil && template.MethodName != "" {
		rpcName = template.MethodName
	}
	return &boundMethod{
		sig:      sig,
		rpcName:  rpcName,
		call:     wrapCall(call, cfg.middlewares...),
		fallback: fallback,
		limiter:  cfg.limiter,
		validate: cfg.validate,
	}
}

// invoke performs one blocking call. arg is the request argument, or the invalid Value for
// methods without one.
func (m *boundMethod) invoke(ctx context.Context, arg reflect.Value) (value reflect.Value, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	methodName := m.rpcName
	if wtracing.TracerFromContext(ctx) != nil {
		var span wtracing.Span
		span, ctx = wtracing.StartSpanFromTracerInContext(ctx, methodName)
		defer span.Finish()
	}
	start := time.Now()
	result := outcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			value = reflect.Value{}
			result = outcomePanic
			err = werror.ErrorWithContextParams(ctx, "recovered panic in bound method",
				werror.SafeParam("methodName", methodName),
				werror.UnsafeParam("recovered", fmt.Sprintf("%v", r)))
		}
		m.record(ctx, methodName, result, time.Since(start), err)
	}()

	req, err := m.sig.BuildRequest(arg)
	if err != nil {
		return reflect.Value{}, m.fail(&result, outcomeRequest, err)
	}
	if req.MethodName != "" {
		methodName = req.MethodName
	}
	resp, err := m.call(ctx, req)
	if err != nil {
		return reflect.Value{}, m.fail(&result, outcomeTransport, werror.WrapWithContextParams(ctx, err, "backend call failed",
			werror.SafeParam("methodName", methodName)))
	}
	value, result, err = m.sig.readResponse(ctx, resp, m.fallback, m.validate)
	return value, err
}

func (m *boundMethod) fail(result *outcome, o outcome, err error) error {
	*result = o
	return err
}

func (m *boundMethod) record(ctx context.Context, methodName string, result outcome, duration time.Duration, err error) {
	tags := metrics.Tags{metrics.MustNewTag(metricTagOutcome, string(result))}
	if tag, tagErr := metrics.NewTag(metricTagMethodName, methodName); tagErr == nil {
		tags = append(tags, tag)
	}
	metrics.FromContext(ctx).Timer(MetricCall, tags...).Update(duration / time.Microsecond)

	params := []svc1log.Param{
		svc1log.SafeParam("methodName", methodName),
		svc1log.SafeParam("outcome", string(result)),
		svc1log.SafeParam("durationMicros", int64(duration/time.Microsecond)),
	}
	if err != nil {
		params = append(params, svc1log.Stacktrace(err))
	}
	svc1log.FromContext(ctx).Debug("Bound method call finished", params...)
}

func (m *boundMethod) acquire(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	if err := m.limiter.Acquire(ctx, 1); err != nil {
		return werror.WrapWithContextParams(ctx, err, "failed to acquire call slot",
			werror.SafeParam("methodName", m.sig.Name))
	}
	return nil
}

func (m *boundMethod) release() {
	if m.limiter != nil {
		m.limiter.Release(1)
	}
}

// makeFunc returns an implementation of the func type fnType, which must have the shape
// recorded in the signature.
func (m *boundMethod) makeFunc(fnType reflect.Type) reflect.Value {
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		var ctx context.Context
		if !args[0].IsNil() {
			ctx = args[0].Interface().(context.Context)
		}
		var arg reflect.Value
		if len(args) == 2 {
			arg = args[1]
		}
		if m.sig.Async {
			return []reflect.Value{m.invokeAsync(ctx, arg, fnType.Out(0))}
		}
		value, err := m.invoke(ctx, arg)
		if fnType.NumOut() == 1 {
			return []reflect.Value{errorValue(err)}
		}
		return []reflect.Value{valueOrZero(value, fnType.Out(0)), errorValue(err)}
	})
}

// invokeAsync runs invoke on a new goroutine and returns a channel of type chanType which
// receives its result.
func (m *boundMethod) invokeAsync(ctx context.Context, arg reflect.Value, chanType reflect.Type) reflect.Value {
	if ctx == nil {
		ctx = context.Background()
	}
	resultType := chanType.Elem()
	ch := reflect.MakeChan(reflect.ChanOf(reflect.BothDir, resultType), 1)
	go func() {
		defer ch.Close()
		if err := m.acquire(ctx); err != nil {
			ch.Send(newResult(resultType, reflect.Value{}, err))
			return
		}
		defer m.release()
		value, err := m.invoke(ctx, arg)
		ch.Send(newResult(resultType, value, err))
	}()
	return ch.Convert(chanType)
}

// newResult builds a Result[T] of type resultType.
func newResult(resultType reflect.Type, value reflect.Value, err error) reflect.Value {
	out := reflect.New(resultType).Elem()
	if value.IsValid() {
		out.Field(0).Set(value)
	}
	if err != nil {
		out.Field(1).Set(reflect.ValueOf(&err).Elem())
	}
	return out
}

func valueOrZero(value reflect.Value, t reflect.Type) reflect.Value {
	if !value.IsValid() {
		return reflect.Zero(t)
	}
	return value
}

func errorValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(&err).Elem()
}
