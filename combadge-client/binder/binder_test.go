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

package binder_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	"github.com/palantir/go-combadge/combadge-contract/markers"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	"github.com/palantir/pkg/metrics"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-tracing/wtracing"
	"github.com/palantir/witchcraft-go-tracing/wzipkin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type getUserRequest struct {
	ID      string        `path:"id"`
	Verbose bool          `query:"verbose"`
	Token   func() string `header:"X-Token"`
}

type user struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	Status    int    `json:"-" response:"status-code"`
	RequestID string `json:"-" response:"header=X-Request-Id"`
}

type notFound struct {
	Code string `json:"code" validate:"eq=NOT_FOUND"`
	ID   string `json:"id"`
}

type genericError struct {
	Code string `json:"code" validate:"required"`
}

type usersService struct {
	Get      func(context.Context, getUserRequest) (user, error)                `http:"GET /users/{id}" errors:"NotFound"`
	GetAsync func(context.Context, getUserRequest) <-chan binder.Result[user] `http:"GET /users/{id}" errors:"NotFound"`
	List     func(context.Context) ([]user, error)                              `http:"GET /users"`
	Ping     func(context.Context) error                                        `http:"GET /ping"`
	Delete   func(context.Context, *getUserRequest) error                       `http:"DELETE /users/{id}" timeout:"1s"`
	Raw      func(context.Context) (*transport.Response, error)                 `http:"GET /raw" name:"raw-call"`

	Name     string
	internal func()
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []*transport.Request
	handler  func(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

func (b *fakeBackend) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return b.handler(ctx, req)
}

func (b *fakeBackend) lastRequest() *transport.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Header:     http.Header{"X-Request-Id": {"req-1"}},
		Body:       []byte(body),
		Codec:      codecs.JSON,
	}
}

func newRegistry(t *testing.T) *errors.Registry {
	registry := errors.NewRegistry()
	require.NoError(t, registry.RegisterModel(errors.NewModel[notFound](errors.WithName("NotFound"), errors.WithStatusCodes(http.StatusNotFound))))
	return registry
}

func usersBackend() *fakeBackend {
	return &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		path, err := req.Path()
		if err != nil {
			return nil, err
		}
		switch path {
		case "/users/42":
			return jsonResponse(http.StatusOK, `{"id":"42","name":"Ada"}`), nil
		case "/users/404":
			return jsonResponse(http.StatusNotFound, `{"code":"NOT_FOUND","id":"404"}`), nil
		case "/users/409":
			return jsonResponse(http.StatusConflict, `{"code":"CONFLICT"}`), nil
		case "/users/empty":
			return jsonResponse(http.StatusOK, `{"name":"nobody"}`), nil
		case "/users":
			return jsonResponse(http.StatusOK, `[{"id":"1"},{"id":"2"}]`), nil
		case "/ping":
			return &transport.Response{StatusCode: http.StatusInternalServerError, Body: []byte("boom")}, nil
		case "/raw":
			return &transport.Response{StatusCode: http.StatusOK, Body: []byte("raw body")}, nil
		}
		return &transport.Response{StatusCode: http.StatusNoContent}, nil
	}}
}

func bindUsers(t *testing.T, backend binder.Backend, opts ...binder.Option) *usersService {
	var svc usersService
	require.NoError(t, binder.Bind(&svc, backend, append([]binder.Option{binder.WithErrorRegistry(newRegistry(t))}, opts...)...))
	return &svc
}

func TestBind_Success(t *testing.T) {
	backend := usersBackend()
	svc := bindUsers(t, backend)
	assert.Nil(t, svc.internal)

	got, err := svc.Get(context.Background(), getUserRequest{ID: "42", Verbose: true, Token: func() string { return "secret" }})
	require.NoError(t, err)
	assert.Equal(t, user{ID: "42", Name: "Ada", Status: http.StatusOK, RequestID: "req-1"}, got)

	req := backend.lastRequest()
	assert.Equal(t, "Get", req.MethodName)
	assert.Equal(t, http.MethodGet, req.HTTPMethod)
	assert.Equal(t, []string{"true"}, req.Query["verbose"])
	assert.Equal(t, "secret", req.Header.Get("X-Token"))

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, svc.Delete(context.Background(), &getUserRequest{ID: "1"}))
	assert.Equal(t, http.MethodDelete, backend.lastRequest().HTTPMethod)

	raw, err := svc.Raw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "raw body", raw.Text())
	assert.Equal(t, "raw-call", backend.lastRequest().MethodName)
}

func TestBind_ErrorModels(t *testing.T) {
	svc := bindUsers(t, usersBackend(), binder.WithErrorModels(errors.NewModel[genericError](errors.WithUnknownFields(), errors.WithStatusRange(400, 499))))

	_, err := svc.Get(context.Background(), getUserRequest{ID: "404"})
	require.Error(t, err)
	fault, ok := err.(*errors.Fault[notFound])
	require.True(t, ok, "expected NotFound fault, got %T: %v", err, err)
	assert.Equal(t, "404", fault.Model.ID)
	assert.Equal(t, http.StatusNotFound, fault.StatusCode())
	assert.Equal(t, "NotFound", fault.ModelName)

	_, err = svc.Get(context.Background(), getUserRequest{ID: "409"})
	generic, ok := err.(*errors.Fault[genericError])
	require.True(t, ok, "expected generic fault, got %T: %v", err, err)
	assert.Equal(t, "CONFLICT", generic.Model.Code)
}

func TestBind_StatusError(t *testing.T) {
	svc := bindUsers(t, usersBackend())
	err := svc.Ping(context.Background())
	require.Error(t, err)
	statusCode, ok := werror.ParamFromError(err, "statusCode")
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, statusCode)
}

type decodingBackend struct {
	*fakeBackend
}

func (decodingBackend) DecodeError(_ context.Context, resp *transport.Response) error {
	return werror.Error("decoded remote error", werror.SafeParam("statusCode", resp.StatusCode))
}

func TestBind_BackendErrorDecoder(t *testing.T) {
	svc := bindUsers(t, decodingBackend{fakeBackend: usersBackend()})
	err := svc.Ping(context.Background())
	require.EqualError(t, err, "decoded remote error")
}

func TestBind_ResponseValidation(t *testing.T) {
	svc := bindUsers(t, usersBackend())
	_, err := svc.Get(context.Background(), getUserRequest{ID: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response")
}

func TestBind_MissingPathParameterFailsBeforeCall(t *testing.T) {
	backend := usersBackend()
	svc := bindUsers(t, backend)
	get, err := binder.BindMethod[binder.Args, user](backend, binder.Declaration{
		Name:       "Get",
		Markers:    []markers.MethodMarker{markers.HTTP(http.MethodGet, "/users/{id}")},
		Parameters: []binder.Parameter{binder.Param("id", markers.PathParam("id"))},
	})
	require.NoError(t, err)
	_, err = get(context.Background(), binder.Args{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path parameter has no value")
	assert.Zero(t, backend.callCount())

	err = svc.Delete(context.Background(), nil)
	require.Error(t, err)
	assert.Zero(t, backend.callCount())
}

func TestBind_TransportError(t *testing.T) {
	svc := bindUsers(t, &fakeBackend{handler: func(context.Context, *transport.Request) (*transport.Response, error) {
		return nil, werror.Error("connection refused")
	}})
	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend call failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBind_RecoversPanickingProvider(t *testing.T) {
	svc := bindUsers(t, usersBackend())
	_, err := svc.Get(context.Background(), getUserRequest{ID: "42", Token: func() string { panic("no token") }})
	require.Error(t, err)
	recovered, safe := werror.ParamFromError(err, "recovered")
	assert.False(t, safe)
	assert.Equal(t, "no token", recovered)
}

func TestBind_Timeout(t *testing.T) {
	var hasDeadline bool
	svc := bindUsers(t, &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		_, hasDeadline = ctx.Deadline()
		return &transport.Response{StatusCode: http.StatusNoContent}, nil
	}})
	require.NoError(t, svc.Delete(context.Background(), &getUserRequest{ID: "1"}))
	assert.True(t, hasDeadline)
	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.False(t, hasDeadline)
}

func TestBind_Middleware(t *testing.T) {
	var order []string
	middleware := func(name string) binder.CallMiddleware {
		return binder.CallMiddlewareFunc(func(ctx context.Context, req *transport.Request, next markers.CallFunc) (*transport.Response, error) {
			order = append(order, name)
			req.Header.Set("X-Middleware", name)
			return next(ctx, req)
		})
	}
	backend := usersBackend()
	svc := bindUsers(t, backend, binder.WithMiddleware(middleware("outer"), middleware("inner")))
	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, "inner", backend.lastRequest().Header.Get("X-Middleware"))
}

func TestBind_AsyncMatchesSync(t *testing.T) {
	backend := usersBackend()
	svc := bindUsers(t, backend)
	req := getUserRequest{ID: "42", Verbose: true}

	syncUser, syncErr := svc.Get(context.Background(), req)
	syncReq := backend.lastRequest()
	asyncUser, asyncErr := binder.Await(context.Background(), svc.GetAsync(context.Background(), req))
	asyncReq := backend.lastRequest()

	require.NoError(t, syncErr)
	require.NoError(t, asyncErr)
	assert.Equal(t, syncUser, asyncUser)
	assert.Equal(t, syncReq.HTTPMethod, asyncReq.HTTPMethod)
	assert.Equal(t, syncReq.PathParams, asyncReq.PathParams)
	assert.Equal(t, syncReq.Query, asyncReq.Query)

	_, err := binder.Await(context.Background(), svc.GetAsync(context.Background(), getUserRequest{ID: "404"}))
	_, ok := err.(*errors.Fault[notFound])
	assert.True(t, ok)
}

func TestBind_AsyncResultChannel(t *testing.T) {
	svc := bindUsers(t, usersBackend())
	results := svc.GetAsync(context.Background(), getUserRequest{ID: "42"})
	r, ok := <-results
	require.True(t, ok)
	require.NoError(t, r.Err)
	assert.Equal(t, "42", r.Value.ID)
	_, ok = <-results
	assert.False(t, ok, "channel must be closed after the result")
}

func TestBind_MaxConcurrency(t *testing.T) {
	var inFlight, maxInFlight int32
	backend := &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		current := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if current <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return jsonResponse(http.StatusOK, `{"id":"1"}`), nil
	}}
	svc := bindUsers(t, backend, binder.WithMaxConcurrency(1))

	var results []<-chan binder.Result[user]
	for i := 0; i < 5; i++ {
		results = append(results, svc.GetAsync(context.Background(), getUserRequest{ID: "1"}))
	}
	for _, r := range results {
		_, err := binder.Await(context.Background(), r)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestBind_AsyncCancelledWhileWaitingForSlot(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		<-release
		return jsonResponse(http.StatusOK, `{"id":"1"}`), nil
	}}
	svc := bindUsers(t, backend, binder.WithMaxConcurrency(1))

	first := svc.GetAsync(context.Background(), getUserRequest{ID: "1"})
	require.Eventually(t, func() bool { return backend.callCount() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := <-svc.GetAsync(ctx, getUserRequest{ID: "1"})
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "failed to acquire call slot")

	close(release)
	_, err := binder.Await(context.Background(), first)
	require.NoError(t, err)
}

func TestAwait_ContextDone(t *testing.T) {
	results := make(chan binder.Result[string])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := binder.Await[string](ctx, results)
	require.Error(t, err)

	close(results)
	_, err = binder.Await[string](context.Background(), results)
	require.EqualError(t, err, "result channel closed without a result")
}

func TestBind_Errors(t *testing.T) {
	var notPointer usersService
	assert.Error(t, binder.Bind(notPointer, usersBackend()))
	assert.Error(t, binder.Bind(&usersService{}, nil))

	type invalidService struct {
		BadShape     func(string) error                   `http:"GET /"`
		UnknownModel func(context.Context) error          `http:"GET /" errors:"Missing"`
		BadTag       func(context.Context) error          `http:"FETCH /"`
		Fine         func(context.Context) (string, error) `http:"GET /"`
	}
	var svc invalidService
	err := binder.Bind(&svc, usersBackend(), binder.WithErrorRegistry(errors.NewRegistry()))
	require.Error(t, err)
	assert.Equal(t, []string{"BadShape", "UnknownModel", "BadTag"}, failedMethods(t, err))
	assert.Nil(t, svc.Fine)

	assert.Error(t, binder.Bind(&svc, usersBackend(), binder.WithMaxConcurrency(0)))
}

type rejectingBackend struct {
	*fakeBackend
}

func (rejectingBackend) ValidateSignature(sig *binder.Signature) error {
	req, err := sig.Template()
	if err != nil {
		return err
	}
	if req.HTTPMethod == "" {
		return werror.Error("method has no HTTP method marker")
	}
	return nil
}

func TestBind_SignatureValidator(t *testing.T) {
	type service struct {
		Tagged   func(context.Context) error `http:"GET /"`
		Untagged func(context.Context) error
	}
	var svc service
	err := binder.Bind(&svc, rejectingBackend{fakeBackend: usersBackend()})
	require.Error(t, err)
	assert.Equal(t, []string{"Untagged"}, failedMethods(t, err))
	assert.Contains(t, err.Error(), "method has no HTTP method marker")
}

func failedMethods(t *testing.T, err error) []string {
	merr, ok := werror.RootCause(err).(*multierror.Error)
	require.True(t, ok, "expected aggregated errors, got %T", werror.RootCause(err))
	var names []string
	for _, methodErr := range merr.Errors {
		name, _ := werror.ParamFromError(methodErr, "methodName")
		names = append(names, name.(string))
	}
	return names
}

func TestBind_Cached(t *testing.T) {
	registry := newRegistry(t)
	backend := usersBackend()
	var first, second usersService
	require.NoError(t, binder.Bind(&first, backend, binder.WithErrorRegistry(registry)))
	require.NoError(t, binder.Bind(&second, backend, binder.WithErrorRegistry(registry)))
	_, err := first.Get(context.Background(), getUserRequest{ID: "42"})
	require.NoError(t, err)
	_, err = second.Get(context.Background(), getUserRequest{ID: "42"})
	require.NoError(t, err)
}

func TestBind_RetriesFailedBindAfterRegistration(t *testing.T) {
	registry := errors.NewRegistry()
	backend := usersBackend()
	var svc usersService
	require.Error(t, binder.Bind(&svc, backend, binder.WithErrorRegistry(registry)))

	require.NoError(t, registry.RegisterModel(errors.NewModel[notFound](errors.WithName("NotFound"), errors.WithStatusCodes(http.StatusNotFound))))
	require.NoError(t, binder.Bind(&svc, backend, binder.WithErrorRegistry(registry)))
	_, err := svc.Get(context.Background(), getUserRequest{ID: "404"})
	_, ok := err.(*errors.Fault[notFound])
	assert.True(t, ok, "expected NotFound fault, got %T: %v", err, err)
}

func TestBind_Metrics(t *testing.T) {
	rootRegistry := metrics.NewRootMetricsRegistry()
	ctx := metrics.WithRegistry(context.Background(), rootRegistry)
	svc := bindUsers(t, usersBackend())

	_, err := svc.Get(ctx, getUserRequest{ID: "42"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, getUserRequest{ID: "404"})
	require.Error(t, err)

	outcomes := map[string]bool{}
	rootRegistry.Each(func(name string, tags metrics.Tags, value metrics.MetricVal) {
		if name != binder.MetricCall {
			return
		}
		tagMap := tags.ToMap()
		assert.Equal(t, "get", tagMap["method-name"])
		outcomes[tagMap["outcome"]] = true
	})
	assert.Equal(t, map[string]bool{"success": true, "fault": true}, outcomes)
}

func TestBind_Tracing(t *testing.T) {
	reporter := &testReporter{}
	tracer, err := wzipkin.NewTracer(reporter)
	require.NoError(t, err)
	ctx := wtracing.ContextWithTracer(context.Background(), tracer)

	var traceID wtracing.TraceID
	svc := bindUsers(t, &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		traceID = wtracing.TraceIDFromContext(ctx)
		return &transport.Response{StatusCode: http.StatusNoContent}, nil
	}})
	require.NoError(t, svc.Delete(ctx, &getUserRequest{ID: "1"}))
	assert.NotEmpty(t, traceID)
	_, err = svc.Raw(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Delete", "raw-call"}, reporter.spanNames())
}

type testReporter struct {
	mu    sync.Mutex
	names []string
}

func (r *testReporter) Send(span wtracing.SpanModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, span.Name)
}

func (r *testReporter) Close() error {
	return nil
}

func (r *testReporter) spanNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestBindMethod_Args(t *testing.T) {
	backend := &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		return jsonResponse(http.StatusOK, `{"total":2}`), nil
	}}
	search, err := binder.BindMethod[binder.Args, map[string]int](backend, binder.Declaration{
		Name:    "Search",
		Markers: []markers.MethodMarker{markers.HTTP(http.MethodGet, "/search/{index}")},
		Parameters: []binder.Parameter{
			binder.Param("index", markers.PathParam("index")),
			binder.Param("q", markers.Query("q")),
			binder.Param("limit", markers.Default(markers.Query("limit"), "10")),
		},
	})
	require.NoError(t, err)

	out, err := search(context.Background(), binder.Args{"index": "books", "q": []string{"go", "rust"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"total": 2}, out)

	req := backend.lastRequest()
	path, err := req.Path()
	require.NoError(t, err)
	assert.Equal(t, "/search/books", path)
	assert.Equal(t, []string{"go", "rust"}, req.Query["q"])
	assert.Equal(t, []string{"10"}, req.Query["limit"])
}

func TestBindAsyncMethod(t *testing.T) {
	type createRequest struct {
		Name string `json:"name"`
	}
	backend := &fakeBackend{handler: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		payload, ok, err := req.Payload()
		if err != nil || !ok {
			return nil, werror.Error("missing payload")
		}
		assert.Equal(t, createRequest{Name: "widget"}, payload)
		return jsonResponse(http.StatusCreated, `"created"`), nil
	}}
	create, err := binder.BindAsyncMethod[createRequest, string](backend, binder.Declaration{
		Name:    "Create",
		Markers: []markers.MethodMarker{markers.HTTP(http.MethodPost, "/widgets")},
	})
	require.NoError(t, err)
	out, err := binder.Await(context.Background(), create(context.Background(), createRequest{Name: "widget"}))
	require.NoError(t, err)
	assert.Equal(t, "created", out)
}

func TestBindMethod_Errors(t *testing.T) {
	_, err := binder.BindMethod[binder.Args, string](usersBackend(), binder.Declaration{Name: "NoParams"})
	assert.Error(t, err)
	_, err = binder.BindMethod[string, string](usersBackend(), binder.Declaration{
		Name:       "Declared",
		Parameters: []binder.Parameter{binder.Param("q", markers.Query("q"))},
	})
	assert.Error(t, err)
	_, err = binder.BindMethod[string, string](usersBackend(), binder.Declaration{})
	assert.Error(t, err)
	_, err = binder.BindMethod[string, string](rejectingBackend{fakeBackend: usersBackend()}, binder.Declaration{Name: "NoMarkers"})
	assert.Error(t, err)
}
