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

// Package soap implements a binder backend which executes bound methods as SOAP operations
// posted over HTTP.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-client/httpclient"
	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
)

// Backend posts operations wrapped in SOAP envelopes with an httpclient.Client. The content of
// the response envelope body is handed to the binder as XML.
type Backend struct {
	client    httpclient.Client
	version   Version
	namespace string
	path      string
}

var (
	_ binder.Backend            = (*Backend)(nil)
	_ binder.SignatureValidator = (*Backend)(nil)
	_ binder.ErrorDecoder       = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithVersion selects the SOAP version. The default is SOAP 1.1.
func WithVersion(version Version) Option {
	return func(b *Backend) {
		b.version = version
	}
}

// WithNamespace sets the XML namespace of operation elements.
func WithNamespace(namespace string) Option {
	return func(b *Backend) {
		b.namespace = namespace
	}
}

// WithEndpointPath sets the path operations are posted to, relative to the client base URL.
// Methods with an HTTP marker use the marker's path instead.
func WithEndpointPath(path string) Option {
	return func(b *Backend) {
		b.path = path
	}
}

// New returns a backend using client.
func New(client httpclient.Client, opts ...Option) *Backend {
	b := &Backend{client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig returns a backend using a client built from config.
func NewFromConfig(config httpclient.ClientConfig, opts ...Option) (*Backend, error) {
	client, err := httpclient.NewClient(httpclient.WithConfig(config))
	if err != nil {
		return nil, err
	}
	return New(client, opts...), nil
}

// ValidateSignature rejects methods without an operation marker and methods using an HTTP
// method other than POST.
func (b *Backend) ValidateSignature(sig *binder.Signature) error {
	req, err := sig.Template()
	if err != nil {
		return err
	}
	if req.Operation == "" {
		return werror.Error("SOAP methods require an operation marker", werror.SafeParam("methodName", sig.Name))
	}
	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return werror.Error("SOAP operations must be posted",
			werror.SafeParam("methodName", sig.Name),
			werror.SafeParam("httpMethod", req.HTTPMethod))
	}
	return nil
}

// Call posts the operation and returns the content of the response envelope body. Responses
// carrying a Fault are reported with an error status even if the server answered 2xx.
func (b *Backend) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	params, err := b.requestParams(req)
	if err != nil {
		return nil, err
	}
	httpResp, err := b.client.Do(ctx, params...)
	if err != nil {
		return nil, err
	}
	resp, err := transport.ReadResponse(httpResp)
	if err != nil {
		return nil, err
	}
	if resp.IsEmpty() {
		return resp, nil
	}
	content, err := decodeEnvelope(resp.Body)
	if err != nil {
		if !resp.IsSuccess() {
			// not a SOAP response; leave the body for the error decoder
			return resp, nil
		}
		return nil, werror.WrapWithContextParams(ctx, err, "invalid SOAP response",
			werror.SafeParam("operation", req.Operation),
			werror.SafeParam("statusCode", resp.StatusCode))
	}
	resp.Body = content
	resp.Codec = codecs.XML
	if isFault(content) && resp.IsSuccess() {
		svc1log.FromContext(ctx).Debug("SOAP fault returned with a success status",
			svc1log.SafeParam("operation", req.Operation),
			svc1log.SafeParam("statusCode", resp.StatusCode))
		resp.StatusCode = http.StatusInternalServerError
		resp.Status = http.StatusText(http.StatusInternalServerError)
	}
	return resp, nil
}

func (b *Backend) requestParams(req *transport.Request) ([]httpclient.RequestParam, error) {
	if req.Operation == "" {
		return nil, werror.Error("request has no SOAP operation", werror.SafeParam("methodName", req.MethodName))
	}
	if len(req.Form) > 0 {
		return nil, werror.Error("SOAP requests can not carry form fields", werror.SafeParam("methodName", req.MethodName))
	}
	path := b.path
	if req.PathTemplate != "" {
		rendered, err := req.Path()
		if err != nil {
			return nil, err
		}
		path = rendered
	}
	payload, _, err := req.Payload()
	if err != nil {
		return nil, err
	}
	if len(req.BodyFields) > 0 {
		payload = orderedFields{names: req.BodyFieldNames(), values: req.BodyFields}
	}
	var body bytes.Buffer
	if err := encodeEnvelope(&body, b.version, xml.Name{Space: b.namespace, Local: req.Operation}, payload); err != nil {
		return nil, err
	}

	params := []httpclient.RequestParam{
		httpclient.WithRPCMethodName(req.MethodName),
		httpclient.WithRequestMethod(http.MethodPost),
		httpclient.WithPath(path),
		httpclient.WithQueryValues(req.Query),
		httpclient.WithHeaders(req.Header),
		httpclient.WithRawRequestBody(httpclient.RequestBodyInMemory(body.Bytes())),
		httpclient.WithHeader("Content-Type", b.version.contentType(req.Action)),
		httpclient.WithHeader("Accept", b.version.contentType("")),
		httpclient.WithRawResponseBody(),
		httpclient.WithRequestErrorDecoder(nil),
	}
	if b.version == Version11 {
		params = append(params, httpclient.WithHeader("SOAPAction", strconv.Quote(req.Action)))
	}
	return params, nil
}

// DecodeError returns a *Fault for fault responses and a status error otherwise.
func (b *Backend) DecodeError(ctx context.Context, resp *transport.Response) error {
	if !resp.IsEmpty() && isFault(resp.Body) {
		fault, err := decodeFault(resp.Body, resp.StatusCode)
		if err == nil {
			return fault
		}
		svc1log.FromContext(ctx).Debug("Failed to decode SOAP fault",
			svc1log.SafeParam("statusCode", resp.StatusCode),
			svc1log.Stacktrace(err))
	}
	return werror.ErrorWithContextParams(ctx, "server returned an error status",
		werror.SafeParam("statusCode", resp.StatusCode),
		werror.SafeParam("reason", resp.Reason()),
		werror.UnsafeParam("responseBody", resp.Text()))
}
