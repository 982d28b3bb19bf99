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

// Package rest implements a binder backend which executes bound methods as HTTP requests.
package rest

import (
	"context"
	"net/http"

	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-client/httpclient"
	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
)

// Backend executes requests with an httpclient.Client. Error responses are returned to the
// binder rather than converted into errors so that error models can match them.
type Backend struct {
	client httpclient.Client
}

var (
	_ binder.Backend            = (*Backend)(nil)
	_ binder.SignatureValidator = (*Backend)(nil)
	_ binder.ErrorDecoder       = (*Backend)(nil)
)

// New returns a backend using client.
func New(client httpclient.Client) *Backend {
	return &Backend{client: client}
}

// NewFromConfig returns a backend using a client built from config and params.
func NewFromConfig(config httpclient.ClientConfig, params ...httpclient.ClientParam) (*Backend, error) {
	client, err := httpclient.NewClient(append([]httpclient.ClientParam{httpclient.WithConfig(config)}, params...)...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// NewFromRefreshableConfig returns a backend whose client follows config updates.
func NewFromRefreshableConfig(ctx context.Context, config httpclient.RefreshableClientConfig, params ...httpclient.ClientParam) (*Backend, error) {
	client, err := httpclient.NewClientFromRefreshableConfig(ctx, config, params...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// ValidateSignature rejects methods without an HTTP method marker.
func (b *Backend) ValidateSignature(sig *binder.Signature) error {
	req, err := sig.Template()
	if err != nil {
		return err
	}
	if req.HTTPMethod == "" {
		return werror.Error("REST methods require an HTTP method marker", werror.SafeParam("methodName", sig.Name))
	}
	if req.Operation != "" {
		return werror.Error("SOAP operation markers are not supported by the REST backend",
			werror.SafeParam("methodName", sig.Name),
			werror.SafeParam("operation", req.Operation))
	}
	return nil
}

// Call sends req and reads the whole response, whatever its status.
func (b *Backend) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	params, err := requestParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(ctx, params...)
	if err != nil {
		return nil, err
	}
	return transport.ReadResponse(resp)
}

func requestParams(req *transport.Request) ([]httpclient.RequestParam, error) {
	path, err := req.Path()
	if err != nil {
		return nil, err
	}
	payload, hasPayload, err := req.Payload()
	if err != nil {
		return nil, err
	}
	header := req.Header.Clone()
	contentType := header.Get("Content-Type")
	header.Del("Content-Type")
	if header.Get("Accept") == "" && req.BodyCodec != nil {
		header.Set("Accept", req.BodyCodec.Accept())
	}

	params := []httpclient.RequestParam{
		httpclient.WithRPCMethodName(req.MethodName),
		httpclient.WithRequestMethod(req.HTTPMethod),
		httpclient.WithPath(path),
		httpclient.WithQueryValues(req.Query),
		httpclient.WithHeaders(header),
		httpclient.WithRawResponseBody(),
		httpclient.WithRequestErrorDecoder(nil),
	}
	switch {
	case len(req.Form) > 0 && hasPayload:
		return nil, werror.Error("request sets both form fields and a body", werror.SafeParam("methodName", req.MethodName))
	case len(req.Form) > 0:
		params = append(params, httpclient.WithRequestBody(req.Form, codecs.FormURLEncoded))
	case hasPayload:
		params = append(params, bodyParam(payload, req.BodyCodec))
	}
	if contentType != "" {
		params = append(params, httpclient.WithHeader("Content-Type", contentType))
	}
	return params, nil
}

func bodyParam(payload interface{}, codec codecs.Codec) httpclient.RequestParam {
	if raw, ok := payload.([]byte); ok && codec == nil {
		return httpclient.WithRawRequestBody(httpclient.RequestBodyInMemory(raw))
	}
	if codec == nil {
		codec = codecs.JSON
	}
	return httpclient.WithRequestBody(payload, codec)
}

// DecodeError converts a non-2xx response no error model matched. Structured remote errors
// become errors.Error values; other bodies are attached to a status error.
func (b *Backend) DecodeError(ctx context.Context, resp *transport.Response) error {
	statusCode := werror.SafeParam("statusCode", resp.StatusCode)
	if qos, ok := errors.QOSFromResponse(resp.StatusCode, resp.Header); ok {
		return werror.WrapWithContextParams(ctx, qos, "server returned a QoS status", statusCode)
	}
	if resp.Decoder() == codecs.JSON && !resp.IsEmpty() {
		if remoteErr, err := errors.UnmarshalError(resp.Body); err == nil {
			return werror.WrapWithContextParams(ctx, remoteErr, "server returned an error", statusCode)
		}
	}
	return werror.ErrorWithContextParams(ctx, "server returned an error status",
		statusCode,
		werror.SafeParam("reason", resp.Reason()),
		werror.UnsafeParam("responseBody", resp.Text()))
}

// IsNotFound reports whether err was caused by a 404 response.
func IsNotFound(err error) bool {
	statusCode, ok := httpclient.StatusCodeFromError(err)
	return ok && statusCode == http.StatusNotFound
}
