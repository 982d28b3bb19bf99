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

package soap_test

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/palantir/go-combadge/combadge-client/backends/soap"
	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-client/httpclient"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numberConversionNamespace = "http://www.dataaccess.com/webservicesserver/"

type numberToWordsRequest struct {
	Number int64 `xml:"ubiNum"`
}

type numberToWordsResponse struct {
	Result string `xml:"NumberToWordsResult" validate:"required"`
}

type numberTooLarge struct {
	Result string `xml:"NumberToWordsResult" validate:"eq=number too large"`
}

type numberConversion struct {
	NumberToWords      func(context.Context, numberToWordsRequest) (numberToWordsResponse, error)                `soap:"NumberToWords" errors:"NumberTooLarge"`
	NumberToWordsAsync func(context.Context, numberToWordsRequest) <-chan binder.Result[numberToWordsResponse] `soap:"NumberToWords" errors:"NumberTooLarge"`
	NumberToDollars    func(context.Context, numberToWordsRequest) (numberToWordsResponse, error)                `soap:"NumberToDollars,action=urn:NumberToDollars"`
}

type receivedRequest struct {
	soapAction  string
	contentType string
	envelope    string
	operation   xml.Name
	number      int64
}

type requestEnvelope struct {
	XMLName xml.Name
	Body    struct {
		Operation struct {
			XMLName xml.Name
			Number  int64 `xml:"ubiNum"`
		} `xml:",any"`
	} `xml:"Body"`
}

const soap11Response = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <m:%[1]sResponse xmlns:m="http://www.dataaccess.com/webservicesserver/">
      <m:%[1]sResult>%[2]s</m:%[1]sResult>
    </m:%[1]sResponse>
  </soap:Body>
</soap:Envelope>`

const soap11Fault = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Client</faultcode>
      <faultstring>unlucky number</faultstring>
      <detail><reason>13</reason></detail>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

const soap12Fault = `<?xml version="1.0" encoding="utf-8"?>
<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope">
  <env:Body>
    <env:Fault>
      <env:Code><env:Value>env:Sender</env:Value></env:Code>
      <env:Reason><env:Text xml:lang="en">unlucky number</env:Text></env:Reason>
      <env:Detail><reason>13</reason></env:Detail>
    </env:Fault>
  </env:Body>
</env:Envelope>`

func newNumberConversionServer(t *testing.T, fault string, received chan<- receivedRequest) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var env requestEnvelope
		require.NoError(t, xml.Unmarshal(body, &env))
		op := env.Body.Operation
		if received != nil {
			received <- receivedRequest{
				soapAction:  req.Header.Get("SOAPAction"),
				contentType: req.Header.Get("Content-Type"),
				envelope:    env.XMLName.Space,
				operation:   op.XMLName,
				number:      op.Number,
			}
		}
		switch {
		case op.Number == 13:
			rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
			rw.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(rw, fault)
		case op.Number == 42:
			rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
			_, _ = fmt.Fprintf(rw, soap11Response, op.XMLName.Local, "forty two ")
		case op.Number < 0:
			rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
			_, _ = fmt.Fprintf(rw, soap11Response, op.XMLName.Local, "number too large")
		default:
			rw.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(rw, "upstream unavailable")
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func bindNumberConversion(t *testing.T, server *httptest.Server, opts ...soap.Option) *numberConversion {
	client, err := httpclient.NewClient(httpclient.WithBaseURLs([]string{server.URL}))
	require.NoError(t, err)
	registry := errors.NewRegistry()
	require.NoError(t, registry.RegisterModel(errors.NewModel[numberTooLarge](errors.WithName("NumberTooLarge"))))

	var svc numberConversion
	backend := soap.New(client, append([]soap.Option{
		soap.WithNamespace(numberConversionNamespace),
		soap.WithEndpointPath("/webservicesserver/NumberConversion.wso"),
	}, opts...)...)
	require.NoError(t, binder.Bind(&svc, backend, binder.WithErrorRegistry(registry)))
	return &svc
}

func TestBackend_NumberToWords(t *testing.T) {
	received := make(chan receivedRequest, 1)
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap11Fault, received))

	out, err := svc.NumberToWords(context.Background(), numberToWordsRequest{Number: 42})
	require.NoError(t, err)
	assert.Equal(t, "forty two ", out.Result)

	req := <-received
	assert.Equal(t, `""`, req.soapAction)
	assert.Equal(t, "text/xml; charset=utf-8", req.contentType)
	assert.Equal(t, soap.NamespaceSOAP11, req.envelope)
	assert.Equal(t, xml.Name{Space: numberConversionNamespace, Local: "NumberToWords"}, req.operation)
	assert.Equal(t, int64(42), req.number)
}

type divideRequest struct {
	Dividend int `body:"Dividend"`
	Divisor  int `body:"Divisor"`
	Base     int `body:"Base"`
}

type divideResponse struct {
	Result string `xml:"DivideResult"`
}

func TestBackend_BodyFieldsKeepDeclarationOrder(t *testing.T) {
	bodies := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		bodies <- string(body)
		rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = fmt.Fprintf(rw, soap11Response, "Divide", "5")
	}))
	defer server.Close()
	client, err := httpclient.NewClient(httpclient.WithBaseURLs([]string{server.URL}))
	require.NoError(t, err)

	var svc struct {
		Divide func(context.Context, divideRequest) (divideResponse, error) `soap:"Divide"`
	}
	require.NoError(t, binder.Bind(&svc, soap.New(client, soap.WithNamespace(numberConversionNamespace))))

	out, err := svc.Divide(context.Background(), divideRequest{Dividend: 10, Divisor: 2, Base: 10})
	require.NoError(t, err)
	assert.Equal(t, "5", out.Result)
	assert.Contains(t, <-bodies, `<Divide xmlns="`+numberConversionNamespace+`"><Dividend>10</Dividend><Divisor>2</Divisor><Base>10</Base></Divide>`)
}

func TestBackend_NumberToWordsAsync(t *testing.T) {
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap11Fault, nil))
	out, err := binder.Await(context.Background(), svc.NumberToWordsAsync(context.Background(), numberToWordsRequest{Number: 42}))
	require.NoError(t, err)
	assert.Equal(t, "forty two ", out.Result)
}

func TestBackend_ErrorModelOnSuccessStatus(t *testing.T) {
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap11Fault, nil))
	_, err := svc.NumberToWords(context.Background(), numberToWordsRequest{Number: -1})
	fault, ok := errors.AsFault[numberTooLarge](err)
	require.True(t, ok, "expected NumberTooLarge fault, got %v", err)
	assert.Equal(t, "number too large", fault.Model.Result)
	assert.Equal(t, http.StatusOK, fault.StatusCode())

	_, err = binder.Await(context.Background(), svc.NumberToWordsAsync(context.Background(), numberToWordsRequest{Number: -1}))
	_, ok = errors.AsFault[numberTooLarge](err)
	assert.True(t, ok)
}

func TestBackend_Fault11(t *testing.T) {
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap11Fault, nil))
	_, err := svc.NumberToWords(context.Background(), numberToWordsRequest{Number: 13})
	require.Error(t, err)
	fault, ok := err.(*soap.Fault)
	require.True(t, ok, "expected SOAP fault, got %T: %v", err, err)
	assert.Equal(t, "soap:Client", fault.Code)
	assert.Equal(t, "unlucky number", fault.Reason)
	assert.Equal(t, "<reason>13</reason>", fault.Detail)
	assert.Equal(t, http.StatusInternalServerError, fault.StatusCode())

	statusCode, ok := httpclient.StatusCodeFromError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, statusCode)
}

func TestBackend_Fault12(t *testing.T) {
	received := make(chan receivedRequest, 1)
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap12Fault, received), soap.WithVersion(soap.Version12))
	_, err := svc.NumberToDollars(context.Background(), numberToWordsRequest{Number: 13})
	fault, ok := err.(*soap.Fault)
	require.True(t, ok, "expected SOAP fault, got %T: %v", err, err)
	assert.Equal(t, "env:Sender", fault.Code)
	assert.Equal(t, "unlucky number", fault.Reason)

	req := <-received
	assert.Empty(t, req.soapAction)
	assert.Equal(t, `application/soap+xml; charset=utf-8; action="urn:NumberToDollars"`, req.contentType)
	assert.Equal(t, soap.NamespaceSOAP12, req.envelope)
}

func TestBackend_NonSOAPError(t *testing.T) {
	svc := bindNumberConversion(t, newNumberConversionServer(t, soap11Fault, nil))
	_, err := svc.NumberToWords(context.Background(), numberToWordsRequest{Number: 7})
	require.Error(t, err)
	statusCode, ok := httpclient.StatusCodeFromError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, statusCode)
}

func TestBackend_ValidateSignature(t *testing.T) {
	backend := soap.New(nil)
	var restOnly struct {
		Get func(context.Context) error `http:"GET /"`
	}
	err := binder.Bind(&restOnly, backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOAP methods require an operation marker")

	var notPosted struct {
		Get func(context.Context) error `http:"GET /" soap:"Get"`
	}
	require.Error(t, binder.Bind(&notPosted, backend))

	var posted struct {
		Add func(context.Context) error `http:"POST /calculator" soap:"Add"`
	}
	require.NoError(t, binder.Bind(&posted, backend))
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "1.1", soap.Version11.String())
	assert.Equal(t, "1.2", soap.Version12.String())
}
