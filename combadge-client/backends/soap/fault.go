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

package soap

import (
	"encoding/xml"
	"fmt"
	"strings"

	werror "github.com/palantir/witchcraft-go-error"
)

// Fault is the error returned for a SOAP Fault response that no error model matched.
type Fault struct {
	// Code is the fault code, e.g. "soap:Server" or "env:Sender".
	Code string
	// Reason is the human readable fault string.
	Reason string
	// Actor is the faultactor (1.1) or Role (1.2).
	Actor string
	// Detail is the raw XML content of the fault detail.
	Detail string
	Status int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("SOAP fault %s: %s", f.Code, f.Reason)
}

// StatusCode returns the HTTP status code of the response which carried the fault.
func (f *Fault) StatusCode() int {
	return f.Status
}

func (f *Fault) SafeParams() map[string]interface{} {
	return map[string]interface{}{
		"faultCode":  f.Code,
		"statusCode": f.Status,
	}
}

func (f *Fault) UnsafeParams() map[string]interface{} {
	return map[string]interface{}{
		"faultReason": f.Reason,
		"faultActor":  f.Actor,
		"faultDetail": f.Detail,
	}
}

type innerXML struct {
	Content string `xml:",innerxml"`
}

// faultXML covers both the SOAP 1.1 and the SOAP 1.2 fault layouts.
type faultXML struct {
	FaultCode   string   `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
	FaultActor  string   `xml:"faultactor"`
	FaultDetail innerXML `xml:"detail"`

	Code   string   `xml:"Code>Value"`
	Reason string   `xml:"Reason>Text"`
	Role   string   `xml:"Role"`
	Detail innerXML `xml:"Detail"`
}

func isFault(content []byte) bool {
	name, ok := firstElement(content)
	return ok && name.Local == "Fault"
}

func decodeFault(content []byte, status int) (*Fault, error) {
	var f faultXML
	if err := xml.Unmarshal(content, &f); err != nil {
		return nil, werror.Wrap(err, "failed to decode SOAP fault")
	}
	fault := &Fault{
		Code:   firstNonEmpty(f.FaultCode, f.Code),
		Reason: firstNonEmpty(f.FaultString, f.Reason),
		Actor:  firstNonEmpty(f.FaultActor, f.Role),
		Detail: strings.TrimSpace(firstNonEmpty(f.FaultDetail.Content, f.Detail.Content)),
		Status: status,
	}
	return fault, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
