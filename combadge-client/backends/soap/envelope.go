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
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	werror "github.com/palantir/witchcraft-go-error"
)

// Envelope namespaces of the supported SOAP versions.
const (
	NamespaceSOAP11 = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
)

// Version selects the SOAP envelope and HTTP binding.
type Version int

const (
	Version11 Version = iota
	Version12
)

func (v Version) String() string {
	switch v {
	case Version11:
		return "1.1"
	case Version12:
		return "1.2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

func (v Version) namespace() string {
	if v == Version12 {
		return NamespaceSOAP12
	}
	return NamespaceSOAP11
}

// contentType returns the Content-Type of a request. SOAP 1.2 carries the action as a media type
// parameter instead of the SOAPAction header.
func (v Version) contentType(action string) string {
	if v == Version12 {
		if action == "" {
			return "application/soap+xml; charset=utf-8"
		}
		return fmt.Sprintf("application/soap+xml; charset=utf-8; action=%q", action)
	}
	return "text/xml; charset=utf-8"
}

// encodeEnvelope writes an envelope whose body holds a single element named after the operation
// with payload as its content.
func encodeEnvelope(w io.Writer, version Version, operation xml.Name, payload interface{}) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return werror.Wrap(err, "failed to write envelope")
	}
	if _, err := fmt.Fprintf(w, `<soap:Envelope xmlns:soap="%s"><soap:Body>`, version.namespace()); err != nil {
		return werror.Wrap(err, "failed to write envelope")
	}
	enc := xml.NewEncoder(w)
	start := xml.StartElement{Name: operation}
	if operation.Space != "" {
		start.Name = xml.Name{Local: operation.Local}
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: operation.Space}}
	}
	if err := encodeOperation(enc, start, payload); err != nil {
		return werror.Wrap(err, "failed to encode operation", werror.SafeParam("operation", operation.Local))
	}
	if err := enc.Flush(); err != nil {
		return werror.Wrap(err, "failed to encode operation", werror.SafeParam("operation", operation.Local))
	}
	if _, err := io.WriteString(w, `</soap:Body></soap:Envelope>`); err != nil {
		return werror.Wrap(err, "failed to write envelope")
	}
	return nil
}

// orderedFields are named body fields encoded as child elements in the order of names.
type orderedFields struct {
	names  []string
	values map[string]interface{}
}

func encodeOperation(enc *xml.Encoder, start xml.StartElement, payload interface{}) error {
	switch p := payload.(type) {
	case nil:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	case orderedFields:
		return encodeChildren(enc, start, p.names, p.values)
	case map[string]interface{}:
		names := make([]string, 0, len(p))
		for name := range p {
			names = append(names, name)
		}
		sort.Strings(names)
		return encodeChildren(enc, start, names, p)
	}
	return enc.EncodeElement(payload, start)
}

func encodeChildren(enc *xml.Encoder, start xml.StartElement, names []string, values map[string]interface{}) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, name := range names {
		if err := enc.EncodeElement(values[name], xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

type responseEnvelope struct {
	XMLName xml.Name
	Body    struct {
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// decodeEnvelope returns the content of the envelope body.
func decodeEnvelope(data []byte) ([]byte, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, werror.Wrap(err, "failed to decode SOAP envelope")
	}
	if env.XMLName.Local != "Envelope" {
		return nil, werror.Error("response is not a SOAP envelope", werror.SafeParam("rootElement", env.XMLName.Local))
	}
	return bytes.TrimSpace(env.Body.Content), nil
}

// firstElement returns the name of the first element in content.
func firstElement(content []byte) (xml.Name, bool) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.Name{}, false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name, true
		}
	}
}
