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

package codecs

import (
	"bytes"
	"encoding/xml"
	"io"

	werror "github.com/palantir/witchcraft-go-error"
)

const (
	contentTypeXML    = "application/xml"
	contentTypeSOAP12 = "application/soap+xml"
)

// XML codec encodes and decodes XML payloads using encoding/xml.
var XML Codec = codecXML{}

type codecXML struct{}

func (codecXML) Accept() string {
	return contentTypeXML
}

func (codecXML) Decode(r io.Reader, v interface{}) error {
	if err := xml.NewDecoder(r).Decode(v); err != nil {
		return werror.Wrap(err, "xml.Decode")
	}
	return nil
}

func (c codecXML) Unmarshal(data []byte, v interface{}) error {
	return c.Decode(bytes.NewReader(data), v)
}

func (codecXML) ContentType() string {
	return contentTypeXML
}

func (codecXML) Encode(w io.Writer, v interface{}) error {
	if err := xml.NewEncoder(w).Encode(v); err != nil {
		return werror.Wrap(err, "xml.Encode")
	}
	return nil
}

func (codecXML) Marshal(v interface{}) ([]byte, error) {
	out, err := xml.Marshal(v)
	return out, werror.Wrap(err, "xml.Marshal")
}
