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

// Package codecs provides the encoders and decoders used for request and response payloads.
package codecs

import (
	"fmt"
	"io"
	"mime"
	"strings"
)

// Decoder is a type which can decode a payload into a Go value.
type Decoder interface {
	// Accept returns the content type the decoder accepts, suitable for an Accept header.
	Accept() string
	// Decode reads from r and stores the result in the value pointed to by v.
	Decode(r io.Reader, v interface{}) error
	// Unmarshal decodes data and stores the result in the value pointed to by v.
	Unmarshal(data []byte, v interface{}) error
}

// Encoder is a type which can encode a Go value into a payload.
type Encoder interface {
	// ContentType returns the content type of the encoded payload.
	ContentType() string
	// Encode writes the encoding of v to w.
	Encode(w io.Writer, v interface{}) error
	// Marshal returns the encoding of v.
	Marshal(v interface{}) ([]byte, error)
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Decoder
	Encoder
}

// FromContentType returns the codec registered for the media type of the provided Content-Type
// header value. Structured suffixes such as "+json" and "+xml" are recognized.
// If no codec matches, ok is false.
func FromContentType(contentType string) (codec Codec, ok bool) {
	if contentType == "" {
		return nil, false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	switch mediaType {
	case contentTypeJSON:
		return JSON, true
	case contentTypeYAML, "application/yaml", "text/yaml":
		return YAML, true
	case contentTypeXML, "text/xml", contentTypeSOAP12:
		return XML, true
	case contentTypeFormURLEncoded:
		return FormURLEncoded, true
	case contentTypeBinary:
		return Binary, true
	case strings.ToLower(contentTypeProtobuf):
		return Protobuf, true
	}
	switch {
	case strings.HasSuffix(mediaType, "+json"):
		return JSON, true
	case strings.HasSuffix(mediaType, "+xml"):
		return XML, true
	case strings.HasPrefix(mediaType, "text/"):
		return Plain, true
	}
	return nil, false
}

// ByName returns a codec by its short name as used in declarations: json, yaml, xml, form,
// plain, binary or protobuf.
func ByName(name string) (codec Codec, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, true
	case "yaml":
		return YAML, true
	case "xml":
		return XML, true
	case "form":
		return FormURLEncoded, true
	case "plain", "text":
		return Plain, true
	case "binary":
		return Binary, true
	case "protobuf":
		return Protobuf, true
	}
	return nil, false
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
