// Copyright (c) 2018 Palantir Technologies. All rights reserved.
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
	"encoding/json"
	"io"

	"github.com/palantir/pkg/safejson"
	werror "github.com/palantir/witchcraft-go-error"
)

const contentTypeJSON = "application/json"

// JSON encodes and decodes payloads with github.com/palantir/pkg/safejson: numbers decode as
// json.Number inside interface values and HTML characters are not escaped.
var JSON Codec = codecJSON{}

// StrictJSON is JSON that fails on object keys the destination struct does not declare. Error
// models decode with it so that a payload only matches the shape it names.
var StrictJSON Codec = codecJSON{strict: true}

type codecJSON struct {
	strict bool
}

func (codecJSON) Accept() string {
	return contentTypeJSON
}

func (codecJSON) ContentType() string {
	return contentTypeJSON
}

func (c codecJSON) Decode(r io.Reader, v interface{}) error {
	if unmarshaler, ok := v.(json.Unmarshaler); ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return werror.Wrap(err, "failed to read JSON data")
		}
		return werror.Wrap(unmarshaler.UnmarshalJSON(data), "UnmarshalJSON")
	}
	dec := safejson.Decoder(r)
	if c.strict {
		dec.DisallowUnknownFields()
	}
	return werror.Wrap(dec.Decode(v), "failed to decode JSON-encoded value")
}

func (c codecJSON) Unmarshal(data []byte, v interface{}) error {
	if c.strict {
		return c.Decode(bytes.NewReader(data), v)
	}
	return werror.Wrap(safejson.Unmarshal(data, v), "safejson.Unmarshal")
}

func (codecJSON) Encode(w io.Writer, v interface{}) error {
	return werror.Wrap(safejson.Encoder(w).Encode(v), "failed to JSON-encode value")
}

func (codecJSON) Marshal(v interface{}) ([]byte, error) {
	out, err := safejson.Marshal(v)
	return out, werror.Wrap(err, "safejson.Marshal")
}
