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
	"encoding"
	"fmt"
	"io"

	werror "github.com/palantir/witchcraft-go-error"
)

const (
	contentTypePlain = "text/plain"
)

// Plain codec encodes and decodes text payloads.
// Values may be strings, byte slices, or types implementing encoding.TextMarshaler/TextUnmarshaler.
// Encode additionally accepts fmt.Stringer.
var Plain Codec = codecPlain{}

type codecPlain struct{}

func (codecPlain) Accept() string {
	return contentTypePlain
}

func (c codecPlain) Decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return werror.Wrap(err, "failed to read text data")
	}
	return c.Unmarshal(data, v)
}

func (codecPlain) Unmarshal(data []byte, v interface{}) error {
	switch out := v.(type) {
	case *string:
		*out = string(data)
	case *[]byte:
		*out = append((*out)[:0], data...)
	case encoding.TextUnmarshaler:
		if err := out.UnmarshalText(data); err != nil {
			return werror.Wrap(err, "UnmarshalText")
		}
	default:
		return werror.Error("failed to decode text data into unsupported type",
			werror.SafeParam("type", typeName(v)))
	}
	return nil
}

func (codecPlain) ContentType() string {
	return contentTypePlain
}

func (c codecPlain) Encode(w io.Writer, v interface{}) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return werror.Wrap(err, "write failed")
}

func (codecPlain) Marshal(v interface{}) ([]byte, error) {
	switch in := v.(type) {
	case string:
		return []byte(in), nil
	case *string:
		return []byte(*in), nil
	case []byte:
		return bytes.Clone(in), nil
	case encoding.TextMarshaler:
		out, err := in.MarshalText()
		return out, werror.Wrap(err, "MarshalText")
	case fmt.Stringer:
		return []byte(in.String()), nil
	}
	return nil, werror.Error("failed to encode text data from unsupported type",
		werror.SafeParam("type", typeName(v)))
}
