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
	"io"

	werror "github.com/palantir/witchcraft-go-error"
)

const (
	contentTypeBinary = "application/octet-stream"
)

// Binary codec encodes and decodes binary payloads.
// Decode/Unmarshal accepts an io.Writer or a *[]byte and copies content to it.
// Encode/Marshal accepts an io.Reader or a []byte and copies content from it.
var Binary Codec = codecBinary{}

type codecBinary struct{}

func (codecBinary) Accept() string {
	return contentTypeBinary
}

func (codecBinary) Decode(r io.Reader, v interface{}) error {
	if closer, ok := r.(io.ReadCloser); ok {
		defer func() { _ = closer.Close() }()
	}
	switch out := v.(type) {
	case *[]byte:
		data, err := io.ReadAll(r)
		if err != nil {
			return werror.Wrap(err, "failed to read binary data")
		}
		*out = data
		return nil
	case io.Writer:
		if _, err := io.Copy(out, r); err != nil {
			return werror.Wrap(err, "failed to copy binary data")
		}
		return nil
	}
	return werror.Error("failed to decode binary data into type which does not implement io.Writer",
		werror.SafeParam("type", typeName(v)))
}

func (c codecBinary) Unmarshal(data []byte, v interface{}) error {
	return c.Decode(bytes.NewReader(data), v)
}

func (codecBinary) ContentType() string {
	return contentTypeBinary
}

func (codecBinary) Encode(w io.Writer, v interface{}) error {
	var r io.Reader
	switch in := v.(type) {
	case []byte:
		r = bytes.NewReader(in)
	case io.Reader:
		r = in
	default:
		return werror.Error("failed to encode binary data from type which does not implement io.Reader",
			werror.SafeParam("type", typeName(v)))
	}
	if closer, ok := r.(io.ReadCloser); ok {
		defer func() { _ = closer.Close() }()
	}
	if _, err := io.Copy(w, r); err != nil {
		return werror.Wrap(err, "failed to copy binary data")
	}
	return nil
}

func (c codecBinary) Marshal(v interface{}) ([]byte, error) {
	if data, ok := v.([]byte); ok {
		return data, nil
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
