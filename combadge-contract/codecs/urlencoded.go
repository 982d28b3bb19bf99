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
	"io"
	"net/url"

	werror "github.com/palantir/witchcraft-go-error"
)

const (
	contentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// FormURLEncoded codec encodes and decodes url.Values as application/x-www-form-urlencoded payloads.
// Encode also accepts map[string][]string and map[string]string.
var FormURLEncoded Codec = codecFormURLEncoded{}

type codecFormURLEncoded struct{}

func (codecFormURLEncoded) Accept() string {
	return contentTypeFormURLEncoded
}

func (c codecFormURLEncoded) Decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return werror.Wrap(err, "failed to read form data")
	}
	return c.Unmarshal(data, v)
}

func (codecFormURLEncoded) Unmarshal(data []byte, v interface{}) error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return werror.Wrap(err, "failed to parse form data")
	}
	switch out := v.(type) {
	case *url.Values:
		*out = values
	case *map[string][]string:
		*out = values
	default:
		return werror.Error("failed to decode form data into type which is not *url.Values",
			werror.SafeParam("type", typeName(v)))
	}
	return nil
}

func (codecFormURLEncoded) ContentType() string {
	return contentTypeFormURLEncoded
}

func (c codecFormURLEncoded) Encode(w io.Writer, v interface{}) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return werror.Wrap(err, "write failed")
}

func (codecFormURLEncoded) Marshal(v interface{}) ([]byte, error) {
	switch in := v.(type) {
	case url.Values:
		return []byte(in.Encode()), nil
	case map[string][]string:
		return []byte(url.Values(in).Encode()), nil
	case map[string]string:
		values := make(url.Values, len(in))
		for k, val := range in {
			values.Set(k, val)
		}
		return []byte(values.Encode()), nil
	}
	return nil, werror.Error("failed to encode form data from type which is not url.Values",
		werror.SafeParam("type", typeName(v)))
}
