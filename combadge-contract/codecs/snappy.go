// Copyright (c) 2022 Palantir Technologies. All rights reserved.
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

	"github.com/golang/snappy"
	werror "github.com/palantir/witchcraft-go-error"
)

var _ Codec = codecSNAPPY{}

// SNAPPY wraps an existing Codec and compresses the whole payload as a single snappy block.
func SNAPPY(codec Codec) Codec {
	return codecSNAPPY{contentCodec: codec}
}

type codecSNAPPY struct {
	contentCodec Codec
}

func (c codecSNAPPY) Accept() string {
	return c.contentCodec.Accept()
}

func (c codecSNAPPY) Decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return werror.Wrap(err, "failed to read snappy data")
	}
	return c.Unmarshal(data, v)
}

func (c codecSNAPPY) Unmarshal(data []byte, v interface{}) error {
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return werror.Wrap(err, "snappy.Decode")
	}
	return c.contentCodec.Unmarshal(decoded, v)
}

func (c codecSNAPPY) ContentType() string {
	return c.contentCodec.ContentType()
}

func (c codecSNAPPY) Encode(w io.Writer, v interface{}) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return werror.Wrap(err, "write failed")
}

func (c codecSNAPPY) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.contentCodec.Encode(&buf, v); err != nil {
		return nil, err
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}
