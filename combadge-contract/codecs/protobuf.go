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
	"io"

	"github.com/gogo/protobuf/proto"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	contentTypeProtobuf = "application/x-protobuf"
)

// Protobuf codec encodes and decodes protobuf payloads using github.com/gogo/protobuf/proto.
var Protobuf Codec = codecProtobuf{}

type codecProtobuf struct{}

func (codecProtobuf) Accept() string {
	return contentTypeProtobuf
}

func (c codecProtobuf) Decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return werror.Wrap(err, "failed to read protobuf data")
	}
	return c.Unmarshal(data, v)
}

func (codecProtobuf) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return werror.Error("failed to decode protobuf data into type which does not implement proto.Message",
			werror.SafeParam("type", typeName(v)))
	}
	return werror.Wrap(proto.Unmarshal(data, msg), "proto.Unmarshal")
}

func (codecProtobuf) ContentType() string {
	return contentTypeProtobuf
}

func (c codecProtobuf) Encode(w io.Writer, v interface{}) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return werror.Wrap(err, "write failed")
}

func (codecProtobuf) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, werror.Error("failed to encode protobuf data from type which does not implement proto.Message",
			werror.SafeParam("type", typeName(v)))
	}
	out, err := proto.Marshal(msg)
	return out, werror.Wrap(err, "proto.Marshal")
}
