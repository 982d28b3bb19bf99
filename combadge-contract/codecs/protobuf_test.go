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


package codecs_test

import (
	"bytes"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
)

func TestProtobuf_EncodeDecode(t *testing.T) {
	msg := &test.NinOptNative{
		Field3:  proto.Int32(42),
		Field14: proto.String("forty two"),
	}
	var buf bytes.Buffer
	require.NoError(t, codecs.Protobuf.Encode(&buf, msg))

	decoded := &test.NinOptNative{}
	require.NoError(t, codecs.Protobuf.Decode(&buf, decoded))
	assert.True(t, proto.Equal(msg, decoded))
	assert.Equal(t, "application/x-protobuf", codecs.Protobuf.ContentType())
}

func TestProtobuf_RequiresMessage(t *testing.T) {
	_, err := codecs.Protobuf.Marshal(map[string]string{"a": "b"})
	assert.Error(t, err)

	var s string
	assert.Error(t, codecs.Protobuf.Unmarshal([]byte{0x08, 0x01}, &s))
}
