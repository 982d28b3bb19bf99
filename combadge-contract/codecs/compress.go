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
	"compress/gzip"
	"compress/zlib"
	"io"

	werror "github.com/palantir/witchcraft-go-error"
)

// GZIP wraps an existing Codec and uses gzip for compression and decompression.
func GZIP(codec Codec) Codec {
	return codecCompressed{
		contentCodec: codec,
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		newWriter: func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		},
	}
}

// ZLIB wraps an existing Codec and uses zlib (deflate) for compression and decompression.
func ZLIB(codec Codec) Codec {
	return codecCompressed{
		contentCodec: codec,
		newReader:    zlib.NewReader,
		newWriter: func(w io.Writer) io.WriteCloser {
			return zlib.NewWriter(w)
		},
	}
}

type codecCompressed struct {
	contentCodec Codec
	newReader    func(io.Reader) (io.ReadCloser, error)
	newWriter    func(io.Writer) io.WriteCloser
}

func (c codecCompressed) Accept() string {
	return c.contentCodec.Accept()
}

func (c codecCompressed) Decode(r io.Reader, v interface{}) (err error) {
	reader, err := c.newReader(r)
	if err != nil {
		return werror.Wrap(err, "failed to create decompressing reader")
	}
	defer func() {
		if closeErr := reader.Close(); err == nil && closeErr != nil {
			err = werror.Wrap(closeErr, "failed to close decompressing reader")
		}
	}()
	return c.contentCodec.Decode(reader, v)
}

func (c codecCompressed) Unmarshal(data []byte, v interface{}) error {
	return c.Decode(bytes.NewReader(data), v)
}

func (c codecCompressed) ContentType() string {
	return c.contentCodec.ContentType()
}

func (c codecCompressed) Encode(w io.Writer, v interface{}) (err error) {
	writer := c.newWriter(w)
	defer func() {
		if closeErr := writer.Close(); err == nil && closeErr != nil {
			err = werror.Wrap(closeErr, "failed to close compressing writer")
		}
	}()
	return c.contentCodec.Encode(writer, v)
}

func (c codecCompressed) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
