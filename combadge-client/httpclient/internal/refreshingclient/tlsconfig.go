// Copyright (c) 2021 Palantir Technologies. All rights reserved.
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

package refreshingclient

import (
	"crypto/tls"

	"github.com/palantir/pkg/tlsconfig"
	werror "github.com/palantir/witchcraft-go-error"
)

// TLSParams are the file locations of the client's TLS material.
type TLSParams struct {
	CAFiles            []string
	CertFile           string
	KeyFile            string
	InsecureSkipVerify bool
}

// NewTLSConfig returns the default client TLS configuration extended with params.
func NewTLSConfig(params TLSParams) (*tls.Config, error) {
	var tlsParams []tlsconfig.ClientParam
	if len(params.CAFiles) > 0 {
		tlsParams = append(tlsParams, tlsconfig.ClientRootCAFiles(params.CAFiles...))
	}
	tlsConfig, err := tlsconfig.NewClientConfig(tlsParams...)
	if err != nil {
		return nil, werror.Wrap(err, "failed to build TLS configuration")
	}
	switch {
	case params.CertFile != "" && params.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(params.CertFile, params.KeyFile)
		if err != nil {
			return nil, werror.Wrap(err, "invalid client certificate or key file")
		}
		tlsConfig.Certificates = append(tlsConfig.Certificates, cert)
	case params.CertFile != "" || params.KeyFile != "":
		return nil, werror.Error("must set both client certificate and key")
	}
	tlsConfig.InsecureSkipVerify = params.InsecureSkipVerify
	return tlsConfig, nil
}
