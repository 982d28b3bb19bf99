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

package main

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/palantir/go-combadge/combadge-client/backends/rest"
	"github.com/palantir/go-combadge/combadge-client/backends/soap"
	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-client/httpclient"
	"github.com/palantir/go-combadge/combadge-contract/markers"
	werror "github.com/palantir/witchcraft-go-error"
	"gopkg.in/yaml.v2"
)

// serviceDeclaration is the YAML description of a service, e.g.
//
//	service: numbers
//	backend: soap
//	soap:
//	  namespace: http://www.dataaccess.com/webservicesserver/
//	  path: /webservicesserver/NumberConversion.wso
//	methods:
//	  NumberToWords:
//	    soap: NumberToWords
//	    parameters:
//	      - name: number
//	        in: body-field
//	        wire: ubiNum
type serviceDeclaration struct {
	// Service names the entry of the services configuration used to build the client.
	Service string                       `yaml:"service"`
	Backend string                       `yaml:"backend"`
	SOAP    soapDeclaration              `yaml:"soap"`
	Methods map[string]methodDeclaration `yaml:"methods"`
}

type soapDeclaration struct {
	Version   string `yaml:"version"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

type methodDeclaration struct {
	HTTP       string                 `yaml:"http"`
	SOAP       string                 `yaml:"soap"`
	Timeout    string                 `yaml:"timeout"`
	Codec      string                 `yaml:"codec"`
	Headers    map[string]string      `yaml:"headers"`
	Parameters []parameterDeclaration `yaml:"parameters"`
}

type parameterDeclaration struct {
	Name string `yaml:"name"`
	// In is one of path, query, header, form, body or body-field.
	In string `yaml:"in"`
	// Wire is the name on the wire. It defaults to Name.
	Wire    string  `yaml:"wire"`
	Default *string `yaml:"default"`
}

func loadDeclaration(path string) (serviceDeclaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return serviceDeclaration{}, werror.Wrap(err, "failed to read service declaration", werror.SafeParam("path", path))
	}
	var decl serviceDeclaration
	if err := yaml.UnmarshalStrict(data, &decl); err != nil {
		return serviceDeclaration{}, werror.Wrap(err, "failed to parse service declaration", werror.SafeParam("path", path))
	}
	if decl.Service == "" {
		return serviceDeclaration{}, werror.Error("service declaration must name a service", werror.SafeParam("path", path))
	}
	return decl, nil
}

func loadServicesConfig(path string) (httpclient.ServicesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return httpclient.ServicesConfig{}, werror.Wrap(err, "failed to read services configuration", werror.SafeParam("path", path))
	}
	var cfg httpclient.ServicesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return httpclient.ServicesConfig{}, werror.Wrap(err, "failed to parse services configuration", werror.SafeParam("path", path))
	}
	return cfg, nil
}

func (d serviceDeclaration) methodNames() []string {
	names := make([]string, 0, len(d.Methods))
	for name := range d.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d serviceDeclaration) newBackend(cfg httpclient.ClientConfig) (binder.Backend, error) {
	switch strings.ToLower(d.Backend) {
	case "", "rest":
		return rest.NewFromConfig(cfg)
	case "soap":
		opts := []soap.Option{
			soap.WithNamespace(d.SOAP.Namespace),
			soap.WithEndpointPath(d.SOAP.Path),
		}
		switch d.SOAP.Version {
		case "", "1.1":
		case "1.2":
			opts = append(opts, soap.WithVersion(soap.Version12))
		default:
			return nil, werror.Error("unsupported SOAP version", werror.SafeParam("version", d.SOAP.Version))
		}
		return soap.NewFromConfig(cfg, opts...)
	}
	return nil, werror.Error("unknown backend", werror.SafeParam("backend", d.Backend))
}

// declaration converts the method into a binder declaration. Method markers use the same
// syntax as the struct tags of bound services.
func (m methodDeclaration) declaration(name string) (binder.Declaration, error) {
	var tag []string
	for _, kv := range [][2]string{
		{markers.TagHTTP, m.HTTP},
		{markers.TagSOAP, m.SOAP},
		{markers.TagTimeout, m.Timeout},
		{markers.TagCodec, m.Codec},
	} {
		if kv[1] != "" {
			tag = append(tag, fmt.Sprintf("%s:%q", kv[0], kv[1]))
		}
	}
	spec, err := markers.ParseMethodTag(reflect.StructTag(strings.Join(tag, " ")))
	if err != nil {
		return binder.Declaration{}, werror.Wrap(err, "invalid method declaration", werror.SafeParam("method", name))
	}
	methodMarkers := spec.Markers
	headers := make([]string, 0, len(m.Headers))
	for header := range m.Headers {
		headers = append(headers, header)
	}
	sort.Strings(headers)
	for _, header := range headers {
		methodMarkers = append(methodMarkers, markers.StaticHeader(header, m.Headers[header]))
	}

	params := make([]binder.Parameter, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		marker, err := p.marker()
		if err != nil {
			return binder.Declaration{}, werror.Wrap(err, "invalid parameter declaration",
				werror.SafeParam("method", name),
				werror.SafeParam("parameter", p.Name))
		}
		params = append(params, binder.Param(p.Name, marker))
	}
	if len(params) == 0 {
		// Args requests must declare parameters; a body parameter accepts a free-form payload.
		params = append(params, binder.Param("body", markers.Body()))
	}
	return binder.Declaration{
		Name:       name,
		Markers:    methodMarkers,
		Parameters: params,
	}, nil
}

func (p parameterDeclaration) marker() (markers.ParameterMarker, error) {
	if p.Name == "" {
		return nil, werror.Error("parameter must have a name")
	}
	wire := p.Wire
	if wire == "" {
		wire = p.Name
	}
	var marker markers.ParameterMarker
	switch p.In {
	case "path":
		marker = markers.PathParam(wire)
	case "query", "":
		marker = markers.Query(wire)
	case "header":
		marker = markers.Header(wire)
	case "form":
		marker = markers.FormField(wire)
	case "body":
		marker = markers.Body()
	case "body-field":
		marker = markers.BodyField(wire)
	default:
		return nil, werror.Error("unknown parameter location", werror.SafeParam("in", p.In))
	}
	if p.Default != nil {
		marker = markers.Default(marker, *p.Default)
	}
	return marker, nil
}
