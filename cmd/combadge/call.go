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
	"io"
	"strings"

	"github.com/palantir/go-combadge/combadge-client/binder"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"github.com/spf13/cobra"
)

type callFlags struct {
	configPath      string
	declarationPath string
	args            []string
	statusOnly      bool
}

func newCallCommand(cfg envConfig, state *rootState, stdout, stderr io.Writer) *cobra.Command {
	flags := callFlags{}
	cmd := &cobra.Command{
		Use:   "call METHOD",
		Short: "Call a method of a declared service and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(state, flags, args[0], stdout, stderr)
		},
	}
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", cfg.ConfigPath, "services configuration file (env COMBADGE_CONFIG)")
	cmd.Flags().StringVarP(&flags.declarationPath, "service", "s", "", "service declaration file")
	cmd.Flags().StringArrayVarP(&flags.args, "arg", "a", nil, "method argument as name=value; repeat a name to pass several values")
	cmd.Flags().BoolVar(&flags.statusOnly, "status-only", false, "print only the response status")
	_ = cmd.MarkFlagRequired("service")
	return cmd
}

func runCall(state *rootState, flags callFlags, methodName string, stdout, stderr io.Writer) error {
	ctx := state.context()
	decl, err := loadDeclaration(flags.declarationPath)
	if err != nil {
		return err
	}
	method, ok := decl.Methods[methodName]
	if !ok {
		return werror.Error("method is not declared",
			werror.SafeParam("method", methodName),
			werror.SafeParam("declared", decl.methodNames()))
	}
	services, err := loadServicesConfig(flags.configPath)
	if err != nil {
		return err
	}
	clientConfig, err := services.MustClientConfig(decl.Service)
	if err != nil {
		return err
	}
	backend, err := decl.newBackend(clientConfig)
	if err != nil {
		return err
	}
	declaration, err := method.declaration(methodName)
	if err != nil {
		return err
	}
	call, err := binder.BindMethod[binder.Args, *transport.Response](backend, declaration)
	if err != nil {
		return err
	}
	args, err := parseArgs(flags.args)
	if err != nil {
		return err
	}
	svc1log.FromContext(ctx).Info("Calling method",
		svc1log.SafeParam("service", decl.Service),
		svc1log.SafeParam("method", methodName))
	resp, err := call(ctx, args)
	if err != nil {
		return err
	}
	printStatus(stderr, resp)
	if flags.statusOnly {
		return nil
	}
	return printBody(stdout, resp)
}

// parseArgs turns name=value pairs into call arguments. A name given more than once yields a
// slice of its values.
func parseArgs(pairs []string) (binder.Args, error) {
	args := binder.Args{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, werror.Error("argument must have the form name=value", werror.UnsafeParam("arg", pair))
		}
		switch existing := args[name].(type) {
		case nil:
			args[name] = value
		case string:
			args[name] = []string{existing, value}
		case []string:
			args[name] = append(existing, value)
		}
	}
	return args, nil
}
