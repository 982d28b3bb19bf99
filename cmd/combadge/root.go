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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/palantir/go-combadge/combadge-contract/useragent"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"github.com/spf13/cobra"
)

// envConfig holds the defaults read from the environment.
type envConfig struct {
	ConfigPath string `env:"COMBADGE_CONFIG" envDefault:"combadge.yml"`
	LogLevel   string `env:"COMBADGE_LOG_LEVEL" envDefault:"warn"`
}

// rootState carries what the root command prepares for its subcommands.
type rootState struct {
	ctx context.Context
}

func (s *rootState) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func newRootCommand(cfg envConfig, stdout, stderr io.Writer) *cobra.Command {
	var (
		logLevel string
		noColor  bool
		state    rootState
	)
	cmd := &cobra.Command{
		Use:           "combadge",
		Short:         "Call declared REST and SOAP services",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			wlog.SetDefaultLoggerProvider(wlog.NewJSONMarshalLoggerProvider())
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			state.ctx = svc1log.WithLogger(ctx, svc1log.New(stderr, level))
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error or fatal (env COMBADGE_LOG_LEVEL)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.AddCommand(newCallCommand(cfg, &state, stdout, stderr))
	cmd.AddCommand(newVersionCommand(stdout))
	return cmd
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and user agent",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(stdout, "combadge %s\n", useragent.ModuleVersion())
			_, _ = fmt.Fprintf(stdout, "User-Agent: %s\n", useragent.Default().String())
		},
	}
}

func parseLogLevel(level string) (wlog.LogLevel, error) {
	switch lvl := wlog.LogLevel(strings.ToLower(strings.TrimSpace(level))); lvl {
	case wlog.DebugLevel, wlog.InfoLevel, wlog.WarnLevel, wlog.ErrorLevel, wlog.FatalLevel:
		return lvl, nil
	}
	return "", werror.Error("invalid log level", werror.SafeParam("logLevel", level))
}
