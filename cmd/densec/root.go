// Copyright 2025 go-hlsdense Authors
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
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-hlsdense/hls"
)

// app holds the state shared by every subcommand.
type app struct {
	logLevel  string
	layerPath string
	log       *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "densec",
		Short:        "Compile dense layers into streaming kernel plans",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newPlanCmd(a), newEmitCmd(a), newRunCmd(a))
	return root
}

// addLayerFlag registers the required -i/--input flag on cmd.
func (a *app) addLayerFlag(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&a.layerPath, "input", "i", "", "layer description file (required)")
	_ = cmd.MarkFlagRequired("input")
}

// loadLayer reads the layer named by --input.
func (a *app) loadLayer() (*hls.Layer, error) {
	l, err := hls.LoadLayerFile(a.layerPath)
	if err != nil {
		return nil, err
	}
	if l.Name == "" {
		l.Name = "dense"
	}
	a.log.Debug("layer loaded",
		"path", a.layerPath,
		"name", l.Name,
		"n_in", l.Config.NIn,
		"n_out", l.Config.NOut,
		"n_zeros", l.Config.NZeros)
	return l, nil
}

// visitedFlags lists the flags set on the command line, for debug logs.
func visitedFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.Visit(func(f *pflag.Flag) {
		names = append(names, f.Name+"="+f.Value.String())
	})
	return names
}
