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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-hlsdense/hls/contrib/lower"
	"github.com/ajroetker/go-hlsdense/hls/contrib/schedule"
)

func newEmitCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write the structural description of a layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug("emit", "flags", visitedFlags(cmd.Flags()))
			var write func(io.Writer, lower.Description) error
			switch format {
			case "config":
				write = lower.WriteConfig
			case "json":
				write = lower.WriteJSON
			default:
				return fmt.Errorf("--format: unknown format %q (want config or json)", format)
			}

			l, err := a.loadLayer()
			if err != nil {
				return err
			}
			p, err := schedule.New(l.Config)
			if err != nil {
				return err
			}
			d := lower.Describe(l.Name, p)

			if output == "" || output == "-" {
				return write(cmd.OutOrStdout(), d)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := write(f, d); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.log.Info("wrote description", "layer", l.Name, "format", format, "path", output)
			return nil
		},
	}
	a.addLayerFlag(cmd)
	cmd.Flags().StringVar(&format, "format", "config", "output format: config or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
