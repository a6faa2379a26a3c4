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
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ajroetker/go-hlsdense/hls/contrib/schedule"
)

func newPlanCmd(a *app) *cobra.Command {
	var clockMHz float64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resource plan of a layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug("plan", "flags", visitedFlags(cmd.Flags()))
			l, err := a.loadLayer()
			if err != nil {
				return err
			}
			p, err := schedule.New(l.Config)
			if err != nil {
				return err
			}
			cfg := p.Config()

			out := message.NewPrinter(language.English)
			w := cmd.OutOrStdout()
			out.Fprintf(w, "layer        %s (%dx%d, %s)\n", l.Name, cfg.NIn, cfg.NOut, cfg.IOMode)
			out.Fprintf(w, "products     %d (%d structural zeros)\n", cfg.Products(), cfg.NZeros)
			out.Fprintf(w, "strategy     %s\n", p.Strategy())
			if sp, ok := p.(*schedule.SerialPlan); ok {
				out.Fprintf(w, "multipliers  %d (column limit %d)\n", p.MultiplierLimit(), sp.ColumnLimit)
			} else {
				out.Fprintf(w, "multipliers  %d\n", p.MultiplierLimit())
			}
			out.Fprintf(w, "ii           %d cycles\n", p.InitiationInterval())
			out.Fprintf(w, "latency      %d cycles\n", p.Latency())
			if clockMHz > 0 {
				rate := int64(clockMHz * 1e6 / float64(p.InitiationInterval()))
				out.Fprintf(w, "throughput   %d samples/s at %.0f MHz\n", rate, clockMHz)
			}
			return nil
		},
	}
	a.addLayerFlag(cmd)
	cmd.Flags().Float64Var(&clockMHz, "clock", 200, "clock frequency in MHz for the throughput estimate (0 disables)")
	return cmd
}
