/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/sraflow/internal/tool"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external tools are installed",
	Long: `Look up the external tools on PATH and report where each was found.
The pipeline needs prefetch, fasterq-dump and fastp; fastplong is only needed
for long-read runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOOL\tSTATUS\tPURPOSE")

		missing := 0
		for _, ts := range tool.DependencyStatus() {
			state := ts.Path
			if !ts.Found() {
				if ts.Required {
					state = "MISSING"
					missing++
				} else {
					state = "missing (optional)"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ts.Name, state, ts.Purpose)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if missing > 0 {
			return fmt.Errorf("%d required tool(s) missing; install the SRA Toolkit and fastp (e.g. via bioconda)", missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
