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

	"github.com/valpere/sraflow/internal/pipeline"
	"github.com/valpere/sraflow/internal/status"
)

var statusOutputDir string

var statusCmd = &cobra.Command{
	Use:   "status [accession ...]",
	Short: "Show the pipeline state of accessions",
	Long: `Inspect the output directory and report each accession's pipeline
state, derived purely from the artifacts on disk: new, raw_downloaded,
reads_ready_paired, reads_ready_single, complete, or indeterminate.

Accessions come from positional arguments, from --accession-list, or both.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accessions, err := collectAccessions(args, accessionList)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACCESSION\tSTATE\tARTIFACTS")

		for _, id := range accessions {
			st, pr := pipeline.ResolveState(statusOutputDir, id)

			note := ""
			switch {
			case st == status.StateComplete && pr.TrimmedMate1 != "":
				note = pr.TrimmedMate1 + ", " + pr.TrimmedMate2
			case st == status.StateComplete:
				note = pr.TrimmedSingle
			case st == status.StateRawDownloaded:
				note = pr.ArchivePath
			case st == status.StateIndeterminate && len(pr.Unrecognized) > 0:
				note = fmt.Sprintf("%d unrecognized file(s)", len(pr.Unrecognized))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, st, note)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOutputDir, "output", "o", ".", "Output root directory to inspect")
	statusCmd.Flags().StringVarP(&accessionList, "accession-list", "l", "", "File with one accession per line")
}
