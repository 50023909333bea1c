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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "sraflow",
	Short: "SRA sequencing data pipeline",
	Long: `A pipeline for NCBI Sequence Read Archive (SRA) runs: download the
archive with prefetch, convert it to FASTQ with fasterq-dump, and quality-trim
the reads with fastp (short reads) or fastplong (long reads).

Progress lives entirely in the output directory: re-running the same accessions
resumes from whatever artifacts already exist.

Use "sraflow process --help" for pipeline options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
