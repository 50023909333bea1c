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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/sraflow/internal/config"
	"github.com/valpere/sraflow/internal/logging"
	"github.com/valpere/sraflow/internal/pipeline"
	"github.com/valpere/sraflow/internal/store"
	"github.com/valpere/sraflow/internal/tool"
)

var (
	cfgFile       string
	accessionList string

	dbPath    string
	noHistory bool

	verbose   bool
	logFile   string
	colorMode string

	skipToolCheck bool
)

var processCmd = &cobra.Command{
	Use:   "process [accession ...]",
	Short: "Download, convert and trim SRA runs",
	Long: `Run the full pipeline for each accession: prefetch the .sra archive,
convert it to FASTQ with fasterq-dump, and quality-trim the reads with fastp
or fastplong. Each accession gets its own directory under the output root.

Units that already carry trimmed outputs are skipped; partially processed
units resume from the last completed stage. Pass --overwrite to redo
everything from scratch.

Accessions come from positional arguments, from --accession-list (one per
line, '#' comments allowed), or both.

Settings are layered: defaults, then the config file (--config, YAML), then
SRAFLOW_* environment variables, then flags.`,
	Args: cobra.ArbitraryArgs,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	accessions, err := collectAccessions(args, accessionList)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Color: colorMode, Verbose: verbose, LogFile: logFile})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer log.Close()

	if !skipToolCheck {
		if err := tool.CheckDeps(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *store.Store
	var runID string
	if !noHistory {
		db, err = store.New(historyDBPath(dbPath, cfg.OutputDir))
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()

		runID, err = db.BeginRun(ctx)
		if err != nil {
			log.Warn("history: failed to record run start: %v", err)
			db = nil
		}
	}

	p := pipeline.New(&cfg, tool.NewSet(&cfg), log)
	sum := p.Run(ctx, accessions)

	if db != nil {
		for _, u := range sum.Units {
			if err := db.RecordUnit(ctx, runID, u); err != nil {
				log.Warn("history: failed to record %s: %v", u.Accession, err)
			}
		}
		if err := db.FinishRun(ctx, runID, sum.Total, sum.Succeeded, sum.Failed); err != nil {
			log.Warn("history: failed to record run end: %v", err)
		}
	}

	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d unit(s) failed", sum.Failed, sum.Total)
	}
	return nil
}

// loadConfig layers defaults, the optional config file, SRAFLOW_* environment
// variables, and flags into one validated Config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sraflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SRAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"output_dir":                      "output",
		"threads":                         "threads",
		"max_size":                        "max-size",
		"keep_archive":                    "keep-sra",
		"keep_reads":                      "keep-reads",
		"force_long_reads":                "force-long-reads",
		"overwrite":                       "overwrite",
		"acquisition_only":                "acquisition-only",
		"short.quality_phred":             "quality-phred",
		"short.min_length":                "min-length",
		"short.cut_window_size":           "cut-window-size",
		"short.cut_mean_quality":          "cut-mean-quality",
		"short.disable_adapter_trimming":  "disable-adapter-trimming",
		"short.disable_quality_filtering": "disable-quality-filtering",
		"short.disable_length_filtering":  "disable-length-filtering",
		"long.min_quality":                "long-min-quality",
		"long.min_length":                 "long-min-length",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return cfg, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
	def := config.Default()

	processCmd.Flags().StringVar(&cfgFile, "config", "", "Config file (default ./sraflow.yaml if present)")
	processCmd.Flags().StringVarP(&accessionList, "accession-list", "l", "", "File with one accession per line")

	processCmd.Flags().StringP("output", "o", def.OutputDir, "Output root directory")
	processCmd.Flags().IntP("threads", "t", def.Threads, "Threads passed to the external tools")
	processCmd.Flags().String("max-size", def.MaxSize, "prefetch download size ceiling (e.g. 30G)")
	processCmd.Flags().Bool("keep-sra", false, "Keep the .sra archive after conversion")
	processCmd.Flags().Bool("keep-reads", false, "Keep the raw FASTQ files after trimming")
	processCmd.Flags().Bool("force-long-reads", false, "Treat all reads as long reads (skip classification)")
	processCmd.Flags().Bool("overwrite", false, "Reprocess accessions even when outputs already exist")
	processCmd.Flags().Bool("acquisition-only", false, "Stop after conversion for single-end runs (log them instead of trimming)")

	processCmd.Flags().Int("quality-phred", def.Short.QualityPhred, "fastp: minimum per-base phred quality")
	processCmd.Flags().Int("min-length", def.Short.MinLength, "fastp: minimum read length after trimming")
	processCmd.Flags().Int("cut-window-size", def.Short.CutWindowSize, "fastp: sliding window size for quality cutting")
	processCmd.Flags().Int("cut-mean-quality", def.Short.CutMeanQuality, "fastp: mean quality threshold for the sliding window")
	processCmd.Flags().Bool("disable-adapter-trimming", false, "fastp: disable adapter trimming")
	processCmd.Flags().Bool("disable-quality-filtering", false, "fastp: disable quality filtering")
	processCmd.Flags().Bool("disable-length-filtering", false, "fastp: disable length filtering")
	processCmd.Flags().Int("long-min-quality", def.Long.MinQuality, "fastplong: mean quality threshold")
	processCmd.Flags().Int("long-min-length", def.Long.MinLength, "fastplong: minimum read length after trimming")

	processCmd.Flags().StringVar(&dbPath, "db", "", "Run-history database path (default <output>/"+historyDBName+")")
	processCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record run history")
	processCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
	processCmd.Flags().StringVar(&logFile, "log-file", "", "Also append log output to this file")
	processCmd.Flags().StringVar(&colorMode, "color", "auto", "Colored output: auto, always, never")
	processCmd.Flags().BoolVar(&skipToolCheck, "skip-tool-check", false, "Skip the external tool availability check")
}
