// Package config holds the immutable per-run pipeline configuration:
// defaults, validation, and the trimming parameter sets forwarded to the
// external tools.
package config

import (
	"errors"
	"fmt"
	"regexp"
)

// ShortReadParams are the fastp parameters for short (Illumina) reads.
type ShortReadParams struct {
	QualityPhred            int  `mapstructure:"quality_phred"`
	MinLength               int  `mapstructure:"min_length"`
	CutWindowSize           int  `mapstructure:"cut_window_size"`
	CutMeanQuality          int  `mapstructure:"cut_mean_quality"`
	DisableAdapterTrimming  bool `mapstructure:"disable_adapter_trimming"`
	DisableQualityFiltering bool `mapstructure:"disable_quality_filtering"`
	DisableLengthFiltering  bool `mapstructure:"disable_length_filtering"`
}

// LongReadParams are the fastplong parameters for long (Nanopore/PacBio) reads.
type LongReadParams struct {
	MinQuality              int  `mapstructure:"min_quality"`
	MinLength               int  `mapstructure:"min_length"`
	DisableAdapterTrimming  bool `mapstructure:"disable_adapter_trimming"`
	DisableQualityFiltering bool `mapstructure:"disable_quality_filtering"`
}

// Config holds all runtime settings for one batch run. It is populated from
// defaults, an optional config file, environment, and flags before the
// pipeline starts, and is read-only afterwards.
type Config struct {
	// OutputDir is the root under which each accession owns one directory.
	OutputDir string `mapstructure:"output_dir"`

	// Threads is forwarded to the external tools; the pipeline itself
	// processes units sequentially.
	Threads int `mapstructure:"threads"`

	// MaxSize is the prefetch download ceiling, e.g. "30G".
	MaxSize string `mapstructure:"max_size"`

	// Retention.
	KeepArchive bool `mapstructure:"keep_archive"` // keep .sra after conversion
	KeepReads   bool `mapstructure:"keep_reads"`   // keep raw reads after trimming

	// Routing and re-run behavior.
	ForceLongReads  bool `mapstructure:"force_long_reads"`
	Overwrite       bool `mapstructure:"overwrite"`
	AcquisitionOnly bool `mapstructure:"acquisition_only"`

	Short ShortReadParams `mapstructure:"short"`
	Long  LongReadParams  `mapstructure:"long"`
}

// Default returns the baseline configuration, matching the tool defaults the
// pipeline was tuned with.
func Default() Config {
	return Config{
		OutputDir: ".",
		Threads:   2,
		MaxSize:   "30G",
		Short: ShortReadParams{
			QualityPhred:   20,
			MinLength:      50,
			CutWindowSize:  4,
			CutMeanQuality: 20,
		},
		Long: LongReadParams{
			MinQuality: 10,
			MinLength:  1000,
		},
	}
}

// maxSizeRe accepts prefetch size ceilings like "30G", "500M", "100" (MB).
var maxSizeRe = regexp.MustCompile(`(?i)^[0-9]+[kmgt]?b?$`)

// Validate checks field ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	if !maxSizeRe.MatchString(c.MaxSize) {
		return fmt.Errorf("invalid max size %q (use e.g. 30G, 500M)", c.MaxSize)
	}
	if c.Short.MinLength < 1 || c.Long.MinLength < 1 {
		return errors.New("minimum read length must be >= 1")
	}
	if c.Short.QualityPhred < 0 || c.Long.MinQuality < 0 {
		return errors.New("quality floor must not be negative")
	}
	if c.Short.CutWindowSize < 1 {
		return errors.New("cut window size must be >= 1")
	}
	return nil
}
