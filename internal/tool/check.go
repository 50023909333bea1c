package tool

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolStatus is one entry of a dependency report.
type ToolStatus struct {
	Name     string
	Path     string // empty when not found
	Required bool
	Purpose  string
}

// Found reports whether the binary was located on PATH.
func (ts ToolStatus) Found() bool { return ts.Path != "" }

// DependencyStatus looks up every external tool the pipeline may invoke.
// prefetch, fasterq-dump, and fastp are required for any run; fastplong only
// matters when long-read routing is selected, and pigz is an optional
// compression helper some fastp builds shell out to.
func DependencyStatus() []ToolStatus {
	tools := []ToolStatus{
		{Name: BinPrefetch, Required: true, Purpose: "SRA Toolkit downloader"},
		{Name: BinFasterqDump, Required: true, Purpose: "SRA Toolkit archive-to-FASTQ converter"},
		{Name: BinFastp, Required: true, Purpose: "short-read trimmer"},
		{Name: BinFastplong, Purpose: "long-read trimmer (needed for Nanopore/PacBio data)"},
		{Name: BinPigz, Purpose: "parallel compression helper"},
	}
	for i := range tools {
		if path, err := exec.LookPath(tools[i].Name); err == nil {
			tools[i].Path = path
		}
	}
	return tools
}

// CheckDeps is the pre-run validation: it fails when any required tool is
// missing, naming all of them at once.
func CheckDeps() error {
	var missing []string
	for _, ts := range DependencyStatus() {
		if ts.Required && !ts.Found() {
			missing = append(missing, ts.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found on PATH: %s (install with: conda install -c bioconda sra-tools fastp)",
			strings.Join(missing, ", "))
	}
	return nil
}
