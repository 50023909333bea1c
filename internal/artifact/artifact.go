// Package artifact defines the on-disk layout of a work unit's directory and
// the probe that reports which recognized artifacts are present. The layout
// is the pipeline's only persisted state: a unit's stage is always derived
// from the files found here, never stored.
package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
)

// ReadExtensions are the accepted spellings of a decoded read file, in
// canonical priority order: when synonyms coexist for the same logical
// artifact, the earliest match wins.
var ReadExtensions = []string{".fastq", ".fq", ".fas"}

// TrimmedSuffix is the compressed output suffix produced by the trimmers.
const TrimmedSuffix = "_trimmed.fastq.gz"

// ScratchDir is the transient working subdirectory used during conversion.
const ScratchDir = "tmp"

// Layout distinguishes single-file read sets from mate pairs.
type Layout int

const (
	LayoutSingle Layout = iota
	LayoutPaired
)

// ReadSet is a resolved set of read files sharing one extension synonym:
// either a single file or both mates of a pair.
type ReadSet struct {
	Layout Layout
	Mate1  string // also the single file
	Mate2  string // empty unless paired
	Ext    string // matched extension synonym
}

// Files returns the set's paths in mate order.
func (rs *ReadSet) Files() []string {
	if rs.Layout == LayoutPaired {
		return []string{rs.Mate1, rs.Mate2}
	}
	return []string{rs.Mate1}
}

// ProbeResult is the artifact-presence set for one unit directory. It is
// plain data so that state resolution stays a pure function.
type ProbeResult struct {
	DirExists bool

	// ArchivePath is the raw archive, found at either accepted sub-path
	// (unit root or nested accession-named subdirectory). Empty if absent.
	ArchivePath string

	// Raw read presence per extension synonym (ext → path).
	RawSingle map[string]string
	RawMate1  map[string]string
	RawMate2  map[string]string

	// Trimmed outputs (canonical names only).
	TrimmedSingle string
	TrimmedMate1  string
	TrimmedMate2  string

	Reports      []string
	Scratch      []string
	Unrecognized []string
}

// HasTrimmed reports whether a complete trimmed output set exists: both
// mates, or the single-file output.
func (pr *ProbeResult) HasTrimmed() bool {
	return pr.TrimmedSingle != "" || (pr.TrimmedMate1 != "" && pr.TrimmedMate2 != "")
}

// SelectReads picks the canonical raw read set, walking the extension
// priority list. Pairs are preferred over singles; a pair is only accepted
// when both mates share the same synonym. Returns nil when no set exists.
func (pr *ProbeResult) SelectReads() *ReadSet {
	for _, ext := range ReadExtensions {
		m1, ok1 := pr.RawMate1[ext]
		m2, ok2 := pr.RawMate2[ext]
		if ok1 && ok2 {
			return &ReadSet{Layout: LayoutPaired, Mate1: m1, Mate2: m2, Ext: ext}
		}
	}
	for _, ext := range ReadExtensions {
		if s, ok := pr.RawSingle[ext]; ok {
			return &ReadSet{Layout: LayoutSingle, Mate1: s, Ext: ext}
		}
	}
	return nil
}

// --- naming convention ---

// UnitDir returns the working directory owned by an accession.
func UnitDir(outputRoot, accession string) string {
	return filepath.Join(outputRoot, accession)
}

// ArchivePaths returns the two accepted raw archive sub-paths, unit root
// first, then the nested accession-named subdirectory prefetch creates.
func ArchivePaths(unitDir, accession string) []string {
	name := accession + ".sra"
	return []string{
		filepath.Join(unitDir, name),
		filepath.Join(unitDir, accession, name),
	}
}

// ReadPath returns the raw read path for a mate index (0 = single, 1 or 2 =
// mate) under the given extension synonym.
func ReadPath(unitDir, accession string, mate int, ext string) string {
	switch mate {
	case 1:
		return filepath.Join(unitDir, accession+"_1"+ext)
	case 2:
		return filepath.Join(unitDir, accession+"_2"+ext)
	default:
		return filepath.Join(unitDir, accession+ext)
	}
}

// TrimmedPath returns the trimmed output path for a mate index (0 = single).
func TrimmedPath(unitDir, accession string, mate int) string {
	switch mate {
	case 1:
		return filepath.Join(unitDir, accession+"_1"+TrimmedSuffix)
	case 2:
		return filepath.Join(unitDir, accession+"_2"+TrimmedSuffix)
	default:
		return filepath.Join(unitDir, accession+TrimmedSuffix)
	}
}

// ReportPaths returns the HTML and JSON report paths for the named trimming
// tool ("fastp" or "fastplong").
func ReportPaths(unitDir, accession, tool string) (html, json string) {
	base := filepath.Join(unitDir, accession+"_"+tool)
	return base + ".html", base + ".json"
}

// --- probe ---

// Probe inspects a unit's directory and classifies every entry it
// recognizes. It is side-effect-free, never follows symlinked directories,
// and treats a missing directory as a valid empty result.
func Probe(outputRoot, accession string) ProbeResult {
	pr := ProbeResult{
		RawSingle: map[string]string{},
		RawMate1:  map[string]string{},
		RawMate2:  map[string]string{},
	}

	unitDir := UnitDir(outputRoot, accession)
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		return pr
	}
	pr.DirExists = true

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(unitDir, name)

		if e.IsDir() || e.Type()&fs.ModeSymlink != 0 {
			classifyDir(&pr, e, unitDir, accession)
			continue
		}

		if !classifyFile(&pr, path, name, accession) {
			pr.Unrecognized = append(pr.Unrecognized, path)
		}
	}
	return pr
}

// classifyDir handles directory entries. Only two subdirectories are
// recognized: the scratch dir and the nested accession dir that may hold the
// raw archive. Symlinks are never descended into.
func classifyDir(pr *ProbeResult, e fs.DirEntry, unitDir, accession string) {
	name := e.Name()
	path := filepath.Join(unitDir, name)

	if e.Type()&fs.ModeSymlink != 0 {
		pr.Unrecognized = append(pr.Unrecognized, path)
		return
	}

	switch name {
	case ScratchDir:
		pr.Scratch = append(pr.Scratch, path)
	case accession:
		nested := filepath.Join(path, accession+".sra")
		if fi, err := os.Lstat(nested); err == nil && fi.Mode().IsRegular() {
			// The root spelling wins when both exist.
			if pr.ArchivePath == "" {
				pr.ArchivePath = nested
			}
		} else {
			// Nested dir without the archive is leftover scratch.
			pr.Scratch = append(pr.Scratch, path)
		}
	default:
		pr.Unrecognized = append(pr.Unrecognized, path)
	}
}

// classifyFile matches a regular file against the naming convention and
// records it. Returns false when the name is not recognized.
func classifyFile(pr *ProbeResult, path, name, accession string) bool {
	switch name {
	case accession + ".sra":
		// Root spelling wins over the nested one if both exist.
		pr.ArchivePath = path
		return true
	case accession + TrimmedSuffix:
		pr.TrimmedSingle = path
		return true
	case accession + "_1" + TrimmedSuffix:
		pr.TrimmedMate1 = path
		return true
	case accession + "_2" + TrimmedSuffix:
		pr.TrimmedMate2 = path
		return true
	case accession + "_fastp.html", accession + "_fastp.json",
		accession + "_fastplong.html", accession + "_fastplong.json":
		pr.Reports = append(pr.Reports, path)
		return true
	}

	for _, ext := range ReadExtensions {
		switch name {
		case accession + ext:
			pr.RawSingle[ext] = path
			return true
		case accession + "_1" + ext:
			pr.RawMate1[ext] = path
			return true
		case accession + "_2" + ext:
			pr.RawMate2[ext] = path
			return true
		}
	}

	ext := filepath.Ext(name)
	if ext == ".lock" || ext == ".tmp" || ext == ".prf" {
		// Tool bookkeeping files do not affect stage resolution.
		pr.Scratch = append(pr.Scratch, path)
		return true
	}
	return false
}
