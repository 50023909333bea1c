// Package classify decides a read file's structural type — short vs. long
// reads, paired vs. single — from a bounded content sample, so downstream
// trimming can be routed without user input.
package classify

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// maxSampleRecords bounds the sample: at most the first 25 four-line
	// records are read, never the whole file.
	maxSampleRecords = 25

	// longThreshold is the mean sequence length above which a file is
	// treated as long reads. Exclusive: a mean of exactly 500 is short.
	longThreshold = 500
)

// Pairing is the detected mate layout.
type Pairing int

const (
	PairingSingle Pairing = iota
	PairingPaired
)

// LengthClass is the detected read length class.
type LengthClass int

const (
	LengthShort LengthClass = iota
	LengthLong
)

// Result is the classification outcome. Classification always succeeds;
// when the sample was unusable the zero-value default (single, short) is
// returned with Warning set.
type Result struct {
	Pairing    Pairing
	Length     LengthClass
	MeanLength float64
	Sampled    int
	Warning    string // non-empty when a best-effort default was applied
}

// Reads classifies the read file at path. The sampled mean length decides
// short vs. long; for short reads, pairing is detected by looking for a
// sibling file whose name swaps the _1/_2 mate token. Long-read tooling does
// not operate on mate pairs, so pairing is left single for long reads.
//
// Known approximation: a short-read file whose first 25 records are unusually
// long will be misrouted to the long-read trimmer. The bounded sample is the
// point — arbitrarily large files are never scanned in full.
func Reads(path string) Result {
	mean, sampled, err := sampleMeanLength(path)
	if err != nil {
		return Result{Warning: fmt.Sprintf("cannot sample %s (%v), defaulting to single short reads", filepath.Base(path), err)}
	}
	if sampled == 0 {
		return Result{Warning: fmt.Sprintf("no complete records in %s, defaulting to single short reads", filepath.Base(path))}
	}

	res := Result{MeanLength: mean, Sampled: sampled}
	if mean > longThreshold {
		res.Length = LengthLong
		return res
	}

	sibling, hasToken := MatePath(path)
	if !hasToken {
		return res
	}
	if fi, err := os.Stat(sibling); err == nil && fi.Mode().IsRegular() {
		res.Pairing = PairingPaired
		return res
	}
	res.Warning = fmt.Sprintf("mate file %s not found, treating %s as single-end", filepath.Base(sibling), filepath.Base(path))
	return res
}

// sampleMeanLength reads up to maxSampleRecords four-line records and
// returns the arithmetic mean sequence length over the complete records.
func sampleMeanLength(path string) (mean float64, sampled int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var total int
	for sampled < maxSampleRecords {
		record, ok := nextRecord(sc)
		if !ok {
			break
		}
		total += len(record)
		sampled++
	}
	if err := sc.Err(); err != nil {
		return 0, sampled, err
	}
	if sampled == 0 {
		return 0, 0, nil
	}
	return float64(total) / float64(sampled), sampled, nil
}

// nextRecord consumes one header/sequence/separator/quality record and
// returns the sequence line. A truncated trailing record is discarded.
func nextRecord(sc *bufio.Scanner) (seq string, ok bool) {
	lines := make([]string, 0, 4)
	for len(lines) < 4 && sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) < 4 {
		return "", false
	}
	return strings.TrimSpace(lines[1]), true
}

// MatePath returns the sibling path produced by swapping the mate-index
// token (_1 ↔ _2) immediately preceding the extension, and whether the name
// carries such a token at all.
func MatePath(path string) (sibling string, hasToken bool) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch {
	case strings.HasSuffix(stem, "_1"):
		return filepath.Join(dir, strings.TrimSuffix(stem, "_1")+"_2"+ext), true
	case strings.HasSuffix(stem, "_2"):
		return filepath.Join(dir, strings.TrimSuffix(stem, "_2")+"_1"+ext), true
	}
	return "", false
}
