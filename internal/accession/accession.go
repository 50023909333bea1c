// Package accession performs the loose format check applied to run
// accessions before any filesystem or tool work starts.
package accession

import (
	"fmt"
	"regexp"
	"strings"
)

// minLength is the shortest accepted accession. Real SRA run accessions are
// at least a three-letter prefix plus six digits, but the check is kept
// deliberately loose: alphabetic prefix, numeric suffix.
const minLength = 6

var accessionRe = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)

// Validate reports whether id looks like a run accession (for example
// SRR000001, ERR164407, drr000001). It never consults the network or disk.
func Validate(id string) error {
	id = strings.TrimSpace(id)
	if len(id) < minLength {
		return fmt.Errorf("accession %q is too short (minimum %d characters)", id, minLength)
	}
	if !accessionRe.MatchString(id) {
		return fmt.Errorf("accession %q is not an alphabetic prefix followed by digits", id)
	}
	return nil
}
