package tool

import "fmt"

// AcquisitionError reports a failed raw-data download. Detail carries the
// tool's diagnostic output verbatim.
type AcquisitionError struct {
	Accession string
	Detail    string
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s: %s", e.Accession, e.Detail)
}

// ConversionError reports a failed archive-to-reads conversion, including
// the tool exiting zero without producing output.
type ConversionError struct {
	Accession string
	Detail    string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %s: %s", e.Accession, e.Detail)
}

// TrimmingError reports a failed trimming invocation. Tool names which
// trimmer was running.
type TrimmingError struct {
	Accession string
	Tool      string
	Detail    string
}

func (e *TrimmingError) Error() string {
	return fmt.Sprintf("trimming (%s) failed for %s: %s", e.Tool, e.Accession, e.Detail)
}
