package pipeline

import "fmt"

// OrchestrationError reports a unit whose directory still resolved to an
// unrecognizable state after the single recovery attempt. It exists to bound
// recovery: there is never a second wipe-and-retry.
type OrchestrationError struct {
	Accession string
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("unit %s is unresolvable after recovery, giving up", e.Accession)
}
