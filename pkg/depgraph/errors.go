// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph

import "fmt"

// UnknownReference is returned when a mutator is asked to relate a task or
// category id that does not exist in the graph. Loaders are expected to
// recover from this, log a warning, and drop the offending edge; it is not
// fatal to the process.
type UnknownReference struct {
	Kind string // "task" or "category"
	ID   int
}

// Error message.
func (e *UnknownReference) Error() string {
	return fmt.Sprintf("unknown %s reference: %d", e.Kind, e.ID)
}

// InvariantViolation is returned by operations that re-check graph
// invariants (principally Validate, called after FilterOut) and find them
// broken. Unlike UnknownReference this always indicates a bug in the graph
// implementation itself, never bad input, and callers should treat it as
// fatal.
type InvariantViolation struct {
	Reason string
}

// Error message.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("graph invariant violated: %s", e.Reason)
}
