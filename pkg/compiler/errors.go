package compiler

import "fmt"

// CompilationError reports a node that passed validation but could not be
// rendered. Reaching it means the validator and the node library drifted
// apart; it is an internal-consistency defect, not a user mistake.
type CompilationError struct {
	NodeID string
	Reason string
	Err    error
}

func (e *CompilationError) Error() string {
	if e.NodeID == "" {
		return "compilation failed: " + e.Reason
	}

	return fmt.Sprintf("compilation failed at node %s: %s", e.NodeID, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}
