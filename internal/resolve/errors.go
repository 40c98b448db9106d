package resolve

import "fmt"

// ConflictError wraps the solver's own unsatisfiable-requirements
// error. The third-party solver already renders a full derivation
// trail (which package required what, and why it was excluded), the
// same information the teacher's own mvs.BuildListError reconstructed
// by hand from a requirement path; because the solver gives us that
// trail directly, ConflictError only needs to add resolver-level
// framing around it.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("no version of every gem satisfies all requirements: %v", e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// InvariantError reports a solver result that violates an assumption
// this resolver depends on, such as a solution term whose Version is
// not one of ours.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "resolver invariant violated: " + e.Msg }
