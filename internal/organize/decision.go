package organize

import "medio/internal/scan"

// DecisionKind enumerates the pipeline's verdicts for one source file.
type DecisionKind int

const (
	// DecisionPlace moves the file to a freshly reserved destination path.
	DecisionPlace DecisionKind = iota
	// DecisionSkipDuplicate leaves (or deletes) the file because identical
	// content already lives in the destination.
	DecisionSkipDuplicate
	// DecisionFail records a per-file error; the run continues.
	DecisionFail
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionPlace:
		return "place"
	case DecisionSkipDuplicate:
		return "skip-duplicate"
	case DecisionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Decision is the pipeline's output for one source file, already executed
// against the configured executor by the time it is reported.
type Decision struct {
	Source scan.Candidate
	Kind   DecisionKind
	// Path is the library-relative destination for Place decisions.
	Path string
	// ExistingPath names the already-organized copy for SkipDuplicate
	// decisions.
	ExistingPath string
	// Err carries the failure for Fail decisions.
	Err error
}
