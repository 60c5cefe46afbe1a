package organize

import "sync"

// Failure records one per-file error collected during a run.
type Failure struct {
	Source string
	Err    error
}

// Summary aggregates the outcome of a run: how many files were placed,
// skipped as duplicates, or failed, plus the individual failures.
type Summary struct {
	mu         sync.Mutex
	Placed     int
	Duplicates int
	Failed     int
	Failures   []Failure
	Decisions  []Decision
}

func (s *Summary) record(d Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decisions = append(s.Decisions, d)
	switch d.Kind {
	case DecisionPlace:
		s.Placed++
	case DecisionSkipDuplicate:
		s.Duplicates++
	case DecisionFail:
		s.Failed++
		s.Failures = append(s.Failures, Failure{Source: d.Source.Path, Err: d.Err})
	}
}

// Total returns the number of files the run reached a verdict for.
func (s *Summary) Total() int {
	return s.Placed + s.Duplicates + s.Failed
}
