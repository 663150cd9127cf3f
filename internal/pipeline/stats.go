package pipeline

// RunStats tracks aggregate counters and totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Rendered         int
	Skipped          int
	Failed           int
	Unpaired         int
	FellBack         int
	TotalOutputBytes int64
	TotalSeconds     float64 // Reconciled video time rendered.
}

// Add folds a successful render into the totals.
func (s *RunStats) Add(res *Result) {
	s.Rendered++
	if res.FellBack {
		s.FellBack++
	}
	s.TotalOutputBytes += res.OutputBytes
	if res.Plan != nil {
		s.TotalSeconds += res.Plan.Duration
	}
}

// OK reports whether no render failed.
func (s *RunStats) OK() bool { return s.Failed == 0 }
