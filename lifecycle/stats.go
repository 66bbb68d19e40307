package lifecycle

// SimulationStats are the counters of a run, updated only at lifecycle
// boundaries.
type SimulationStats struct {
	Lifecycles          int     // Lifecycles begun, including the running one.
	Deaths              int     // Power failures, including retried ones.
	Retries             int     // Lifecycles replayed at the request of the node.
	TotalCycles         int64   // Cycles of completed lifecycles.
	WastedCycles        int64   // Cycles lost since the last checkpoint of completed lifecycles.
	ConvalescenceMillis float64 // Simulated time spent recovering.
}

// Report is the summary of a run.
type Report struct {
	Lifecycles          int
	Deaths              int
	Retries             int
	TotalCycles         int64
	WastedCycles        int64
	WastedPercent       float64
	ConvalescenceMillis float64
}

// Report summarizes the statistics, counting currentCycles of the running
// lifecycle in the total.
func (st SimulationStats) Report(currentCycles int64) (report Report) {
	report = Report{
		Lifecycles:          st.Lifecycles,
		Deaths:              st.Deaths,
		Retries:             st.Retries,
		TotalCycles:         st.TotalCycles + currentCycles,
		WastedCycles:        st.WastedCycles,
		ConvalescenceMillis: st.ConvalescenceMillis,
	}

	if report.TotalCycles > 0 {
		report.WastedPercent = 100.0 * float64(report.WastedCycles) / float64(report.TotalCycles)
	}

	return
}
