package analysis

// BatchResult is transient: the product of one LLM call within one
// subtask. Errors never propagate out of a batch; they degrade it to an
// empty label list.
type BatchResult struct {
	Labels     []string
	Confidence float64
	Err        error
}

// SubtaskResult is the product of tier-1 aggregation for one subtask.
type SubtaskResult struct {
	SubtaskID    string
	Labels       []string
	BatchesTried int
	FramesUsed   int
}

// AnalysisReport maps subtask id to its final label list. Missing
// subtasks never happen: a subtask whose batches all failed is
// represented by the sentinel ["unknown"], never by absence.
type AnalysisReport struct {
	Labels map[string][]string
	// Order preserves configuration order for deterministic iteration by
	// callers that render a report into a prompt.
	Order []string
}

const unknownLabel = "unknown"

// Get returns the labels for subtask id, or nil if it was never part of
// this report.
func (r *AnalysisReport) Get(id string) ([]string, bool) {
	v, ok := r.Labels[id]
	return v, ok
}
