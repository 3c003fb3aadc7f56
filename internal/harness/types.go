package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int            `json:"step"`
	Op      string         `json:"op"`
	Args    map[string]any `json:"args,omitempty"`
	Summary string         `json:"summary,omitempty"`
	// Error is the error kind or code of a failed step.
	Error string `json:"error,omitempty"`
	// Output is the base name of the written file.
	Output      string         `json:"output,omitempty"`
	OperationID string         `json:"operation_id,omitempty"`
	Changes     map[string]int `json:"changes,omitempty"`
}

// ClipState is a placed clip of the final document.
type ClipState struct {
	Name     string `json:"name"`
	Offset   string `json:"offset"`
	Duration string `json:"duration"`
	Lane     int    `json:"lane"`
}

// MarkerState is a marker of the final document, at timeline time.
type MarkerState struct {
	Host  string `json:"host"`
	Kind  string `json:"kind"`
	At    string `json:"at"`
	Value string `json:"value"`
}

// FinalState describes the document the last edit produced.
type FinalState struct {
	Clips    []ClipState   `json:"clips"`
	Markers  []MarkerState `json:"markers"`
	Duration string        `json:"duration"`
	Valid    bool          `json:"valid"`
}

// JournalEntry is an edit the journal recorded.
type JournalEntry struct {
	Operation string `json:"operation"`
	Summary   string `json:"summary"`
	Changes   int    `json:"changes"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Final   FinalState     `json:"final"`
	Journal []JournalEntry `json:"journal"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Journal: []JournalEntry{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
