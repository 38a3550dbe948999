package harness

// CycleTrace is one driver cycle as the harness observed it.
type CycleTrace struct {
	Cycle   int64    `json:"cycle"`
	Events  []string `json:"events"` // name@offset
	State   string   `json:"state"`
	Cursor  *int     `json:"cursor,omitempty"`
	Results int      `json:"results"`
	History int      `json:"history"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held and the runtime never failed.
	Pass bool `json:"pass"`

	// Cycles holds every cycle in order, for golden comparison.
	Cycles []CycleTrace `json:"cycles"`

	// Errors contains assertion failures and runtime errors.
	Errors []string `json:"errors,omitempty"`

	// Exports holds the documents produced by save events.
	Exports []string `json:"exports,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cycles: []CycleTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
