// Package harness provides conformance testing for workout scripts.
//
// The harness compiles a script, drives the runtime through timed steps with
// a manual clock, and checks assertions against the final state. Every run
// is deterministic, so a cycle trace can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files validated against an embedded JSON schema:
//
//	name: cindy_rounds
//	description: "Three rounds of Cindy complete in order"
//	script: |
//	  (3) :10 Cindy
//	steps:
//	  - at: 0s
//	    click: Run
//	  - at: 10s
//	  - at: 20s
//	    events: [end]
//	assertions:
//	  - type: results_count
//	    count: 3
//	  - type: final_state
//	    state: done
//
// A script may live next to the scenario instead (script_file). Each step
// moves the clock to its offset from the start of the run, submits its
// click and events, and runs one cycle (or cycles). Follow-up events are
// then drained before the next step.
//
// # Assertion Types
//
//   - results_count: number of result spans
//   - result_labels: span labels in order, compared case-insensitively
//   - final_state: lifecycle state after the last step
//   - visits: total trace count for a node id
//   - history_length: number of committed statement keys
package harness
