package harness

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wodwiki/internal/engine"
)

// Scenario defines a conformance test scenario: a script, the timed input
// that drives it, and the assertions the run must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Script is the workout source. Set either Script or ScriptFile.
	Script string `yaml:"script,omitempty"`

	// ScriptFile is a path to the source, relative to the scenario file.
	// LoadScenario reads it into Script.
	ScriptFile string `yaml:"script_file,omitempty"`

	// Steps drive the runtime in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is the input for one point in time.
type Step struct {
	// At is the offset from the start of the run, e.g. "1m30s". Offsets
	// never decrease.
	At string `yaml:"at"`

	// Click is a button label; its events are submitted stamped At.
	Click string `yaml:"click,omitempty"`

	// Events are raw event names submitted after Click.
	Events []string `yaml:"events,omitempty"`

	// Cycles is how many cycles to run at this time. Defaults to 1.
	Cycles int `yaml:"cycles,omitempty"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (results_count, history_length, visits).
	Count int `yaml:"count,omitempty"`

	// Labels are the expected span labels (result_labels).
	Labels []string `yaml:"labels,omitempty"`

	// State is the expected lifecycle state (final_state).
	State string `yaml:"state,omitempty"`

	// Node is the node id whose visits are counted (visits).
	Node int `yaml:"node,omitempty"`
}

// Assertion type constants.
const (
	AssertResultsCount  = "results_count"
	AssertResultLabels  = "result_labels"
	AssertFinalState    = "final_state"
	AssertVisits        = "visits"
	AssertHistoryLength = "history_length"
)

//go:embed scenario.schema.json
var scenarioSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func scenarioSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("scenario.schema.json", scenarioSchemaJSON)
	})
	return schema, schemaErr
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, fails the schema, contains
// unknown fields (typos), or has an unreadable script_file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. A script_file is resolved against
// baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Strict decode catches keys the schema allows but the struct lacks.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ScriptFile != "" {
		path := scenario.ScriptFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script file: %w", err)
		}
		scenario.Script = string(src)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateSchema checks the document against the embedded JSON schema.
// YAML is converted to JSON values first so numbers and maps have the
// shapes the validator expects.
func validateSchema(data []byte) error {
	sch, err := scenarioSchema()
	if err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("scenario is not JSON compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return err
	}
	return sch.Validate(payload)
}

// validateScenario checks what the schema cannot: step offsets parse and
// never go backwards.
func validateScenario(s *Scenario) error {
	if s.Script == "" {
		return fmt.Errorf("script is required")
	}

	var last time.Duration
	for i, step := range s.Steps {
		at, err := step.Offset()
		if err != nil {
			return fmt.Errorf("steps[%d].at: %w", i, err)
		}
		if at < last {
			return fmt.Errorf("steps[%d].at: %s is before the previous step (%s)", i, at, last)
		}
		last = at

		if step.Click != "" {
			if _, ok := engine.FindButton(step.Click, engine.AllButtons); !ok {
				return fmt.Errorf("steps[%d].click: unknown button %q", i, step.Click)
			}
		}
	}
	return nil
}

// Offset parses At.
func (s Step) Offset() (time.Duration, error) {
	return time.ParseDuration(s.At)
}
