package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special inputs that trigger non-chat actions
const (
	ResetGameStateInput = "RESET_GAMESTATE"
)

// TestSuite defines a complete scripted playthrough.
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name   string     `yaml:"name"`
	Config string     `yaml:"config,omitempty"` // Game configuration; empty means the built-in game
	Seed   Seed       `yaml:"seed,omitempty"`   // Applied to a fresh game before the first step
	Steps  []TestStep `yaml:"steps,omitempty"`
	Cases  []string   `yaml:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// Seed is the case file a suite starts from.
type Seed struct {
	Department  string            `yaml:"department,omitempty"`
	Procedure   string            `yaml:"procedure,omitempty"`
	Evidence    map[string]string `yaml:"evidence,omitempty"` // evidence id -> form
	Documents   []string          `yaml:"documents,omitempty"`
	Frustration int               `yaml:"frustration,omitempty"`
}

// TestStep defines a single player input and its expected outcomes.
// Use input: "RESET_GAMESTATE" to start over from the seed
type TestStep struct {
	Name         string       `yaml:"name,omitempty"`
	Input        string       `yaml:"input"`
	Expectations Expectations `yaml:"expect"`
}

// Expectations defines what to check after a step executes
type Expectations struct {
	// GameState properties - aligned with pkg/state/gamestate.go
	Department  *string           `yaml:"department,omitempty"`
	Procedure   *string           `yaml:"procedure,omitempty"`
	Documents   []string          `yaml:"documents,omitempty"` // Full set of collected documents (order independent)
	Evidence    map[string]string `yaml:"evidence,omitempty"`  // evidence id -> form, subset check
	Attempts    *int              `yaml:"attempts,omitempty"`
	Frustration *int              `yaml:"frustration,omitempty"`
	Won         *bool             `yaml:"won,omitempty"`
	Outcome     *string           `yaml:"outcome,omitempty"`
	Quit        *bool             `yaml:"quit,omitempty"`

	// Response Analysis
	ResponseContains    []string `yaml:"response_contains,omitempty"`
	ResponseNotContains []string `yaml:"response_not_contains,omitempty"`
	ResponseRegex       string   `yaml:"response_regex,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a RESET_GAMESTATE step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	GameState uuid.UUID // ID of the last game state used for this test
}
