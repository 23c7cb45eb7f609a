package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/derKlinke/buergeramt/internal/engine"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// GameFactory starts a game for a configuration. It decides which officials
// (rule based or language model) the suites play against.
type GameFactory func(cfg *rules.Config) *engine.Game

// Runner plays scripted test suites against the game engine
type Runner struct {
	NewGame           GameFactory
	Timeout           time.Duration // Per step
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ConfigOverride    string // If set, overrides the game configuration for all test cases
}

// NewRunner creates a new test runner
func NewRunner(newGame GameFactory) *Runner {
	return &Runner{
		NewGame:           newGame,
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	f, err := os.Open(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	var suite TestSuite
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	cfg, err := r.loadConfig(suite)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}

	game, err := r.seedGame(cfg, suite.Seed)
	if err != nil {
		result.Error = fmt.Errorf("failed to seed game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameState = game.State().ID()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Input == ResetGameStateInput {
			game, stepResult = r.resetStep(cfg, suite.Seed, step)
			result.GameState = game.State().ID()
		} else {
			stepResult = r.runStep(ctx, game, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) loadConfig(suite TestSuite) (*rules.Config, error) {
	path := suite.Config
	if r.ConfigOverride != "" {
		path = r.ConfigOverride
	}
	if path == "" {
		return rules.LoadDefault()
	}
	return rules.LoadFile(path)
}

// seedGame starts a fresh game and applies the seed to its state.
func (r *Runner) seedGame(cfg *rules.Config, seed Seed) (*engine.Game, error) {
	game := r.NewGame(cfg)
	gs := game.State()

	for id, form := range seed.Evidence {
		if !gs.AddEvidence(id, form) {
			return nil, fmt.Errorf("evidence %q not accepted as %q", id, form)
		}
	}

	// Prerequisites first, whatever order the suite lists them in.
	for _, id := range cfg.TopologicalOrder() {
		if !slices.Contains(seed.Documents, id) {
			continue
		}
		if err := gs.AddDocument(id); err != nil {
			return nil, fmt.Errorf("failed to add document %q: %w", id, err)
		}
	}
	for _, id := range seed.Documents {
		if !gs.HasDocument(id) {
			return nil, fmt.Errorf("unknown document %q", id)
		}
	}

	if seed.Department != "" && seed.Department != gs.GetCurrentDepartment() && !gs.SwitchDepartment(seed.Department) {
		return nil, fmt.Errorf("unknown department %q", seed.Department)
	}
	if seed.Procedure != "" && seed.Procedure != gs.GetCurrentProcedure() && !gs.SetProcedure(seed.Procedure) {
		return nil, fmt.Errorf("unknown procedure %q", seed.Procedure)
	}
	if err := gs.IncreaseFrustration(seed.Frustration); err != nil {
		return nil, err
	}
	gs.UpdateProgress()

	return game, nil
}

// resetStep starts over from the seed and checks the step's expectations
// against the fresh game.
func (r *Runner) resetStep(cfg *rules.Config, seed Seed, step TestStep) (*engine.Game, TestResult) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[GAMESTATE RESET]"}

	game, err := r.seedGame(cfg, seed)
	if err != nil {
		result.Error = fmt.Errorf("failed to reset game: %w", err)
		result.Duration = time.Since(start)
		return r.NewGame(cfg), result
	}

	if err := checkExpectations(step.Expectations, game, &engine.Turn{}, ""); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
	} else {
		result.Success = true
	}
	result.Duration = time.Since(start)
	return game, result
}

// runStep plays one input and checks expectations
func (r *Runner) runStep(ctx context.Context, game *engine.Game, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	turn, err := game.ProcessInput(ctx, step.Input)
	if err != nil {
		result.Error = fmt.Errorf("failed to process input: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = ResponseText(turn)

	if err := checkExpectations(step.Expectations, game, turn, result.ResponseText); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// ResponseText flattens a turn the way the plain console prints it.
func ResponseText(turn *engine.Turn) string {
	lines := make([]string, 0, len(turn.Lines))
	for _, l := range turn.Lines {
		if l.Speaker != "" {
			lines = append(lines, l.Speaker+": "+l.Text)
			continue
		}
		lines = append(lines, l.Text)
	}
	return strings.Join(lines, "\n")
}

// checkExpectations validates the expectations against the game after a turn
func checkExpectations(exp Expectations, game *engine.Game, turn *engine.Turn, responseText string) error {
	gs := game.State()

	if exp.Department != nil && gs.GetCurrentDepartment() != *exp.Department {
		return fmt.Errorf("expected department %s, got %s", *exp.Department, gs.GetCurrentDepartment())
	}

	if exp.Procedure != nil && gs.GetCurrentProcedure() != *exp.Procedure {
		return fmt.Errorf("expected procedure %s, got %s", *exp.Procedure, gs.GetCurrentProcedure())
	}

	// Full document check (order independent)
	if exp.Documents != nil {
		expected := slices.Clone(exp.Documents)
		slices.Sort(expected)
		actual := gs.CollectedDocumentIDs()
		if !slices.Equal(expected, actual) {
			return fmt.Errorf("expected documents %v, got %v", expected, actual)
		}
	}

	for id, expectedForm := range exp.Evidence {
		form, ok := gs.EvidenceForm(id)
		if !ok {
			return fmt.Errorf("expected evidence %s to be provided, but it isn't", id)
		}
		if expectedForm != "" && form != expectedForm {
			return fmt.Errorf("expected evidence %s as %s, got %s", id, expectedForm, form)
		}
	}

	if exp.Attempts != nil && gs.GetAttempts() != *exp.Attempts {
		return fmt.Errorf("expected attempts to be %d, got %d", *exp.Attempts, gs.GetAttempts())
	}

	if exp.Frustration != nil && gs.GetFrustrationLevel() != *exp.Frustration {
		return fmt.Errorf("expected frustration to be %d, got %d", *exp.Frustration, gs.GetFrustrationLevel())
	}

	if exp.Won != nil && game.Won() != *exp.Won {
		return fmt.Errorf("expected won to be %t, got %t", *exp.Won, game.Won())
	}

	if exp.Outcome != nil && gs.Outcome().String() != *exp.Outcome {
		return fmt.Errorf("expected outcome %s, got %s", *exp.Outcome, gs.Outcome())
	}

	if exp.Quit != nil && turn.Quit != *exp.Quit {
		return fmt.Errorf("expected quit to be %t, got %t", *exp.Quit, turn.Quit)
	}

	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}

	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	return nil
}
