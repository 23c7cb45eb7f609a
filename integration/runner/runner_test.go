package runner

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/derKlinke/buergeramt/internal/engine"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ruleGame plays against the rule based officials with a fixed random source.
func ruleGame(cfg *rules.Config) *engine.Game {
	return engine.New(cfg,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRand(rand.New(rand.NewPCG(1, 2))),
		engine.WithTransferChance(0))
}

func TestRunner_Cases(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "cases", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	r := NewRunner(ruleGame)
	r.Logger = t.Logf

	for _, file := range files {
		jobs, err := LoadTestSuiteWithExpansion(file, filepath.Join("..", "cases"))
		require.NoError(t, err)

		for _, job := range jobs {
			t.Run(job.Name, func(t *testing.T) {
				result, err := r.RunSuite(context.Background(), job.Suite)
				require.NoError(t, err)
				assert.Len(t, result.Results, len(job.Suite.Steps))
				for _, step := range result.Results {
					assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
				}
			})
		}
	}
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join("testdata", "all.yaml"), filepath.Join("..", "cases"))
	require.NoError(t, err)

	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
	}
	assert.Equal(t, []string{"Full playthrough", "Seeded final desk", "Chaos ending"}, names)
	assert.Equal(t, filepath.Join("..", "cases", "chaos_ending.yaml"), jobs[2].CaseFile)
}

func TestLoadTestSuite_Errors(t *testing.T) {
	_, err := LoadTestSuite(filepath.Join("testdata", "broken.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")

	_, err = LoadTestSuite(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read test file")
}

func TestRunner_FailingExpectations(t *testing.T) {
	wrong := "Fachprüfung"
	suite := TestSuite{
		Name: "failing",
		Steps: []TestStep{
			{Name: "greeting", Input: "Guten Tag", Expectations: Expectations{Department: &wrong}},
			{Name: "status", Input: "/status", Expectations: Expectations{ResponseContains: []string{"Abteilung: Erstbearbeitung"}}},
		},
	}

	t.Run("continue runs every step", func(t *testing.T) {
		r := NewRunner(ruleGame)
		result, err := r.RunSuite(context.Background(), suite)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected department Fachprüfung, got Erstbearbeitung")
		require.Len(t, result.Results, 2)
		assert.False(t, result.Results[0].Success)
		assert.True(t, result.Results[1].Success)
	})

	t.Run("exit stops at the first failure", func(t *testing.T) {
		r := NewRunner(ruleGame)
		r.ErrorHandlingMode = ErrorHandlingExit
		result, err := r.RunSuite(context.Background(), suite)
		require.Error(t, err)
		assert.Len(t, result.Results, 1)
	})
}

func TestRunner_SeedErrors(t *testing.T) {
	tests := []struct {
		name    string
		seed    Seed
		wantErr string
	}{
		{"unknown evidence", Seed{Evidence: map[string]string{"angelschein": "Schein"}}, `evidence "angelschein" not accepted as "Schein"`},
		{"unknown document", Seed{Documents: []string{"Angelschein"}}, `unknown document "Angelschein"`},
		{"requirements not met", Seed{Documents: []string{"Schenkungsanmeldung"}}, `failed to add document "Schenkungsanmeldung"`},
		{"unknown department", Seed{Department: "Kantine"}, `unknown department "Kantine"`},
		{"unknown procedure", Seed{Procedure: "Mittagspause"}, `unknown procedure "Mittagspause"`},
		{"negative frustration", Seed{Frustration: -1}, "amount must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(ruleGame)
			_, err := r.RunSuite(context.Background(), TestSuite{Name: tt.name, Seed: tt.seed})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunner_ConfigOverride(t *testing.T) {
	r := NewRunner(ruleGame)
	r.ConfigOverride = filepath.Join("testdata", "missing.yaml")

	_, err := r.RunSuite(context.Background(), TestSuite{Name: "override"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open game config")
}

func TestResponseText(t *testing.T) {
	turn := &engine.Turn{Lines: []engine.Line{
		{Style: engine.StyleBureaucrat, Speaker: "Herr Weber", Text: "Bitte unterschreiben Sie hier."},
		{Style: engine.StyleSuccess, Text: "Sie erhalten das Dokument 'Zahlungsaufforderung'!"},
	}}
	assert.Equal(t, "Herr Weber: Bitte unterschreiben Sie hier.\nSie erhalten das Dokument 'Zahlungsaufforderung'!", ResponseText(turn))
}
