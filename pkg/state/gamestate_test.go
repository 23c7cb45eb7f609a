package state

import (
	"errors"
	"strings"
	"testing"

	"github.com/derKlinke/buergeramt/pkg/conditionals"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two departments: A is issued where the player starts, the final document B
// at the Kasse.
const fixtureYAML = `
game:
  starting_agent: clerk
  final_document: B
  starting_procedure: Antrag
documents:
  A: {description: first, requirements: [ev1], department: Amt, code: A-1}
  B: {description: second, requirements: [A, ev2], department: Kasse, code: B-1}
evidence:
  ev1: {description: one, acceptable_forms: [f1, f1b]}
  ev2: {description: two, acceptable_forms: [f2]}
personas:
  clerk: {name: Herr Clerk, role: Beamter, department: Amt, handled_documents: [A]}
  cashier: {name: Frau Kasse, role: Kassiererin, department: Kasse, handled_documents: [B]}
procedures:
  Antrag: {description: start, department: Amt, next_steps: [Pruefung]}
  Pruefung: {description: check, department: Amt, next_steps: [Bescheid]}
  Bescheid: {description: notice, department: Kasse, progress_bonus: 15}
loops:
  - trigger: Pruefung
    when: {max_evidence: 0}
    redirect: Antrag
    message: Zurück zum Anfang.
    frustration: 2
`

func newTestState(t *testing.T) *GameState {
	t.Helper()
	cfg, err := rules.Load(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	return New(cfg)
}

func TestNew(t *testing.T) {
	gs := newTestState(t)

	assert.NotEqual(t, "", gs.ID().String())
	assert.Equal(t, "Amt", gs.GetCurrentDepartment())
	assert.Equal(t, "Antrag", gs.GetCurrentProcedure())
	assert.Zero(t, gs.GetAttempts())
	assert.Zero(t, gs.GetFrustrationLevel())
	assert.Zero(t, gs.Progress())
	assert.Empty(t, gs.CollectedDocumentIDs())
}

func TestScenario_DocumentChain(t *testing.T) {
	gs := newTestState(t)

	err := gs.AddDocument("B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequirementsNotMet))
	var notMet *RequirementsNotMetError
	require.True(t, errors.As(err, &notMet))
	assert.Equal(t, "B", notMet.Document)
	assert.Contains(t, notMet.Missing, rules.Requirement{Kind: rules.RequirementDocument, ID: "A"})

	require.True(t, gs.AddEvidence("ev1", "f1"))
	require.NoError(t, gs.AddDocument("A"))

	require.True(t, gs.AddEvidence("ev2", "f2"))
	require.NoError(t, gs.AddDocument("B"))

	// Starting procedure has no bonus.
	assert.Equal(t, 30, gs.UpdateProgress())
}

func TestAddDocument_Idempotent(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))

	require.NoError(t, gs.AddDocument("A"))
	before := gs.CollectedDocumentIDs()
	require.NoError(t, gs.AddDocument("A"))
	assert.Equal(t, before, gs.CollectedDocumentIDs())
}

func TestAddDocument_UnknownDoesNotMutate(t *testing.T) {
	gs := newTestState(t)

	err := gs.AddDocument("Z")
	assert.ErrorIs(t, err, ErrUnknownDocument)
	assert.Empty(t, gs.CollectedDocumentIDs())
}

func TestAddDocument_NoSideEffects(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))
	require.NoError(t, gs.AddDocument("A"))

	assert.Zero(t, gs.GetFrustrationLevel())
	assert.Zero(t, gs.Progress(), "progress is only recomputed by UpdateProgress")
}

func TestAddEvidence(t *testing.T) {
	gs := newTestState(t)

	assert.False(t, gs.AddEvidence("ev1", "wrong_form"))
	assert.Zero(t, gs.GetEvidenceCount())

	assert.False(t, gs.AddEvidence("nope", "f1"))
	assert.Zero(t, gs.GetEvidenceCount())

	assert.False(t, gs.AddEvidence("ev1", "  f1 "), "forms must match exactly")
	assert.Zero(t, gs.GetEvidenceCount())

	assert.True(t, gs.AddEvidence("ev1", "f1"))
	assert.True(t, gs.AddEvidence("ev1", "f1b"))
	form, ok := gs.EvidenceForm("ev1")
	assert.True(t, ok)
	assert.Equal(t, "f1b", form, "last write wins")

	assert.False(t, gs.AddEvidence("ev1", "f2"))
	form, _ = gs.EvidenceForm("ev1")
	assert.Equal(t, "f1b", form, "invalid resubmission keeps the stored form")
}

func TestFrustration(t *testing.T) {
	gs := newTestState(t)

	require.NoError(t, gs.IncreaseFrustration(3))
	require.NoError(t, gs.DecreaseFrustration(1))
	assert.Equal(t, 2, gs.GetFrustrationLevel())

	require.NoError(t, gs.DecreaseFrustration(10))
	assert.Zero(t, gs.GetFrustrationLevel())

	assert.ErrorIs(t, gs.IncreaseFrustration(-1), ErrInvalidAmount)
	assert.ErrorIs(t, gs.DecreaseFrustration(-1), ErrInvalidAmount)
	assert.Zero(t, gs.GetFrustrationLevel())

	sequence := []int{2, -5, 1, -1, -1, 4, -10}
	for _, step := range sequence {
		if step > 0 {
			require.NoError(t, gs.IncreaseFrustration(step))
		} else {
			require.NoError(t, gs.DecreaseFrustration(-step))
		}
		assert.GreaterOrEqual(t, gs.GetFrustrationLevel(), 0)
	}
}

func TestUpdateProgress(t *testing.T) {
	gs := newTestState(t)

	assert.Equal(t, gs.UpdateProgress(), gs.UpdateProgress())

	last := gs.UpdateProgress()
	steps := []func(){
		func() { gs.AddEvidence("ev1", "f1") },
		func() { _ = gs.AddDocument("A") },
		func() { gs.AddEvidence("ev2", "f2") },
		func() { _ = gs.AddDocument("B") },
	}
	for _, step := range steps {
		step()
		p := gs.UpdateProgress()
		assert.GreaterOrEqual(t, p, last)
		assert.LessOrEqual(t, p, 100)
		last = p
	}

	require.True(t, gs.SetProcedure("Bescheid"))
	assert.Equal(t, 45, gs.UpdateProgress())
}

func TestUpdateProgress_Saturates(t *testing.T) {
	cfg, err := rules.LoadDefault()
	require.NoError(t, err)
	gs := New(cfg)

	for _, id := range cfg.SortedEvidenceIDs() {
		require.True(t, gs.AddEvidence(id, cfg.Evidence[id].AcceptableForms[0]))
	}
	for _, id := range cfg.TopologicalOrder() {
		require.NoError(t, gs.AddDocument(id))
	}
	require.True(t, gs.SetProcedure("Abschluss"))
	assert.Equal(t, 100, gs.UpdateProgress())
}

func TestCheckWin_FinalDocumentInDepartment(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))
	require.True(t, gs.AddEvidence("ev2", "f2"))
	require.NoError(t, gs.AddDocument("A"))
	require.NoError(t, gs.AddDocument("B"))

	assert.False(t, gs.CheckWin(), "final document alone is not enough outside its department")

	require.True(t, gs.SwitchDepartment("Kasse"))
	assert.True(t, gs.CheckWin())
	assert.Equal(t, OutcomeFinalDocument, gs.Outcome())
}

func TestCheckWin_Chaos(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))
	require.True(t, gs.AddEvidence("ev2", "f2"))
	require.NoError(t, gs.AddDocument("A"))
	require.NoError(t, gs.AddDocument("B"))

	require.NoError(t, gs.IncreaseFrustration(8))
	assert.False(t, gs.CheckWin(), "threshold must be exceeded")

	require.NoError(t, gs.IncreaseFrustration(1))
	assert.True(t, gs.CheckWin())
	assert.Equal(t, OutcomeChaos, gs.Outcome())

	// Evaluated fresh on every call.
	require.NoError(t, gs.DecreaseFrustration(5))
	assert.False(t, gs.CheckWin())
}

func TestSwitchDepartment(t *testing.T) {
	gs := newTestState(t)

	assert.False(t, gs.SwitchDepartment("Amt"))
	assert.False(t, gs.SwitchDepartment("Keller"))
	assert.Equal(t, "Amt", gs.GetCurrentDepartment())

	assert.True(t, gs.SwitchDepartment("Kasse"))
	assert.Equal(t, "Kasse", gs.GetCurrentDepartment())
	assert.Empty(t, gs.CollectedDocumentIDs())
}

func TestProcedures(t *testing.T) {
	gs := newTestState(t)

	assert.Equal(t, []string{"Pruefung"}, gs.NextSteps())
	assert.False(t, gs.SetProcedure("Antrag"))
	assert.False(t, gs.SetProcedure("Unbekannt"))
	assert.True(t, gs.InProcedureDepartment())

	require.True(t, gs.SetProcedure("Bescheid"))
	assert.False(t, gs.InProcedureDepartment())
	assert.Empty(t, gs.NextSteps())
}

func TestAdvanceProcedure(t *testing.T) {
	gs := newTestState(t)

	assert.False(t, gs.AdvanceProcedure("Unbekannt"))
	assert.True(t, gs.AdvanceProcedure("Pruefung"), "equal bonus moves on")
	assert.True(t, gs.AdvanceProcedure("Bescheid"))

	before := gs.UpdateProgress()
	assert.False(t, gs.AdvanceProcedure("Antrag"), "lower bonus is no advance")
	assert.Equal(t, "Bescheid", gs.GetCurrentProcedure())
	assert.Equal(t, before, gs.UpdateProgress())

	require.True(t, gs.SetProcedure("Antrag"), "loops may still send the player back")
}

func TestCheckForLoop(t *testing.T) {
	gs := newTestState(t)
	assert.Nil(t, gs.CheckForLoop())

	require.True(t, gs.SetProcedure("Pruefung"))
	loop := gs.CheckForLoop()
	require.NotNil(t, loop)
	assert.Equal(t, "Antrag", loop.Redirect)

	require.True(t, gs.AddEvidence("ev1", "f1"))
	assert.Nil(t, gs.CheckForLoop())
}

func TestRecordAttempt(t *testing.T) {
	gs := newTestState(t)
	assert.Equal(t, 1, gs.RecordAttempt())
	assert.Equal(t, 2, gs.RecordAttempt())
	assert.Equal(t, 2, gs.GetAttempts())
}

func TestSnapshot(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))

	snap := gs.Snapshot()
	assert.Equal(t, gs.ID(), snap.ID)
	assert.Equal(t, []string{"A"}, snap.Obtainable)
	assert.True(t, snap.HasEvidence("ev1"))
	assert.False(t, snap.HasDocument("A"))
	assert.Equal(t, []string{"ev2"}, snap.MissingEvidence["B"])

	// The snapshot is a copy.
	snap.EvidenceProvided["ev2"] = "f2"
	assert.False(t, gs.HasEvidence("ev2"))

	var view conditionals.GameStateView = snap
	assert.True(t, view.InProcedureDepartment())
	assert.Equal(t, 1, view.GetEvidenceCount())

	fp := snap.Fingerprint()
	require.True(t, gs.AddEvidence("ev1", "f1b"))
	assert.NotEqual(t, fp, gs.Snapshot().Fingerprint())
}

func TestDepartmentObtainable(t *testing.T) {
	gs := newTestState(t)
	require.True(t, gs.AddEvidence("ev1", "f1"))
	require.True(t, gs.AddEvidence("ev2", "f2"))
	require.NoError(t, gs.AddDocument("A"))

	assert.Empty(t, gs.DepartmentObtainable())
	require.True(t, gs.SwitchDepartment("Kasse"))
	assert.Equal(t, []string{"B"}, gs.DepartmentObtainable())
}
