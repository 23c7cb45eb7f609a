package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/conditionals"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/google/uuid"
)

var (
	ErrUnknownDocument    = errors.New("unknown document")
	ErrRequirementsNotMet = errors.New("requirements not met")
	ErrInvalidAmount      = errors.New("amount must not be negative")
)

// RequirementsNotMetError lists what is still missing for a document.
type RequirementsNotMetError struct {
	Document string
	Missing  []rules.Requirement
}

func (e *RequirementsNotMetError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		parts[i] = r.String()
	}
	return fmt.Sprintf("requirements not met for %s: %s", e.Document, strings.Join(parts, ", "))
}

func (e *RequirementsNotMetError) Is(target error) bool {
	return target == ErrRequirementsNotMet
}

// Outcome tells how a game was won.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeFinalDocument
	OutcomeChaos
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFinalDocument:
		return "final_document"
	case OutcomeChaos:
		return "chaos"
	default:
		return "none"
	}
}

// GameState is the mutable state of one game session. It is not safe for
// concurrent use; one controlling loop owns it.
type GameState struct {
	id                 uuid.UUID
	collectedDocuments map[string]*rules.Document
	evidenceProvided   map[string]string
	currentDepartment  string
	currentProcedure   string
	attempts           int
	frustrationLevel   int
	progress           int

	cfg *rules.Config
}

// New creates a game state bound to cfg, starting in the department of the
// starting persona.
func New(cfg *rules.Config) *GameState {
	return &GameState{
		id:                 uuid.New(),
		collectedDocuments: make(map[string]*rules.Document),
		evidenceProvided:   make(map[string]string),
		currentDepartment:  cfg.StartingDepartment(),
		currentProcedure:   cfg.Game.StartingProcedure,
		cfg:                cfg,
	}
}

func (gs *GameState) ID() uuid.UUID                { return gs.id }
func (gs *GameState) Config() *rules.Config        { return gs.cfg }
func (gs *GameState) GetCurrentDepartment() string { return gs.currentDepartment }
func (gs *GameState) GetCurrentProcedure() string  { return gs.currentProcedure }
func (gs *GameState) GetAttempts() int             { return gs.attempts }
func (gs *GameState) GetFrustrationLevel() int     { return gs.frustrationLevel }
func (gs *GameState) GetDocumentCount() int        { return len(gs.collectedDocuments) }
func (gs *GameState) GetEvidenceCount() int        { return len(gs.evidenceProvided) }
func (gs *GameState) Progress() int                { return gs.progress }

// HasDocument reports whether the document has been collected.
func (gs *GameState) HasDocument(id string) bool {
	_, ok := gs.collectedDocuments[id]
	return ok
}

// HasEvidence reports whether the evidence has been provided.
func (gs *GameState) HasEvidence(id string) bool {
	_, ok := gs.evidenceProvided[id]
	return ok
}

// EvidenceForm returns the form under which the evidence was provided.
func (gs *GameState) EvidenceForm(id string) (string, bool) {
	form, ok := gs.evidenceProvided[id]
	return form, ok
}

// CollectedDocumentIDs returns the collected document ids, sorted.
func (gs *GameState) CollectedDocumentIDs() []string {
	ids := make([]string, 0, len(gs.collectedDocuments))
	for id := range gs.collectedDocuments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProvidedEvidenceIDs returns the provided evidence ids, sorted.
func (gs *GameState) ProvidedEvidenceIDs() []string {
	ids := make([]string, 0, len(gs.evidenceProvided))
	for id := range gs.evidenceProvided {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InProcedureDepartment reports whether the current procedure may happen in
// the current department. Without a procedure this is always true.
func (gs *GameState) InProcedureDepartment() bool {
	proc, ok := gs.cfg.Procedure(gs.currentProcedure)
	if !ok {
		return true
	}
	return proc.AllowsDepartment(gs.currentDepartment)
}

// AddDocument records a document as collected. It fails if the document is
// unknown or any direct requirement is unmet. Adding a collected document
// again succeeds without change.
func (gs *GameState) AddDocument(id string) error {
	doc, ok := gs.cfg.Document(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, id)
	}
	if gs.HasDocument(id) {
		return nil
	}
	if missing := gs.cfg.Missing(id, gs); len(missing) > 0 {
		return &RequirementsNotMetError{Document: id, Missing: missing}
	}
	gs.collectedDocuments[id] = doc
	return nil
}

// AddEvidence stores the form submitted for an evidence. It returns false if
// the evidence is unknown or the form is not acceptable. A later valid
// submission replaces the stored form.
func (gs *GameState) AddEvidence(id, form string) bool {
	ev, ok := gs.cfg.EvidenceByID(id)
	if !ok || !ev.Accepts(form) {
		return false
	}
	gs.evidenceProvided[id] = strings.TrimSpace(form)
	return true
}

// IncreaseFrustration raises the frustration level without ceiling.
func (gs *GameState) IncreaseFrustration(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	gs.frustrationLevel += amount
	return nil
}

// DecreaseFrustration lowers the frustration level, never below zero.
func (gs *GameState) DecreaseFrustration(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	gs.frustrationLevel = max(0, gs.frustrationLevel-amount)
	return nil
}

// UpdateProgress recomputes progress from collected documents, provided
// evidence and the bonus of the current procedure, saturating at 100.
func (gs *GameState) UpdateProgress() int {
	bonus := 0
	if proc, ok := gs.cfg.Procedure(gs.currentProcedure); ok {
		bonus = proc.ProgressBonus
	}
	gs.progress = min(100, 10*len(gs.collectedDocuments)+5*len(gs.evidenceProvided)+bonus)
	return gs.progress
}

// Outcome evaluates both win conditions. The final-document ending needs the
// player to stand in the department issuing it; the chaos ending needs every
// document and a frustration level above the threshold.
func (gs *GameState) Outcome() Outcome {
	final := gs.cfg.Game.FinalDocument
	if gs.HasDocument(final) && gs.currentDepartment == gs.cfg.FinalDepartment() {
		return OutcomeFinalDocument
	}
	if len(gs.collectedDocuments) == len(gs.cfg.Documents) && gs.frustrationLevel > gs.cfg.FrustrationThreshold() {
		return OutcomeChaos
	}
	return OutcomeNone
}

// CheckWin reports whether the game is won.
func (gs *GameState) CheckWin() bool {
	return gs.Outcome() != OutcomeNone
}

// SwitchDepartment moves the player. It returns false if the player is
// already there or no persona staffs the department.
func (gs *GameState) SwitchDepartment(dept string) bool {
	if dept == gs.currentDepartment || !gs.cfg.HasDepartment(dept) {
		return false
	}
	gs.currentDepartment = dept
	return true
}

// RecordAttempt counts one processed player turn.
func (gs *GameState) RecordAttempt() int {
	gs.attempts++
	return gs.attempts
}

// SetProcedure moves to another procedure. It returns false for unknown
// procedures and for the current one.
func (gs *GameState) SetProcedure(id string) bool {
	if id == gs.currentProcedure {
		return false
	}
	if _, ok := gs.cfg.Procedure(id); !ok {
		return false
	}
	gs.currentProcedure = id
	return true
}

// AdvanceProcedure sets the procedure like SetProcedure, but never to one
// with a lower progress bonus than the current procedure.
func (gs *GameState) AdvanceProcedure(id string) bool {
	next, ok := gs.cfg.Procedure(id)
	if !ok {
		return false
	}
	if cur, ok := gs.cfg.Procedure(gs.currentProcedure); ok && next.ProgressBonus < cur.ProgressBonus {
		return false
	}
	return gs.SetProcedure(id)
}

// NextSteps returns the procedures reachable from the current one.
func (gs *GameState) NextSteps() []string {
	if proc, ok := gs.cfg.Procedure(gs.currentProcedure); ok {
		return proc.NextSteps
	}
	return nil
}

// CheckForLoop returns the first loop triggered by the current procedure
// whose condition holds, or nil.
func (gs *GameState) CheckForLoop() *rules.Loop {
	for i := range gs.cfg.Loops {
		loop := &gs.cfg.Loops[i]
		if loop.Trigger == gs.currentProcedure && conditionals.EvaluateWhen(loop.When, gs) {
			return loop
		}
	}
	return nil
}

// Missing returns the unmet requirements of a document.
func (gs *GameState) Missing(docID string) []rules.Requirement {
	return gs.cfg.Missing(docID, gs)
}

// Obtainable returns the documents that could be granted right now.
func (gs *GameState) Obtainable() []string {
	return gs.cfg.Obtainable(gs)
}

// MissingEvidence maps uncollected documents to their missing evidence.
func (gs *GameState) MissingEvidence() map[string][]string {
	return gs.cfg.MissingEvidence(gs)
}

// DepartmentObtainable returns the obtainable documents issued by the
// current department.
func (gs *GameState) DepartmentObtainable() []string {
	var ids []string
	for _, id := range gs.Obtainable() {
		if gs.cfg.Documents[id].Department == gs.currentDepartment {
			ids = append(ids, id)
		}
	}
	return ids
}
