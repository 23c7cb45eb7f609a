package state

import (
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Snapshot is a read-only copy of a GameState, handed to decision adapters,
// prompts and the UI.
type Snapshot struct {
	ID                 uuid.UUID           `json:"id"`
	CollectedDocuments []string            `json:"collected_documents"`
	EvidenceProvided   map[string]string   `json:"evidence_provided"`
	CurrentDepartment  string              `json:"current_department"`
	CurrentProcedure   string              `json:"current_procedure,omitempty"`
	WrongDepartment    bool                `json:"wrong_department,omitempty"`
	Attempts           int                 `json:"attempts"`
	FrustrationLevel   int                 `json:"frustration_level"`
	Progress           int                 `json:"progress"`
	Obtainable         []string            `json:"obtainable,omitempty"`
	MissingEvidence    map[string][]string `json:"missing_evidence,omitempty"`
}

// Snapshot copies the current state.
func (gs *GameState) Snapshot() Snapshot {
	return Snapshot{
		ID:                 gs.id,
		CollectedDocuments: gs.CollectedDocumentIDs(),
		EvidenceProvided:   maps.Clone(gs.evidenceProvided),
		CurrentDepartment:  gs.currentDepartment,
		CurrentProcedure:   gs.currentProcedure,
		WrongDepartment:    !gs.InProcedureDepartment(),
		Attempts:           gs.attempts,
		FrustrationLevel:   gs.frustrationLevel,
		Progress:           gs.progress,
		Obtainable:         gs.Obtainable(),
		MissingEvidence:    gs.MissingEvidence(),
	}
}

// HasEvidence lets a snapshot serve as a rules.View.
func (s Snapshot) HasEvidence(id string) bool {
	_, ok := s.EvidenceProvided[id]
	return ok
}

// HasDocument lets a snapshot serve as a rules.View.
func (s Snapshot) HasDocument(id string) bool {
	return slices.Contains(s.CollectedDocuments, id)
}

func (s Snapshot) GetCurrentProcedure() string  { return s.CurrentProcedure }
func (s Snapshot) GetCurrentDepartment() string { return s.CurrentDepartment }
func (s Snapshot) InProcedureDepartment() bool  { return !s.WrongDepartment }
func (s Snapshot) GetDocumentCount() int        { return len(s.CollectedDocuments) }
func (s Snapshot) GetEvidenceCount() int        { return len(s.EvidenceProvided) }
func (s Snapshot) GetAttempts() int             { return s.Attempts }
func (s Snapshot) GetFrustrationLevel() int     { return s.FrustrationLevel }

// Fingerprint identifies the parts of the state a decision depends on.
func (s Snapshot) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(s.CurrentDepartment + "|" + s.CurrentProcedure + "|")
	sb.WriteString(strings.Join(s.CollectedDocuments, ","))
	sb.WriteString("|")
	for _, id := range slices.Sorted(maps.Keys(s.EvidenceProvided)) {
		sb.WriteString(id + "=" + s.EvidenceProvided[id] + ",")
	}
	return sb.String()
}
