package prompts

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
)

// PromptState is a reduced view of the case file for LLM prompts. Only
// documents of the current department are described in detail.
type PromptState struct {
	Department         string              `json:"department"`
	Procedure          string              `json:"procedure,omitempty"`
	NextSteps          []string            `json:"next_steps,omitempty"`
	WrongDepartment    bool                `json:"wrong_department,omitempty"`
	CollectedDocuments []string            `json:"collected_documents"`
	ProvidedEvidence   map[string]string   `json:"provided_evidence"`
	IssuedHere         []string            `json:"issued_here,omitempty"`
	ObtainableHere     []string            `json:"obtainable_here,omitempty"`
	MissingHere        map[string][]string `json:"missing_here,omitempty"`
	AllEvidence        map[string][]string `json:"acceptable_forms"`
	Attempts           int                 `json:"attempts"`
	FrustrationLevel   int                 `json:"frustration_level"`
}

// ToPromptState reduces a snapshot to what the current official needs.
func ToPromptState(snap state.Snapshot, cfg *rules.Config) *PromptState {
	ps := &PromptState{
		Department:         snap.CurrentDepartment,
		Procedure:          snap.CurrentProcedure,
		WrongDepartment:    snap.WrongDepartment,
		CollectedDocuments: snap.CollectedDocuments,
		ProvidedEvidence:   snap.EvidenceProvided,
		IssuedHere:         cfg.DocumentsForDepartment(snap.CurrentDepartment),
		AllEvidence:        make(map[string][]string, len(cfg.Evidence)),
		Attempts:           snap.Attempts,
		FrustrationLevel:   snap.FrustrationLevel,
	}
	if proc, ok := cfg.Procedure(snap.CurrentProcedure); ok {
		ps.NextSteps = proc.NextSteps
	}
	for _, id := range ps.IssuedHere {
		if snap.HasDocument(id) {
			continue
		}
		if missing := cfg.Missing(id, snap); len(missing) > 0 {
			if ps.MissingHere == nil {
				ps.MissingHere = make(map[string][]string)
			}
			for _, r := range missing {
				ps.MissingHere[id] = append(ps.MissingHere[id], r.String())
			}
		} else {
			ps.ObtainableHere = append(ps.ObtainableHere, id)
		}
	}
	for id, ev := range cfg.Evidence {
		ps.AllEvidence[id] = ev.AcceptableForms
	}
	return ps
}

// ToString renders the prompt state as plain text, for example:
//
// DEPARTMENT: Erstbearbeitung (procedure: Antragstellung)
// COLLECTED DOCUMENTS: none
// PROVIDED EVIDENCE: valid_id (Reisepass)
// ISSUED HERE:
// - Schenkungsanmeldung: missing evidence:gift_details
// - Steuernummer: missing evidence:residence_proof
func (ps *PromptState) ToString() string {
	var sb strings.Builder

	sb.WriteString("DEPARTMENT: " + ps.Department)
	if ps.Procedure != "" {
		sb.WriteString(fmt.Sprintf(" (procedure: %s)", ps.Procedure))
	}
	sb.WriteString("\n")
	if ps.WrongDepartment {
		sb.WriteString("The current procedure does not belong to this department.\n")
	}

	sb.WriteString("COLLECTED DOCUMENTS: ")
	if len(ps.CollectedDocuments) == 0 {
		sb.WriteString("none")
	} else {
		sb.WriteString(strings.Join(ps.CollectedDocuments, ", "))
	}
	sb.WriteString("\n")

	sb.WriteString("PROVIDED EVIDENCE: ")
	if len(ps.ProvidedEvidence) == 0 {
		sb.WriteString("none")
	} else {
		parts := make([]string, 0, len(ps.ProvidedEvidence))
		for _, id := range slices.Sorted(maps.Keys(ps.ProvidedEvidence)) {
			parts = append(parts, fmt.Sprintf("%s (%s)", id, ps.ProvidedEvidence[id]))
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	sb.WriteString("\n")

	if len(ps.IssuedHere) > 0 {
		sb.WriteString("ISSUED HERE:\n")
		for _, id := range ps.IssuedHere {
			switch missing, ok := ps.MissingHere[id]; {
			case ok:
				sb.WriteString(fmt.Sprintf("- %s: missing %s\n", id, strings.Join(missing, ", ")))
			case slices.Contains(ps.CollectedDocuments, id):
				sb.WriteString(fmt.Sprintf("- %s: already issued\n", id))
			default:
				sb.WriteString(fmt.Sprintf("- %s: all requirements met\n", id))
			}
		}
	}

	if len(ps.NextSteps) > 0 {
		sb.WriteString("NEXT PROCEDURES: " + strings.Join(ps.NextSteps, ", ") + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
