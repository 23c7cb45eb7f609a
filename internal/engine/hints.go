package engine

import (
	"fmt"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
)

// Hints derives the next sensible step from the requirement graph.
type Hints struct {
	cfg *rules.Config
}

func NewHints(cfg *rules.Config) *Hints {
	return &Hints{cfg: cfg}
}

// NextStep looks at the prerequisites of the final document that could be
// worked on now and points at one of them: which department to visit, which
// evidence to submit, or which document to ask for.
func (h *Hints) NextStep(gs *state.GameState) []string {
	final := h.cfg.Game.FinalDocument
	if gs.HasDocument(final) {
		dept := h.cfg.FinalDepartment()
		if gs.GetCurrentDepartment() != dept {
			return []string{h.visit(dept)}
		}
		return []string{"Schließen Sie den Vorgang ab: 'Ich möchte den Vorgang abschließen'"}
	}

	id := h.nextDocument(gs)
	if id == "" {
		return nil
	}
	doc := h.cfg.Documents[id]
	if gs.GetCurrentDepartment() != doc.Department {
		return []string{fmt.Sprintf("Als nächstes benötigen Sie das Dokument '%s'.", id), h.visit(doc.Department)}
	}

	var hints []string
	for _, evID := range missingEvidence(gs, id) {
		hints = append(hints, h.submit(evID))
	}
	if len(hints) > 0 {
		return hints
	}
	return []string{fmt.Sprintf("Fragen Sie nach dem Dokument '%s': 'Ich möchte %s beantragen'", id, id)}
}

// nextDocument picks among the uncollected prerequisites whose prerequisite
// documents are all collected. One issued by the current department wins;
// otherwise the one missing the least evidence, ties in dependency order.
func (h *Hints) nextDocument(gs *state.GameState) string {
	best, bestMissing := "", 0
	for _, id := range h.cfg.PrerequisiteClosure(h.cfg.Game.FinalDocument) {
		if gs.HasDocument(id) || !h.documentsCollected(gs, id) {
			continue
		}
		if h.cfg.Documents[id].Department == gs.GetCurrentDepartment() {
			return id
		}
		if n := len(missingEvidence(gs, id)); best == "" || n < bestMissing {
			best, bestMissing = id, n
		}
	}
	return best
}

func (h *Hints) documentsCollected(gs *state.GameState, id string) bool {
	for _, r := range gs.Missing(id) {
		if r.Kind == rules.RequirementDocument {
			return false
		}
	}
	return true
}

func missingEvidence(gs *state.GameState, id string) []string {
	var ids []string
	for _, r := range gs.Missing(id) {
		if r.Kind == rules.RequirementEvidence {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (h *Hints) visit(dept string) string {
	p, ok := h.cfg.PersonaForDepartment(dept)
	if !ok {
		return fmt.Sprintf("Gehen Sie zur Abteilung %s.", dept)
	}
	return fmt.Sprintf("Gehen Sie zur Abteilung %s: 'Ich möchte zu %s'", dept, p.Name)
}

func (h *Hints) submit(evidenceID string) string {
	ev, ok := h.cfg.EvidenceByID(evidenceID)
	if !ok || len(ev.AcceptableForms) == 0 {
		return fmt.Sprintf("Reichen Sie einen Nachweis für '%s' ein.", evidenceID)
	}
	return fmt.Sprintf("Reichen Sie einen Nachweis für '%s' ein (z.B. %s).", evidenceID, ev.AcceptableForms[0])
}
