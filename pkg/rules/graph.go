package rules

import (
	"slices"
	"sort"
)

// View is the read-only part of a game state the resolver needs.
// This avoids an import cycle with the state package.
type View interface {
	HasEvidence(id string) bool
	HasDocument(id string) bool
}

// topologicalSort orders documents so that every prerequisite document comes
// before the documents requiring it (Kahn's algorithm). Ready documents are
// taken in lexical order, which makes the result deterministic.
func (c *Config) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(c.Documents))
	dependents := make(map[string][]string, len(c.Documents))

	for id, doc := range c.Documents {
		if _, ok := inDegree[id]; !ok {
			inDegree[id] = 0
		}
		for _, prereq := range doc.DocumentRequirements() {
			inDegree[id]++
			dependents[prereq] = append(dependents[prereq], id)
		}
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(c.Documents))
	for len(ready) > 0 {
		curr := ready[0]
		ready = ready[1:]
		order = append(order, curr)

		for _, dep := range dependents[curr] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
				sort.Strings(ready)
			}
		}
	}

	if len(order) != len(c.Documents) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, configErr("documents", "", ErrRequirementCycle, "involving %v", stuck)
	}
	return order, nil
}

// TopologicalOrder returns all document ids, prerequisites first.
func (c *Config) TopologicalOrder() []string {
	return slices.Clone(c.order)
}

func satisfied(r Requirement, view View) bool {
	if r.Kind == RequirementDocument {
		return view.HasDocument(r.ID)
	}
	return view.HasEvidence(r.ID)
}

// Satisfied reports whether every direct requirement of the document is met.
// A collected prerequisite document counts as met regardless of its own
// requirements.
func (c *Config) Satisfied(docID string, view View) bool {
	doc, ok := c.Documents[docID]
	if !ok {
		return false
	}
	for _, r := range doc.Requirements {
		if !satisfied(r, view) {
			return false
		}
	}
	return true
}

// Missing returns the unmet direct requirements of the document in
// declaration order. Unknown documents yield nil.
func (c *Config) Missing(docID string, view View) []Requirement {
	doc, ok := c.Documents[docID]
	if !ok {
		return nil
	}
	var missing []Requirement
	for _, r := range doc.Requirements {
		if !satisfied(r, view) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Obtainable returns the uncollected documents whose requirements are met.
// The result is a set; it is sorted only to keep output stable.
func (c *Config) Obtainable(view View) []string {
	var ids []string
	for _, id := range c.SortedDocumentIDs() {
		if !view.HasDocument(id) && c.Satisfied(id, view) {
			ids = append(ids, id)
		}
	}
	return ids
}

// MissingEvidence maps every uncollected document to the evidence ids it
// still needs. Prerequisite documents are not decomposed.
func (c *Config) MissingEvidence(view View) map[string][]string {
	result := make(map[string][]string)
	for id, doc := range c.Documents {
		if view.HasDocument(id) {
			continue
		}
		missing := []string{}
		for _, evID := range doc.EvidenceRequirements() {
			if !view.HasEvidence(evID) {
				missing = append(missing, evID)
			}
		}
		result[id] = missing
	}
	return result
}

// PrerequisiteClosure returns every document the given one transitively
// depends on, in topological order, ending with the document itself.
func (c *Config) PrerequisiteClosure(docID string) []string {
	if _, ok := c.Documents[docID]; !ok {
		return nil
	}

	needed := map[string]bool{}
	var visit func(id string)
	visit = func(id string) {
		if needed[id] {
			return
		}
		needed[id] = true
		for _, prereq := range c.Documents[id].DocumentRequirements() {
			visit(prereq)
		}
	}
	visit(docID)

	closure := make([]string, 0, len(needed))
	for _, id := range c.order {
		if needed[id] {
			closure = append(closure, id)
		}
	}
	return closure
}

// DocumentsRequiring returns the documents that directly require id, which
// may name an evidence or a document.
func (c *Config) DocumentsRequiring(id string) []string {
	var ids []string
	for _, docID := range c.SortedDocumentIDs() {
		for _, r := range c.Documents[docID].Requirements {
			if r.ID == id {
				ids = append(ids, docID)
				break
			}
		}
	}
	return ids
}
