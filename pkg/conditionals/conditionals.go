package conditionals

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ContingencyPrompt can be either a simple string (always shown) or a conditional prompt
type ContingencyPrompt struct {
	Prompt string `json:"prompt" yaml:"prompt"`                 // The prompt text
	When   *When  `json:"when,omitempty" yaml:"when,omitempty"` // Optional conditions - if nil, always show
}

// UnmarshalJSON supports both the string and the object form.
func (cp *ContingencyPrompt) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		cp.Prompt = str
		cp.When = nil
		return nil
	}

	type Alias ContingencyPrompt
	aux := &struct{ *Alias }{Alias: (*Alias)(cp)}
	return json.Unmarshal(data, aux)
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (cp *ContingencyPrompt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		cp.Prompt = node.Value
		cp.When = nil
		return nil
	}

	type Alias ContingencyPrompt
	var aux Alias
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*cp = ContingencyPrompt(aux)
	return nil
}

// MarshalYAML writes unconditional prompts back as plain strings.
func (cp ContingencyPrompt) MarshalYAML() (interface{}, error) {
	if cp.When == nil {
		return cp.Prompt, nil
	}
	type Alias ContingencyPrompt
	return Alias(cp), nil
}

// When defines the conditions that must be met for a conditional to trigger.
// Every specified clause must hold.
type When struct {
	Procedure        string   `json:"procedure,omitempty" yaml:"procedure,omitempty"`               // Current procedure must match
	Department       string   `json:"department,omitempty" yaml:"department,omitempty"`             // Player must be in this department
	WrongDepartment  bool     `json:"wrong_department,omitempty" yaml:"wrong_department,omitempty"` // Player is outside the procedure's department
	HasDocuments     []string `json:"has_documents,omitempty" yaml:"has_documents,omitempty"`
	MissingDocuments []string `json:"missing_documents,omitempty" yaml:"missing_documents,omitempty"`
	MaxEvidence      *int     `json:"max_evidence,omitempty" yaml:"max_evidence,omitempty"`       // Evidence count <= this value
	MaxDocuments     *int     `json:"max_documents,omitempty" yaml:"max_documents,omitempty"`     // Document count <= this value
	AttemptsEvery    *int     `json:"attempts_every,omitempty" yaml:"attempts_every,omitempty"`   // Attempts is a multiple of this value
	MinAttempts      *int     `json:"min_attempts,omitempty" yaml:"min_attempts,omitempty"`       // Attempts >= this value
	MinFrustration   *int     `json:"min_frustration,omitempty" yaml:"min_frustration,omitempty"` // Frustration >= this value
}

// IsEmpty reports whether no clause is set.
func (w When) IsEmpty() bool {
	return w.Procedure == "" &&
		w.Department == "" &&
		!w.WrongDepartment &&
		len(w.HasDocuments) == 0 &&
		len(w.MissingDocuments) == 0 &&
		w.MaxEvidence == nil &&
		w.MaxDocuments == nil &&
		w.AttemptsEvery == nil &&
		w.MinAttempts == nil &&
		w.MinFrustration == nil
}

// GameStateView provides the minimal interface needed to evaluate conditionals
// This avoids import cycles with the state package
type GameStateView interface {
	GetCurrentProcedure() string
	GetCurrentDepartment() string
	InProcedureDepartment() bool
	HasDocument(id string) bool
	GetDocumentCount() int
	GetEvidenceCount() int
	GetAttempts() int
	GetFrustrationLevel() int
}

// FilterContingencyPrompts returns only the prompts whose conditions are met
// Prompts without conditions (When == nil) are always included
func FilterContingencyPrompts(prompts []ContingencyPrompt, gsView GameStateView) []string {
	var active []string
	for _, cp := range prompts {
		if cp.When == nil || EvaluateWhen(*cp.When, gsView) {
			active = append(active, cp.Prompt)
		}
	}
	return active
}

// EvaluateWhen checks if all conditions in a When clause are met
func EvaluateWhen(when When, gsView GameStateView) bool {
	// An empty clause never triggers
	if when.IsEmpty() {
		return false
	}

	if when.Procedure != "" && gsView.GetCurrentProcedure() != when.Procedure {
		return false
	}

	if when.Department != "" && gsView.GetCurrentDepartment() != when.Department {
		return false
	}

	if when.WrongDepartment && gsView.InProcedureDepartment() {
		return false
	}

	for _, id := range when.HasDocuments {
		if !gsView.HasDocument(id) {
			return false
		}
	}

	for _, id := range when.MissingDocuments {
		if gsView.HasDocument(id) {
			return false
		}
	}

	if when.MaxEvidence != nil && gsView.GetEvidenceCount() > *when.MaxEvidence {
		return false
	}

	if when.MaxDocuments != nil && gsView.GetDocumentCount() > *when.MaxDocuments {
		return false
	}

	if when.AttemptsEvery != nil {
		every := *when.AttemptsEvery
		attempts := gsView.GetAttempts()
		if every <= 0 || attempts == 0 || attempts%every != 0 {
			return false
		}
	}

	if when.MinAttempts != nil && gsView.GetAttempts() < *when.MinAttempts {
		return false
	}

	if when.MinFrustration != nil && gsView.GetFrustrationLevel() < *when.MinFrustration {
		return false
	}

	return true
}
