// Package decision defines the structured result an agent produces for one
// player turn, and the adapters that produce it.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
)

// ErrMalformedDecision is returned when agent output cannot be read as a
// decision.
var ErrMalformedDecision = errors.New("malformed decision")

// Intent classifies what the player tried to do.
type Intent string

const (
	IntentRequestDocument  Intent = "request_document"
	IntentProvideEvidence  Intent = "provide_evidence"
	IntentSwitchDepartment Intent = "switch_department"
	IntentGreeting         Intent = "greeting"
	IntentOther            Intent = "other"
)

// ParseIntent normalizes s; unknown values become IntentOther.
func ParseIntent(s string) Intent {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case IntentRequestDocument, IntentProvideEvidence, IntentSwitchDepartment, IntentGreeting:
		return i
	default:
		return IntentOther
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Intent) UnmarshalText(text []byte) error {
	*i = ParseIntent(string(text))
	return nil
}

// Decision is the agent's reading of one player input.
type Decision struct {
	ResponseText    string            `json:"response_text"`
	Intent          Intent            `json:"intent"`
	Document        string            `json:"document,omitempty"`
	RequirementsMet *bool             `json:"requirements_met,omitempty"`
	Evidence        []string          `json:"evidence,omitempty"`
	EvidenceForms   map[string]string `json:"evidence_forms,omitempty"`
	Department      string            `json:"department,omitempty"`
	Valid           bool              `json:"valid"`
	Message         string            `json:"message,omitempty"`
	Frustrated      bool              `json:"frustrated,omitempty"`
}

// Form returns the form the agent named for an evidence, if any.
func (d *Decision) Form(evidenceID string) string {
	return d.EvidenceForms[evidenceID]
}

// Adapter turns player text into a decision. Implementations must not
// mutate game state; the snapshot is a copy.
type Adapter interface {
	Decide(ctx context.Context, persona *rules.Persona, input string, snap state.Snapshot) (*Decision, error)
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, persona *rules.Persona, input string, snap state.Snapshot) (*Decision, error)

func (f AdapterFunc) Decide(ctx context.Context, persona *rules.Persona, input string, snap state.Snapshot) (*Decision, error) {
	return f(ctx, persona, input, snap)
}

// wireDecision mirrors Decision but keeps track of an omitted "valid" field.
type wireDecision struct {
	ResponseText    string            `json:"response_text"`
	Intent          Intent            `json:"intent"`
	Document        string            `json:"document"`
	RequirementsMet *bool             `json:"requirements_met"`
	Evidence        []string          `json:"evidence"`
	EvidenceForms   map[string]string `json:"evidence_forms"`
	Department      string            `json:"department"`
	Valid           *bool             `json:"valid"`
	Message         string            `json:"message"`
	Frustrated      bool              `json:"frustrated"`
}

// Parse reads a decision from model output. Markdown code fences and text
// around the JSON object are ignored. A missing "valid" field counts as
// valid; a missing intent as IntentOther.
func Parse(raw string) (*Decision, error) {
	body := extractObject(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrMalformedDecision, truncate(raw, 80))
	}

	var w wireDecision
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	d := &Decision{
		ResponseText:    strings.TrimSpace(w.ResponseText),
		Intent:          w.Intent,
		Document:        strings.TrimSpace(w.Document),
		RequirementsMet: w.RequirementsMet,
		EvidenceForms:   w.EvidenceForms,
		Department:      strings.TrimSpace(w.Department),
		Valid:           w.Valid == nil || *w.Valid,
		Message:         strings.TrimSpace(w.Message),
		Frustrated:      w.Frustrated,
	}
	if d.Intent == "" {
		d.Intent = IntentOther
	}
	for _, id := range w.Evidence {
		if id = strings.TrimSpace(id); id != "" {
			d.Evidence = append(d.Evidence, id)
		}
	}
	if d.ResponseText == "" && d.Valid {
		return nil, fmt.Errorf("%w: empty response_text", ErrMalformedDecision)
	}
	return d, nil
}

func extractObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Schema describes the expected JSON output for language models.
func Schema() string {
	return `{
  "response_text": string,        // what you say to the player, in character
  "intent": "request_document" | "provide_evidence" | "switch_department" | "greeting" | "other",
  "document": string,             // document id, for request_document
  "requirements_met": boolean,    // your judgement whether the document's requirements are met
  "evidence": [string],           // evidence ids the player provided
  "evidence_forms": {string: string}, // evidence id -> exact acceptable form the player named
  "department": string,           // target department, for switch_department
  "valid": boolean,               // false if the input is abusive or nonsensical
  "message": string,              // shown to the player when valid is false
  "frustrated": boolean           // true if the player expresses frustration
}`
}
