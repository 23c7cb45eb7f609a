package rules

import (
	"slices"
	"sort"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/conditionals"
	"github.com/derKlinke/buergeramt/pkg/textfilter"
)

// AnyDepartment marks a procedure that may happen in every department.
const AnyDepartment = "any"

// DefaultFrustrationThreshold is the frustration level that must be exceeded
// for the chaos ending.
const DefaultFrustrationThreshold = 8

// RequirementKind distinguishes the two things a document can require.
type RequirementKind int

const (
	RequirementEvidence RequirementKind = iota + 1
	RequirementDocument
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementEvidence:
		return "evidence"
	case RequirementDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Requirement is a resolved requirement id. Resolution happens once at load.
type Requirement struct {
	Kind RequirementKind
	ID   string
}

func (r Requirement) String() string {
	return r.Kind.String() + ":" + r.ID
}

// Document is a bureaucratic artifact the player can acquire.
type Document struct {
	ID                string   `yaml:"-" json:"id"`
	Description       string   `yaml:"description" json:"description"`
	RequirementIDs    []string `yaml:"requirements" json:"requirements"`
	Department        string   `yaml:"department" json:"department"`
	Code              string   `yaml:"code,omitempty" json:"code,omitempty"`
	AdvancesProcedure string   `yaml:"advances_procedure,omitempty" json:"advances_procedure,omitempty"`

	Requirements []Requirement `yaml:"-" json:"-"`
}

// EvidenceRequirements returns the evidence ids the document requires.
func (d *Document) EvidenceRequirements() []string {
	return d.requirementsOfKind(RequirementEvidence)
}

// DocumentRequirements returns the prerequisite document ids.
func (d *Document) DocumentRequirements() []string {
	return d.requirementsOfKind(RequirementDocument)
}

func (d *Document) requirementsOfKind(kind RequirementKind) []string {
	var ids []string
	for _, r := range d.Requirements {
		if r.Kind == kind {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Evidence is a category of proof, accepted in a fixed set of forms.
type Evidence struct {
	ID              string   `yaml:"-" json:"id"`
	Description     string   `yaml:"description" json:"description"`
	AcceptableForms []string `yaml:"acceptable_forms" json:"acceptable_forms"`
}

// Accepts reports whether form is one of the acceptable forms.
func (e *Evidence) Accepts(form string) bool {
	return slices.Contains(e.AcceptableForms, form)
}

// MatchForm looks for an acceptable form mentioned in free text as whole
// words. Matching ignores case and diacritics; the longest mentioned form wins.
func (e *Evidence) MatchForm(text string) (string, bool) {
	best := ""
	for _, form := range e.AcceptableForms {
		if textfilter.ContainsWord(text, form) && len(form) > len(best) {
			best = form
		}
	}
	return best, best != ""
}

// PersonaExample is a sample exchange shown to the language model.
type PersonaExample struct {
	Query    string `yaml:"query" json:"query"`
	Response string `yaml:"response" json:"response"`
}

// Persona describes the official staffing one department.
type Persona struct {
	ID                   string                           `yaml:"-" json:"id"`
	Name                 string                           `yaml:"name" json:"name"`
	Role                 string                           `yaml:"role" json:"role"`
	Department           string                           `yaml:"department" json:"department"`
	Personality          []string                         `yaml:"personality" json:"personality"`
	BehavioralRules      []string                         `yaml:"behavioral_rules,omitempty" json:"behavioral_rules,omitempty"`
	HandledDocuments     []string                         `yaml:"handled_documents" json:"handled_documents"`
	RequiredEvidence     []string                         `yaml:"required_evidence" json:"required_evidence"`
	SystemPromptTemplate string                           `yaml:"system_prompt_template,omitempty" json:"system_prompt_template,omitempty"`
	Examples             []PersonaExample                 `yaml:"examples,omitempty" json:"examples,omitempty"`
	Aliases              []string                         `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Greeting             string                           `yaml:"greeting,omitempty" json:"greeting,omitempty"`
	FallbackResponses    []string                         `yaml:"fallback_responses,omitempty" json:"fallback_responses,omitempty"`
	FallbackHint         string                           `yaml:"fallback_hint,omitempty" json:"fallback_hint,omitempty"`
	StageGuidance        []conditionals.ContingencyPrompt `yaml:"stage_guidance,omitempty" json:"stage_guidance,omitempty"`
}

// Introduce returns the persona's self introduction.
func (p *Persona) Introduce() string {
	if p.Greeting != "" {
		return p.Greeting
	}
	return "Mein Name ist " + p.Name + ", " + p.Role + " der Abteilung " + p.Department + "."
}

// Fallback returns the canned response used when no decision could be made.
// The turn number rotates through the configured responses.
func (p *Persona) Fallback(turn int) string {
	if len(p.FallbackResponses) == 0 {
		return "Es tut mir leid, das System ist momentan nicht verfügbar."
	}
	if turn < 0 {
		turn = -turn
	}
	return p.FallbackResponses[turn%len(p.FallbackResponses)]
}

// Hint returns the persona's fallback hint.
func (p *Persona) Hint() string {
	if p.FallbackHint == "" {
		return "Vielleicht sollten Sie einen anderen Beamten aufsuchen."
	}
	return p.FallbackHint
}

// Handles reports whether the persona issues the document.
func (p *Persona) Handles(documentID string) bool {
	return slices.Contains(p.HandledDocuments, documentID)
}

// PersonaDefaults are merged into every persona at load.
type PersonaDefaults struct {
	BehavioralRules      []string `yaml:"behavioral_rules,omitempty" json:"behavioral_rules,omitempty"`
	SystemPromptTemplate string   `yaml:"system_prompt_template,omitempty" json:"system_prompt_template,omitempty"`
}

func (d PersonaDefaults) apply(p *Persona) {
	merged := make([]string, 0, len(d.BehavioralRules)+len(p.BehavioralRules))
	for _, rule := range append(slices.Clone(d.BehavioralRules), p.BehavioralRules...) {
		if !slices.Contains(merged, rule) {
			merged = append(merged, rule)
		}
	}
	p.BehavioralRules = merged
	if strings.TrimSpace(p.SystemPromptTemplate) == "" {
		p.SystemPromptTemplate = d.SystemPromptTemplate
	}
}

// Procedure is a stage of the bureaucratic process.
type Procedure struct {
	ID            string   `yaml:"-" json:"id"`
	Description   string   `yaml:"description" json:"description"`
	Keywords      []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	NextSteps     []string `yaml:"next_steps,omitempty" json:"next_steps,omitempty"`
	Department    string   `yaml:"department" json:"department"`
	ProgressBonus int      `yaml:"progress_bonus,omitempty" json:"progress_bonus,omitempty"`
}

// AllowsDepartment reports whether the procedure happens in dept.
func (p *Procedure) AllowsDepartment(dept string) bool {
	return p.Department == AnyDepartment || p.Department == dept
}

// Loop sends the player back to an earlier procedure.
type Loop struct {
	Trigger     string            `yaml:"trigger" json:"trigger"`
	When        conditionals.When `yaml:"when" json:"when"`
	Redirect    string            `yaml:"redirect" json:"redirect"`
	Message     string            `yaml:"message" json:"message"`
	Frustration int               `yaml:"frustration,omitempty" json:"frustration,omitempty"`
}

// GameSettings holds the scalar settings of a game.
type GameSettings struct {
	StartingAgent        string         `yaml:"starting_agent" json:"starting_agent"`
	FinalDocument        string         `yaml:"final_document" json:"final_document"`
	StartingProcedure    string         `yaml:"starting_procedure,omitempty" json:"starting_procedure,omitempty"`
	FrustrationThreshold int            `yaml:"frustration_threshold,omitempty" json:"frustration_threshold,omitempty"`
	Intro                string         `yaml:"intro,omitempty" json:"intro,omitempty"`
	Interruptions        []Interruption `yaml:"interruptions,omitempty" json:"interruptions,omitempty"`
}

// Interruption is a random bureaucratic event: something the official says
// and what the player observes.
type Interruption struct {
	Speech    string `yaml:"speech" json:"speech"`
	Narration string `yaml:"narration" json:"narration"`
}

// Config is the complete rule set of a game. It is read-only after Load.
type Config struct {
	Game            GameSettings          `yaml:"game" json:"game"`
	PersonaDefaults PersonaDefaults       `yaml:"persona_defaults,omitempty" json:"persona_defaults,omitempty"`
	Documents       map[string]*Document  `yaml:"documents" json:"documents"`
	Evidence        map[string]*Evidence  `yaml:"evidence" json:"evidence"`
	Personas        map[string]*Persona   `yaml:"personas" json:"personas"`
	Procedures      map[string]*Procedure `yaml:"procedures,omitempty" json:"procedures,omitempty"`
	Loops           []Loop                `yaml:"loops,omitempty" json:"loops,omitempty"`

	order        []string
	byDepartment map[string]*Persona
}

// Document returns the document with the given id.
func (c *Config) Document(id string) (*Document, bool) {
	d, ok := c.Documents[id]
	return d, ok
}

// EvidenceByID returns the evidence with the given id.
func (c *Config) EvidenceByID(id string) (*Evidence, bool) {
	e, ok := c.Evidence[id]
	return e, ok
}

// Procedure returns the procedure with the given id.
func (c *Config) Procedure(id string) (*Procedure, bool) {
	p, ok := c.Procedures[id]
	return p, ok
}

// PersonaForDepartment returns the persona staffing dept.
func (c *Config) PersonaForDepartment(dept string) (*Persona, bool) {
	p, ok := c.byDepartment[dept]
	return p, ok
}

// Departments returns all staffed departments, sorted.
func (c *Config) Departments() []string {
	depts := make([]string, 0, len(c.byDepartment))
	for d := range c.byDepartment {
		depts = append(depts, d)
	}
	sort.Strings(depts)
	return depts
}

// HasDepartment reports whether a persona staffs dept.
func (c *Config) HasDepartment(dept string) bool {
	_, ok := c.byDepartment[dept]
	return ok
}

// DocumentsForDepartment returns the ids of documents issued by dept, sorted.
func (c *Config) DocumentsForDepartment(dept string) []string {
	var ids []string
	for _, id := range c.order {
		if c.Documents[id].Department == dept {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// StartingPersona returns the persona the player meets first.
func (c *Config) StartingPersona() *Persona {
	return c.Personas[c.Game.StartingAgent]
}

// StartingDepartment returns the department of the starting persona.
func (c *Config) StartingDepartment() string {
	return c.StartingPersona().Department
}

// FinalDepartment returns the department issuing the final document.
func (c *Config) FinalDepartment() string {
	return c.Documents[c.Game.FinalDocument].Department
}

// FrustrationThreshold returns the chaos-ending threshold.
func (c *Config) FrustrationThreshold() int {
	if c.Game.FrustrationThreshold <= 0 {
		return DefaultFrustrationThreshold
	}
	return c.Game.FrustrationThreshold
}

// SortedDocumentIDs returns all document ids in lexical order.
func (c *Config) SortedDocumentIDs() []string {
	return sortedKeys(c.Documents)
}

// SortedEvidenceIDs returns all evidence ids in lexical order.
func (c *Config) SortedEvidenceIDs() []string {
	return sortedKeys(c.Evidence)
}

// SortedPersonaIDs returns all persona ids in lexical order.
func (c *Config) SortedPersonaIDs() []string {
	return sortedKeys(c.Personas)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
