package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// Load decodes and validates a game configuration.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads the configuration stored at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open game config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the built-in Schenkungssteuer game.
func LoadDefault() (*Config, error) {
	return Load(bytes.NewReader(defaultConfig))
}

// Open loads the configuration at path, or the built-in game when path is empty.
func Open(path string) (*Config, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}

// DefaultYAML returns the raw built-in configuration.
func DefaultYAML() []byte {
	return slices.Clone(defaultConfig)
}

// Encode writes the configuration back in its YAML schema.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode game config: %w", err)
	}
	return enc.Close()
}

// Validate resolves ids and checks the integrity of the configuration.
// It is called by Load and must be called on configs built in code.
func (c *Config) Validate() error {
	if c.Documents == nil {
		c.Documents = map[string]*Document{}
	}
	if c.Evidence == nil {
		c.Evidence = map[string]*Evidence{}
	}
	if c.Personas == nil {
		c.Personas = map[string]*Persona{}
	}
	if c.Procedures == nil {
		c.Procedures = map[string]*Procedure{}
	}

	steps := []func() error{
		c.validateEvidence,
		c.resolveDocuments,
		c.validatePersonas,
		c.validateGame,
		c.validateProcedures,
		c.validateLoops,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	order, err := c.topologicalSort()
	if err != nil {
		return err
	}
	c.order = order
	return nil
}

func (c *Config) validateEvidence() error {
	for _, id := range c.SortedEvidenceIDs() {
		ev := c.Evidence[id]
		if ev == nil {
			ev = &Evidence{}
			c.Evidence[id] = ev
		}
		ev.ID = id
		if _, clash := c.Documents[id]; clash {
			return configErr("evidence", id, ErrAmbiguousID, "")
		}

		forms := ev.AcceptableForms[:0]
		for _, form := range ev.AcceptableForms {
			if form = strings.TrimSpace(form); form != "" {
				forms = append(forms, form)
			}
		}
		ev.AcceptableForms = forms
		if len(forms) == 0 {
			return configErr("evidence", id, ErrNoAcceptableForms, "")
		}
	}
	return nil
}

func (c *Config) resolveDocuments() error {
	for _, id := range c.SortedDocumentIDs() {
		doc := c.Documents[id]
		if doc == nil {
			doc = &Document{}
			c.Documents[id] = doc
		}
		doc.ID = id
		doc.Requirements = doc.Requirements[:0]

		seen := make(map[string]bool, len(doc.RequirementIDs))
		for _, reqID := range doc.RequirementIDs {
			if seen[reqID] {
				continue
			}
			seen[reqID] = true

			switch {
			case c.Evidence[reqID] != nil:
				doc.Requirements = append(doc.Requirements, Requirement{Kind: RequirementEvidence, ID: reqID})
			case c.Documents[reqID] != nil:
				doc.Requirements = append(doc.Requirements, Requirement{Kind: RequirementDocument, ID: reqID})
			default:
				return configErr("document", id, ErrUnknownRequirement, "requires %q", reqID)
			}
		}
	}
	return nil
}

func (c *Config) validatePersonas() error {
	c.byDepartment = make(map[string]*Persona, len(c.Personas))
	for _, id := range c.SortedPersonaIDs() {
		p := c.Personas[id]
		if p == nil {
			p = &Persona{}
			c.Personas[id] = p
		}
		p.ID = id
		if p.Department == "" {
			return configErr("persona", id, ErrUnknownReference, "missing department")
		}
		if other, dup := c.byDepartment[p.Department]; dup {
			return configErr("persona", id, ErrDuplicateDepartment, "%s is already staffed by %s", p.Department, other.ID)
		}
		c.byDepartment[p.Department] = p
		c.PersonaDefaults.apply(p)

		for _, docID := range p.HandledDocuments {
			if c.Documents[docID] == nil {
				return configErr("persona", id, ErrUnknownReference, "handled document %q", docID)
			}
		}
		for _, evID := range p.RequiredEvidence {
			if c.Evidence[evID] == nil {
				return configErr("persona", id, ErrUnknownReference, "required evidence %q", evID)
			}
		}
	}

	for _, id := range c.SortedDocumentIDs() {
		if _, ok := c.byDepartment[c.Documents[id].Department]; !ok {
			return configErr("document", id, ErrUnstaffedDepartment, "department %q", c.Documents[id].Department)
		}
	}
	return nil
}

func (c *Config) validateGame() error {
	if c.Game.FinalDocument == "" || c.Documents[c.Game.FinalDocument] == nil {
		return configErr("game", c.Game.FinalDocument, ErrUnknownFinalDocument, "")
	}
	if c.Personas[c.Game.StartingAgent] == nil {
		return configErr("game", c.Game.StartingAgent, ErrUnknownPersona, "starting agent")
	}
	if c.Game.FrustrationThreshold < 0 {
		return configErr("game", "", ErrUnknownReference, "negative frustration threshold")
	}
	return nil
}

func (c *Config) validateProcedures() error {
	for _, id := range sortedKeys(c.Procedures) {
		proc := c.Procedures[id]
		if proc == nil {
			proc = &Procedure{}
			c.Procedures[id] = proc
		}
		proc.ID = id
		if proc.Department != AnyDepartment && !c.HasDepartment(proc.Department) {
			return configErr("procedure", id, ErrUnstaffedDepartment, "department %q", proc.Department)
		}
		for _, next := range proc.NextSteps {
			if c.Procedures[next] == nil {
				return configErr("procedure", id, ErrUnknownReference, "next step %q", next)
			}
		}
	}

	if start := c.Game.StartingProcedure; start != "" && c.Procedures[start] == nil {
		return configErr("game", start, ErrUnknownReference, "starting procedure")
	}

	for _, id := range c.SortedDocumentIDs() {
		if adv := c.Documents[id].AdvancesProcedure; adv != "" && c.Procedures[adv] == nil {
			return configErr("document", id, ErrUnknownReference, "advances procedure %q", adv)
		}
	}
	return nil
}

func (c *Config) validateLoops() error {
	for i, loop := range c.Loops {
		name := fmt.Sprintf("#%d", i)
		if c.Procedures[loop.Trigger] == nil {
			return configErr("loop", name, ErrUnknownReference, "trigger %q", loop.Trigger)
		}
		if loop.When.IsEmpty() {
			return configErr("loop", name, ErrEmptyCondition, "trigger %q", loop.Trigger)
		}
		if c.Procedures[loop.Redirect] == nil {
			return configErr("loop", name, ErrUnknownReference, "redirect %q", loop.Redirect)
		}
		for _, docID := range append(slices.Clone(loop.When.HasDocuments), loop.When.MissingDocuments...) {
			if c.Documents[docID] == nil {
				return configErr("loop", name, ErrUnknownReference, "document %q", docID)
			}
		}
	}
	return nil
}
