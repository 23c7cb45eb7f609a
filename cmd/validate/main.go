package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <game.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ConfigValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println("warning:" + strings.TrimPrefix(w, "  -"))
	}
	fmt.Println("Game configuration is valid!")
}

type ConfigValidator struct {
	errors   []string
	warnings []string
}

func (v *ConfigValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	ext := filepath.Ext(filename)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("game configuration must have .yaml or .yml extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.validate(filename, data)
}

func (v *ConfigValidator) validate(filename string, data []byte) error {
	v.errors = nil
	v.warnings = nil

	var cfg rules.Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return fmt.Errorf("file %s failed strict YAML unmarshaling: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.validateConfig(&cfg)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *ConfigValidator) validateConfig(cfg *rules.Config) {
	for _, id := range cfg.SortedEvidenceIDs() {
		v.validateIDFormat("evidence ID", id)
	}

	for _, id := range cfg.SortedPersonaIDs() {
		v.validateIDFormat("persona ID", id)
		v.validatePersona(cfg.Personas[id])
	}

	codes := make(map[string]string)
	for _, id := range cfg.SortedDocumentIDs() {
		doc := cfg.Documents[id]
		if doc.Code == "" {
			continue
		}
		if other, dup := codes[doc.Code]; dup {
			v.addError(fmt.Sprintf("document '%s' uses code '%s' already used by '%s'", id, doc.Code, other))
		}
		codes[doc.Code] = id
	}

	for i, loop := range cfg.Loops {
		v.validateTemplate(fmt.Sprintf("loop #%d message", i), loop.Message)
	}

	v.checkReachability(cfg)
}

func (v *ConfigValidator) validatePersona(p *rules.Persona) {
	if p.Name == "" {
		v.addError(fmt.Sprintf("persona '%s' has no name", p.ID))
	}
	if len(p.HandledDocuments) == 0 {
		v.addWarning(fmt.Sprintf("persona '%s' issues no documents", p.ID))
	}
	v.validateTemplate(fmt.Sprintf("persona '%s' system prompt template", p.ID), p.SystemPromptTemplate)

	for i, cp := range p.StageGuidance {
		if cp.When != nil && cp.When.IsEmpty() {
			v.addError(fmt.Sprintf("persona '%s' stage guidance #%d has empty 'when' clause - no conditions specified (%s)", p.ID, i, cp.Prompt))
		}
	}
}

// checkReachability warns about documents and evidence the player never
// needs on the way to the final document.
func (v *ConfigValidator) checkReachability(cfg *rules.Config) {
	final := cfg.Game.FinalDocument
	needed := cfg.PrerequisiteClosure(final)

	usedEvidence := make(map[string]bool)
	for _, id := range needed {
		for _, ev := range cfg.Documents[id].EvidenceRequirements() {
			usedEvidence[ev] = true
		}
	}

	for _, id := range cfg.SortedDocumentIDs() {
		if !slices.Contains(needed, id) {
			v.addWarning(fmt.Sprintf("document '%s' is not needed for the final document '%s'", id, final))
		}
	}
	for _, id := range cfg.SortedEvidenceIDs() {
		if !usedEvidence[id] {
			v.addWarning(fmt.Sprintf("evidence '%s' is not required on the way to '%s'", id, final))
		}
	}
}

func (v *ConfigValidator) validateTemplate(fieldName, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if _, err := template.New(fieldName).Parse(text); err != nil {
		v.addError(fmt.Sprintf("%s does not parse: %v", fieldName, err))
	}
}

func (v *ConfigValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ConfigValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *ConfigValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
