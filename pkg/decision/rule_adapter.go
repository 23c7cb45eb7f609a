package decision

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/derKlinke/buergeramt/pkg/textfilter"
)

var (
	greetingPhrases = []string{
		"hallo", "guten tag", "guten morgen", "guten abend", "gruess gott",
		"gruss gott", "moin", "servus", "tag", "hi", "hello",
	}
	// A request without a named document asks for the next document the
	// current official issues.
	requestPhrases = []string{
		"formular", "dokument", "bescheinigung", "antrag", "beantragen",
		"anmelden", "brauche", "benoetige", "moechte", "ausstellen",
	}
)

// RuleAdapter is a deterministic Adapter based on pattern matching. It
// never fails and needs no network access.
type RuleAdapter struct {
	cfg    *rules.Config
	filter *textfilter.ProfanityFilter
}

// NewRuleAdapter creates a rule based adapter for cfg.
func NewRuleAdapter(cfg *rules.Config) *RuleAdapter {
	return &RuleAdapter{
		cfg:    cfg,
		filter: textfilter.NewProfanityFilter(),
	}
}

// Decide classifies input by what it mentions. Precedence: invalid input,
// other departments, evidence forms, documents, request phrases, greetings.
func (a *RuleAdapter) Decide(_ context.Context, persona *rules.Persona, input string, snap state.Snapshot) (*Decision, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return &Decision{
			Intent:  IntentOther,
			Message: "Sie müssen schon etwas sagen, wenn Sie etwas wollen.",
		}, nil
	}
	if a.filter.ContainsProfanity(input) {
		return &Decision{
			Intent:  IntentOther,
			Message: "Ich muss Sie bitten, einen angemessenen Ton zu wahren. Beleidigungen werden hier nicht bearbeitet.",
		}, nil
	}

	d := &Decision{
		Valid:      true,
		Frustrated: textfilter.ExpressesFrustration(input),
	}

	if dept := a.mentionedDepartment(input, snap.CurrentDepartment); dept != "" {
		d.Intent = IntentSwitchDepartment
		d.Department = dept
		d.ResponseText = fmt.Sprintf("Dafür ist die Abteilung %s zuständig. Ich bin hier nicht befugt.", dept)
		return d, nil
	}

	if forms := a.mentionedEvidence(input); len(forms) > 0 {
		d.EvidenceForms = forms
		for _, id := range a.cfg.SortedEvidenceIDs() {
			if _, ok := forms[id]; ok {
				d.Evidence = append(d.Evidence, id)
			}
		}
	}

	d.Document = a.mentionedDocument(input, snap.CurrentDepartment)

	switch {
	case len(d.Evidence) > 0:
		d.Intent = IntentProvideEvidence
		d.ResponseText = "Ich nehme Ihre Unterlagen zur Kenntnis. Einen Moment, ich muss das prüfen."
	case d.Document != "":
		d.Intent = IntentRequestDocument
	case containsAny(input, requestPhrases):
		d.Document = a.nextDocumentFor(persona, snap)
		if d.Document == "" {
			d.Intent = IntentOther
			d.ResponseText = persona.Hint()
			return d, nil
		}
		d.Intent = IntentRequestDocument
	case containsAny(input, greetingPhrases):
		d.Intent = IntentGreeting
		d.ResponseText = persona.Introduce() + " Was kann ich für Sie tun?"
		return d, nil
	default:
		d.Intent = IntentOther
		d.ResponseText = a.smallTalk(persona, snap.Attempts)
		return d, nil
	}

	if d.Intent == IntentRequestDocument {
		met := snap.HasDocument(d.Document) || slices.Contains(snap.Obtainable, d.Document)
		d.RequirementsMet = &met
		if met {
			d.ResponseText = fmt.Sprintf("Ihr Antrag auf %s wird bearbeitet.", d.Document)
		} else {
			d.ResponseText = fmt.Sprintf("Für %s fehlen mir noch Unterlagen. So kann ich das nicht bearbeiten.", d.Document)
		}
	}
	return d, nil
}

// mentionedDepartment returns another department the input names, by
// department name or by persona name or alias.
func (a *RuleAdapter) mentionedDepartment(input, current string) string {
	for _, id := range a.cfg.SortedPersonaIDs() {
		p := a.cfg.Personas[id]
		if p.Department == current {
			continue
		}
		names := append([]string{p.Department, p.Name}, p.Aliases...)
		if containsAny(input, names) {
			return p.Department
		}
	}
	return ""
}

// mentionedEvidence maps each evidence to the form the input names. A form
// mentioned only as part of a longer form of another evidence does not count:
// "Gemeinsamer Mietvertrag" is no "Mietvertrag".
func (a *RuleAdapter) mentionedEvidence(input string) map[string]string {
	matched := make(map[string]string)
	for _, id := range a.cfg.SortedEvidenceIDs() {
		if form, ok := a.cfg.Evidence[id].MatchForm(input); ok {
			matched[id] = form
		}
	}

	folded := textfilter.Fold(input)
	forms := make(map[string]string, len(matched))
	for id, form := range matched {
		rest := folded
		for other, longer := range matched {
			if other != id && len(longer) > len(form) && textfilter.ContainsWord(longer, form) {
				rest = strings.ReplaceAll(rest, textfilter.Fold(longer), " ")
			}
		}
		if textfilter.ContainsWord(rest, form) {
			forms[id] = form
		}
	}
	return forms
}

// mentionedDocument returns the document named by id or form code. Documents
// of the current department win; otherwise the first in dependency order.
func (a *RuleAdapter) mentionedDocument(input, current string) string {
	var found []string
	for _, id := range a.cfg.TopologicalOrder() {
		doc := a.cfg.Documents[id]
		if textfilter.ContainsWord(input, id) || (doc.Code != "" && textfilter.ContainsWord(input, doc.Code)) {
			found = append(found, id)
		}
	}
	for _, id := range found {
		if a.cfg.Documents[id].Department == current {
			return id
		}
	}
	if len(found) > 0 {
		return found[0]
	}
	return ""
}

// nextDocumentFor picks the first document the persona issues that the
// player does not have yet.
func (a *RuleAdapter) nextDocumentFor(persona *rules.Persona, snap state.Snapshot) string {
	for _, id := range a.cfg.TopologicalOrder() {
		if persona.Handles(id) && !snap.HasDocument(id) {
			return id
		}
	}
	return ""
}

func (a *RuleAdapter) smallTalk(persona *rules.Persona, turn int) string {
	if len(persona.Examples) == 0 {
		return persona.Hint()
	}
	return persona.Examples[turn%len(persona.Examples)].Response
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if textfilter.ContainsWord(text, p) {
			return true
		}
	}
	return false
}
