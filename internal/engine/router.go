package engine

import (
	"cmp"
	"slices"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/derKlinke/buergeramt/pkg/textfilter"
)

// Router maps what players call an official to a department and moves the
// player between departments.
type Router struct {
	cfg   *rules.Config
	gs    *state.GameState
	names map[string]string
	keys  []string
}

// NewRouter indexes persona ids, names, aliases and departments by their
// folded form, so "mueller" and "Müller" resolve alike.
func NewRouter(gs *state.GameState) *Router {
	r := &Router{
		cfg:   gs.Config(),
		gs:    gs,
		names: make(map[string]string),
	}
	for _, id := range r.cfg.SortedPersonaIDs() {
		p := r.cfg.Personas[id]
		for _, name := range append([]string{id, p.Name, p.Department}, p.Aliases...) {
			key := textfilter.Fold(name)
			if key == "" {
				continue
			}
			if _, taken := r.names[key]; !taken {
				r.names[key] = p.Department
				r.keys = append(r.keys, key)
			}
		}
	}
	// Longest names first, so "frau mueller" wins over "mueller".
	slices.SortStableFunc(r.keys, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return r
}

// Active returns the persona of the current department.
func (r *Router) Active() *rules.Persona {
	p, _ := r.cfg.PersonaForDepartment(r.gs.GetCurrentDepartment())
	return p
}

// Resolve finds the department meant by name. An exact match wins; otherwise
// the longest known name mentioned in the text is used.
func (r *Router) Resolve(name string) (string, bool) {
	folded := textfilter.Fold(name)
	if folded == "" {
		return "", false
	}
	if dept, ok := r.names[folded]; ok {
		return dept, true
	}
	for _, key := range r.keys {
		if textfilter.ContainsWord(folded, key) {
			return r.names[key], true
		}
	}
	return "", false
}

// Switch moves the player to the department meant by name. It returns false
// if the name matches nothing.
func (r *Router) Switch(name string) ([]Line, bool) {
	dept, ok := r.Resolve(name)
	if !ok {
		return nil, false
	}
	return r.Transfer(dept), true
}

// Transfer moves the player to dept and lets the new official introduce
// themselves.
func (r *Router) Transfer(dept string) []Line {
	if dept == r.gs.GetCurrentDepartment() {
		return []Line{{Style: StyleItalic, Text: "Sie sind bereits in dieser Abteilung."}}
	}

	from := r.Active()
	if !r.gs.SwitchDepartment(dept) {
		return nil
	}
	to := r.Active()

	lines := []Line{
		{Style: StyleItalic, Text: "Sie verlassen das Büro von " + from.Name + "..."},
		{Style: StyleItalic, Text: "Sie gehen zum Büro der Abteilung " + dept + "..."},
		{Style: StyleBureaucrat, Speaker: to.Name, Text: to.Introduce()},
	}
	if docs := r.gs.CollectedDocumentIDs(); len(docs) > 0 {
		lines = append(lines, Line{
			Style:   StyleBureaucrat,
			Speaker: to.Name,
			Text:    "Ich sehe, Sie haben bereits folgende Dokumente: " + strings.Join(docs, ", ") + ".",
		})
	} else {
		lines = append(lines, Line{Style: StyleBureaucrat, Speaker: to.Name, Text: "Was kann ich für Sie tun?"})
	}
	return lines
}

// Names returns the display names of all officials, ordered by persona id.
func (r *Router) Names() []string {
	ids := r.cfg.SortedPersonaIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.cfg.Personas[id].Name
	}
	return names
}
