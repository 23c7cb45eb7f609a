package engine

import (
	"fmt"
	"strings"
)

// ProgressBarWidth is the number of cells of the status progress bar.
const ProgressBarWidth = 20

func (g *Game) registerCommands() {
	g.commands.Register("hilfe", []string{"help"}, g.cmdHelp,
		"Zeigt Spielhilfe und Ihren aktuellen Stand", false, nil)
	g.commands.Register("status", nil, g.cmdStatus,
		"Zeigt Dokumente, Nachweise, Fortschritt und Frustration", false, nil)
	g.commands.Register("hinweis", []string{"hint"}, g.cmdHint,
		"Schlägt den nächsten sinnvollen Schritt vor", false, nil)
	g.commands.Register("gehe_zu", []string{"goto"}, g.cmdGoto,
		"Wechselt zu einem Beamten oder einer Abteilung", true, g.router.Names)
	g.commands.Register("beenden", []string{"quit", "exit"}, g.cmdQuit,
		"Verlässt das Spiel", false, nil)
}

func (g *Game) runCommand(name, arg string) *Turn {
	cmd, ok := g.commands.Get(name)
	if !ok {
		t := &Turn{}
		t.add(StyleFailure, "Unbekannter Befehl: "+CommandPrefix+name)
		if suggestions := g.commands.Suggest(name); len(suggestions) > 0 {
			t.add(StyleHint, "Meinten Sie: "+strings.Join(suggestions, ", ")+"?")
		}
		t.add(StyleHint, "Tippen Sie /hilfe für eine Übersicht.")
		return t
	}
	if cmd.TakesArgument && arg == "" {
		t := &Turn{}
		t.add(StyleFailure, fmt.Sprintf("Der Befehl %s%s braucht ein Argument.", CommandPrefix, cmd.Name))
		if options := g.commands.ArgumentSuggestions(cmd.Name); len(options) > 0 {
			t.add(StyleHint, "Möglich sind: "+strings.Join(options, ", "))
		}
		return t
	}
	t := cmd.Handler(arg)
	t.Won = g.won
	if g.won {
		t.Outcome = g.gs.Outcome()
	}
	return t
}

func (g *Game) cmdHelp(string) *Turn {
	t := &Turn{}
	t.add(StyleTitle, "=== HILFE ZUM SPIEL ===")
	t.add(StyleNormal, "In diesem Spiel versuchen Sie, eine Schenkungssteuer anzumelden. Dafür müssen Sie:")
	t.add(StyleHint, "1. Dokumente sammeln ("+strings.Join(g.cfg.TopologicalOrder(), ", ")+")")
	t.add(StyleHint, "2. Nachweise einreichen (Personalausweis, Notarielle Urkunde, etc.)")
	t.add(StyleHint, "3. Zwischen verschiedenen Abteilungen wechseln")
	t.add(StyleHint, "4. Mit den Beamten interagieren")

	t.add(StyleNormal, "Befehle:")
	for _, cmd := range g.commands.All() {
		usage := CommandPrefix + cmd.Name
		if cmd.TakesArgument {
			usage += " <Name>"
		}
		if len(cmd.Aliases) > 0 {
			usage += " (" + CommandPrefix + strings.Join(cmd.Aliases, ", "+CommandPrefix) + ")"
		}
		t.add(StyleInfo, "• "+usage+": "+cmd.Description)
	}

	persona := g.router.Active()
	t.add(StyleNormal, "Aktuelle Informationen:")
	t.add(StyleInfo, "• Sie sind derzeit in der Abteilung: "+g.gs.GetCurrentDepartment())
	t.add(StyleInfo, "• Ihr aktueller Beamter ist: "+persona.Name)
	if docs := g.gs.CollectedDocumentIDs(); len(docs) > 0 {
		t.add(StyleInfo, "• Gesammelte Dokumente: "+strings.Join(docs, ", "))
	} else {
		t.add(StyleInfo, "• Sie haben noch keine Dokumente gesammelt")
	}
	if ev := g.gs.ProvidedEvidenceIDs(); len(ev) > 0 {
		t.add(StyleInfo, "• Eingereichte Nachweise: "+strings.Join(ev, ", "))
	} else {
		t.add(StyleInfo, "• Sie haben noch keine Nachweise eingereicht")
	}

	t.add(StyleNormal, "Vorschlag für den nächsten Schritt:")
	for _, hint := range g.hints.NextStep(g.gs) {
		t.add(StyleHint, hint)
	}
	return t
}

func (g *Game) cmdStatus(string) *Turn {
	progress := g.gs.UpdateProgress()
	persona := g.router.Active()

	t := &Turn{}
	t.add(StyleTitle, "=== STATUS ===")
	t.add(StyleInfo, fmt.Sprintf("Abteilung: %s (%s)", g.gs.GetCurrentDepartment(), persona.Name))
	if proc := g.gs.GetCurrentProcedure(); proc != "" {
		t.add(StyleInfo, "Vorgang: "+proc)
	}
	t.add(StyleInfo, fmt.Sprintf("Fortschritt: %s %d%%", ProgressBar(progress, ProgressBarWidth), progress))
	t.add(StyleInfo, fmt.Sprintf("Frustration: %d", g.gs.GetFrustrationLevel()))
	t.add(StyleInfo, fmt.Sprintf("Versuche: %d", g.gs.GetAttempts()))

	if docs := g.gs.CollectedDocumentIDs(); len(docs) > 0 {
		t.add(StyleInfo, "Dokumente: "+strings.Join(docs, ", "))
	} else {
		t.add(StyleInfo, "Dokumente: keine")
	}
	ids := g.gs.ProvidedEvidenceIDs()
	if len(ids) == 0 {
		t.add(StyleInfo, "Nachweise: keine")
		return t
	}
	evidence := make([]string, len(ids))
	for i, id := range ids {
		form, _ := g.gs.EvidenceForm(id)
		evidence[i] = fmt.Sprintf("%s (%s)", id, form)
	}
	t.add(StyleInfo, "Nachweise: "+strings.Join(evidence, ", "))
	return t
}

func (g *Game) cmdHint(string) *Turn {
	t := &Turn{}
	hints := g.hints.NextStep(g.gs)
	if len(hints) == 0 {
		t.add(StyleHint, "Sie haben bereits alles, was Sie brauchen.")
		return t
	}
	for _, hint := range hints {
		t.add(StyleHint, hint)
	}
	return t
}

func (g *Game) cmdGoto(arg string) *Turn {
	t := &Turn{}
	lines, ok := g.router.Switch(arg)
	if !ok {
		t.add(StyleFailure, "Unbekannte Abteilung oder Person: "+arg)
		t.add(StyleHint, "Möglich sind: "+strings.Join(g.router.Names(), ", "))
		return t
	}
	t.append(lines...)
	g.logger.Info("department switched", "department", g.gs.GetCurrentDepartment())
	return t
}

func (g *Game) cmdQuit(string) *Turn {
	t := &Turn{Quit: true}
	t.add(StyleInfo, "Sie verlassen das Finanzamt. Auf Wiedersehen!")
	g.logger.Info("game quit",
		"attempts", g.gs.GetAttempts(),
		"documents", g.gs.GetDocumentCount(),
		"won", g.won)
	return t
}

// ProgressBar renders percent as a bar of width cells.
func ProgressBar(percent, width int) string {
	percent = min(100, max(0, percent))
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
