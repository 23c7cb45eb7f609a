package engine

import (
	"testing"

	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHints_NextStep(t *testing.T) {
	cfg, err := rules.LoadDefault()
	require.NoError(t, err)

	collect := func(t *testing.T, gs *state.GameState, docs ...string) {
		for _, id := range docs {
			for _, r := range cfg.Documents[id].Requirements {
				if r.Kind == rules.RequirementEvidence {
					require.True(t, gs.AddEvidence(r.ID, cfg.Evidence[r.ID].AcceptableForms[0]))
				}
			}
			require.NoError(t, gs.AddDocument(id))
		}
	}

	tests := []struct {
		name  string
		setup func(t *testing.T, gs *state.GameState)
		want  []string
	}{
		{
			name:  "fresh game asks for the first evidence",
			setup: func(t *testing.T, gs *state.GameState) {},
			want: []string{
				"Reichen Sie einen Nachweis für 'valid_id' ein (z.B. Personalausweis).",
				"Reichen Sie einen Nachweis für 'gift_details' ein (z.B. Notarielle Urkunde).",
			},
		},
		{
			name: "evidence complete asks for the document",
			setup: func(t *testing.T, gs *state.GameState) {
				require.True(t, gs.AddEvidence("valid_id", "Reisepass"))
				require.True(t, gs.AddEvidence("gift_details", "Bankbeleg"))
			},
			want: []string{"Fragen Sie nach dem Dokument 'Schenkungsanmeldung': 'Ich möchte Schenkungsanmeldung beantragen'"},
		},
		{
			name: "prefers the document missing the least evidence",
			setup: func(t *testing.T, gs *state.GameState) {
				collect(t, gs, "Schenkungsanmeldung")
			},
			want: []string{
				"Als nächstes benötigen Sie das Dokument 'Wertermittlung'.",
				"Gehen Sie zur Abteilung Fachprüfung: 'Ich möchte zu Frau Müller'",
			},
		},
		{
			name: "prefers the current department",
			setup: func(t *testing.T, gs *state.GameState) {
				collect(t, gs, "Schenkungsanmeldung")
				require.True(t, gs.SwitchDepartment("Abschlussstelle"))
			},
			want: []string{
				"Reichen Sie einen Nachweis für 'relationship_proof' ein (z.B. Freundschaftserklärung).",
				"Reichen Sie einen Nachweis für 'previous_gifts' ein (z.B. Eigenerklärung).",
				"Reichen Sie einen Nachweis für 'steuernummer' ein (z.B. Steuerbescheid).",
			},
		},
		{
			name: "final document needs its department",
			setup: func(t *testing.T, gs *state.GameState) {
				collect(t, gs, "Schenkungsanmeldung", "Wertermittlung", "Freibetragsbescheinigung", "Zahlungsaufforderung")
			},
			want: []string{"Gehen Sie zur Abteilung Abschlussstelle: 'Ich möchte zu Herr Weber'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := state.New(cfg)
			tt.setup(t, gs)
			assert.Equal(t, tt.want, NewHints(cfg).NextStep(gs))
		})
	}
}
