package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/derKlinke/buergeramt/internal/engine"
	"github.com/muesli/reflow/wordwrap"
)

const plainWidth = 80

// runPlain plays the game line by line on in and out until the player quits,
// wins or the input ends.
func runPlain(ctx context.Context, game *engine.Game, in io.Reader, out io.Writer) error {
	writePlain(out, game.Start())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		turn, err := game.ProcessInput(ctx, input)
		if err != nil {
			return err
		}
		writePlain(out, turn.Lines)
		if turn.Quit || turn.Won {
			return nil
		}
	}
}

func writePlain(out io.Writer, lines []engine.Line) {
	for _, l := range lines {
		fmt.Fprintln(out, wordwrap.String(plainText(l), plainWidth))
	}
}

func plainText(l engine.Line) string {
	switch l.Style {
	case engine.StyleBureaucrat:
		if l.Speaker != "" {
			return l.Speaker + ": " + l.Text
		}
	case engine.StyleSuccess:
		return "✓ " + l.Text
	case engine.StyleFailure:
		return "✗ " + l.Text
	case engine.StyleHint:
		if !strings.HasPrefix(l.Text, "•") {
			return "→ " + l.Text
		}
	case engine.StyleTitle:
		return "\n" + l.Text
	}
	return l.Text
}
