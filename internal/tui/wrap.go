package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuiorder/internal/model"
)

type chip struct {
	s     string
	width int
}

type chipState int

const (
	chipNormal chipState = iota
	chipLocked
	chipCursor
	chipHeld
)

func buildChips(fragments []model.Fragment, solution []string, cursor int, held bool) []chip {
	out := make([]chip, 0, len(fragments))
	for i, f := range fragments {
		text := f.Text(solution)
		state := chipNormal
		switch {
		case i == cursor && held:
			state = chipHeld
		case i == cursor:
			state = chipCursor
		case f.Locked:
			state = chipLocked
		}
		out = append(out, chip{
			s:     chipStyle(state, f.Locked).Render(text),
			width: runewidth.StringWidth(text) + chipPadding,
		})
	}
	return out
}

func renderChips(chips []chip) string {
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = c.s
	}
	return strings.Join(parts, " ")
}

// wrapChips lays chips out left to right, breaking lines so that no line is
// wider than width. A chip wider than width gets a line of its own.
func wrapChips(chips []chip, width int) string {
	if width <= 0 {
		return renderChips(chips)
	}
	var out strings.Builder
	line := make([]chip, 0, len(chips))
	lineWidth := 0
	for _, c := range chips {
		extra := c.width
		if len(line) > 0 {
			extra++
		}
		if lineWidth+extra > width && len(line) > 0 {
			out.WriteString(renderChips(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			extra = c.width
		}
		line = append(line, c)
		lineWidth += extra
	}
	out.WriteString(renderChips(line))
	return out.String()
}
