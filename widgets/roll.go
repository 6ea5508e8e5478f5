package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one note drawn on a lane
type Bar struct {
	Start     uint64
	End       uint64
	Intensity uint8
	Selected  bool
}

// RollStyle holds the glyphs and colors of a lane
type RollStyle struct {
	Empty    rune
	Note     rune
	Selected rune
	Window   rune

	NoteColor     func(intensity uint8) lipgloss.Color
	SelectedColor lipgloss.Color
	WindowColor   lipgloss.Color
	EmptyColor    lipgloss.Color
}

// Column maps a tick onto a lane width columns wide covering [0, length]
func Column(tick, length uint64, width int) int {
	if width <= 0 {
		return 0
	}
	col := int(tick * uint64(width) / (length + 1))
	return min(max(col, 0), width-1)
}

type cell struct {
	note     bool
	selected bool
	loudest  uint8
}

// RenderLane draws bars into width columns. Where bars share a column a
// selected bar wins, then the loudest one.
func RenderLane(bars []Bar, length uint64, width int, winStart, winEnd *uint64, st RollStyle) string {
	cells := make([]cell, width)
	for _, b := range bars {
		c0 := Column(b.Start, length, width)
		c1 := max(c0, Column(b.End, length, width))
		for c := c0; c <= c1 && c < width; c++ {
			cells[c].note = true
			cells[c].selected = cells[c].selected || b.Selected
			cells[c].loudest = max(cells[c].loudest, b.Intensity)
		}
	}

	w0, w1 := -1, -1
	if winStart != nil || winEnd != nil {
		w0, w1 = 0, width-1
		if winStart != nil {
			w0 = Column(*winStart, length, width)
		}
		if winEnd != nil {
			w1 = Column(*winEnd, length, width)
		}
	}

	var out strings.Builder
	for c, ce := range cells {
		switch {
		case ce.selected:
			out.WriteString(glyph(st.Selected, st.SelectedColor))
		case ce.note:
			color := st.EmptyColor
			if st.NoteColor != nil {
				color = st.NoteColor(ce.loudest)
			}
			out.WriteString(glyph(st.Note, color))
		case c >= w0 && c <= w1:
			out.WriteString(glyph(st.Window, st.WindowColor))
		default:
			out.WriteString(glyph(st.Empty, st.EmptyColor))
		}
	}
	return out.String()
}

// RenderRuler marks every bar line (4 beats) across a lane
func RenderRuler(length uint64, width int, ticksPerBeat uint16) string {
	if ticksPerBeat == 0 || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}
	line := []rune(strings.Repeat(" ", width))
	barTicks := uint64(ticksPerBeat) * 4
	for tick, n := uint64(0), 1; tick <= length; tick, n = tick+barTicks, n+1 {
		c := Column(tick, length, width)
		label := []rune(fmt.Sprintf("|%d", n))
		for i, r := range label {
			if c+i < width {
				line[c+i] = r
			}
		}
	}
	return string(line)
}

func glyph(r rune, color lipgloss.Color) string {
	if color == "" {
		return string(r)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(r))
}

// HelpSection is a titled group of entries in a help listing
type HelpSection struct {
	Title   string
	Entries []HelpEntry
}

// HelpEntry pairs a command, flag or key with what it does
type HelpEntry struct {
	Name string
	Desc string
}

// RenderHelp lays out sections with every description aligned one gutter
// past the widest name across all sections. Sections are separated by a
// blank line.
func RenderHelp(sections []HelpSection) string {
	width := 0
	for _, sec := range sections {
		for _, e := range sec.Entries {
			width = max(width, lipgloss.Width(e.Name))
		}
	}

	var blocks []string
	for _, sec := range sections {
		var lines []string
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, e := range sec.Entries {
			pad := strings.Repeat(" ", width-lipgloss.Width(e.Name))
			lines = append(lines, "  "+e.Name+pad+"  "+e.Desc)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
