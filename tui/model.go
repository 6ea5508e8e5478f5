package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midiedit/config"
	"midiedit/debug"
	"midiedit/edit"
	"midiedit/midi"
	"midiedit/theme"
	"midiedit/widgets"
)

type mode uint8

const (
	modeTranspose mode = iota
	modeRescale
)

const labelWidth = 20

type Model struct {
	Path   string
	Editor *edit.Editor
	Theme  *theme.Theme

	file    *midi.File
	byTrack [][]edit.Span
	orphans int

	cursor  int
	checked []bool
	start   *uint64
	end     *uint64

	mode   mode
	amount int8
	scale  float64
	center int8
	offset int8

	rollWidth int
	help      help.Model
	status    string
	err       error
	quitting  bool
}

type loadedMsg struct {
	file    *midi.File
	spans   []edit.Span
	orphans []edit.Orphan
	err     error
}

type writtenMsg struct {
	report edit.Report
	err    error
}

func NewModel(path string, ed *edit.Editor, th *theme.Theme, cfg *config.Config) Model {
	return Model{
		Path:      path,
		Editor:    ed,
		Theme:     th,
		scale:     cfg.Rescale.Scale,
		center:    cfg.Rescale.Center,
		offset:    cfg.Rescale.Offset,
		rollWidth: max(cfg.UI.RollWidth, 16),
		help:      help.New(),
	}
}

func load(path string, ed *edit.Editor) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return loadedMsg{err: fault.Wrap(err, fmsg.WithDesc("could not read file", fmt.Sprintf("Could not read %s", path)))}
		}
		f, err := midi.Decode(data)
		if err != nil {
			return loadedMsg{err: fault.Wrap(err, fmsg.WithDesc("could not decode file", fmt.Sprintf("%s is not a usable MIDI file", path)))}
		}
		spans, orphans := ed.PairFile(f)
		return loadedMsg{file: f, spans: spans, orphans: orphans}
	}
}

func write(path string, ed *edit.Editor, t edit.Transform, r edit.Region) tea.Cmd {
	return func() tea.Msg {
		rep, err := ed.Apply(path, t, r)
		return writtenMsg{report: rep, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return load(m.Path, m.Editor)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.rollWidth = max(16, msg.Width-labelWidth-8)

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			debug.Log("tui", "load %s: %v", m.Path, msg.err)
			return m, nil
		}
		m.err = nil
		m.setFile(msg.file, msg.spans, msg.orphans)
		debug.Log("tui", "loaded %s: %d tracks, %d spans, %d orphans", m.Path, len(msg.file.Tracks), len(msg.spans), len(msg.orphans))

	case writtenMsg:
		if msg.err != nil {
			m.err = msg.err
			debug.Log("tui", "write %s: %v", m.Path, msg.err)
			return m, nil
		}
		m.err = nil
		if msg.report.Written {
			m.status = fmt.Sprintf("%s: %d events changed", msg.report.Transform, msg.report.Changed)
		} else {
			m.status = "nothing changed, file left as is"
		}
		return m, load(m.Path, m.Editor)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) setFile(f *midi.File, spans []edit.Span, orphans []edit.Orphan) {
	m.file = f
	m.orphans = len(orphans)
	m.byTrack = make([][]edit.Span, len(f.Tracks))
	for _, s := range spans {
		m.byTrack[s.Track] = append(m.byTrack[s.Track], s)
	}
	if len(m.checked) != len(f.Tracks) {
		m.checked = make([]bool, len(f.Tracks))
	}
	m.cursor = min(m.cursor, max(len(f.Tracks)-1, 0))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug.LogEvery(10, "key", "key %q", msg.String())
	switch {
	case Is(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case Is(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case Is(msg, keys.Reload):
		m.status = ""
		return m, load(m.Path, m.Editor)
	}

	if m.file == nil {
		return m, nil
	}

	switch {
	case Is(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case Is(msg, keys.Down):
		if m.cursor < len(m.file.Tracks)-1 {
			m.cursor++
		}
	case Is(msg, keys.Toggle):
		if len(m.checked) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case Is(msg, keys.AllTracks):
		m.checked = make([]bool, len(m.file.Tracks))
	case Is(msg, keys.StartLeft):
		m.start = m.nudgeStart(-1)
	case Is(msg, keys.StartRight):
		m.start = m.nudgeStart(1)
	case Is(msg, keys.EndLeft):
		m.end = m.nudgeEnd(-1)
	case Is(msg, keys.EndRight):
		m.end = m.nudgeEnd(1)
	case Is(msg, keys.ClearRange):
		m.start, m.end = nil, nil
	case Is(msg, keys.More):
		m.adjust(1)
	case Is(msg, keys.Less):
		m.adjust(-1)
	case Is(msg, keys.Mode):
		if m.mode == modeTranspose {
			m.mode = modeRescale
		} else {
			m.mode = modeTranspose
		}
	case Is(msg, keys.Write):
		t, r := m.transform(), m.region()
		debug.Log("tui", "write %s %s %s", m.Path, t, r)
		m.status = "writing..."
		return m, write(m.Path, m.Editor, t, r)
	}
	return m, nil
}

// beat is the window step in ticks
func (m Model) beat() uint64 {
	if tpq := m.file.Ticks(); tpq > 0 {
		return uint64(tpq)
	}
	return 96
}

// nudgeStart moves the window start one beat. Moving left of zero opens it.
func (m Model) nudgeStart(dir int) *uint64 {
	step := m.beat()
	if dir < 0 {
		if m.start == nil || *m.start < step {
			return nil
		}
		return edit.Tick(*m.start - step)
	}
	cur := uint64(0)
	if m.start != nil {
		cur = *m.start + step
	}
	return edit.Tick(min(cur, m.file.Length()))
}

// nudgeEnd moves the window end one beat. Moving right past the last
// event opens it.
func (m Model) nudgeEnd(dir int) *uint64 {
	step, length := m.beat(), m.file.Length()
	if dir > 0 {
		if m.end == nil || *m.end+step > length {
			return nil
		}
		return edit.Tick(*m.end + step)
	}
	cur := (length/step + 1) * step
	if m.end != nil {
		cur = *m.end
	}
	if cur < step {
		return edit.Tick(0)
	}
	return edit.Tick(cur - step)
}

func (m *Model) adjust(dir int) {
	if m.mode == modeRescale {
		m.scale = max(0, m.scale+0.1*float64(dir))
		return
	}
	m.amount = int8(min(max(int(m.amount)+dir, -128), 127))
}

func (m Model) transform() edit.Transform {
	if m.mode == modeRescale {
		return edit.RescaleBy(m.scale, m.center, m.offset)
	}
	return edit.TransposeBy(m.amount)
}

func (m Model) region() edit.Region {
	r := edit.Region{Start: m.start, End: m.end}
	for i, on := range m.checked {
		if on {
			r.Tracks = append(r.Tracks, i)
		}
	}
	return r
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())

	var b strings.Builder

	if m.file == nil {
		b.WriteString(headerStyle.Render("midiedit  " + filepath.Base(m.Path)))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(errStyle.Render(issue(m.err)))
		} else {
			b.WriteString(dimStyle.Render("loading..."))
		}
		b.WriteString("\n\n" + m.help.View(keys))
		return b.String()
	}

	bpm, _ := m.file.Tempo()
	b.WriteString(headerStyle.Render(fmt.Sprintf("midiedit  %s  %.0fbpm  %dtpq  %d tracks",
		filepath.Base(m.Path), bpm, m.file.Ticks(), len(m.file.Tracks))))
	b.WriteString("\n")

	r := m.region()
	selected := 0
	for _, spans := range m.byTrack {
		for _, s := range spans {
			if r.Selects(s) {
				selected++
			}
		}
	}
	b.WriteString(fgStyle.Render(fmt.Sprintf("%s  %s  %d notes selected", m.transform(), r, selected)))
	b.WriteString("\n\n")

	length := m.file.Length()
	b.WriteString(strings.Repeat(" ", labelWidth))
	b.WriteString(dimStyle.Render(widgets.RenderRuler(length, m.rollWidth, m.file.Ticks())))
	b.WriteString("\n")

	style := widgets.RollStyle{
		Empty:         m.Theme.Symbols.Empty,
		Note:          m.Theme.Symbols.Note,
		Selected:      m.Theme.Symbols.Selected,
		Window:        m.Theme.Symbols.Window,
		NoteColor:     m.Theme.Velocity,
		SelectedColor: m.Theme.Active(),
		WindowColor:   m.Theme.Muted(),
		EmptyColor:    m.Theme.Muted(),
	}

	for i, t := range m.file.Tracks {
		marker := " "
		if i == m.cursor {
			marker = cursorStyle.Render(">")
		}
		check := dimStyle.Render(string(m.Theme.Symbols.Unchecked))
		if m.checked[i] {
			check = okStyle.Render(string(m.Theme.Symbols.Checked))
		}
		name := t.Name()
		if name == "" {
			name = "track"
		}
		if len([]rune(name)) > labelWidth-7 {
			name = string([]rune(name)[:labelWidth-7])
		}
		label := lipgloss.NewStyle().Foreground(m.Theme.Track(i)).Render(fmt.Sprintf("%2d %-*s", i, labelWidth-7, name))

		bars := make([]widgets.Bar, len(m.byTrack[i]))
		for j, s := range m.byTrack[i] {
			bars[j] = widgets.Bar{Start: s.Start, End: s.End, Intensity: s.StartIntensity, Selected: r.Selects(s)}
		}
		lane := widgets.RenderLane(bars, length, m.rollWidth, m.start, m.end, style)

		b.WriteString(fmt.Sprintf("%s%s %s %s %s\n", marker, check, label, lane,
			dimStyle.Render(fmt.Sprintf("%d", len(bars)))))
	}

	b.WriteString("\n")
	if m.orphans > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d unpaired note events ignored", m.orphans)))
		b.WriteString("\n")
	}
	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(issue(m.err)))
	case m.status != "":
		b.WriteString(okStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func issue(err error) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	return err.Error()
}
