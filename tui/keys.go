package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	AllTracks  key.Binding
	StartLeft  key.Binding
	StartRight key.Binding
	EndLeft    key.Binding
	EndRight   key.Binding
	ClearRange key.Binding
	More       key.Binding
	Less       key.Binding
	Mode       key.Binding
	Write      key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         Key("up", "k", "up"),
	Down:       Key("down", "j", "down"),
	Toggle:     Key("toggle track", " "),
	AllTracks:  Key("all tracks", "a"),
	StartLeft:  Key("start -beat", "["),
	StartRight: Key("start +beat", "]"),
	EndLeft:    Key("end -beat", "{"),
	EndRight:   Key("end +beat", "}"),
	ClearRange: Key("clear window", "x"),
	More:       Key("amount up", "+", "="),
	Less:       Key("amount down", "-", "_"),
	Mode:       Key("transpose/rescale", "tab", "m"),
	Write:      Key("write", "w"),
	Reload:     Key("reload", "r"),
	Help:       Key("help", "?"),
	Quit:       Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.More, k.Less, k.Mode, k.Write, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.AllTracks},
		{k.StartLeft, k.StartRight, k.EndLeft, k.EndRight, k.ClearRange},
		{k.More, k.Less, k.Mode},
		{k.Write, k.Reload, k.Help, k.Quit},
	}
}

func Is(msg tea.KeyMsg, k ...key.Binding) bool {
	return key.Matches(msg, k...)
}
