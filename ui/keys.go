package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextPage key.Binding
	PrevPage key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Submit   key.Binding
	Erase    key.Binding
	Clear    key.Binding
	Account  key.Binding
	Copy     key.Binding
	Toggle   key.Binding
	Refresh  key.Binding
	Command  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	NextPage: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
	PrevPage: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev page")),
	NextTab:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next tab")),
	PrevTab:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev tab")),
	Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Erase:    key.NewBinding(key.WithKeys("backspace")),
	Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Account:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "connect/logout")),
	Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy address")),
	Toggle:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "shares/assets")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Command:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.NextPage, k.NextTab, k.Submit, k.Clear, k.Account, k.Copy, k.Toggle, k.Refresh, k.Command, k.Quit}
}
