package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	esc     key.Binding
	quit    key.Binding
	new     key.Binding
	edit    key.Binding
	delete  key.Binding
	share   key.Binding
	invite  key.Binding
	link    key.Binding
	recover key.Binding
	list    key.Binding
	copy    key.Binding
	yes     key.Binding
	no      key.Binding
}

var keys = keyMap{
	up:      key.NewBinding(key.WithKeys("up", "k")),
	down:    key.NewBinding(key.WithKeys("down", "j")),
	enter:   key.NewBinding(key.WithKeys("enter")),
	esc:     key.NewBinding(key.WithKeys("esc")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
	new:     key.NewBinding(key.WithKeys("n")),
	edit:    key.NewBinding(key.WithKeys("e")),
	delete:  key.NewBinding(key.WithKeys("d")),
	share:   key.NewBinding(key.WithKeys("s")),
	invite:  key.NewBinding(key.WithKeys("i")),
	link:    key.NewBinding(key.WithKeys("c")),
	recover: key.NewBinding(key.WithKeys("r")),
	list:    key.NewBinding(key.WithKeys("g")),
	copy:    key.NewBinding(key.WithKeys("y")),
	yes:     key.NewBinding(key.WithKeys("y")),
	no:      key.NewBinding(key.WithKeys("n")),
}
