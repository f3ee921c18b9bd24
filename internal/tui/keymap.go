package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings of the browser.
type KeyMap struct {
	// Toggle flips the cursor row.
	Toggle key.Binding

	// ToggleAll checks or unchecks every row on the page.
	ToggleAll key.Binding

	// NextPage and PrevPage move one page.
	NextPage key.Binding
	PrevPage key.Binding

	// FirstPage and LastPage jump to either end.
	FirstPage key.Binding
	LastPage  key.Binding

	// Grow and Shrink change the page size.
	Grow   key.Binding
	Shrink key.Binding

	// BulkSelect opens the "select first N rows" prompt.
	BulkSelect key.Binding

	// Confirm and Cancel close the prompt.
	Confirm key.Binding
	Cancel  key.Binding

	// Help shows the full key list.
	Help key.Binding

	// Quit exits the application.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle row"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "prev page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last page"),
		),
		Grow: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more rows"),
		),
		Shrink: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "fewer rows"),
		),
		BulkSelect: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "select first N"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.NextPage, k.PrevPage, k.BulkSelect, k.Help, k.Quit}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.ToggleAll, k.BulkSelect},
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage},
		{k.Grow, k.Shrink},
		{k.Help, k.Quit},
	}
}

// PromptHelp returns the bindings active while the bulk prompt is open.
func (k *KeyMap) PromptHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
