package ui

// MenuHint describes a key shortcut shown in the header.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page that can describe its own shortcuts.
type Component interface {
	Name() string
	Hints() []MenuHint
}
