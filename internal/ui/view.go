// Package ui implements the interactive terminal interface: a stack of
// views (boards, issues, issue detail) driven by a poll tick, rendered
// with Bubble Tea. Views own pollable queries and keep showing the
// last good data while a refresh is in flight.
package ui

import (
	tea "charm.land/bubbletea/v2"
)

// View is one screen on the app's stack.
type View interface {
	// Title returns the header line.
	Title() string

	// Init returns an initial command when the view is pushed.
	Init() tea.Cmd

	// Update handles a message and returns the updated view and a
	// command to run. Tick messages drive query polling.
	Update(msg tea.Msg) (View, tea.Cmd)

	// View renders the body for the given size (excluding header,
	// footer, and help chrome).
	View(width, height int) string

	// Footer returns the data-provenance line, "" when none applies.
	Footer() string

	// Help returns the key hint line.
	Help() string

	// CapturingInput reports whether the view is in a text-entry mode
	// where global navigation keys must not fire.
	CapturingInput() bool

	// HasClearableInput reports whether esc should clear view state
	// (an applied filter, an open picker) instead of popping.
	HasClearableInput() bool

	// ClearInput clears that state.
	ClearInput()
}

// pushViewMsg pushes a view onto the stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the top view; popping the root quits.
type popViewMsg struct{}

func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

func popViewCmd() tea.Msg {
	return popViewMsg{}
}
