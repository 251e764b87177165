// Package prompt provides simple interactive prompts.
//
// This package contains standalone interactive prompts for common
// user input scenarios. For full-screen browsing, see the ui package.
//
// Available prompts:
//   - [Confirm]: Yes/No confirmation prompt
//   - [TextInput]: Single-line text input
//   - [Select]: Single selection from a list
package prompt
