// Package ui provides terminal output for ghkey: status symbols, colors,
// the waiting spinner, the device code notice and credential prompts.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Successful steps
//	ColorError     (red)    - Failures and errors
//	ColorWarning   (yellow) - Warnings and skipped steps
//	ColorInfo      (cyan)   - URLs and codes the user acts on
//	ColorMuted     (gray)   - Secondary text, timing info
//
// ConfigureColors drops to plain text when output is not a terminal or
// NO_COLOR is set.
//
// # Spinner Usage
//
//	s := ui.NewSpinnerTo(os.Stdout, "Waiting for authorization")
//	s.Start()
//	// ... poll ...
//	s.Success() // or s.Fail() or s.Skip()
//
// On a non-terminal writer the spinner prints one line at Start and one at
// the end, with no animation.
//
// # Prompts
//
// FormPrompter implements the password flow's prompts with huh forms and
// refuses to run when stdin is not a terminal. DeviceNotifier implements
// the device flow's notifier.
package ui
