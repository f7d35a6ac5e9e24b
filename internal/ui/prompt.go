package ui

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/ghkey/internal/errors"
	"golang.org/x/term"
)

// FormPrompter asks for credentials with huh forms on the terminal.
type FormPrompter struct {
	// Service names the account in prompt titles.
	Service string

	// run is swapped in tests.
	run func(ctx context.Context, form *huh.Form) error
}

// NewFormPrompter returns a prompter for the named service.
func NewFormPrompter(service string) *FormPrompter {
	return &FormPrompter{Service: service}
}

// Credentials asks for username and password.
func (p *FormPrompter) Credentials(ctx context.Context) (string, string, error) {
	if err := requireTerminal(); err != nil {
		return "", "", err
	}

	var username, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s username", p.Service)).
				Value(&username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		),
	)
	if err := p.runForm(ctx, form); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

// OTP asks for the one-time code from the second factor device.
func (p *FormPrompter) OTP(ctx context.Context) (string, error) {
	if err := requireTerminal(); err != nil {
		return "", err
	}

	var code string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Two-factor code").
				Description("Enter the code from your authenticator app or SMS").
				Value(&code),
		),
	)
	if err := p.runForm(ctx, form); err != nil {
		return "", err
	}
	return code, nil
}

func (p *FormPrompter) runForm(ctx context.Context, form *huh.Form) error {
	run := p.run
	if run == nil {
		run = func(ctx context.Context, form *huh.Form) error { return form.RunWithContext(ctx) }
	}

	err := run(ctx, form)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, huh.ErrUserAborted):
		return errors.New(errors.ErrAuth, "Login cancelled", "")
	default:
		return errors.WrapWithCode(err, errors.ErrAuth, "Couldn't read your credentials", "")
	}
}

func requireTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New(errors.ErrAuth,
			"Password login needs an interactive terminal",
			"Run ghkey from a terminal, or use a build with the device flow")
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
