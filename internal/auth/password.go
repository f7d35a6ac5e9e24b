package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/resource"
)

// OTPHeader carries the one-time password, both as the service's challenge
// and as our answer.
const OTPHeader = "X-GitHub-OTP"

// PasswordState is a state of the password flow.
type PasswordState int

const (
	PasswordUnauthenticated PasswordState = iota
	PasswordAuthenticated
	PasswordSecondFactorRequired
	PasswordRejected
)

func (s PasswordState) String() string {
	switch s {
	case PasswordUnauthenticated:
		return "unauthenticated"
	case PasswordAuthenticated:
		return "authenticated"
	case PasswordSecondFactorRequired:
		return "second-factor-required"
	case PasswordRejected:
		return "rejected"
	default:
		return fmt.Sprintf("PasswordState(%d)", int(s))
	}
}

// classify maps the auth check response to the next state.
func classify(resp *resource.Response) PasswordState {
	if resp.OK() {
		return PasswordAuthenticated
	}
	if resp.Status == http.StatusUnauthorized &&
		strings.HasPrefix(strings.TrimSpace(resp.Header.Get(OTPHeader)), "required") {
		return PasswordSecondFactorRequired
	}
	return PasswordRejected
}

// Prompter asks the operator for credentials.
type Prompter interface {
	Credentials(ctx context.Context) (username, password string, err error)
	OTP(ctx context.Context) (string, error)
}

// PasswordFlow authenticates with basic credentials and an optional
// one-time password.
type PasswordFlow struct {
	api      *resource.Client
	prompter Prompter
	log      logger.Logger
	service  string
	state    PasswordState
}

// NewPasswordFlow creates a password flow against api.
func NewPasswordFlow(api *resource.Client, prompter Prompter, l logger.Logger) *PasswordFlow {
	if l == nil {
		l = logger.Noop()
	}
	return &PasswordFlow{api: api, prompter: prompter, log: l}
}

// WithService names the service in messages, e.g. "GitHub".
func (f *PasswordFlow) WithService(name string) *PasswordFlow {
	f.service = name
	return f
}

// State returns the current state.
func (f *PasswordFlow) State() PasswordState { return f.state }

func (f *PasswordFlow) transition(to PasswordState) {
	f.log.Debug("password flow: %s -> %s", f.state, to)
	f.state = to
}

// Authenticate prompts for credentials, checks them and handles a second
// factor challenge.
func (f *PasswordFlow) Authenticate(ctx context.Context) (*resource.Client, error) {
	username, password, err := f.prompter.Credentials(ctx)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			"Failed to get user input", "")
	}
	f.api.Options().SetBasicAuth(username, password)

	state, err := f.CheckAuth(ctx)
	if err != nil {
		return nil, err
	}

	switch state {
	case PasswordAuthenticated:
		return f.api, nil
	case PasswordSecondFactorRequired:
		if err := f.secondFactor(ctx); err != nil {
			return nil, err
		}
		return f.api, nil
	default:
		return nil, errors.New(errors.ErrAuth,
			serviceLabel(f.service)+" rejected the username or password",
			"Check your credentials and try again").
			WithKind(errors.ErrAuthenticationFailed)
	}
}

// CheckAuth requests the current user with the installed credentials.
func (f *PasswordFlow) CheckAuth(ctx context.Context) (PasswordState, error) {
	resp, err := f.api.WithPath("user").Get(ctx, nil)
	if err != nil {
		return f.state, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't reach "+f.api.URL(),
			"Check your network connection")
	}
	f.transition(classify(resp))
	return f.state, nil
}

// secondFactor prompts until a code is entered, then installs it. The code
// is validated by the service on the next request.
func (f *PasswordFlow) secondFactor(ctx context.Context) error {
	var code string
	for code == "" {
		entered, err := f.prompter.OTP(ctx)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrAuth,
				"Failed to get user input", "")
		}
		code = strings.TrimSpace(entered)
	}

	f.api.Options().SetHeader(OTPHeader, code)
	f.transition(PasswordAuthenticated)
	return nil
}
