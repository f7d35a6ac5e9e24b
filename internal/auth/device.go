package auth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/resource"
)

const (
	// DeviceGrantType is the grant_type for device code token requests.
	DeviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// DefaultPollInterval applies when the service omits an interval.
	DefaultPollInterval = 5 * time.Second

	errAuthorizationPending = "authorization_pending"
	errExpiredToken         = "expired_token"
)

// DeviceState is a state of the device authorization flow.
type DeviceState int

const (
	DeviceUnstarted DeviceState = iota
	DeviceCodeRequested
	DevicePolling
	DeviceAuthenticated
	DeviceDenied
	DeviceExpired
)

func (s DeviceState) String() string {
	switch s {
	case DeviceUnstarted:
		return "unstarted"
	case DeviceCodeRequested:
		return "code-requested"
	case DevicePolling:
		return "polling"
	case DeviceAuthenticated:
		return "authenticated"
	case DeviceDenied:
		return "denied"
	case DeviceExpired:
		return "expired"
	default:
		return fmt.Sprintf("DeviceState(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s DeviceState) Terminal() bool {
	return s == DeviceAuthenticated || s == DeviceDenied || s == DeviceExpired
}

// DeviceCode is the identity service's answer to a device code request.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	Interval        int    `json:"interval"`
	ExpiresIn       int    `json:"expires_in"`
}

// PollInterval is the wait before each token request.
func (c DeviceCode) PollInterval() time.Duration {
	if c.Interval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.Interval) * time.Second
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`

	status int
}

// errorCode is the response's error code, or a placeholder naming the
// status when the service sent none.
func (r tokenResponse) errorCode() string {
	if r.Error != "" {
		return r.Error
	}
	return fmt.Sprintf("(no error code, status %d)", r.status)
}

// nextDeviceState maps one token endpoint response to the next state.
func nextDeviceState(resp tokenResponse) DeviceState {
	switch {
	case resp.AccessToken != "":
		return DeviceAuthenticated
	case resp.Error == errAuthorizationPending:
		return DevicePolling
	case resp.Error == errExpiredToken:
		return DeviceExpired
	default:
		return DeviceDenied
	}
}

// DeviceNotifier is the operator-facing side of the device flow.
type DeviceNotifier interface {
	// ShowDeviceCode is called once, before the first poll.
	ShowDeviceCode(code DeviceCode)
	// Finished is called when polling stops, with the state it stopped in.
	Finished(state DeviceState)
}

// DeviceConfig identifies the OAuth application.
type DeviceConfig struct {
	ClientID string
	Scope    string

	// Service names the identity provider in messages, e.g. "GitHub".
	Service string
}

// DeviceFlow authenticates with the OAuth device authorization grant.
type DeviceFlow struct {
	cfg      DeviceConfig
	login    *resource.Client
	api      *resource.Client
	notifier DeviceNotifier
	sleep    Sleeper
	now      func() time.Time
	log      logger.Logger

	state DeviceState
	polls int
}

// DeviceOption customizes a DeviceFlow.
type DeviceOption func(*DeviceFlow)

// WithSleeper replaces the wait between polls.
func WithSleeper(s Sleeper) DeviceOption {
	return func(f *DeviceFlow) { f.sleep = s }
}

// WithClock replaces the clock used for the expiry deadline.
func WithClock(now func() time.Time) DeviceOption {
	return func(f *DeviceFlow) { f.now = now }
}

// WithDeviceLogger sets the logger.
func WithDeviceLogger(l logger.Logger) DeviceOption {
	return func(f *DeviceFlow) { f.log = l }
}

// NewDeviceFlow creates a device flow. login addresses the identity service
// root (the /login/... endpoints hang off it); api is the client that
// receives the bearer token.
func NewDeviceFlow(cfg DeviceConfig, login, api *resource.Client, notifier DeviceNotifier, opts ...DeviceOption) *DeviceFlow {
	f := &DeviceFlow{
		cfg:      cfg,
		login:    login,
		api:      api,
		notifier: notifier,
		sleep:    Sleep,
		now:      time.Now,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state.
func (f *DeviceFlow) State() DeviceState { return f.state }

// Polls returns how many token requests have been made.
func (f *DeviceFlow) Polls() int { return f.polls }

func (f *DeviceFlow) transition(to DeviceState) {
	f.log.Debug("device flow: %s -> %s", f.state, to)
	f.state = to
}

// Authenticate runs the flow to a terminal state and returns the API client
// with the bearer token installed.
func (f *DeviceFlow) Authenticate(ctx context.Context) (*resource.Client, error) {
	if f.state != DeviceUnstarted {
		return nil, errors.New(errors.ErrAuth,
			fmt.Sprintf("Device flow already %s", f.state),
			"Start a new flow")
	}

	code, err := f.RequestCode(ctx)
	if err != nil {
		return nil, err
	}

	f.notifier.ShowDeviceCode(code)

	token, err := f.poll(ctx, code)
	f.notifier.Finished(f.state)
	if err != nil {
		return nil, err
	}

	f.api.Options().SetHeader("Authorization", "Bearer "+token)
	return f.api, nil
}

// RequestCode asks the identity service for a device and user code.
func (f *DeviceFlow) RequestCode(ctx context.Context) (DeviceCode, error) {
	resp, err := f.login.WithPath("login", "device", "code").PostForm(ctx, url.Values{
		"client_id": {f.cfg.ClientID},
		"scope":     {f.cfg.Scope},
	})
	if err != nil {
		return DeviceCode{}, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't request a device code",
			"Check your network connection")
	}
	if !resp.OK() {
		msg := fmt.Sprintf("Device code request failed with status %d", resp.Status)
		if detail := resp.Message(); detail != "" {
			msg += ": " + detail
		}
		return DeviceCode{}, errors.New(errors.ErrAuth, msg,
			"Check that auth.client_id names an OAuth app with device flow enabled")
	}

	var code DeviceCode
	if err := resp.JSON(&code); err != nil {
		return DeviceCode{}, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't read the device code response", "")
	}
	if code.DeviceCode == "" {
		return DeviceCode{}, errors.New(errors.ErrAuth,
			"Device code response had no device_code",
			"Check that auth.client_id names an OAuth app with device flow enabled")
	}

	f.transition(DeviceCodeRequested)
	return code, nil
}

func (f *DeviceFlow) poll(ctx context.Context, code DeviceCode) (string, error) {
	interval := code.PollInterval()
	var deadline time.Time
	if code.ExpiresIn > 0 {
		deadline = f.now().Add(time.Duration(code.ExpiresIn) * time.Second)
	}

	f.transition(DevicePolling)
	for {
		if err := f.sleep(ctx, interval); err != nil {
			return "", err
		}

		resp, err := f.requestToken(ctx, code)
		if err != nil {
			return "", err
		}

		next := nextDeviceState(resp)
		if next == DevicePolling && !deadline.IsZero() && !f.now().Before(deadline) {
			next = DeviceExpired
		}
		if next != DevicePolling {
			f.transition(next)
		}

		switch next {
		case DeviceAuthenticated:
			return resp.AccessToken, nil
		case DevicePolling:
			continue
		case DeviceExpired:
			return "", errors.New(errors.ErrAuth,
				"The device code expired before it was approved",
				"Run ghkey again and enter the new code promptly").
				WithKind(errors.ErrAuthenticationExpired)
		default:
			return "", errors.New(errors.ErrAuth,
				fmt.Sprintf("%s authorization error: %s", serviceLabel(f.cfg.Service), resp.errorCode()),
				"").
				WithKind(errors.ErrAuthenticationDenied)
		}
	}
}

func (f *DeviceFlow) requestToken(ctx context.Context, code DeviceCode) (tokenResponse, error) {
	f.polls++
	f.log.Debug("device flow: poll %d", f.polls)

	resp, err := f.login.WithPath("login", "oauth", "access_token").PostForm(ctx, url.Values{
		"client_id":   {f.cfg.ClientID},
		"device_code": {code.DeviceCode},
		"grant_type":  {DeviceGrantType},
	})
	if err != nil {
		return tokenResponse{}, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't reach the token endpoint",
			"Check your network connection")
	}

	// Errors arrive as JSON with either a 200 or a 400 status.
	var tr tokenResponse
	if err := resp.JSON(&tr); err != nil {
		return tokenResponse{}, errors.WrapWithCode(err, errors.ErrAuth,
			fmt.Sprintf("Unexpected token endpoint response (status %d)", resp.Status), "")
	}
	tr.status = resp.Status
	return tr, nil
}
