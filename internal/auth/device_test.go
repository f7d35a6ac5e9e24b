package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	ghkerrors "github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeviceCode = `{
	"device_code": "dev-123",
	"user_code": "WDJB-MJHT",
	"verification_uri": "https://github.com/login/device",
	"interval": 5,
	"expires_in": 900
}`

// fakeIdentityService serves the device code once, then the queued token
// responses in order.
type fakeIdentityService struct {
	mu          sync.Mutex
	codeStatus  int
	codeBody    string
	tokens      []string
	tokenStatus int
	codeForms   []url.Values
	tokenForms  []url.Values
	accept      []string
}

func (s *fakeIdentityService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accept = append(s.accept, r.Header.Get("Accept"))

	switch r.URL.Path {
	case "/login/device/code":
		s.codeForms = append(s.codeForms, form)
		status := s.codeStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(s.codeBody))
	case "/login/oauth/access_token":
		s.tokenForms = append(s.tokenForms, form)
		if len(s.tokens) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		next := s.tokens[0]
		s.tokens = s.tokens[1:]
		status := s.tokenStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(next))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *fakeIdentityService) polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokenForms)
}

type recordingNotifier struct {
	shown    []DeviceCode
	finished []DeviceState
}

func (n *recordingNotifier) ShowDeviceCode(code DeviceCode) { n.shown = append(n.shown, code) }
func (n *recordingNotifier) Finished(state DeviceState)     { n.finished = append(n.finished, state) }

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

type deviceFixture struct {
	svc      *fakeIdentityService
	api      *resource.Client
	notifier *recordingNotifier
	sleeper  *recordingSleeper
	flow     *DeviceFlow
}

func newDeviceFixture(t *testing.T, svc *fakeIdentityService, opts ...DeviceOption) *deviceFixture {
	t.Helper()
	if svc.codeBody == "" {
		svc.codeBody = testDeviceCode
	}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	login := resource.New(srv.URL, resource.NewOptions(map[string]string{"Accept": "application/json"}))
	api := resource.New("https://api.example.test", resource.NewOptions(map[string]string{"Accept": "application/vnd.github.v3+json"}))
	fx := &deviceFixture{
		svc:      svc,
		api:      api,
		notifier: &recordingNotifier{},
		sleeper:  &recordingSleeper{},
	}
	opts = append([]DeviceOption{WithSleeper(fx.sleeper.sleep)}, opts...)
	fx.flow = NewDeviceFlow(DeviceConfig{ClientID: "client-abc", Scope: "admin:public_key", Service: "GitHub"},
		login, api, fx.notifier, opts...)
	return fx
}

func TestDeviceFlow_PendingThenToken(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{
		`{"error":"authorization_pending"}`,
		`{"error":"authorization_pending"}`,
		`{"access_token":"gho_T"}`,
	}})

	client, err := fx.flow.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Same(t, fx.api, client)
	assert.Equal(t, 3, fx.svc.polls())
	assert.Equal(t, 3, fx.flow.Polls())
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, fx.sleeper.waits)
	assert.Equal(t, DeviceAuthenticated, fx.flow.State())
	assert.Equal(t, "Bearer gho_T", client.Options().Header.Get("Authorization"))
}

func TestDeviceFlow_RequestsAndPollsWithExpectedForms(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{"access_token":"gho_T"}`}})

	_, err := fx.flow.Authenticate(context.Background())
	require.NoError(t, err)

	require.Len(t, fx.svc.codeForms, 1)
	assert.Equal(t, "client-abc", fx.svc.codeForms[0].Get("client_id"))
	assert.Equal(t, "admin:public_key", fx.svc.codeForms[0].Get("scope"))

	require.Len(t, fx.svc.tokenForms, 1)
	assert.Equal(t, "client-abc", fx.svc.tokenForms[0].Get("client_id"))
	assert.Equal(t, "dev-123", fx.svc.tokenForms[0].Get("device_code"))
	assert.Equal(t, DeviceGrantType, fx.svc.tokenForms[0].Get("grant_type"))

	for _, accept := range fx.svc.accept {
		assert.Equal(t, "application/json", accept)
	}
}

func TestDeviceFlow_ShowsCodeBeforePolling(t *testing.T) {
	svc := &fakeIdentityService{tokens: []string{`{"access_token":"gho_T"}`}}
	var fx *deviceFixture
	shownBeforePoll := false
	fx = newDeviceFixture(t, svc, WithSleeper(func(context.Context, time.Duration) error {
		shownBeforePoll = len(fx.notifier.shown) == 1 && svc.polls() == 0
		return nil
	}))

	_, err := fx.flow.Authenticate(context.Background())
	require.NoError(t, err)

	assert.True(t, shownBeforePoll)
	require.Len(t, fx.notifier.shown, 1)
	assert.Equal(t, "WDJB-MJHT", fx.notifier.shown[0].UserCode)
	assert.Equal(t, "https://github.com/login/device", fx.notifier.shown[0].VerificationURI)
	assert.Equal(t, []DeviceState{DeviceAuthenticated}, fx.notifier.finished)
}

func TestDeviceFlow_DeniedStopsAfterOnePoll(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{
		`{"error":"access_denied"}`,
		`{"access_token":"never"}`,
	}})

	client, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.Nil(t, client)

	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationDenied))
	assert.Contains(t, err.Error(), "GitHub authorization error: access_denied")
	assert.Equal(t, 1, fx.svc.polls())
	assert.Equal(t, DeviceDenied, fx.flow.State())
	assert.Equal(t, []DeviceState{DeviceDenied}, fx.notifier.finished)
	assert.Empty(t, fx.api.Options().Header.Get("Authorization"))
}

func TestDeviceFlow_EmptyTokenResponseNamesStatus(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{}`}})

	_, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationDenied))
	assert.Contains(t, err.Error(), "GitHub authorization error: (no error code, status 200)")
	assert.Equal(t, 1, fx.svc.polls())
	assert.Equal(t, DeviceDenied, fx.flow.State())
}

func TestDeviceFlow_SlowDownIsDenied(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{"error":"slow_down"}`}})

	_, err := fx.flow.Authenticate(context.Background())
	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationDenied))
	assert.Equal(t, 1, fx.svc.polls())
}

func TestDeviceFlow_ErrorWithBadRequestStatus(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{
		tokenStatus: http.StatusBadRequest,
		tokens:      []string{`{"error":"incorrect_device_code"}`},
	})

	_, err := fx.flow.Authenticate(context.Background())
	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationDenied))
	assert.Contains(t, err.Error(), "incorrect_device_code")
}

func TestDeviceFlow_ExpiredToken(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{
		`{"error":"authorization_pending"}`,
		`{"error":"expired_token"}`,
	}})

	_, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationExpired))
	assert.False(t, errors.Is(err, ghkerrors.ErrAuthenticationDenied))
	assert.Equal(t, DeviceExpired, fx.flow.State())
	assert.Equal(t, 2, fx.svc.polls())
}

func TestDeviceFlow_LocalDeadlineExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	svc := &fakeIdentityService{
		codeBody: `{"device_code":"d","user_code":"U","verification_uri":"v","interval":5,"expires_in":10}`,
		tokens: []string{
			`{"error":"authorization_pending"}`,
			`{"error":"authorization_pending"}`,
			`{"error":"authorization_pending"}`,
		},
	}
	fx := newDeviceFixture(t, svc,
		WithClock(clock),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			now = now.Add(d)
			return nil
		}))

	_, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ghkerrors.ErrAuthenticationExpired))
	assert.Equal(t, 2, svc.polls())
}

func TestDeviceFlow_DefaultInterval(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{
		codeBody: `{"device_code":"d","user_code":"U","verification_uri":"v"}`,
		tokens:   []string{`{"access_token":"t"}`},
	})

	_, err := fx.flow.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultPollInterval}, fx.sleeper.waits)
}

func TestDeviceFlow_CodeRequestFailureIsFatal(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{
		codeStatus: http.StatusNotFound,
		codeBody:   `{"error":"Not Found"}`,
	})

	_, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, ghkerrors.IsCode(err, ghkerrors.ErrAuth))
	assert.Contains(t, err.Error(), "404")
	assert.Empty(t, fx.notifier.shown)
	assert.Equal(t, 0, fx.svc.polls())
	assert.Equal(t, DeviceUnstarted, fx.flow.State())
}

func TestDeviceFlow_CodeRequestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	flow := NewDeviceFlow(DeviceConfig{ClientID: "c"}, resource.New(srv.URL, nil),
		resource.New("https://api.example.test", nil), &recordingNotifier{},
		WithDeviceLogger(logger.Noop()))

	_, err := flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, ghkerrors.IsCode(err, ghkerrors.ErrAuth))
}

func TestDeviceFlow_CancelledWhileWaiting(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{"access_token":"t"}`}})
	fx.sleeper.err = context.Canceled

	_, err := fx.flow.Authenticate(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fx.svc.polls())
	assert.Equal(t, []DeviceState{DevicePolling}, fx.notifier.finished)
}

func TestDeviceFlow_CannotRestart(t *testing.T) {
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{"error":"access_denied"}`}})

	_, err := fx.flow.Authenticate(context.Background())
	require.Error(t, err)

	_, err = fx.flow.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already denied")
	assert.Equal(t, 1, fx.svc.polls())
}

func TestDeviceFlow_LogsTransitions(t *testing.T) {
	buf := logger.NewBufferLogger()
	fx := newDeviceFixture(t, &fakeIdentityService{tokens: []string{`{"access_token":"t"}`}},
		WithDeviceLogger(buf))

	_, err := fx.flow.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, buf.Contains("unstarted -> code-requested"))
	assert.True(t, buf.Contains("polling -> authenticated"))
}

func TestNextDeviceState(t *testing.T) {
	tests := []struct {
		name string
		resp tokenResponse
		want DeviceState
	}{
		{"token", tokenResponse{AccessToken: "t"}, DeviceAuthenticated},
		{"token wins over error", tokenResponse{AccessToken: "t", Error: "access_denied"}, DeviceAuthenticated},
		{"pending", tokenResponse{Error: "authorization_pending"}, DevicePolling},
		{"expired", tokenResponse{Error: "expired_token"}, DeviceExpired},
		{"denied", tokenResponse{Error: "access_denied"}, DeviceDenied},
		{"empty", tokenResponse{}, DeviceDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextDeviceState(tt.resp))
		})
	}
}

func TestDeviceState(t *testing.T) {
	assert.False(t, DeviceUnstarted.Terminal())
	assert.False(t, DeviceCodeRequested.Terminal())
	assert.False(t, DevicePolling.Terminal())
	assert.True(t, DeviceAuthenticated.Terminal())
	assert.True(t, DeviceDenied.Terminal())
	assert.True(t, DeviceExpired.Terminal())
	assert.Equal(t, "DeviceState(42)", DeviceState(42).String())
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
