package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/rileyhilliard/ghkey/internal/auth"
	"github.com/rileyhilliard/ghkey/internal/config"
	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/keystore"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/provision"
	"github.com/rileyhilliard/ghkey/internal/resource"
	"github.com/rileyhilliard/ghkey/internal/ui"
)

// environment holds the collaborators the root command wires together.
// Tests swap in fakes.
type environment struct {
	out        io.Writer
	log        logger.Logger
	runner     keystore.Runner
	prompter   auth.Prompter
	notifier   auth.DeviceNotifier
	sleep      auth.Sleeper
	sshConfig  string
	httpClient *http.Client
}

// newEnvironment builds the collaborators for a run. Tests replace it.
var newEnvironment = defaultEnvironment

func defaultEnvironment(out io.Writer, cfg *config.Config) environment {
	return environment{
		out:       out,
		log:       logger.NewEnvLogger("ghkey"),
		runner:    keystore.ExecRunner{},
		prompter:  ui.NewFormPrompter(cfg.Service.Name),
		notifier:  ui.NewDeviceNotifier(out),
		sleep:     auth.Sleep,
		sshConfig: keystore.DefaultSSHConfigPath(),
	}
}

// provisionKey runs the whole sequence for cfg.
func provisionKey(ctx context.Context, cfg *config.Config, env environment) (provision.Outcome, error) {
	httpClient := env.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	keys := keyPair(cfg, env)
	env.log.Debug("key: %s", keys.PrivatePath)

	api := newAPIClient(cfg, httpClient)
	authenticator, err := newAuthenticator(cfg, env, api, httpClient)
	if err != nil {
		return 0, err
	}

	return provision.Run(ctx, provision.Options{
		Keys: keys,
		Auth: authenticator,
		Bits:    cfg.Key.Bits,
		Service: cfg.Service.Name,
		Out:     env.out,
		Log:     env.log,
	})
}

// keyPair resolves the key location: key.dir/key.name from config, else the
// IdentityFile ssh uses for the service host, else ~/.ssh/id_rsa.
func keyPair(cfg *config.Config, env environment) *keystore.KeyPair {
	opts := []keystore.Option{
		keystore.WithRunner(env.runner),
		keystore.WithLogger(env.log),
	}

	if cfg.Key.Dir == "" && cfg.Key.Name == "" && env.sshConfig != "" {
		if identity := keystore.IdentityFromSSHConfig(env.sshConfig, cfg.Service.SSHHost); identity != "" {
			env.log.Debug("using IdentityFile %s from %s", identity, env.sshConfig)
			return keystore.NewFromPath(identity, opts...)
		}
	}
	return keystore.New(cfg.Key.Dir, cfg.Key.Name, opts...)
}

func newAPIClient(cfg *config.Config, httpClient *http.Client) *resource.Client {
	opts := resource.NewOptions(map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": userAgent(),
	})
	opts.HTTPClient = httpClient
	return resource.New(cfg.Service.APIURL, opts)
}

func newLoginClient(cfg *config.Config, httpClient *http.Client) *resource.Client {
	opts := resource.NewOptions(map[string]string{
		"Accept":     "application/json",
		"User-Agent": userAgent(),
	})
	opts.HTTPClient = httpClient
	return resource.New(cfg.Service.LoginURL, opts)
}

// newAuthenticator builds the one flow cfg selects.
func newAuthenticator(cfg *config.Config, env environment, api *resource.Client, httpClient *http.Client) (auth.Authenticator, error) {
	switch cfg.Auth.Flow {
	case config.FlowDevice:
		env.log.Debug("auth: device flow, client %s", cfg.Auth.ClientID)
		return auth.NewDeviceFlow(
			auth.DeviceConfig{
				ClientID: cfg.Auth.ClientID,
				Scope:    cfg.Auth.Scope,
				Service:  cfg.Service.Name,
			},
			newLoginClient(cfg, httpClient),
			api,
			env.notifier,
			auth.WithSleeper(env.sleep),
			auth.WithDeviceLogger(env.log),
		), nil
	case config.FlowPassword:
		env.log.Debug("auth: password flow")
		return auth.NewPasswordFlow(api, env.prompter, env.log).WithService(cfg.Service.Name), nil
	default:
		return nil, errors.New(errors.ErrConfig,
			"Unknown auth flow '"+cfg.Auth.Flow+"'",
			"Set auth.flow to device or password")
	}
}

func userAgent() string {
	return "ghkey/" + version
}
