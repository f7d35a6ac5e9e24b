package config

import (
	"fmt"
	"net/url"

	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/util"
	"gopkg.in/yaml.v3"
)

// MinKeyBits is the smallest RSA key ssh-keygen will make.
const MinKeyBits = 1024

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but ghkey only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest ghkey release")
	}

	switch cfg.Auth.Flow {
	case FlowDevice:
		if cfg.Auth.ClientID == "" {
			return errors.New(errors.ErrConfig,
				"auth.client_id is required for the device flow",
				"Set it to the client ID of an OAuth app with device flow enabled")
		}
		if err := validateURL("service.login_url", cfg.Service.LoginURL); err != nil {
			return err
		}
	case FlowPassword:
	default:
		suggestion := fmt.Sprintf("Set auth.flow to %s or %s", FlowDevice, FlowPassword)
		if similar := util.SuggestSimilar(cfg.Auth.Flow, []string{FlowDevice, FlowPassword}, 2); len(similar) > 0 {
			suggestion = fmt.Sprintf("Did you mean '%s'?", similar[0])
		}
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown auth flow '%s'", cfg.Auth.Flow),
			suggestion)
	}

	if err := validateURL("service.api_url", cfg.Service.APIURL); err != nil {
		return err
	}

	if cfg.Key.Bits < MinKeyBits {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("key.bits is %d, RSA keys need at least %d", cfg.Key.Bits, MinKeyBits),
			"Use 4096 unless you have a reason not to")
	}

	if cfg.HTTP.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"http.timeout must be positive",
			"Try something like 30s")
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s '%s' is not an absolute URL", field, raw),
			"Use a full URL like https://api.github.com")
	}
	return nil
}

// Dump renders the config as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out := struct {
		Version int           `yaml:"version"`
		Auth    AuthConfig    `yaml:"auth"`
		Service ServiceConfig `yaml:"service"`
		Key     KeyConfig     `yaml:"key"`
		HTTP    struct {
			Timeout string `yaml:"timeout"`
		} `yaml:"http"`
	}{
		Version: cfg.Version,
		Auth:    cfg.Auth,
		Service: cfg.Service,
		Key:     cfg.Key,
	}
	out.HTTP.Timeout = cfg.HTTP.Timeout.String()

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to render config", "")
	}
	return data, nil
}
