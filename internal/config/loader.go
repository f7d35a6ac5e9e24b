package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the per-directory config file name.
	ConfigFileName = ".ghkey.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/ghkey"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// ConfigEnv names an explicit config file.
	ConfigEnv = "GHKEY_CONFIG"
	// EnvPrefix prefixes environment overrides, e.g. GHKEY_AUTH_FLOW.
	EnvPrefix = "GHKEY"
)

// Load reads config from path. An empty path loads defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+path,
					"Check the path, or unset "+ConfigEnv)
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			unmarshalSuggestion(path))
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	expandKeyPaths(cfg)
	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from GHKEY_CONFIG)
// 2. .ghkey.yaml in the current directory
// 3. ~/.config/ghkey/config.yaml
//
// Returns "" when there is no config file.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+explicit,
				"Check the path is correct")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault finds and loads the config, falling back to defaults when
// no file exists.
func LoadOrDefault() (*Config, string, error) {
	path, err := Find(os.Getenv(ConfigEnv))
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newViper returns a viper instance with every key defaulted, so
// environment overrides apply even without a config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("auth.flow", def.Auth.Flow)
	v.SetDefault("auth.client_id", def.Auth.ClientID)
	v.SetDefault("auth.scope", def.Auth.Scope)
	v.SetDefault("service.name", def.Service.Name)
	v.SetDefault("service.api_url", def.Service.APIURL)
	v.SetDefault("service.login_url", def.Service.LoginURL)
	v.SetDefault("service.ssh_host", def.Service.SSHHost)
	v.SetDefault("key.dir", def.Key.Dir)
	v.SetDefault("key.name", def.Key.Name)
	v.SetDefault("key.bits", def.Key.Bits)
	v.SetDefault("http.timeout", def.HTTP.Timeout)
	return v
}

func unmarshalSuggestion(path string) string {
	if path == "" {
		return "Check the " + EnvPrefix + "_* environment variables, e.g. " + EnvPrefix + "_KEY_BITS=4096"
	}
	return "Check the YAML syntax in " + path
}
