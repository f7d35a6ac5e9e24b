package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Auth flow names.
const (
	FlowDevice   = "device"
	FlowPassword = "password"
)

// DefaultFlow is the auth flow used when the config file does not pick one.
// main overrides it from the build (-ldflags "-X main.authFlow=password").
var DefaultFlow = FlowDevice

// DefaultClientID is the OAuth app used for the device flow.
const DefaultClientID = "269e96cbf27d57068fae"

// Config represents the ghkey configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Auth    AuthConfig    `yaml:"auth" mapstructure:"auth"`
	Service ServiceConfig `yaml:"service" mapstructure:"service"`
	Key     KeyConfig     `yaml:"key" mapstructure:"key"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
}

// AuthConfig selects and configures the authentication flow.
type AuthConfig struct {
	// Flow is "device" or "password".
	Flow string `yaml:"flow" mapstructure:"flow"`

	// ClientID is the OAuth app client ID (device flow only).
	ClientID string `yaml:"client_id" mapstructure:"client_id"`

	// Scope is the OAuth scope requested (device flow only).
	Scope string `yaml:"scope" mapstructure:"scope"`
}

// ServiceConfig locates the git hosting service.
type ServiceConfig struct {
	// Name is how messages and prompts refer to the service.
	Name string `yaml:"name" mapstructure:"name"`

	// APIURL is the REST API root.
	APIURL string `yaml:"api_url" mapstructure:"api_url"`

	// LoginURL is the identity service root serving /login/device/code.
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`

	// SSHHost is looked up in ~/.ssh/config for an IdentityFile.
	SSHHost string `yaml:"ssh_host" mapstructure:"ssh_host"`
}

// KeyConfig locates the local key pair.
type KeyConfig struct {
	// Dir holds the key pair. Empty means ~/.ssh.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Name is the private key file name. Empty means the IdentityFile for
	// the service's SSH host, falling back to id_rsa.
	Name string `yaml:"name" mapstructure:"name"`

	// Bits is the RSA key size for new keys.
	Bits int `yaml:"bits" mapstructure:"bits"`
}

// HTTPConfig tunes the HTTP transport.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns a Config with GitHub defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Auth: AuthConfig{
			Flow:     DefaultFlow,
			ClientID: DefaultClientID,
			Scope:    "admin:public_key",
		},
		Service: ServiceConfig{
			Name:     "GitHub",
			APIURL:   "https://api.github.com",
			LoginURL: "https://github.com",
			SSHHost:  "github.com",
		},
		Key: KeyConfig{
			Bits: 4096,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}
