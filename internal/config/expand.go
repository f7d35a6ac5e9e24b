package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := getHome()
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Expand replaces variables in a string with their values.
// Supported variables:
//   - ${USER} - current username
//   - ${HOME} - user's home directory
//   - ${HOST} - short hostname, handy for per-machine key names
func Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	result := s
	if strings.Contains(result, "${USER}") {
		result = strings.ReplaceAll(result, "${USER}", getUser())
	}
	if strings.Contains(result, "${HOME}") {
		result = strings.ReplaceAll(result, "${HOME}", getHome())
	}
	if strings.Contains(result, "${HOST}") {
		result = strings.ReplaceAll(result, "${HOST}", getHost())
	}
	return result
}

// expandKeyPaths resolves variables and ~ in the key location.
func expandKeyPaths(cfg *Config) {
	cfg.Key.Dir = ExpandTilde(Expand(cfg.Key.Dir))
	cfg.Key.Name = Expand(cfg.Key.Name)
}

// getUser returns the current username for ${USER} expansion.
func getUser() string {
	for _, env := range []string{"USER", "LOGNAME", "USERNAME"} {
		if user := os.Getenv(env); user != "" {
			return user
		}
	}
	return "user"
}

// getHome returns the home directory for ${HOME} expansion.
func getHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

// getHost returns the hostname up to the first dot.
func getHost() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
