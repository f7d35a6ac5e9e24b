package keystore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// DefaultSSHConfigPath returns ~/.ssh/config.
func DefaultSSHConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// IdentityFromSSHConfig returns the IdentityFile that the ssh config at
// configPath assigns to host, or "" when there is none. A missing or
// unparseable config is treated as having no entry.
func IdentityFromSSHConfig(configPath, host string) string {
	content, err := readSSHConfig(configPath)
	if err != nil {
		return ""
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	identity, err := cfg.Get(host, "IdentityFile")
	if err != nil || identity == "" {
		return ""
	}
	return expandPath(identity)
}

// readSSHConfig returns the config up to the first Match directive, which
// ssh_config cannot decode.
func readSSHConfig(configPath string) ([]byte, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			break
		}
		result = append(result, line)
	}
	return []byte(strings.Join(result, "\n")), nil
}
