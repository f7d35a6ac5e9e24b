package keystore

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/util"
	"golang.org/x/crypto/ssh"
)

const (
	// DefaultName is the conventional RSA key file name.
	DefaultName = "id_rsa"
	// DefaultBits is the RSA modulus size used when none is requested.
	DefaultBits = 4096
	// PublicSuffix is appended to the private key path by ssh-keygen.
	PublicSuffix = ".pub"
)

// Runner runs an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// KeyPair locates a private key and its public half on disk.
type KeyPair struct {
	PrivatePath string
	PublicPath  string

	runner Runner
	log    logger.Logger
}

// Option customizes a KeyPair.
type Option func(*KeyPair)

// WithRunner replaces the ssh-keygen runner.
func WithRunner(r Runner) Option {
	return func(k *KeyPair) { k.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(k *KeyPair) { k.log = l }
}

// New returns the key pair at dir/name. An empty dir means ~/.ssh and an
// empty name means id_rsa.
func New(dir, name string, opts ...Option) *KeyPair {
	if dir == "" {
		dir = DefaultDir()
	}
	if name == "" {
		name = DefaultName
	}
	return NewFromPath(filepath.Join(expandPath(dir), name), opts...)
}

// NewFromPath returns the key pair whose private key lives at path.
func NewFromPath(path string, opts ...Option) *KeyPair {
	path = expandPath(path)
	k := &KeyPair{
		PrivatePath: path,
		PublicPath:  path + PublicSuffix,
		runner:      ExecRunner{},
		log:         logger.Noop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// DefaultDir returns ~/.ssh.
func DefaultDir() string {
	return filepath.Join(homeDir(), ".ssh")
}

// Exists reports whether the private key file is present.
func (k *KeyPair) Exists() bool {
	info, err := os.Stat(k.PrivatePath)
	return err == nil && !info.IsDir()
}

// Generate creates a new RSA key pair with ssh-keygen. It refuses to touch
// an existing key.
func (k *KeyPair) Generate(ctx context.Context, comment string, bits int) error {
	if bits <= 0 {
		bits = DefaultBits
	}

	if k.Exists() {
		return errors.New(errors.ErrKey,
			fmt.Sprintf("Key already exists at %s", k.PrivatePath),
			"Use the existing key, or move it aside to generate a new one").
			WithKind(errors.ErrKeyAlreadyExists)
	}

	sshDir := filepath.Dir(k.PrivatePath)
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		return errors.WrapWithCode(err, errors.ErrKey,
			fmt.Sprintf("Failed to create SSH directory: %s", sshDir),
			"Check permissions on home directory").
			WithKind(errors.ErrKeyGenerationFailed)
	}

	args := []string{
		"-t", "rsa",
		"-N", "",
		"-C", comment,
		"-b", strconv.Itoa(bits),
		"-f", k.PrivatePath,
	}
	k.log.Debug("running %s", util.ShellJoin("ssh-keygen", args...))

	output, err := k.runner.Run(ctx, "ssh-keygen", args...)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrKey,
			fmt.Sprintf("Failed to generate SSH key: %s", strings.TrimSpace(string(output))),
			"Ensure ssh-keygen is installed and accessible").
			WithKind(errors.ErrKeyGenerationFailed)
	}

	if !k.Exists() {
		return errors.New(errors.ErrKey,
			"Key generation completed but key file not found",
			"Check disk space and permissions").
			WithKind(errors.ErrKeyGenerationFailed)
	}

	k.log.Info("generated %d-bit RSA key at %s", bits, k.PrivatePath)
	return nil
}

// ReadPublicKey returns the trimmed contents of the public key file.
func (k *KeyPair) ReadPublicKey() (string, error) {
	data, err := os.ReadFile(k.PublicPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.WrapWithCode(err, errors.ErrKey,
				fmt.Sprintf("Public key not found: %s", k.PublicPath),
				"Regenerate it with: ssh-keygen -y -f "+k.PrivatePath+" > "+k.PublicPath).
				WithKind(errors.ErrKeyNotFound)
		}
		return "", errors.WrapWithCode(err, errors.ErrKey,
			fmt.Sprintf("Failed to read public key: %s", k.PublicPath),
			"Check that the file is readable").
			WithKind(errors.ErrKeyNotFound)
	}
	return strings.TrimSpace(string(data)), nil
}

// Fingerprint parses an authorized_keys formatted line and returns its
// SHA256 fingerprint.
func Fingerprint(publicKey string) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrKey,
			"Public key is not in authorized_keys format",
			"")
	}
	return ssh.FingerprintSHA256(pub), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func expandPath(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
