// Package provision makes sure the local SSH public key is registered with
// the operator's account: generate a key if there is none, authenticate,
// and upload the key unless the account already has it.
package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/rileyhilliard/ghkey/internal/auth"
	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/rileyhilliard/ghkey/internal/keystore"
	"github.com/rileyhilliard/ghkey/internal/logger"
	"github.com/rileyhilliard/ghkey/internal/resource"
	"github.com/rileyhilliard/ghkey/internal/ui"
	"github.com/rileyhilliard/ghkey/internal/util"
)

// KeyStore is the local key pair.
type KeyStore interface {
	Exists() bool
	Generate(ctx context.Context, comment string, bits int) error
	ReadPublicKey() (string, error)
}

// RemoteKey is one entry of the account's key list.
type RemoteKey struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
	Key   string `json:"key"`
}

// Outcome describes what a successful run did.
type Outcome int

const (
	// AlreadyRegistered means the account already had the key.
	AlreadyRegistered Outcome = iota
	// Uploaded means the key was added to the account.
	Uploaded
)

// Options configures a run.
type Options struct {
	Keys KeyStore
	Auth auth.Authenticator

	// Comment tags a generated key and titles the uploaded key. Empty
	// means Identity().
	Comment string

	// Bits is the RSA key size for a new key.
	Bits int

	// Service names the account holder in messages, e.g. "GitHub".
	Service string

	Out io.Writer
	Log logger.Logger
}

// Run performs the provisioning sequence. Every failure is fatal.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := logger.OrDefault(opts.Log)
	service := opts.Service
	if service == "" {
		service = "the service"
	}

	comment := opts.Comment
	if comment == "" {
		comment = Identity()
	}

	if !opts.Keys.Exists() {
		fmt.Fprintf(out, "%s No SSH key found, generating one for %s\n", ui.SymbolPending, comment)
		if err := opts.Keys.Generate(ctx, comment, opts.Bits); err != nil {
			return 0, err
		}
	}

	publicKey, err := opts.Keys.ReadPublicKey()
	if err != nil {
		return 0, err
	}
	publicKey = strings.TrimSpace(publicKey)
	log.Debug("local public key: %s", publicKey)
	label := keyLabel(publicKey, log)

	api, err := opts.Auth.Authenticate(ctx)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "%s Authenticated. Checking keys...\n", ui.SymbolSuccess)

	keysResource := api.WithPath("user", "keys")

	resp, err := keysResource.Get(ctx, nil)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrAPI,
			"Couldn't list your SSH keys",
			"Check your network connection")
	}
	if !resp.OK() {
		return 0, errors.New(errors.ErrAPI,
			withServiceMessage(fmt.Sprintf("Listing SSH keys failed with status %d", resp.Status), resp),
			"Make sure the credential has the admin:public_key scope")
	}

	var remote []RemoteKey
	if err := resp.JSON(&remote); err != nil {
		return 0, errors.Wrap(err, "Couldn't read the SSH key list")
	}
	log.Debug("account has %d %s", len(remote), util.Pluralize(len(remote), "key", "keys"))

	if match, ok := MatchKey(publicKey, remote); ok {
		log.Debug("local key matches remote key %q", match.Title)
		fmt.Fprintf(out, "%s The key on this machine%s is already on %s. You're good to go!\n", ui.SymbolSuccess, label, service)
		return AlreadyRegistered, nil
	}

	resp, err = keysResource.Post(ctx, RemoteKey{Title: comment, Key: publicKey})
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrAPI,
			"Could not create key!",
			"Check your network connection").
			WithKind(errors.ErrUploadFailed)
	}
	if !resp.OK() {
		return 0, errors.New(errors.ErrAPI,
			withServiceMessage(fmt.Sprintf("Could not create key! (status %d)", resp.Status), resp),
			uploadSuggestion(service, resp.Status)).
			WithKind(errors.ErrUploadFailed)
	}

	fmt.Fprintf(out, "%s Key %s%s created! Check your account.\n", ui.SymbolSuccess, comment, label)
	return Uploaded, nil
}

// MatchKey returns the first remote key that is a prefix of the local key.
// The service stores keys without their comment, so a prefix is a match.
func MatchKey(local string, remote []RemoteKey) (RemoteKey, bool) {
	for _, k := range remote {
		if k.Key != "" && strings.HasPrefix(local, k.Key) {
			return k, true
		}
	}
	return RemoteKey{}, false
}

// Identity returns user@host for titling keys. The login name comes from
// LOGNAME, USER, LNAME or USERNAME before the password database.
func Identity() string {
	name := loginName()

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return name + "@" + host
}

func loginName() string {
	for _, env := range []string{"LOGNAME", "USER", "LNAME", "USERNAME"} {
		if name := os.Getenv(env); name != "" {
			return name
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// keyLabel is " (SHA256:...)" for display, or "" when the key doesn't parse.
func keyLabel(publicKey string, log logger.Logger) string {
	fp, err := keystore.Fingerprint(publicKey)
	if err != nil {
		log.Debug("no fingerprint for local key: %v", err)
		return ""
	}
	return " (" + fp + ")"
}

func withServiceMessage(msg string, resp *resource.Response) string {
	if detail := resp.Message(); detail != "" {
		return msg + ": " + detail
	}
	return msg
}

func uploadSuggestion(service string, status int) string {
	switch status {
	case 401, 403:
		return "The credential can't write keys. It needs the admin:public_key scope."
	case 422:
		return fmt.Sprintf("%s rejected the key. It may already be registered on another account.", service)
	default:
		return ""
	}
}
