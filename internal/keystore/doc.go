// Package keystore manages the local SSH key pair that ghkey registers.
//
// A KeyPair is a private key path plus the public key path ssh-keygen
// writes beside it (the private path with ".pub" appended). Paths default
// to ~/.ssh/id_rsa:
//
//	key := keystore.New("", "")
//	if !key.Exists() {
//		err := key.Generate(ctx, "me@laptop", keystore.DefaultBits)
//	}
//	pub, err := key.ReadPublicKey()
//
// # Key Generation
//
// Generate shells out to ssh-keygen for an RSA key with an empty
// passphrase:
//
//	ssh-keygen -t rsa -N "" -C <comment> -b <bits> -f <private path>
//
// It never overwrites an existing key; callers check Exists first and get
// ErrKeyAlreadyExists otherwise. The ssh-keygen invocation goes through the
// Runner interface so tests can substitute a fake.
//
// # SSH Config
//
// IdentityFromSSHConfig looks up the IdentityFile that ~/.ssh/config
// assigns to the git host, so a key already wired up for github.com is the
// one that gets registered.
//
// The package never reads or logs private key material.
package keystore
