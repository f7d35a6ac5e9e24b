// Package cli implements the ghkey command-line interface.
//
// The root command takes no arguments. It loads the optional config file,
// wires the key store, the HTTP clients and the auth flow together and
// hands them to provision.Run:
//
//	ghkey               - Make sure this machine's key is on the account
//	ghkey config        - Print the effective configuration
//	ghkey version       - Print build information
//	ghkey completion    - Generate shell completion scripts
//
// The auth flow is not a flag. main sets the build's default with
// SetDefaultFlow and the config file may override it with auth.flow.
//
// Any failure prints the structured error to stderr and exits 1.
package cli
