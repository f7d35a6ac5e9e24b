// Package auth authenticates ghkey against the git hosting service.
//
// Two flows are provided, both returning a resource.Client whose shared
// options carry the resulting credential:
//
//	DeviceFlow   - OAuth device authorization (RFC 8628). The operator
//	               approves a short code in a browser while ghkey polls.
//	PasswordFlow - HTTP basic credentials with an optional one-time
//	               password challenge.
//
// # Device Flow
//
//	Unstarted -> CodeRequested -> Polling -> Authenticated
//	                                      -> Denied
//	                                      -> Expired
//
// Polling sleeps for the interval the service sent with the device code
// before every token request. "authorization_pending" keeps polling,
// "expired_token" (or running past expires_in) ends in Expired, any other
// error ends in Denied. On success the token is installed as a bearer
// Authorization header.
//
// # Password Flow
//
//	Unauthenticated -> Authenticated
//	                -> SecondFactorRequired -> Authenticated
//	                -> Rejected
//
// A 401 whose X-GitHub-OTP header starts with "required" asks for a
// second factor. The code is installed on the shared options and is not
// checked until the next real request.
//
// The state transitions themselves (nextDeviceState, classify) are pure
// functions of the service response; prompting, display and sleeping go
// through the DeviceNotifier, Prompter and Sleeper seams.
package auth
