// Package otp generates one-time passwords and decodes provisioning URIs.
//
// Supported account types:
//
//   - TOTP (RFC 6238): the moving factor is floor(unix(now) / period).
//   - HOTP (RFC 4226): the moving factor is an externally tracked counter.
//   - STEAM: Steam Guard codes, five characters over a 26-symbol alphabet
//     derived from HMAC-SHA1 over 30 second windows.
//
// HMAC is computed with SHA1, SHA256 or SHA512. Codes are produced by
// dynamic truncation and reduced modulo 10^digits, where digits must be
// between 6 and 10 inclusive. Values outside that range are rejected with
// ErrInvalidParameters rather than clamped.
//
// Provisioning URIs use the de-facto authenticator format:
//
//	otpauth://{totp|hotp|steam}/[ISSUER:]NAME?secret=BASE32&issuer=...&algorithm=SHA1&digits=6&period=30
//
// Parse returns either a complete Account or a *ParseError whose Kind is one
// of MalformedURI, MissingSecret or UnsupportedType. An issuer embedded in
// the label takes precedence over the issuer query parameter.
//
// All functions are pure; they never read the clock themselves.
package otp
