package smtptest

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// authenticator verifies SMTP AUTH exchanges against configured credentials.
type authenticator struct {
	username string
	password string
}

// newAuthenticator creates an authenticator. If either credential is empty,
// authentication is disabled and AUTH is not advertised.
func newAuthenticator(username, password string) *authenticator {
	return &authenticator{username: username, password: password}
}

func (a *authenticator) enabled() bool {
	return a.username != "" && a.password != ""
}

// verifyPlain decodes and verifies an AUTH PLAIN response of the form
// base64(authzid\0authcid\0password).
func (a *authenticator) verifyPlain(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid base64 encoding")
	}

	parts := strings.SplitN(string(decoded), "\x00", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid AUTH PLAIN format")
	}

	// parts[0] is the authorization identity (ignored)
	if parts[1] != a.username || parts[2] != a.password {
		return fmt.Errorf("authentication failed")
	}
	return nil
}

// verifyLogin verifies AUTH LOGIN credentials after the challenge-response
// flow. Both values arrive base64-encoded.
func (a *authenticator) verifyLogin(encodedUser, encodedPass string) error {
	user, err := base64.StdEncoding.DecodeString(encodedUser)
	if err != nil {
		return fmt.Errorf("invalid base64 username")
	}
	pass, err := base64.StdEncoding.DecodeString(encodedPass)
	if err != nil {
		return fmt.Errorf("invalid base64 password")
	}

	if string(user) != a.username || string(pass) != a.password {
		return fmt.Errorf("authentication failed")
	}
	return nil
}
