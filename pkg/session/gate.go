package session

import (
	"crypto/subtle"
	"strings"
)

// Gate decides whether a login attempt succeeds
type Gate interface {
	Authenticate(username, password string) bool
}

// StaticGate accepts a single configured pair of credentials.
// With no configured username any non-empty username and password pass.
type StaticGate struct {
	Username string
	Password string
}

// Authenticate checks credentials in constant time
func (g StaticGate) Authenticate(username, password string) bool {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false
	}
	if g.Username == "" {
		return true
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.Password)) == 1
	return userOK && passOK
}
