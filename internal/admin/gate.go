package admin

import "crypto/subtle"

// Gate decides whether a passcode grants admin access.
type Gate interface {
	Allow(passcode string) bool
}

// Passcode is a Gate backed by a single shared secret.
type Passcode string

// DefaultPasscode is used when none is configured.
const DefaultPasscode Passcode = "1234"

func (p Passcode) Allow(passcode string) bool {
	return subtle.ConstantTimeCompare([]byte(p), []byte(passcode)) == 1
}
