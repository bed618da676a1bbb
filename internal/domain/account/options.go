package account

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Options tunes credential and session handling. Zero values take defaults.
type Options struct {
	MinPasswordLength int
	SessionTTL        time.Duration
	BcryptCost        int
}

const (
	DefaultMinPasswordLength = 6
	DefaultSessionTTL        = 30 * 24 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.MinPasswordLength <= 0 {
		o.MinPasswordLength = DefaultMinPasswordLength
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}
