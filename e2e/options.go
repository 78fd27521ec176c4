package e2e

import (
	"strings"

	"github.com/google/uuid"
)

type (
	// CreateUserOpts parameterizes CreateUser. The zero value matches
	// what a test almost always wants: an active account with the
	// tutorial and onboarding flows already dismissed. The remote
	// service, not this layer, enforces what the resulting account may
	// do.
	CreateUserOpts struct {
		Prefix       string // default 'user'
		Password     string // default: generated
		WithTutorial bool   // default false (tutorial marked done)
		Deactivated  bool   // default false (account stays active)
	}

	// CreateAdminOpts parameterizes CreateAdmin.
	CreateAdminOpts struct {
		Prefix      string // default 'admin'
		Password    string // default: generated
		Deactivated bool   // default false (account stays active)
	}
)

const (
	defaultUserPrefix  = "user"
	defaultAdminPrefix = "admin"

	randomIDLength = 8
)

// randomID returns a short unique suffix for fixture names, so repeated
// runs against the same server never collide.
func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:randomIDLength]
}

func (o *CreateUserOpts) prefix() string {
	if o.Prefix == "" {
		return defaultUserPrefix
	}
	return o.Prefix
}

func (o *CreateAdminOpts) prefix() string {
	if o.Prefix == "" {
		return defaultAdminPrefix
	}
	return o.Prefix
}
