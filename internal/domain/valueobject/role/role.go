package role

import (
	"strings"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

// Role is fixed when the account is created and never changes afterwards.
type Role string

const (
	Client   = Role("client")
	Owner    = Role("owner")
	Delivery = Role("delivery")
)

var ErrInvalid = validation.NewError(i18nx.ValidationInInvalid, "must be one of client, owner, delivery")

func (r Role) String() string {
	return string(r)
}

func IsValid[T Role | string](role T) bool {
	switch Role(role) {
	case Client, Owner, Delivery:
		return true
	default:
		return false
	}
}

// Parse is case-insensitive, so "Owner" and "OWNER" resolve to Owner.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !IsValid(r) {
		return "", ErrInvalid
	}
	return r, nil
}

// Validate makes Role usable as a validation.Validatable field.
func (r Role) Validate() error {
	if r == "" {
		return nil
	}
	if !IsValid(r) {
		return ErrInvalid
	}
	return nil
}
