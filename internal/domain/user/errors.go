package user

import (
	"errors"

	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

var (
	ErrNilUser          = errors.New("user is nil")
	ErrPasswordMismatch = errors.New("password does not match the stored hash")

	ErrNotFound   = errorx.NewResourceNotFound("user").WithKey(i18nx.KeyUserNotFound)
	ErrEmailTaken = errorx.NewDuplicateEntryWithField("user", "email").WithKey(i18nx.KeyEmailTaken)
)
