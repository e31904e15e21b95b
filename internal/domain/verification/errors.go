package verification

import (
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

var (
	ErrMissingUser = errorx.NewValidationFieldFailed("user_id")
	ErrNotFound    = errorx.NewResourceNotFound("verification").WithKey(i18nx.KeyVerificationNotFound)
)
