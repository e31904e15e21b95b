package fixtures

import (
	"strings"

	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
)

// Test emails
const (
	ValidEmail         = "client@test.com"
	ValidEmail2        = "client2@test.com"
	ValidOwnerEmail    = "owner@test.com"
	ValidDeliveryEmail = "delivery@test.com"
	ValidExternalEmail = "external@gmail.com"
	InvalidEmail       = "notanemail"
)

const (
	ValidPassword      = "Passw0rd!"
	ValidPassword2     = "An0therPass"
	WeakPassword       = "password"
	TestTokenSecret    = "test-token-secret-with-enough-entropy"
	ValidCode          = "ABCDEFGHIJKLMNOPQRSTUVWX"
	UnknownCode        = "ZZZZZZZZZZZZZZZZZZZZZZZZ"
	TestPasswordCost   = 4
	VerificationLength = 24
)

var (
	ValidUserID  = user.ID(uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"))
	ValidUser2ID = user.ID(uuid.MustParse("660e8400-e29b-41d4-a716-446655440001"))
)

var TooLongPassword = "Aa1" + strings.Repeat("x", 100)
