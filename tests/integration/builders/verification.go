package builders

import (
	"time"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
)

type VerificationBuilder struct {
	id        verification.ID
	code      string
	userID    user.ID
	createdAt time.Time
}

func NewVerificationBuilder() *VerificationBuilder {
	return &VerificationBuilder{
		id:        verification.NewID(),
		code:      fixtures.ValidCode,
		userID:    fixtures.ValidUserID,
		createdAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (b *VerificationBuilder) WithCode(code string) *VerificationBuilder {
	b.code = code
	return b
}

func (b *VerificationBuilder) WithUserID(id user.ID) *VerificationBuilder {
	b.userID = id
	return b
}

func (b *VerificationBuilder) Build() *verification.Verification {
	return verification.Rehydrate(verification.RehydrateArgs{
		ID:        b.id,
		Code:      b.code,
		UserID:    b.userID,
		CreatedAt: b.createdAt,
	})
}
