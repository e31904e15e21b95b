package verification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/randcode"
)

// CodeLength gives 36^24 possible codes, well beyond guessable.
const CodeLength = 24

type ID uuid.UUID

func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// Verification is a single-use proof of email ownership. A user owns at most one.
type Verification struct {
	id        ID
	code      string
	userID    user.ID
	createdAt time.Time
}

// New issues a fresh code for the user.
func New(userID user.ID) (*Verification, error) {
	if userID.IsZero() {
		return nil, ErrMissingUser
	}

	code, err := randcode.GenerateAlphaNumericCode(CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	return &Verification{
		id:        NewID(),
		code:      code,
		userID:    userID,
		createdAt: time.Now().UTC(),
	}, nil
}

type RehydrateArgs struct {
	ID        ID
	Code      string
	UserID    user.ID
	CreatedAt time.Time
}

func Rehydrate(args RehydrateArgs) *Verification {
	return &Verification{
		id:        args.ID,
		code:      args.Code,
		userID:    args.UserID,
		createdAt: args.CreatedAt,
	}
}

func (v *Verification) ID() ID {
	if v == nil {
		return ID{}
	}
	return v.id
}

func (v *Verification) Code() string {
	if v == nil {
		return ""
	}
	return v.code
}

func (v *Verification) UserID() user.ID {
	if v == nil {
		return user.ID{}
	}
	return v.userID
}

func (v *Verification) CreatedAt() time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.createdAt
}
