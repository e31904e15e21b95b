package postgres

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
)

type UserDTO struct {
	ID        uuid.UUID
	Email     string
	PassHash  []byte
	Role      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *UserDTO) scanArgs() []any {
	return []any{&d.ID, &d.Email, &d.PassHash, &d.Role, &d.Verified, &d.CreatedAt, &d.UpdatedAt}
}

func DomainToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:        uuid.UUID(u.ID()),
		Email:     u.Email(),
		PassHash:  u.PassHash(),
		Role:      u.Role().String(),
		Verified:  u.Verified(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

func UserToDomain(d UserDTO) *user.User {
	return user.Rehydrate(user.RehydrateArgs{
		ID:        user.ID(d.ID),
		Email:     d.Email,
		PassHash:  d.PassHash,
		Role:      role.Role(d.Role),
		Verified:  d.Verified,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	})
}

type VerificationDTO struct {
	ID        uuid.UUID
	Code      string
	UserID    uuid.UUID
	CreatedAt time.Time
}

func (d *VerificationDTO) scanArgs() []any {
	return []any{&d.ID, &d.Code, &d.UserID, &d.CreatedAt}
}

func DomainToVerificationDTO(v *verification.Verification) VerificationDTO {
	return VerificationDTO{
		ID:        uuid.UUID(v.ID()),
		Code:      v.Code(),
		UserID:    uuid.UUID(v.UserID()),
		CreatedAt: v.CreatedAt(),
	}
}

func VerificationToDomain(d VerificationDTO) *verification.Verification {
	return verification.Rehydrate(verification.RehydrateArgs{
		ID:        verification.ID(d.ID),
		Code:      d.Code,
		UserID:    user.ID(d.UserID),
		CreatedAt: d.CreatedAt,
	})
}
