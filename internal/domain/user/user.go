package user

import (
	"errors"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/internal/domain/event"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/pkg/validationx"
)

type ID uuid.UUID

func NewID() ID {
	return ID(uuid.New())
}

func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID(id), nil
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// PasswordHasher is the credential hasher every password goes through before it reaches a User.
type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, hashed []byte) bool
}

type User struct {
	event.Recorder
	id        ID
	email     string
	passHash  []byte
	role      role.Role
	verified  bool
	createdAt time.Time
	updatedAt time.Time
}

type RegisterArgs struct {
	ID       ID
	Email    string
	Password string
	Role     role.Role
}

func (a RegisterArgs) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validationx.Required),
		validation.Field(&a.Email, validationx.EmailRules...),
		validation.Field(&a.Password, validationx.StorablePasswordRules...),
		validation.Field(&a.Role, validation.Required),
	)
}

// Register creates an unverified user. The password is hashed before the user exists.
func Register(args RegisterArgs, hasher PasswordHasher) (*User, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	if hasher == nil {
		return nil, errors.New("password hasher is nil")
	}

	passHash, err := hasher.Hash(args.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &User{
		id:        args.ID,
		email:     args.Email,
		passHash:  passHash,
		role:      args.Role,
		verified:  false,
		createdAt: now,
		updatedAt: now,
	}

	u.AddEvent(&AccountCreated{
		Header: event.NewEventHeader(),
		UserID: u.id,
		Email:  u.email,
		Role:   u.role,
	})

	return u, nil
}

type RehydrateArgs struct {
	ID        ID
	Email     string
	PassHash  []byte
	Role      role.Role
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func Rehydrate(p RehydrateArgs) *User {
	return &User{
		id:        p.ID,
		email:     p.Email,
		passHash:  p.PassHash,
		role:      p.Role,
		verified:  p.Verified,
		createdAt: p.CreatedAt,
		updatedAt: p.UpdatedAt,
	}
}

// ChangeEmail sets a new address and drops the verified flag. It reports
// false and leaves the user untouched when the address is the same.
func (u *User) ChangeEmail(email string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if err := validation.Validate(email, validationx.EmailRules...); err != nil {
		return false, validation.Errors{"email": err}
	}
	if email == u.email {
		return false, nil
	}

	old := u.email
	u.email = email
	u.verified = false
	u.updatedAt = time.Now().UTC()

	u.AddEvent(&EmailChanged{
		Header:   event.NewEventHeader(),
		UserID:   u.id,
		OldEmail: old,
		NewEmail: email,
	})

	return true, nil
}

func (u *User) ChangePassword(password string, hasher PasswordHasher) error {
	if u == nil {
		return ErrNilUser
	}
	if err := validation.Validate(password, validationx.StorablePasswordRules...); err != nil {
		return validation.Errors{"password": err}
	}
	if hasher == nil {
		return errors.New("password hasher is nil")
	}

	passHash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	u.passHash = passHash
	u.updatedAt = time.Now().UTC()

	u.AddEvent(&PasswordChanged{
		Header: event.NewEventHeader(),
		UserID: u.id,
	})

	return nil
}

// MarkVerified confirms ownership of the current email address.
func (u *User) MarkVerified() error {
	if u == nil {
		return ErrNilUser
	}

	u.verified = true
	u.updatedAt = time.Now().UTC()

	u.AddEvent(&EmailVerified{
		Header: event.NewEventHeader(),
		UserID: u.id,
		Email:  u.email,
	})

	return nil
}

// RehashPassword replaces the stored hash with a fresh one of the same password.
// The password itself does not change, so no event is recorded.
func (u *User) RehashPassword(password string, hasher PasswordHasher) error {
	if u == nil {
		return ErrNilUser
	}
	if hasher == nil {
		return errors.New("password hasher is nil")
	}
	if !hasher.Verify(password, u.passHash) {
		return ErrPasswordMismatch
	}

	passHash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	u.passHash = passHash
	u.updatedAt = time.Now().UTC()
	return nil
}

func (u *User) ComparePassword(password string, hasher PasswordHasher) bool {
	if u == nil || hasher == nil {
		return false
	}
	return hasher.Verify(password, u.passHash)
}

func (u *User) ID() ID {
	if u == nil {
		return ID{}
	}
	return u.id
}

func (u *User) Email() string {
	if u == nil {
		return ""
	}
	return u.email
}

func (u *User) PassHash() []byte {
	if u == nil {
		return nil
	}
	return u.passHash
}

func (u *User) Role() role.Role {
	if u == nil {
		return ""
	}
	return u.role
}

func (u *User) Verified() bool {
	if u == nil {
		return false
	}
	return u.verified
}

func (u *User) CreatedAt() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.updatedAt
}

// Credentials is the minimal projection needed to check a login attempt.
type Credentials struct {
	ID       ID
	PassHash []byte
}

func (c *Credentials) Matches(password string, hasher PasswordHasher) bool {
	if c == nil || hasher == nil {
		return false
	}
	return hasher.Verify(password, c.PassHash)
}
