package builders

import (
	"time"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/pkg/passhash"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
)

// Hasher is a cheap bcrypt hasher for tests.
var Hasher = passhash.New(fixtures.TestPasswordCost)

type UserBuilder struct {
	id        user.ID
	email     string
	password  string
	passHash  []byte
	role      role.Role
	verified  bool
	createdAt time.Time
	updatedAt time.Time
}

func NewUserBuilder() *UserBuilder {
	hash, _ := Hasher.Hash(fixtures.ValidPassword)
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &UserBuilder{
		id:        user.NewID(),
		email:     fixtures.ValidEmail,
		password:  fixtures.ValidPassword,
		passHash:  hash,
		role:      role.Client,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *UserBuilder) WithID(id user.ID) *UserBuilder {
	b.id = id
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	b.passHash, _ = Hasher.Hash(password)
	return b
}

func (b *UserBuilder) WithPassHash(passHash []byte) *UserBuilder {
	b.passHash = passHash
	return b
}

func (b *UserBuilder) WithRole(r role.Role) *UserBuilder {
	b.role = r
	return b
}

func (b *UserBuilder) Verified() *UserBuilder {
	b.verified = true
	return b
}

func (b *UserBuilder) Password() string {
	return b.password
}

func (b *UserBuilder) RehydrateArgs() user.RehydrateArgs {
	return user.RehydrateArgs{
		ID:        b.id,
		Email:     b.email,
		PassHash:  b.passHash,
		Role:      b.role,
		Verified:  b.verified,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}
}

func (b *UserBuilder) Build() *user.User {
	return user.Rehydrate(b.RehydrateArgs())
}
