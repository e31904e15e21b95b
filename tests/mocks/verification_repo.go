package mocks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
)

type VerificationRepo struct {
	*Faults
	dbbyID   map[verification.ID]*verification.Verification
	dbbyCode map[string]*verification.Verification
	dbbyUser map[user.ID]*verification.Verification
	mu       sync.Mutex
}

func NewVerificationRepo() *VerificationRepo {
	return &VerificationRepo{
		Faults:   NewFaults(),
		dbbyID:   make(map[verification.ID]*verification.Verification),
		dbbyCode: make(map[string]*verification.Verification),
		dbbyUser: make(map[user.ID]*verification.Verification),
	}
}

func (r *VerificationRepo) SaveVerification(ctx context.Context, v *verification.Verification) error {
	if err := r.Fault("SaveVerification"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dbbyUser[v.UserID()]; exists {
		return errorx.NewDuplicateEntryWithField("verification", "user_id")
	}
	if _, exists := r.dbbyCode[v.Code()]; exists {
		return errorx.NewDuplicateEntryWithField("verification", "code")
	}

	r.dbbyID[v.ID()] = v
	r.dbbyCode[v.Code()] = v
	r.dbbyUser[v.UserID()] = v
	return nil
}

func (r *VerificationRepo) GetVerificationByCode(ctx context.Context, code string) (*verification.Verification, error) {
	if err := r.Fault("GetVerificationByCode"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.dbbyCode[code]; ok {
		return v, nil
	}
	return nil, verification.ErrNotFound
}

func (r *VerificationRepo) GetVerificationByUserID(ctx context.Context, userID user.ID) (*verification.Verification, error) {
	if err := r.Fault("GetVerificationByUserID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.dbbyUser[userID]; ok {
		return v, nil
	}
	return nil, verification.ErrNotFound
}

func (r *VerificationRepo) DeleteVerificationsByUserID(ctx context.Context, userID user.ID) error {
	if err := r.Fault("DeleteVerificationsByUserID"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.dbbyUser[userID]; ok {
		r.remove(v)
	}
	return nil
}

func (r *VerificationRepo) DeleteVerification(ctx context.Context, id verification.ID) error {
	if err := r.Fault("DeleteVerification"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.dbbyID[id]
	if !ok {
		return verification.ErrNotFound
	}
	r.remove(v)
	return nil
}

func (r *VerificationRepo) remove(v *verification.Verification) {
	delete(r.dbbyID, v.ID())
	delete(r.dbbyCode, v.Code())
	delete(r.dbbyUser, v.UserID())
}

func (r *VerificationRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dbbyID)
}

func (r *VerificationRepo) SeedVerification(t *testing.T, v *verification.Verification) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dbbyUser[v.UserID()]; exists {
		t.Fatalf("verification for user %s already exists", v.UserID())
	}
	r.dbbyID[v.ID()] = v
	r.dbbyCode[v.Code()] = v
	r.dbbyUser[v.UserID()] = v
}

// RequireVerificationForUser returns the user's live verification.
func (r *VerificationRepo) RequireVerificationForUser(t *testing.T, userID user.ID) *verification.Verification {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.dbbyUser[userID]
	require.Truef(t, ok, "verification for user %s should exist", userID)
	return v
}

func (r *VerificationRepo) AssertNoVerificationForUser(t *testing.T, userID user.ID) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.dbbyUser[userID]
	assert.Falsef(t, ok, "verification for user %s should not exist", userID)
}

func (r *VerificationRepo) AssertCodeNotExists(t *testing.T, code string) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.dbbyCode[code]
	assert.Falsef(t, ok, "verification code %s should not exist", code)
}
