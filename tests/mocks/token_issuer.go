package mocks

import (
	"context"
	"sync"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
)

type TokenIssuer struct {
	*Faults
	mu    sync.Mutex
	calls []user.ID
}

func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{Faults: NewFaults()}
}

func (i *TokenIssuer) Issue(ctx context.Context, userID user.ID) (string, error) {
	i.mu.Lock()
	i.calls = append(i.calls, userID)
	i.mu.Unlock()

	if err := i.Fault("Issue"); err != nil {
		return "", err
	}
	return "token-" + userID.String(), nil
}

func (i *TokenIssuer) Calls() []user.ID {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]user.ID(nil), i.calls...)
}
