package ctxs

import (
	"context"

	"github.com/jackc/pgx/v5"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
)

type ctxKey int

const (
	txKey ctxKey = iota
	userKey
)

// User is the authenticated caller resolved from an identity token.
type User struct {
	ID user.ID
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func Tx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok && tx != nil
}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromCtx(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil
}
