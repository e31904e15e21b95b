package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
)

const (
	constraintUsersEmail        = "users_email_key"
	constraintVerificationsUser = "verifications_user_id_key"
	constraintVerificationsCode = "verifications_code_key"
)

var (
	ErrNoRowsAffected = errorx.NewNoRowsAffected()
	ErrNilFunc        = errors.New("update function cannot be nil")
)

// mapError turns driver errors into domain errors. Anything it does not
// recognise is wrapped with op and returned as is.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsersEmail:
			return user.ErrEmailTaken.WithCause(err, op)
		case constraintVerificationsUser:
			return errorx.NewDuplicateEntryWithField("verification", "user_id").WithCause(err, op)
		case constraintVerificationsCode:
			return errorx.NewDuplicateEntryWithField("verification", "code").WithCause(err, op)
		default:
			return errorx.NewDuplicateEntry().WithCause(err, op)
		}
	}

	return errorx.Wrap(err, op)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
