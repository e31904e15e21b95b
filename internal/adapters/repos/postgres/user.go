package postgres

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
	"gitlab.com/ucmsv2/accounts/pkg/postgres"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
)

const userColumns = `id, email, pass_hash, role, verified, created_at, updated_at`

const (
	insertUserQuery = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`
	updateUserQuery = `
		UPDATE users
		SET email = $2, pass_hash = $3, verified = $4, updated_at = $5
		WHERE id = $1;`
)

const (
	selectUserByIDQuery      = `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	selectUserByIDForUpdate  = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE;`
	selectUserByEmailQuery   = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	selectCredentialsByEmail = `SELECT id, pass_hash FROM users WHERE email = $1;`
	existsUserByEmailQuery   = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`
)

type UserRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewUserRepo creates a new instance of UserRepo.
//
// WARNING: panics if pool is nil
func NewUserRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *UserRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &UserRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewSlogAdapter(l, slog.LevelInfo),
	}
}

func (r *UserRepo) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	const op = "postgres.UserRepo.ExistsUserByEmail"
	ctx, span := r.tracer.Start(ctx, "UserRepo.ExistsUserByEmail")
	defer span.End()

	var exists bool
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, existsUserByEmailQuery, email).Scan(&exists); err != nil {
		otelx.RecordSpanError(span, err, "failed to check user existence")
		return false, errorx.Wrap(err, op)
	}

	return exists, nil
}

func (r *UserRepo) GetUserCredentialsByEmail(ctx context.Context, email string) (*user.Credentials, error) {
	const op = "postgres.UserRepo.GetUserCredentialsByEmail"
	ctx, span := r.tracer.Start(ctx, "UserRepo.GetUserCredentialsByEmail")
	defer span.End()

	var creds user.Credentials
	var id uuid.UUID
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, selectCredentialsByEmail, email).Scan(&id, &creds.PassHash)
	if err != nil {
		if isNoRows(err) {
			return nil, user.ErrNotFound.WithCause(err, op)
		}
		otelx.RecordSpanError(span, err, "failed to get user credentials")
		return nil, errorx.Wrap(err, op)
	}
	creds.ID = user.ID(id)

	return &creds, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id user.ID) (*user.User, error) {
	const op = "postgres.UserRepo.GetUserByID"
	ctx, span := r.tracer.Start(ctx, "UserRepo.GetUserByID")
	defer span.End()

	u, err := r.getUser(ctx, postgres.Conn(ctx, r.pool), selectUserByIDQuery, id.String())
	if err != nil {
		if !errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "failed to get user by id")
		}
		return nil, errorx.Wrap(err, op)
	}

	return u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	const op = "postgres.UserRepo.GetUserByEmail"
	ctx, span := r.tracer.Start(ctx, "UserRepo.GetUserByEmail")
	defer span.End()

	u, err := r.getUser(ctx, postgres.Conn(ctx, r.pool), selectUserByEmailQuery, email)
	if err != nil {
		if !errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "failed to get user by email")
		}
		return nil, errorx.Wrap(err, op)
	}

	return u, nil
}

func (r *UserRepo) getUser(ctx context.Context, q postgres.Querier, query string, arg any) (*user.User, error) {
	var dto UserDTO
	if err := q.QueryRow(ctx, query, arg).Scan(dto.scanArgs()...); err != nil {
		if isNoRows(err) {
			return nil, user.ErrNotFound.WithCause(err, "postgres.UserRepo.getUser")
		}
		return nil, err
	}
	return UserToDomain(dto), nil
}

// SaveUser inserts a new user and publishes its pending events in the same transaction.
func (r *UserRepo) SaveUser(ctx context.Context, u *user.User) error {
	const op = "postgres.UserRepo.SaveUser"
	ctx, span := r.tracer.Start(ctx, "UserRepo.SaveUser")
	defer span.End()

	if u == nil {
		return user.ErrNilUser
	}

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		dto := DomainToUserDTO(u)
		res, err := tx.Exec(ctx, insertUserQuery,
			dto.ID,
			dto.Email,
			dto.PassHash,
			dto.Role,
			dto.Verified,
			dto.CreatedAt,
			dto.UpdatedAt,
		)
		if err != nil {
			return mapError(err, op)
		}
		if res.RowsAffected() == 0 {
			return errorx.Wrap(ErrNoRowsAffected, op)
		}

		if err := watermillx.Publish(ctx, tx, r.wlogger, u.GetUncommittedEvents()...); err != nil {
			return errorx.Wrap(err, op)
		}
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to save user")
		return err
	}

	u.MarkEventsAsCommitted()
	return nil
}

// UpdateUser locks the row, applies fn and writes the result back. Nothing is
// written when fn fails.
func (r *UserRepo) UpdateUser(
	ctx context.Context,
	id user.ID,
	fn func(ctx context.Context, u *user.User) error,
) error {
	const op = "postgres.UserRepo.UpdateUser"
	ctx, span := r.tracer.Start(ctx, "UserRepo.UpdateUser")
	defer span.End()

	if fn == nil {
		otelx.RecordSpanError(span, ErrNilFunc, "update function cannot be nil")
		return ErrNilFunc
	}

	var updated *user.User
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		u, err := r.getUser(ctx, tx, selectUserByIDForUpdate, id.String())
		if err != nil {
			return errorx.Wrap(err, op)
		}

		if err := fn(ctx, u); err != nil {
			return err
		}

		dto := DomainToUserDTO(u)
		res, err := tx.Exec(ctx, updateUserQuery,
			dto.ID,
			dto.Email,
			dto.PassHash,
			dto.Verified,
			dto.UpdatedAt,
		)
		if err != nil {
			return mapError(err, op)
		}
		if res.RowsAffected() == 0 {
			return errorx.Wrap(ErrNoRowsAffected, op)
		}

		if err := watermillx.Publish(ctx, tx, r.wlogger, u.GetUncommittedEvents()...); err != nil {
			return errorx.Wrap(err, op)
		}
		updated = u
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update user")
		return err
	}

	updated.MarkEventsAsCommitted()
	return nil
}
