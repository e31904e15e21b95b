package postgres

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
	"gitlab.com/ucmsv2/accounts/pkg/postgres"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
)

const verificationColumns = `id, code, user_id, created_at`

const (
	insertVerificationQuery        = `INSERT INTO verifications (` + verificationColumns + `) VALUES ($1, $2, $3, $4);`
	selectVerificationByCodeQuery  = `SELECT ` + verificationColumns + ` FROM verifications WHERE code = $1;`
	selectVerificationByUserQuery  = `SELECT ` + verificationColumns + ` FROM verifications WHERE user_id = $1;`
	deleteVerificationsByUserQuery = `DELETE FROM verifications WHERE user_id = $1;`
	deleteVerificationByIDQuery    = `DELETE FROM verifications WHERE id = $1;`
)

type VerificationRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewVerificationRepo creates a new instance of VerificationRepo.
//
// WARNING: panics if pool is nil
func NewVerificationRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *VerificationRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &VerificationRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewSlogAdapter(l, slog.LevelInfo),
	}
}

func (r *VerificationRepo) SaveVerification(ctx context.Context, v *verification.Verification) error {
	const op = "postgres.VerificationRepo.SaveVerification"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.SaveVerification")
	defer span.End()

	dto := DomainToVerificationDTO(v)
	res, err := postgres.Conn(ctx, r.pool).Exec(ctx, insertVerificationQuery, dto.ID, dto.Code, dto.UserID, dto.CreatedAt)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to insert verification")
		return mapError(err, op)
	}
	if res.RowsAffected() == 0 {
		otelx.RecordSpanError(span, ErrNoRowsAffected, "no rows affected while inserting verification")
		return errorx.Wrap(ErrNoRowsAffected, op)
	}

	return nil
}

func (r *VerificationRepo) GetVerificationByCode(ctx context.Context, code string) (*verification.Verification, error) {
	const op = "postgres.VerificationRepo.GetVerificationByCode"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.GetVerificationByCode")
	defer span.End()

	v, err := r.getVerification(ctx, selectVerificationByCodeQuery, code)
	if err != nil {
		if !errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "failed to get verification by code")
		}
		return nil, errorx.Wrap(err, op)
	}

	return v, nil
}

func (r *VerificationRepo) GetVerificationByUserID(ctx context.Context, userID user.ID) (*verification.Verification, error) {
	const op = "postgres.VerificationRepo.GetVerificationByUserID"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.GetVerificationByUserID")
	defer span.End()

	v, err := r.getVerification(ctx, selectVerificationByUserQuery, userID.String())
	if err != nil {
		if !errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "failed to get verification by user")
		}
		return nil, errorx.Wrap(err, op)
	}

	return v, nil
}

func (r *VerificationRepo) getVerification(ctx context.Context, query string, arg any) (*verification.Verification, error) {
	var dto VerificationDTO
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(dto.scanArgs()...); err != nil {
		if isNoRows(err) {
			return nil, verification.ErrNotFound.WithCause(err, "postgres.VerificationRepo.getVerification")
		}
		return nil, err
	}
	return VerificationToDomain(dto), nil
}

func (r *VerificationRepo) DeleteVerificationsByUserID(ctx context.Context, userID user.ID) error {
	const op = "postgres.VerificationRepo.DeleteVerificationsByUserID"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.DeleteVerificationsByUserID")
	defer span.End()

	res, err := postgres.Conn(ctx, r.pool).Exec(ctx, deleteVerificationsByUserQuery, userID.String())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete verifications")
		return errorx.Wrap(err, op)
	}
	otelx.SetSpanAttrs(span, map[string]any{"verification.deleted": res.RowsAffected()})

	return nil
}

// DeleteVerification removes a single record. A concurrent consumer that got
// there first leaves zero rows, reported as verification.ErrNotFound.
func (r *VerificationRepo) DeleteVerification(ctx context.Context, id verification.ID) error {
	const op = "postgres.VerificationRepo.DeleteVerification"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.DeleteVerification")
	defer span.End()

	res, err := postgres.Conn(ctx, r.pool).Exec(ctx, deleteVerificationByIDQuery, id.String())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete verification")
		return errorx.Wrap(err, op)
	}
	if res.RowsAffected() == 0 {
		return verification.ErrNotFound.WithCause(ErrNoRowsAffected, op)
	}

	return nil
}
