package postgres

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/adapters/repos/postgres")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/adapters/repos/postgres")
)
