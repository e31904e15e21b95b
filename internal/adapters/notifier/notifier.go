// Package notifier delivers verification codes on behalf of the account manager.
package notifier

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/adapters/notifier")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/adapters/notifier")
)
