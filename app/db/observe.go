package database

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/app/observability/metrics"
)

// SQL is the statement builder every repository uses for dynamic queries.
var SQL = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// RecordQueryError marks span as failed and counts the failure against table.
// A missing row is not counted.
func RecordQueryError(ctx context.Context, span trace.Span, table string, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Error, "No rows")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "DB query failed")
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("db.sql.table", table)))
}

// Now is the SQL clock for updated_at columns.
var Now = squirrel.Expr("now()")
