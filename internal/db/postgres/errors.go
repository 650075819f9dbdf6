package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/MrMohammed1/Miran-Search/internal/domain"
)

// Classify maps a database error onto the domain sentinels. Missing rows become
// domain.ErrNotFound; everything else means the catalog could not serve the
// request and becomes domain.ErrDependencyUnavailable. Context errors pass
// through so callers can tell cancellation apart.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}

	reason := "query failed"
	var connErr *pgconn.ConnectError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &connErr):
		reason = "connect failed"
	case pgconn.Timeout(err):
		reason = "timeout"
	case errors.As(err, &pgErr):
		reason = pgReason(pgErr)
	}
	return fmt.Errorf("%s: %s: %w: %w", op, reason, domain.ErrDependencyUnavailable, err)
}

func pgReason(pgErr *pgconn.PgError) string {
	code := strings.TrimSpace(pgErr.Code)
	switch {
	case strings.HasPrefix(code, "08"):
		return "connection exception"
	case code == "53300":
		return "too many connections"
	case code == "57P01", code == "57P02", code == "57P03":
		return "server shutting down"
	case code == "42P01":
		return "schema not migrated"
	case code == "42883":
		return "pg_trgm not installed"
	case code == "57014":
		return "statement canceled"
	default:
		return "sqlstate " + code
	}
}
