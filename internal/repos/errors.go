package repos

import (
  "errors"
  "strings"

  "github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique-constraint violation from
// the backing store. Postgres surfaces SQLSTATE 23505 via pgconn; the sqlite
// driver used in tests only exposes a message.
func IsUniqueViolation(err error) bool {
  if err == nil {
    return false
  }
  var pgErr *pgconn.PgError
  if errors.As(err, &pgErr) {
    return pgErr.Code == "23505"
  }
  return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
