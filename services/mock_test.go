package services

import (
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"zcoinsAPI/internal/logging"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

var (
	nop          = logging.NewNop()
	errUnique    = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	errForeignFK = &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
)
