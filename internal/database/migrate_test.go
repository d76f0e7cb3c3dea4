package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\nCREATE TABLE b (\n  y INT\n);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (\n  y INT\n)"}, got)
	assert.Empty(t, splitStatements("  \n"))
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_users.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestMigrate_SkipsAppliedFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	names, err := migrationNames()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, 30)")).
		WithArgs(migrationLock).
		WillReturnRows(sqlmock.NewRows([]string{"l"}).AddRow(1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	for _, n := range names {
		mock.ExpectQuery("SELECT EXISTS").WithArgs(n).
			WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	}
	mock.ExpectExec(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WithArgs(migrationLock).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AppliesPendingFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	names, err := migrationNames()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, 30)")).
		WillReturnRows(sqlmock.NewRows([]string{"l"}).AddRow(1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	last := names[len(names)-1]
	for _, n := range names[:len(names)-1] {
		mock.ExpectQuery("SELECT EXISTS").WithArgs(n).
			WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	}
	mock.ExpectQuery("SELECT EXISTS").WithArgs(last).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS processed_webhooks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (name) VALUES (?)")).
		WithArgs(last).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, 30)")).
		WillReturnRows(sqlmock.NewRows([]string{"l"}).AddRow(0))

	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "timed out")
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "events"}.DSN()
	assert.Contains(t, dsn, "app:pw@tcp(db:3306)/events")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
