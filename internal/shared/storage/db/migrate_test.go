package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAdvisoryLockWrapsRun(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))

	ran := false
	err = withAdvisoryLock(context.Background(), database, 42, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAdvisoryLockUnlocksAfterFailure(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec(`SELECT pg_advisory_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SELECT pg_advisory_unlock`).WillReturnResult(sqlmock.NewResult(0, 0))

	boom := errors.New("goose up: bad migration")
	err = withAdvisoryLock(context.Background(), database, 1, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAdvisoryLockSkipsRunWhenLockFails(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec(`SELECT pg_advisory_lock`).WillReturnError(errors.New("permission denied"))

	err = withAdvisoryLock(context.Background(), database, 1, func() error {
		t.Fatal("run must not be called without the lock")
		return nil
	})
	assert.ErrorContains(t, err, "advisory lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil))
	version, err := MigrationStatus(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrateRequiresURL(t *testing.T) {
	assert.ErrorContains(t, Migrate(context.Background(), " "), "DATABASE_URL")
}
