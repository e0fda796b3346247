package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/target/interview-reminder/config"
)

func TestNewRunnerRequiresDatabase(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Config: config.LedgerConfig{PruneInterval: time.Hour, Retention: time.Hour}})
	require.Error(t, err)
}

func TestRunnerPrunesPostgresLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM reminder_deliveries").
		WithArgs(now.Add(-720 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	r, err := NewRunner(RunnerOptions{
		DB:     db,
		Config: config.LedgerConfig{PruneInterval: 50 * time.Millisecond, Retention: 720 * time.Hour},
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
