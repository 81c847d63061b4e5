package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureExecer struct {
	args []any
}

func (c *captureExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.args = args
	return pgconn.CommandTag{}, nil
}

func TestRecordStampsUnsetTimestamp(t *testing.T) {
	exec := &captureExecer{}
	logger := &AuditLogger{db: exec}

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  30,
		Action:   "transfer.verify",
		Entity:   "transfer_request",
		EntityID: "7",
	})
	require.NoError(t, err)
	require.Len(t, exec.args, 6)

	at, ok := exec.args[5].(time.Time)
	require.True(t, ok)
	assert.False(t, at.IsZero())
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	exec := &captureExecer{}
	logger := &AuditLogger{db: exec}
	stamp := time.Date(2026, time.August, 4, 10, 30, 0, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  20,
		Action:   "case.activate",
		Entity:   "money_case",
		EntityID: "3",
		At:       stamp,
	})
	require.NoError(t, err)
	require.Len(t, exec.args, 6)
	assert.Equal(t, stamp, exec.args[5])
}

func TestRecordRequiresIdentity(t *testing.T) {
	logger := &AuditLogger{db: &captureExecer{}}
	err := logger.Record(context.Background(), AuditLog{ActorID: 1})
	assert.Error(t, err)
}
