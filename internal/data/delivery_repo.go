package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	apperrors "github.com/target/interview-reminder/internal/errors"
)

// DeliveryRepo is the Postgres DeliveryLedger backed by the reminder_deliveries table.
type DeliveryRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.DeliveryLedger = (*DeliveryRepo)(nil)

// NewDeliveryRepo creates a DeliveryRepo.
func NewDeliveryRepo(db *sql.DB, now func() time.Time) (*DeliveryRepo, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	if now == nil {
		now = time.Now
	}
	return &DeliveryRepo{db: db, now: now}, nil
}

const deliveredQuery = `SELECT EXISTS(
	SELECT 1 FROM reminder_deliveries WHERE interview_id = $1 AND start_time = $2
)`

// Delivered reports whether key has a recorded delivery.
func (r *DeliveryRepo) Delivered(ctx context.Context, key model.DeliveryKey) (bool, error) {
	if !validKey(string(key.InterviewID), key.StartTime.Unix()) {
		return false, ErrKeyRequired
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, deliveredQuery, string(key.InterviewID), key.StartTime.UTC()).Scan(&exists); err != nil {
		return false, apperrors.MapDBError(err)
	}
	return exists, nil
}

const recordQuery = `INSERT INTO reminder_deliveries
	(id, interview_id, start_time, conversation_id, message_id, recipients, delivered_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (interview_id, start_time) DO NOTHING`

// Record inserts rec; an existing row for the same key is kept.
func (r *DeliveryRepo) Record(ctx context.Context, rec model.DeliveryRecord) error {
	if !validKey(string(rec.Key.InterviewID), rec.Key.StartTime.Unix()) {
		return ErrKeyRequired
	}
	deliveredAt := rec.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, recordQuery,
		uuid.NewString(),
		string(rec.Key.InterviewID),
		rec.Key.StartTime.UTC(),
		string(rec.ConversationID),
		rec.MessageID,
		rec.Recipients,
		deliveredAt.UTC(),
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Prune deletes deliveries for interviews that started before cutoff.
func (r *DeliveryRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminder_deliveries WHERE start_time < $1`, cutoff.UTC())
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}
