package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "wrapped deadline", err: fmt.Errorf("insert: %w", context.DeadlineExceeded), wantCode: ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("cause should be preserved")
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "interview_id"},
			wantField: "interview_id",
		},
		{
			name: "detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (interview_id, start_time)=(42, 2024-05-01 12:00:00+00) already exists.",
			},
			wantField: "interview_id, start_time",
		},
		{
			name:  "no metadata",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("want conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_OtherPgCodes(t *testing.T) {
	tests := []struct {
		code string
		want ErrorCode
	}{
		{pgerrcode.NotNullViolation, ErrCodeValidation},
		{pgerrcode.CheckViolation, ErrCodeValidation},
		{pgerrcode.SerializationFailure, ErrCodeTransient},
		{pgerrcode.DeadlockDetected, ErrCodeTransient},
		{pgerrcode.ConnectionFailure, ErrCodeTransient},
		{pgerrcode.TooManyConnections, ErrCodeTransient},
		{pgerrcode.UndefinedTable, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetCode(MapDBError(&pgconn.PgError{Code: tt.code})); got != tt.want {
				t.Errorf("code %s mapped to %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestMapDBError_Unrecognised(t *testing.T) {
	plain := errors.New("driver: bad connection")
	if got := MapDBError(plain); !errors.Is(got, plain) || GetCode(got) != "" {
		t.Errorf("unrecognised errors should pass through unchanged, got %v", got)
	}
}
