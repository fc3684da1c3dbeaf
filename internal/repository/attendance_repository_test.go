package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryUpsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "term_id", "student_id", "class_id", "date", "is_present", "created_at", "updated_at"}).
		AddRow("att-1", "term-1", "student-1", "class-1", date, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (term_id, date)")).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.AttendanceRecord{
		TermID:    "term-1",
		StudentID: "student-1",
		ClassID:   "class-1",
		Date:      date,
		IsPresent: true,
	})
	require.NoError(t, err)
	// the stored row wins over the submitted value
	require.Equal(t, "att-1", stored.ID)
	require.False(t, stored.IsPresent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountByTerm(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance_records WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	count, err := repo.CountByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Equal(t, 11, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDeleteByTermAndDate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE term_id = $1 AND date = $2")).
		WithArgs("term-1", date).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.DeleteByTermAndDate(context.Background(), "term-1", date)
	require.NoError(t, err)
	require.Equal(t, 1, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMaxDateByTerm(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	max := time.Date(2026, 5, 23, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT date FROM attendance_records WHERE term_id = $1 ORDER BY date DESC LIMIT 1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"date"}).AddRow(max))

	got, err := repo.MaxDateByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, max.Equal(*got))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT date FROM attendance_records")).
		WithArgs("term-2").
		WillReturnRows(sqlmock.NewRows([]string{"date"}))

	got, err = repo.MaxDateByTerm(context.Background(), "term-2")
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
