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

func newTermRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func termRows(term models.Term) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "class_id", "start_date", "start_time", "end_date", "sessions_limit", "tuition_fee", "currency_unit", "created_at", "updated_at"}).
		AddRow(term.ID, term.StudentID, term.ClassID, term.StartDate, term.StartTime, term.EndDate, term.SessionsLimit, term.TuitionFee, term.CurrencyUnit, term.CreatedAt, term.UpdatedAt)
}

func TestTermRepositoryFindOpenByStudentClass(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	expected := models.Term{
		ID:            "term-1",
		StudentID:     "student-1",
		ClassID:       "class-1",
		StartDate:     start,
		StartTime:     "16:00",
		SessionsLimit: 12,
		TuitionFee:    4_000_000,
		CurrencyUnit:  "Toman",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, class_id, start_date, start_time, end_date, sessions_limit, tuition_fee, currency_unit, created_at, updated_at FROM terms WHERE student_id = $1 AND class_id = $2 AND end_date IS NULL ORDER BY start_date DESC LIMIT 1")).
		WithArgs("student-1", "class-1").
		WillReturnRows(termRows(expected))

	term, err := repo.FindOpenByStudentClass(context.Background(), "student-1", "class-1")
	require.NoError(t, err)
	require.Equal(t, "term-1", term.ID)
	require.True(t, term.Open())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryLatestClosedEndDate(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	closed := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT end_date FROM terms WHERE student_id = $1 AND class_id = $2 AND end_date IS NOT NULL ORDER BY end_date DESC LIMIT 1")).
		WithArgs("student-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"end_date"}).AddRow(closed))

	endDate, err := repo.LatestClosedEndDate(context.Background(), "student-1", "class-1")
	require.NoError(t, err)
	require.NotNil(t, endDate)
	require.True(t, closed.Equal(*endDate))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT end_date FROM terms")).
		WithArgs("student-2", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"end_date"}))

	endDate, err = repo.LatestClosedEndDate(context.Background(), "student-2", "class-1")
	require.NoError(t, err)
	require.Nil(t, endDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	open := true
	term := models.Term{ID: "term-1", StudentID: "student-1", ClassID: "class-1", StartDate: time.Now(), StartTime: "16:00", SessionsLimit: 12, CurrencyUnit: "Toman", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery(regexp.QuoteMeta("FROM terms WHERE 1=1 AND student_id = $1 AND end_date IS NULL ORDER BY start_date DESC LIMIT 20 OFFSET 0")).
		WithArgs("student-1").
		WillReturnRows(termRows(term))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM terms WHERE 1=1 AND student_id = $1 AND end_date IS NULL")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	terms, total, err := repo.List(context.Background(), models.TermFilter{StudentID: "student-1", Open: &open})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO terms")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	term := &models.Term{
		StudentID:     "student-1",
		ClassID:       "class-1",
		StartDate:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		StartTime:     "16:00",
		SessionsLimit: 12,
		TuitionFee:    4_000_000,
		CurrencyUnit:  "Toman",
	}
	require.NoError(t, repo.Create(context.Background(), term))
	require.NotEmpty(t, term.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetEndDate(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	endDate := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET end_date = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("term-1", &endDate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetEndDate(context.Background(), "term-1", &endDate))

	// nil reopens the term
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET end_date = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("term-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetEndDate(context.Background(), "term-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM terms WHERE id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "term-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
