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

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositorySlotTaken(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM sessions WHERE class_id = $1 AND date = $2 AND start_time = $3 AND ($4 = '' OR id <> $4))")).
		WithArgs("class-1", date, "16:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.SlotTaken(context.Background(), "class-1", date, "16:00", "")
	require.NoError(t, err)
	require.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryWeeklyStudentConflict(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	// Saturday maps onto Postgres DOW 6.
	mock.ExpectQuery(regexp.QuoteMeta("EXTRACT(DOW FROM date) = $3")).
		WithArgs("student-1", "class-1", 6, "16:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	conflict, err := repo.WeeklyStudentConflict(context.Background(), "student-1", "class-1", models.WeekdaySaturday, "16:00", "")
	require.NoError(t, err)
	require.False(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryWeeklyTeacherConflict(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.teacher_id = (SELECT teacher_id FROM classes WHERE id = $1)")).
		WithArgs("class-1", "student-1", 1, "16:00", "sess-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.WeeklyTeacherConflict(context.Background(), "class-1", "student-1", models.WeekdayMonday, "16:00", "sess-9")
	require.NoError(t, err)
	require.True(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "term_id", "class_id", "student_id", "date", "start_time", "duration_minutes", "created_at", "updated_at"}).
		AddRow("sess-1", "term-1", "class-1", "student-1", date, "16:00", 30, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE 1=1 AND term_id = $1 ORDER BY date ASC, start_time ASC LIMIT 50 OFFSET 0")).
		WithArgs("term-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1 AND term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.SessionFilter{TermID: "term-1"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteByTermFromDate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	from := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE term_id = $1 AND date >= $2")).
		WithArgs("term-1", from).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := repo.DeleteByTermFromDate(context.Background(), "term-1", from)
	require.NoError(t, err)
	require.Equal(t, 4, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sess := &models.Session{
		TermID:          "term-1",
		ClassID:         "class-1",
		StudentID:       "student-1",
		Date:            time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		StartTime:       "16:00",
		DurationMinutes: 30,
	}
	require.NoError(t, repo.Create(context.Background(), sess))
	require.NotEmpty(t, sess.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
