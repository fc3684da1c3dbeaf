package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

// mockAttendanceRepo keeps rows in memory keyed by date so repeat writes on
// the same date overwrite instead of duplicating, mirroring the unique
// (term_id, date) index.
type mockAttendanceRepo struct {
	rows map[string]map[string]models.AttendanceRecord
}

func dayKey(date time.Time) string { return date.Format("2006-01-02") }

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if m.rows == nil {
		m.rows = make(map[string]map[string]models.AttendanceRecord)
	}
	if m.rows[record.TermID] == nil {
		m.rows[record.TermID] = make(map[string]models.AttendanceRecord)
	}
	stored := *record
	if stored.ID == "" {
		stored.ID = "att-" + dayKey(record.Date)
	}
	m.rows[record.TermID][dayKey(record.Date)] = stored
	return &stored, nil
}

func (m *mockAttendanceRepo) CountByTerm(ctx context.Context, termID string) (int, error) {
	return len(m.rows[termID]), nil
}

func (m *mockAttendanceRepo) ListByTerm(ctx context.Context, termID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	for _, r := range m.rows[termID] {
		records = append(records, r)
	}
	return records, nil
}

func (m *mockAttendanceRepo) DeleteByTermAndDate(ctx context.Context, termID string, date time.Time) (int, error) {
	if _, ok := m.rows[termID][dayKey(date)]; !ok {
		return 0, nil
	}
	delete(m.rows[termID], dayKey(date))
	return 1, nil
}

func (m *mockAttendanceRepo) MaxDateByTerm(ctx context.Context, termID string) (*time.Time, error) {
	var max *time.Time
	for _, r := range m.rows[termID] {
		d := r.Date
		if max == nil || d.After(*max) {
			max = &d
		}
	}
	return max, nil
}

type mockAttendanceTerms struct {
	terms map[string]models.Term
}

func (m *mockAttendanceTerms) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceTerms) SetEndDate(ctx context.Context, id string, endDate *time.Time) error {
	t := m.terms[id]
	t.EndDate = endDate
	m.terms[id] = t
	return nil
}

type mockSessionPruner struct {
	removed int
	from    *time.Time
}

func (m *mockSessionPruner) DeleteByTermFromDate(ctx context.Context, termID string, from time.Time) (int, error) {
	m.from = &from
	return m.removed, nil
}

type mockRenewalNotifier struct {
	calls []int
	sent  bool
}

func (m *mockRenewalNotifier) NotifyIfEligible(ctx context.Context, term *models.Term, count int) (bool, error) {
	m.calls = append(m.calls, count)
	return m.sent, nil
}

type mockAttendanceMetrics struct {
	closed int
	pruned int
}

func (m *mockAttendanceMetrics) TermClosed() { m.closed++ }

func (m *mockAttendanceMetrics) SessionsCascadeDeleted(n int) { m.pruned += n }

func attendanceFixture(limit int) (*mockAttendanceRepo, *mockAttendanceTerms, *mockSessionPruner, *mockRenewalNotifier, *mockAttendanceMetrics, *AttendanceService) {
	repo := &mockAttendanceRepo{}
	terms := &mockAttendanceTerms{terms: map[string]models.Term{
		"term-1": {
			ID:            "term-1",
			StudentID:     "student-1",
			ClassID:       "class-1",
			StartDate:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			StartTime:     "16:00",
			SessionsLimit: limit,
		},
	}}
	pruner := &mockSessionPruner{}
	notifier := &mockRenewalNotifier{}
	metrics := &mockAttendanceMetrics{}
	svc := NewAttendanceService(repo, terms, pruner, notifier, metrics, nil, nil, nil)
	return repo, terms, pruner, notifier, metrics, svc
}

func TestRecordAttendanceSameDateOverwrites(t *testing.T) {
	repo, _, _, _, _, svc := attendanceFixture(12)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	first, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: date, IsPresent: true})
	require.NoError(t, err)
	require.Equal(t, 1, first.Count)

	second, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: date, IsPresent: false})
	require.NoError(t, err)
	require.Equal(t, 1, second.Count)
	require.False(t, second.Record.IsPresent)

	count, err := repo.CountByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRecordAttendanceRejectsDateBeforeStart(t *testing.T) {
	_, _, _, _, _, svc := attendanceFixture(12)
	early := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: early, IsPresent: true})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRecordAttendanceRejectsMismatchedPair(t *testing.T) {
	_, _, _, _, _, svc := attendanceFixture(12)
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", StudentID: "someone-else", Date: date})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRecordAttendanceClosesTermAtLimit(t *testing.T) {
	_, terms, pruner, _, metrics, svc := attendanceFixture(2)
	pruner.removed = 3
	day1 := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day1, IsPresent: true})
	require.NoError(t, err)
	require.False(t, first.Ended)

	// an absence spends a session just like a presence
	second, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day2, IsPresent: false})
	require.NoError(t, err)
	require.True(t, second.Ended)
	require.Equal(t, 2, second.Count)
	require.Equal(t, 3, second.SessionsRemoved)

	closed := terms.terms["term-1"]
	require.NotNil(t, closed.EndDate)
	require.True(t, day2.Equal(*closed.EndDate))
	require.True(t, pruner.from.Equal(day2))
	require.Equal(t, 1, metrics.closed)
	require.Equal(t, 3, metrics.pruned)
}

func TestRecordAttendanceFiresRenewalNoticeOneBelowLimit(t *testing.T) {
	_, _, _, notifier, _, svc := attendanceFixture(3)
	notifier.sent = true
	day1 := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day1, IsPresent: true})
	require.NoError(t, err)

	result, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day2, IsPresent: true})
	require.NoError(t, err)
	require.True(t, result.RenewalNoticeSent)
	require.Equal(t, []int{1, 2}, notifier.calls)
}

func TestRecordAttendanceRejectsBeyondLimit(t *testing.T) {
	_, terms, _, _, _, svc := attendanceFixture(1)
	day1 := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day1, IsPresent: true})
	require.NoError(t, err)
	require.True(t, first.Ended)
	require.NotNil(t, terms.terms["term-1"].EndDate)

	_, err = svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day2, IsPresent: true})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDeleteAttendanceRecalculatesEndDate(t *testing.T) {
	repo, terms, _, _, _, svc := attendanceFixture(2)
	day1 := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day1, IsPresent: true})
	require.NoError(t, err)
	closing, err := svc.Record(context.Background(), RecordAttendanceRequest{TermID: "term-1", Date: day2, IsPresent: true})
	require.NoError(t, err)
	require.True(t, closing.Ended)

	// deleting the closing row pulls end_date back to the latest remaining date
	affected, err := svc.Delete(context.Background(), "term-1", day2)
	require.NoError(t, err)
	require.Equal(t, 1, affected)
	require.NotNil(t, terms.terms["term-1"].EndDate)
	require.True(t, day1.Equal(*terms.terms["term-1"].EndDate))

	// deleting the final row reopens the term
	affected, err = svc.Delete(context.Background(), "term-1", day1)
	require.NoError(t, err)
	require.Equal(t, 1, affected)
	require.Nil(t, terms.terms["term-1"].EndDate)

	count, err := repo.CountByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeleteAttendanceMissingDateIsNoop(t *testing.T) {
	_, terms, _, _, _, svc := attendanceFixture(2)
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	affected, err := svc.Delete(context.Background(), "term-1", day)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.Nil(t, terms.terms["term-1"].EndDate)
}
