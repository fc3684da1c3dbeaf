package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

type mockTermRepo struct {
	terms         map[string]models.Term
	lastClosedEnd *time.Time
	created       *models.Term
	createErr     error
	snapshot      map[string][3]interface{}
	deleted       []string
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) FindOpenByStudentClass(ctx context.Context, studentID, classID string) (*models.Term, error) {
	for _, t := range m.terms {
		if t.StudentID == studentID && t.ClassID == classID && t.EndDate == nil {
			found := t
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) LatestClosedEndDate(ctx context.Context, studentID, classID string) (*time.Time, error) {
	return m.lastClosedEnd, nil
}

func (m *mockTermRepo) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	return nil, 0, nil
}

func (m *mockTermRepo) Create(ctx context.Context, term *models.Term) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.terms == nil {
		m.terms = make(map[string]models.Term)
	}
	if term.ID == "" {
		term.ID = "new-term"
	}
	m.terms[term.ID] = *term
	m.created = term
	return nil
}

func (m *mockTermRepo) UpdateSnapshot(ctx context.Context, id string, sessionsLimit int, tuitionFee int64, currencyUnit string) error {
	if m.snapshot == nil {
		m.snapshot = make(map[string][3]interface{})
	}
	m.snapshot[id] = [3]interface{}{sessionsLimit, tuitionFee, currencyUnit}
	return nil
}

func (m *mockTermRepo) DeleteCascade(ctx context.Context, id string) error {
	delete(m.terms, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockTermSessions struct {
	slotTaken bool
	counts    map[string]int
}

func (m *mockTermSessions) SlotTakenByOther(ctx context.Context, classID string, date time.Time, startTime, studentID string) (bool, error) {
	return m.slotTaken, nil
}

func (m *mockTermSessions) CountByTerm(ctx context.Context, termID string) (int, error) {
	return m.counts[termID], nil
}

type mockTermPayments struct {
	counts map[string]int
}

func (m *mockTermPayments) CountByTerm(ctx context.Context, termID string) (int, error) {
	return m.counts[termID], nil
}

type mockTermConflicts struct {
	teacherConflict bool
}

func (m *mockTermConflicts) WeeklyTeacherConflict(ctx context.Context, classID, studentID, startTime, excludeSessionID string) (bool, error) {
	return m.teacherConflict, nil
}

type mockProfiles struct {
	byID       map[string]models.PricingProfile
	defaultOne *models.PricingProfile
}

func (m *mockProfiles) FindByID(ctx context.Context, id string) (*models.PricingProfile, error) {
	if p, ok := m.byID[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfiles) FindDefault(ctx context.Context) (*models.PricingProfile, error) {
	if m.defaultOne == nil {
		return nil, sql.ErrNoRows
	}
	return m.defaultOne, nil
}

type mockTermSettings struct {
	sessionCount int
	fee          int64
	currency     string
}

func (m *mockTermSettings) TermSessionCount(ctx context.Context) (int, error) {
	return m.sessionCount, nil
}

func (m *mockTermSettings) TermFee(ctx context.Context) (int64, error) { return m.fee, nil }

func (m *mockTermSettings) CurrencyUnit(ctx context.Context) (string, error) { return m.currency, nil }

type mockTermClasses struct{}

func (mockTermClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return &models.Class{
		ID:        id,
		Name:      "Piano",
		TeacherID: "teacher-1",
		DayOfWeek: models.WeekdaySaturday,
		StartTime: "16:00",
		EndTime:   "16:30",
	}, nil
}

func newTermServiceForTest(repo *mockTermRepo, sessions *mockTermSessions, payments *mockTermPayments, conflicts *mockTermConflicts, profiles *mockProfiles) *TermService {
	if sessions == nil {
		sessions = &mockTermSessions{}
	}
	if payments == nil {
		payments = &mockTermPayments{}
	}
	if conflicts == nil {
		conflicts = &mockTermConflicts{}
	}
	if profiles == nil {
		profiles = &mockProfiles{}
	}
	settings := &mockTermSettings{sessionCount: 12, fee: 4_000_000, currency: "Toman"}
	return NewTermService(repo, sessions, payments, conflicts, profiles, settings, mockTermClasses{}, nil, nil, nil)
}

func baseResolveRequest() ResolveTermRequest {
	return ResolveTermRequest{
		StudentID: "student-1",
		ClassID:   "class-1",
		StartDate: time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "16:00",
	}
}

func TestGetOrCreateOpenTermReturnsExisting(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]models.Term{
		"term-1": {
			ID:            "term-1",
			StudentID:     "student-1",
			ClassID:       "class-1",
			StartDate:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			StartTime:     "16:00",
			SessionsLimit: 12,
		},
	}}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeExisting, res.Outcome)
	require.Equal(t, "term-1", res.TermID)
	require.Nil(t, repo.created)
}

func TestGetOrCreateOpenTermReusesOpenTermOnLaterDate(t *testing.T) {
	// one open term per (student, class): a resolve dated weeks into the
	// window must land in the existing term, never open a second one
	repo := &mockTermRepo{terms: map[string]models.Term{
		"term-1": {
			ID:            "term-1",
			StudentID:     "student-1",
			ClassID:       "class-1",
			StartDate:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			StartTime:     "16:00",
			SessionsLimit: 12,
		},
	}}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	req := baseResolveRequest()
	req.StartDate = time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
	res, err := svc.GetOrCreateOpenTerm(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeExisting, res.Outcome)
	require.Equal(t, "term-1", res.TermID)
	require.Nil(t, repo.created)
	require.Len(t, repo.terms, 1)
}

func TestGetOrCreateOpenTermCreatesWithSettingsSnapshot(t *testing.T) {
	repo := &mockTermRepo{}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeCreated, res.Outcome)
	require.NotEmpty(t, res.TermID)
	require.Equal(t, 12, repo.created.SessionsLimit)
	require.Equal(t, int64(4_000_000), repo.created.TuitionFee)
	require.Equal(t, "Toman", repo.created.CurrencyUnit)
}

func TestGetOrCreateOpenTermSnapshotPrecedence(t *testing.T) {
	profiles := &mockProfiles{defaultOne: &models.PricingProfile{
		ID: "profile-1", SessionsLimit: 8, TuitionFee: 2_000_000, CurrencyUnit: "Rial",
	}}
	repo := &mockTermRepo{}
	svc := newTermServiceForTest(repo, nil, nil, nil, profiles)

	// explicit override beats the default profile for that field only
	limit := 10
	req := baseResolveRequest()
	req.Config = &models.TermConfig{SessionsLimit: &limit}
	res, err := svc.GetOrCreateOpenTerm(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeCreated, res.Outcome)
	require.Equal(t, 10, repo.created.SessionsLimit)
	require.Equal(t, int64(2_000_000), repo.created.TuitionFee)
	require.Equal(t, "Rial", repo.created.CurrencyUnit)
}

func TestGetOrCreateOpenTermRejectsTeacherConflict(t *testing.T) {
	repo := &mockTermRepo{}
	svc := newTermServiceForTest(repo, nil, nil, &mockTermConflicts{teacherConflict: true}, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeRejectedTeacherConflict, res.Outcome)
	require.Empty(t, res.TermID)
	require.True(t, res.Outcome.Rejected())
	require.Nil(t, repo.created)
}

func TestGetOrCreateOpenTermRejectsSlotTaken(t *testing.T) {
	repo := &mockTermRepo{}
	svc := newTermServiceForTest(repo, &mockTermSessions{slotTaken: true}, nil, nil, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeRejectedSlotTaken, res.Outcome)
	require.Nil(t, repo.created)
}

func TestGetOrCreateOpenTermRejectsOverlap(t *testing.T) {
	lastEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockTermRepo{lastClosedEnd: &lastEnd}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeRejectedOverlap, res.Outcome)
	require.Nil(t, repo.created)
}

func TestGetOrCreateOpenTermStartOnLastEndDateAllowed(t *testing.T) {
	// starting exactly on the previous end date is not an overlap
	lastEnd := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	repo := &mockTermRepo{lastClosedEnd: &lastEnd}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeCreated, res.Outcome)
}

func TestGetOrCreateOpenTermLostRaceReturnsWinner(t *testing.T) {
	repo := &mockTermRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	// after losing the insert race the winner's open row must exist
	repo.terms = map[string]models.Term{
		"winner": {
			ID:        "winner",
			StudentID: "student-1",
			ClassID:   "class-1",
			StartDate: time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			StartTime: "16:00",
		},
	}

	res, err := svc.GetOrCreateOpenTerm(context.Background(), baseResolveRequest())
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeExisting, res.Outcome)
	require.Equal(t, "winner", res.TermID)
}

func TestGetOrCreateOpenTermAppliesOverridesToExisting(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]models.Term{
		"term-1": {
			ID:            "term-1",
			StudentID:     "student-1",
			ClassID:       "class-1",
			StartDate:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			StartTime:     "16:00",
			SessionsLimit: 12,
			TuitionFee:    4_000_000,
			CurrencyUnit:  "Toman",
		},
	}}
	svc := newTermServiceForTest(repo, nil, nil, nil, nil)

	limit := 16
	req := baseResolveRequest()
	req.Config = &models.TermConfig{SessionsLimit: &limit}
	res, err := svc.GetOrCreateOpenTerm(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, models.TermOutcomeExisting, res.Outcome)
	require.Equal(t, [3]interface{}{16, int64(4_000_000), "Toman"}, repo.snapshot["term-1"])
}

func TestDeleteIfUnusedGates(t *testing.T) {
	term := models.Term{ID: "term-1", StudentID: "student-1", ClassID: "class-1"}

	t.Run("payment pins the term", func(t *testing.T) {
		repo := &mockTermRepo{terms: map[string]models.Term{"term-1": term}}
		payments := &mockTermPayments{counts: map[string]int{"term-1": 1}}
		svc := newTermServiceForTest(repo, nil, payments, nil, nil)

		deleted, err := svc.DeleteIfUnused(context.Background(), "term-1")
		require.NoError(t, err)
		require.False(t, deleted)
		require.Empty(t, repo.deleted)
	})

	t.Run("session pins the term", func(t *testing.T) {
		repo := &mockTermRepo{terms: map[string]models.Term{"term-1": term}}
		sessions := &mockTermSessions{counts: map[string]int{"term-1": 2}}
		svc := newTermServiceForTest(repo, sessions, nil, nil, nil)

		deleted, err := svc.DeleteIfUnused(context.Background(), "term-1")
		require.NoError(t, err)
		require.False(t, deleted)
	})

	t.Run("unused term is removed", func(t *testing.T) {
		repo := &mockTermRepo{terms: map[string]models.Term{"term-1": term}}
		svc := newTermServiceForTest(repo, nil, nil, nil, nil)

		deleted, err := svc.DeleteIfUnused(context.Background(), "term-1")
		require.NoError(t, err)
		require.True(t, deleted)
		require.Equal(t, []string{"term-1"}, repo.deleted)
	})

	t.Run("missing term", func(t *testing.T) {
		repo := &mockTermRepo{}
		svc := newTermServiceForTest(repo, nil, nil, nil, nil)

		_, err := svc.DeleteIfUnused(context.Background(), "nope")
		require.Error(t, err)
		require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	})
}
