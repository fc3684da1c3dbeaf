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

type mockConflictSessions struct {
	slotTaken       bool
	studentConflict bool
	teacherConflict bool

	teacherWeekday models.Weekday
	excludeSeen    string
}

func (m *mockConflictSessions) SlotTaken(ctx context.Context, classID string, date time.Time, startTime, excludeSessionID string) (bool, error) {
	m.excludeSeen = excludeSessionID
	return m.slotTaken, nil
}

func (m *mockConflictSessions) SlotTakenByOther(ctx context.Context, classID string, date time.Time, startTime, studentID string) (bool, error) {
	return m.slotTaken, nil
}

func (m *mockConflictSessions) WeeklyStudentConflict(ctx context.Context, studentID, classID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error) {
	m.excludeSeen = excludeSessionID
	return m.studentConflict, nil
}

func (m *mockConflictSessions) WeeklyTeacherConflict(ctx context.Context, classID, studentID string, weekday models.Weekday, startTime, excludeSessionID string) (bool, error) {
	m.teacherWeekday = weekday
	return m.teacherConflict, nil
}

type mockConflictClasses struct {
	class *models.Class
}

func (m *mockConflictClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if m.class == nil || m.class.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.class, nil
}

func TestTeacherConflictUsesClassWeekday(t *testing.T) {
	sessions := &mockConflictSessions{teacherConflict: true}
	classes := &mockConflictClasses{class: &models.Class{ID: "class-1", TeacherID: "teacher-1", DayOfWeek: models.WeekdaySaturday}}
	svc := NewConflictService(sessions, classes, nil)

	conflict, err := svc.WeeklyTeacherConflict(context.Background(), "class-1", "student-1", "16:00", "")
	require.NoError(t, err)
	require.True(t, conflict)
	require.Equal(t, models.WeekdaySaturday, sessions.teacherWeekday)
}

func TestTeacherConflictUnknownClass(t *testing.T) {
	svc := NewConflictService(&mockConflictSessions{}, &mockConflictClasses{}, nil)

	_, err := svc.WeeklyTeacherConflict(context.Background(), "missing", "student-1", "16:00", "")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentConflictForwardsExclusion(t *testing.T) {
	sessions := &mockConflictSessions{}
	svc := NewConflictService(sessions, &mockConflictClasses{}, nil)

	conflict, err := svc.WeeklyStudentConflict(context.Background(), "student-1", "class-1", models.WeekdayMonday, "16:00", "session-9")
	require.NoError(t, err)
	require.False(t, conflict)
	require.Equal(t, "session-9", sessions.excludeSeen)
}
