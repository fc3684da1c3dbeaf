package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/Aramesh-Aria/acasmart-api/internal/models"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

// SMSSender delivers renewal reminders. The core decides only whether and at
// most once to invoke it; transport failure never rolls back the attendance
// write that triggered the send.
type SMSSender interface {
	SendRenewalNotice(ctx context.Context, studentName, phone, className string) error
}

type notificationRepository interface {
	RenewalNoticeExists(ctx context.Context, studentID, termID string) (bool, error)
	InsertRenewalNotice(ctx context.Context, studentID, termID string) error
	ClosureNoticeExists(ctx context.Context, termID string) (bool, error)
	InsertClosureNotice(ctx context.Context, termID string) error
}

type notificationTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type notificationAttendanceCounter interface {
	CountByTerm(ctx context.Context, termID string) (int, error)
}

type notificationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type notificationClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type notificationMetrics interface {
	RenewalNoticeSent()
	SMSFailure()
}

// NotificationService gates renewal SMS delivery through the write-once
// (student, term) ledger and tracks the separately keyed term-ended banner.
type NotificationService struct {
	repo       notificationRepository
	terms      notificationTermReader
	attendance notificationAttendanceCounter
	students   notificationStudentReader
	classes    notificationClassReader
	sender     SMSSender
	metrics    notificationMetrics
	logger     *zap.Logger
}

// NewNotificationService constructs a NotificationService. sender and
// metrics may be nil; eligibility is then still tracked, only delivery is
// skipped.
func NewNotificationService(repo notificationRepository, terms notificationTermReader, attendance notificationAttendanceCounter, students notificationStudentReader, classes notificationClassReader, sender SMSSender, metrics notificationMetrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:       repo,
		terms:      terms,
		attendance: attendance,
		students:   students,
		classes:    classes,
		sender:     sender,
		metrics:    metrics,
		logger:     logger,
	}
}

// ShouldNotify reports whether the renewal notice for a term is due: the
// attendance count sits exactly one below the sessions limit and no ledger
// entry exists yet for (student, term).
func (s *NotificationService) ShouldNotify(ctx context.Context, termID string) (bool, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	count, err := s.attendance.CountByTerm(ctx, termID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	if count != term.SessionsLimit-1 {
		return false, nil
	}
	sent, err := s.repo.RenewalNoticeExists(ctx, term.StudentID, termID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check renewal ledger")
	}
	return !sent, nil
}

// MarkSent records the renewal notice idempotently. Calling it twice for the
// same (student, term) leaves exactly one ledger row.
func (s *NotificationService) MarkSent(ctx context.Context, studentID, termID string) error {
	if err := s.repo.InsertRenewalNotice(ctx, studentID, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record renewal notice")
	}
	return nil
}

// NotifyIfEligible sends the renewal SMS when the given count sits one below
// the term's sessions limit and the ledger has no entry yet. Returns true
// when a notice went out. The ledger is written only after a successful
// send, so a transport failure leaves the notice eligible for the next
// threshold crossing.
func (s *NotificationService) NotifyIfEligible(ctx context.Context, term *models.Term, count int) (bool, error) {
	if term == nil || count != term.SessionsLimit-1 {
		return false, nil
	}
	sent, err := s.repo.RenewalNoticeExists(ctx, term.StudentID, term.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check renewal ledger")
	}
	if sent {
		return false, nil
	}

	student, err := s.students.FindByID(ctx, term.StudentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, term.ClassID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if s.sender != nil {
		if err := s.sender.SendRenewalNotice(ctx, student.FullName, student.Phone, class.Name); err != nil {
			if s.metrics != nil {
				s.metrics.SMSFailure()
			}
			s.logger.Warn("renewal notice delivery failed",
				zap.String("student", student.FullName),
				zap.String("term_id", term.ID),
				zap.Error(err),
			)
			return false, nil
		}
	}

	if err := s.MarkSent(ctx, term.StudentID, term.ID); err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RenewalNoticeSent()
	}
	s.logger.Info("renewal notice sent",
		zap.String("student_id", term.StudentID),
		zap.String("term_id", term.ID),
	)
	return true, nil
}

// ShouldShowClosureBanner reports whether the operator has not yet seen the
// term-ended banner for this term.
func (s *NotificationService) ShouldShowClosureBanner(ctx context.Context, termID string) (bool, error) {
	shown, err := s.repo.ClosureNoticeExists(ctx, termID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check closure ledger")
	}
	return !shown, nil
}

// MarkClosureShown records the banner as shown, write-once per term.
func (s *NotificationService) MarkClosureShown(ctx context.Context, termID string) error {
	if err := s.repo.InsertClosureNotice(ctx, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record closure banner")
	}
	return nil
}
