package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"contesthub/metrics"
	"contesthub/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ErrMsgNotRegistered    = "Not registered for this contest"
	ErrMsgAlreadySubmitted = "Already submitted"
	ErrMsgInvalidTaskLink  = "Task link must be a valid URL"
)

type SubmissionService struct {
	db       *gorm.DB
	log      logrus.FieldLogger
	now      func() time.Time
	validate *validator.Validate
}

func NewSubmissionService(d Deps) *SubmissionService {
	d = d.withDefaults()
	return &SubmissionService{db: d.DB, log: d.Log, now: d.Now, validate: validator.New()}
}

// Submit stores the task link of a registered user, once per contest
func (s *SubmissionService) Submit(ctx context.Context, contestID, email, taskLink string) (*models.Submission, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationError(ErrMsgUserEmailRequired)
	}
	taskLink = strings.TrimSpace(taskLink)
	if err := s.validate.Var(taskLink, "required,url"); err != nil {
		return nil, validationError(ErrMsgInvalidTaskLink)
	}

	var submission models.Submission
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		registration, err := findRegistration(tx, contestID, email)
		if err != nil {
			return err
		}
		if registration == nil {
			return forbiddenError(ErrMsgNotRegistered)
		}

		var count int64
		if err := tx.Model(&models.Submission{}).
			Where("contest_id = ? AND user_email = ?", contestID, email).
			Count(&count).Error; err != nil {
			return internalError("check submission", err)
		}
		if count > 0 {
			return conflictError(ErrMsgAlreadySubmitted)
		}

		submission = models.Submission{
			ContestID:   contestID,
			UserEmail:   email,
			UserName:    registration.UserName,
			UserPhoto:   registration.UserPhoto,
			TaskLink:    taskLink,
			SubmittedAt: s.now(),
		}
		if err := tx.Create(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictError(ErrMsgAlreadySubmitted)
			}
			return internalError("create submission", err)
		}
		return nil
	})
	metrics.RecordDBOperation("submit", "submissions", start)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"contest_id": contestID, "user_email": email}).Info("Task submitted")
	return &submission, nil
}

// IsSubmitted reports whether the user already handed in a task for the contest
func (s *SubmissionService) IsSubmitted(ctx context.Context, contestID, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("contest_id = ? AND user_email = ?", contestID, normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, internalError("check submission", err)
	}
	return count > 0, nil
}
