package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contesthub/metrics"
	"contesthub/models"
	"contesthub/realtime"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ErrMsgContestNotFound     = "Contest not found"
	ErrMsgContestNotEditable  = "Only pending contests can be edited"
	ErrMsgContestNotDeletable = "Only pending contests can be deleted"
	ErrMsgStatusAlreadySet    = "Contest status was already decided"
	ErrMsgInvalidStatus       = "Status must be Confirmed or Rejected"
	ErrMsgWinnerDeclared      = "Winner already declared"
	ErrMsgWinnerNotRegistered = "Winner must be a registered participant"
	ErrMsgPrizeMoney          = "Prize money must be a non-negative number"
)

// ContestInput are the fields a creator submits for a new contest.
// A fee that is missing or not a number arrives with Valid=false.
type ContestInput struct {
	Name            string
	Image           string
	Description     string
	EntryFee        decimal.NullDecimal
	PrizeMoney      decimal.NullDecimal
	TaskInstruction string
	ContestType     string
	Deadline        time.Time
	CreatorEmail    string
	CreatorName     string
}

// ContestPatch holds the fields to change; nil means unchanged
type ContestPatch struct {
	Name            *string
	Image           *string
	Description     *string
	EntryFee        *decimal.NullDecimal
	PrizeMoney      *decimal.NullDecimal
	TaskInstruction *string
	ContestType     *string
	Deadline        *time.Time
}

// WinnerInput names the participant to crown; blank name or photo are taken from the registration
type WinnerInput struct {
	Email string
	Name  string
	Photo string
}

type ContestService struct {
	db       *gorm.DB
	cache    Cache
	notifier Notifier
	access   *AccessService
	log      logrus.FieldLogger
	now      func() time.Time
	settings Settings
}

func NewContestService(d Deps, access *AccessService) *ContestService {
	d = d.withDefaults()
	return &ContestService{
		db:       d.DB,
		cache:    d.Cache,
		notifier: d.Notifier,
		access:   access,
		log:      d.Log,
		now:      d.Now,
		settings: d.Settings,
	}
}

// EntryFeeMessage is the validation message for a fee under the configured minimum
func (s *ContestService) EntryFeeMessage() string {
	return entryFeeMessage(s.settings.MinEntryFee)
}

func entryFeeMessage(min decimal.Decimal) string {
	return fmt.Sprintf("Entry fee must be a number ≥ ৳%s", min.String())
}

func (s *ContestService) validFee(fee decimal.NullDecimal) bool {
	return fee.Valid && fee.Decimal.GreaterThanOrEqual(s.settings.MinEntryFee)
}

// Create stores a new Pending contest with no participants
func (s *ContestService) Create(ctx context.Context, in ContestInput) (*models.Contest, error) {
	required := map[string]string{
		"name":            in.Name,
		"image":           in.Image,
		"description":     in.Description,
		"taskInstruction": in.TaskInstruction,
		"contestType":     in.ContestType,
		"creatorEmail":    in.CreatorEmail,
	}
	for _, field := range []string{"name", "image", "description", "taskInstruction", "contestType", "creatorEmail"} {
		if strings.TrimSpace(required[field]) == "" {
			return nil, validationError(field + " is required")
		}
	}
	if !s.validFee(in.EntryFee) {
		return nil, validationError(s.EntryFeeMessage())
	}
	if !in.PrizeMoney.Valid || in.PrizeMoney.Decimal.IsNegative() {
		return nil, validationError(ErrMsgPrizeMoney)
	}
	if in.Deadline.IsZero() {
		return nil, validationError("deadline is required")
	}

	contest := models.Contest{
		Name:            strings.TrimSpace(in.Name),
		Image:           in.Image,
		Description:     in.Description,
		EntryFee:        in.EntryFee.Decimal,
		PrizeMoney:      in.PrizeMoney.Decimal,
		TaskInstruction: in.TaskInstruction,
		ContestType:     strings.TrimSpace(in.ContestType),
		Deadline:        in.Deadline.UTC(),
		CreatorEmail:    normalizeEmail(in.CreatorEmail),
		CreatorName:     in.CreatorName,
		Status:          models.ContestPending,
		Participants:    0,
		CreatedAt:       s.now(),
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Create(&contest).Error
	metrics.RecordDBOperation("create", "contests", start)
	if err != nil {
		return nil, internalError("create contest", err)
	}

	invalidateListings(ctx, s.cache, s.log)
	s.log.WithFields(logrus.Fields{"contest_id": contest.ID, "creator": contest.CreatorEmail}).Info("Contest created")
	return &contest, nil
}

func confirmedKey(category string) string {
	return cacheKeyConfirmed + strings.ToLower(strings.TrimSpace(category))
}

// ListConfirmed returns Confirmed contests, narrowed to one category when given (case-insensitive exact match)
func (s *ContestService) ListConfirmed(ctx context.Context, category string) ([]models.Contest, error) {
	category = strings.TrimSpace(category)
	return cachedJSON(ctx, s.cache, s.log, confirmedKey(category), s.settings.CacheTTL, func() ([]models.Contest, error) {
		query := s.db.WithContext(ctx).Where("status = ?", models.ContestConfirmed)
		if category != "" {
			query = query.Where("LOWER(contest_type) = ?", strings.ToLower(category))
		}

		contests := []models.Contest{}
		start := time.Now()
		err := query.Order("created_at DESC").Find(&contests).Error
		metrics.RecordDBOperation("list_confirmed", "contests", start)
		if err != nil {
			return nil, internalError("list confirmed contests", err)
		}
		return contests, nil
	})
}

// ListPopular returns the contests with the most participants
func (s *ContestService) ListPopular(ctx context.Context) ([]models.Contest, error) {
	return cachedJSON(ctx, s.cache, s.log, cacheKeyPopular, s.settings.CacheTTL, func() ([]models.Contest, error) {
		contests := []models.Contest{}
		start := time.Now()
		err := s.db.WithContext(ctx).
			Order("participants DESC").
			Order("created_at ASC").
			Limit(s.settings.PopularLimit).
			Find(&contests).Error
		metrics.RecordDBOperation("list_popular", "contests", start)
		if err != nil {
			return nil, internalError("list popular contests", err)
		}
		return contests, nil
	})
}

func (s *ContestService) Get(ctx context.Context, id string) (*models.Contest, error) {
	return findContest(s.db.WithContext(ctx), "id = ?", id)
}

func (s *ContestService) GetBySlug(ctx context.Context, contestSlug string) (*models.Contest, error) {
	return findContest(s.db.WithContext(ctx), "slug = ?", contestSlug)
}

// findContest loads one contest through db, which may be a transaction
func findContest(db *gorm.DB, query string, arg any) (*models.Contest, error) {
	var contest models.Contest
	start := time.Now()
	err := db.Where(query, arg).Order("created_at ASC").First(&contest).Error
	metrics.RecordDBOperation("get", "contests", start)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError(ErrMsgContestNotFound)
	}
	if err != nil {
		return nil, internalError("load contest", err)
	}
	return &contest, nil
}

// Update merges patch into a Pending contest owned by the caller
func (s *ContestService) Update(ctx context.Context, caller, id string, patch ContestPatch) (*models.Contest, error) {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireContestOwner(ctx, caller, contest); err != nil {
		return nil, err
	}
	if contest.Status != models.ContestPending {
		return nil, conflictError(ErrMsgContestNotEditable)
	}

	updates, err := s.patchColumns(patch)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return contest, nil
	}
	updates["updated_at"] = s.now()

	start := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ? AND status = ?", id, models.ContestPending).
		Updates(updates)
	metrics.RecordDBOperation("update", "contests", start)
	if res.Error != nil {
		return nil, internalError("update contest", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, conflictError(ErrMsgContestNotEditable)
	}

	invalidateListings(ctx, s.cache, s.log)
	s.log.WithField("contest_id", id).Info("Contest updated")
	return s.Get(ctx, id)
}

func (s *ContestService) patchColumns(patch ContestPatch) (map[string]any, error) {
	updates := map[string]any{}
	text := map[string]*string{
		"name":             patch.Name,
		"image":            patch.Image,
		"description":      patch.Description,
		"task_instruction": patch.TaskInstruction,
		"contest_type":     patch.ContestType,
	}
	for column, value := range text {
		if value == nil {
			continue
		}
		if strings.TrimSpace(*value) == "" {
			return nil, validationError(column + " cannot be empty")
		}
		updates[column] = strings.TrimSpace(*value)
	}
	if patch.Name != nil {
		updates["slug"] = slug.Make(*patch.Name)
	}
	if patch.EntryFee != nil {
		if !s.validFee(*patch.EntryFee) {
			return nil, validationError(s.EntryFeeMessage())
		}
		updates["entry_fee"] = patch.EntryFee.Decimal
	}
	if patch.PrizeMoney != nil {
		if !patch.PrizeMoney.Valid || patch.PrizeMoney.Decimal.IsNegative() {
			return nil, validationError(ErrMsgPrizeMoney)
		}
		updates["prize_money"] = patch.PrizeMoney.Decimal
	}
	if patch.Deadline != nil {
		if patch.Deadline.IsZero() {
			return nil, validationError("deadline cannot be empty")
		}
		updates["deadline"] = patch.Deadline.UTC()
	}
	return updates, nil
}

// Delete removes a Pending contest together with any rows that reference it
func (s *ContestService) Delete(ctx context.Context, caller, id string) error {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.RequireContestOwner(ctx, caller, contest); err != nil {
		return err
	}
	if contest.Status != models.ContestPending {
		return conflictError(ErrMsgContestNotDeletable)
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, models.ContestPending).Delete(&models.Contest{})
		if res.Error != nil {
			return internalError("delete contest", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictError(ErrMsgContestNotDeletable)
		}
		if err := tx.Where("contest_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return internalError("delete contest submissions", err)
		}
		if err := tx.Where("contest_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return internalError("delete contest registrations", err)
		}
		return nil
	})
	metrics.RecordDBOperation("delete", "contests", start)
	if err != nil {
		return err
	}

	invalidateListings(ctx, s.cache, s.log)
	s.log.WithFields(logrus.Fields{"contest_id": id, "caller": caller}).Info("Contest deleted")
	return nil
}

// SetStatus moves a Pending contest to Confirmed or Rejected, once
func (s *ContestService) SetStatus(ctx context.Context, caller, id string, status models.ContestStatus) (*models.Contest, error) {
	if err := s.access.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if status != models.ContestConfirmed && status != models.ContestRejected {
		return nil, validationError(ErrMsgInvalidStatus)
	}
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.Status != models.ContestPending {
		return nil, conflictError(ErrMsgStatusAlreadySet)
	}

	start := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ? AND status = ?", id, models.ContestPending).
		Updates(map[string]any{"status": status, "updated_at": s.now()})
	metrics.RecordDBOperation("set_status", "contests", start)
	if res.Error != nil {
		return nil, internalError("set contest status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, conflictError(ErrMsgStatusAlreadySet)
	}

	invalidateListings(ctx, s.cache, s.log, contest.ContestType)
	s.notifier.Publish(realtime.ContestEvent{ContestID: id, Type: realtime.EventStatus, Status: string(status), At: s.now()})
	s.log.WithFields(logrus.Fields{"contest_id": id, "status": status}).Info("Contest status changed")
	return s.Get(ctx, id)
}

// DeclareWinner records the winner of a contest; the first declaration is final
func (s *ContestService) DeclareWinner(ctx context.Context, caller, id string, in WinnerInput) (*models.Contest, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, validationError("winner email is required")
	}
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireContestOwner(ctx, caller, contest); err != nil {
		return nil, err
	}
	if contest.HasWinner() {
		return nil, conflictError(ErrMsgWinnerDeclared)
	}

	var registration models.Registration
	err = s.db.WithContext(ctx).Where("contest_id = ? AND user_email = ?", id, email).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationError(ErrMsgWinnerNotRegistered)
	}
	if err != nil {
		return nil, internalError("load winner registration", err)
	}

	winner := models.Winner{Name: in.Name, Email: email, Photo: in.Photo}
	if strings.TrimSpace(winner.Name) == "" {
		winner.Name = registration.UserName
	}
	if strings.TrimSpace(winner.Photo) == "" {
		winner.Photo = registration.UserPhoto
	}
	declaredAt := s.now()
	winner.DeclaredAt = &declaredAt

	start := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ? AND winner_declared_at IS NULL", id).
		Updates(map[string]any{
			"winner_name":        winner.Name,
			"winner_email":       winner.Email,
			"winner_photo":       winner.Photo,
			"winner_declared_at": declaredAt,
			"updated_at":         declaredAt,
		})
	metrics.RecordDBOperation("declare_winner", "contests", start)
	if res.Error != nil {
		return nil, internalError("declare winner", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, conflictError(ErrMsgWinnerDeclared)
	}

	invalidateListings(ctx, s.cache, s.log, contest.ContestType)
	s.notifier.Publish(realtime.ContestEvent{ContestID: id, Type: realtime.EventWinner, Winner: &winner, At: declaredAt})
	s.log.WithFields(logrus.Fields{"contest_id": id, "winner": email}).Info("Winner declared")
	return s.Get(ctx, id)
}
