package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"contesthub/metrics"
	"contesthub/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ErrMsgUserNotFound  = "User not found"
	ErrMsgInvalidRole   = "Role must be one of User, Creator or Admin"
	ErrMsgDeleteSelf    = "Admins cannot delete their own account"
	ErrMsgEmailRequired = "Email is required"
)

// UserInput is the profile the client saves after signing in
type UserInput struct {
	Email string
	Name  string
	Photo string
}

type UserService struct {
	db     *gorm.DB
	access *AccessService
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewUserService(d Deps, access *AccessService) *UserService {
	d = d.withDefaults()
	return &UserService{db: d.DB, access: access, log: d.Log, now: d.Now}
}

// Save creates the profile or refreshes its name and photo. The role is never touched.
func (s *UserService) Save(ctx context.Context, in UserInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, validationError(ErrMsgEmailRequired)
	}

	now := s.now()
	user := models.User{Email: email, Name: strings.TrimSpace(in.Name), Photo: in.Photo, CreatedAt: now, UpdatedAt: now}
	start := time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "photo", "updated_at"}),
	}).Create(&user).Error
	metrics.RecordDBOperation("upsert", "users", start)
	if err != nil {
		return nil, internalError("save user", err)
	}
	return s.ByEmail(ctx, email)
}

func (s *UserService) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError(ErrMsgUserNotFound)
	}
	if err != nil {
		return nil, internalError("load user", err)
	}
	return &user, nil
}

// Role returns the user's role, User when no profile exists
func (s *UserService) Role(ctx context.Context, email string) (models.Role, error) {
	return s.access.RoleOf(ctx, email)
}

// SetRole changes a user's role; admin only
func (s *UserService) SetRole(ctx context.Context, caller, id string, role models.Role) (*models.User, error) {
	if err := s.access.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, validationError(ErrMsgInvalidRole)
	}

	start := time.Now()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": s.now()})
	metrics.RecordDBOperation("set_role", "users", start)
	if res.Error != nil {
		return nil, internalError("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFoundError(ErrMsgUserNotFound)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, internalError("load user", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "role": role, "caller": caller}).Info("User role changed")
	return &user, nil
}

// Delete removes a user profile; admin only. Registrations and submissions are kept as history.
func (s *UserService) Delete(ctx context.Context, caller, id string) error {
	if err := s.access.RequireAdmin(ctx, caller); err != nil {
		return err
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(ErrMsgUserNotFound)
	}
	if err != nil {
		return internalError("load user", err)
	}
	if user.Email == normalizeEmail(caller) {
		return conflictError(ErrMsgDeleteSelf)
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
	metrics.RecordDBOperation("delete", "users", start)
	if err != nil {
		return internalError("delete user", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "caller": caller}).Info("User deleted")
	return nil
}
