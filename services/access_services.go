package services

import (
	"context"
	"errors"

	"contesthub/models"

	"gorm.io/gorm"
)

const (
	ErrMsgAdminRequired = "Admin access required"
	ErrMsgNotOwner      = "Only the contest creator or an admin can do this"
	ErrMsgNotSelf       = "You can only act on your own account"
)

// AccessService answers capability questions from the roles stored in the users table
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// RoleOf returns the caller's role, User when no profile exists
func (a *AccessService) RoleOf(ctx context.Context, email string) (models.Role, error) {
	var user models.User
	err := a.db.WithContext(ctx).Select("role").Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", internalError("load role", err)
	}
	return user.Role, nil
}

func (a *AccessService) IsAdmin(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	role, err := a.RoleOf(ctx, email)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// RequireAdmin fails with Forbidden unless the caller is an admin
func (a *AccessService) RequireAdmin(ctx context.Context, caller string) error {
	admin, err := a.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return forbiddenError(ErrMsgAdminRequired)
	}
	return nil
}

// RequireContestOwner lets the creator of the contest or an admin through
func (a *AccessService) RequireContestOwner(ctx context.Context, caller string, contest *models.Contest) error {
	if caller != "" && normalizeEmail(caller) == normalizeEmail(contest.CreatorEmail) {
		return nil
	}
	admin, err := a.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return forbiddenError(ErrMsgNotOwner)
	}
	return nil
}

// RequireSelf lets a caller act on their own email; admins may act for anyone
func (a *AccessService) RequireSelf(ctx context.Context, caller, target string) error {
	if caller == "" {
		return &Error{Kind: ErrUnauthorized, Message: "Authentication required"}
	}
	if normalizeEmail(caller) == normalizeEmail(target) {
		return nil
	}
	admin, err := a.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return forbiddenError(ErrMsgNotSelf)
	}
	return nil
}
