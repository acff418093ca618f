package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/gotrue"
	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/utils"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const accountCachePrefix string = "account:"

func roleCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("%srole:%s", accountCachePrefix, id.String())
}

// UpsertAccount mirrors the signed-in auth user. The role and digest flag of
// existing accounts are left alone.
func UpsertAccount(ctx context.Context, u gotrue.User, now time.Time) error {
	if !utils.IsValidUuid(u.ID) {
		return errors.New("Invalid user ID.")
	}

	a := &models.Account{
		ID:           u.ID,
		Email:        utils.NormalizeEmail(u.Email),
		Role:         models.RoleUser,
		LastSignInAt: &now,
	}

	return app.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "last_sign_in_at", "updated_at"}),
	}).Create(a).Error
}

// AccountRole returns the role of an account, users without an account row
// get the default role.
func AccountRole(ctx context.Context, id uuid.UUID) (string, error) {
	if !utils.IsValidUuid(id) {
		return "", errors.New("Invalid user ID.")
	}

	key := roleCacheKey(id)

	cached, err := app.Cache().DoCache(ctx, app.Cache().B().Get().Key(key).Cache(), 5*time.Minute).ToString()
	if err != nil && !errors.Is(err, rueidis.Nil) {
		zap.S().Warnf("Could not get cached role: %v", err)
	}

	if len(cached) > 0 {
		return cached, nil
	}

	a := &models.Account{}
	role := models.RoleUser

	err = app.DB().WithContext(ctx).Select("role").Where(&models.Account{ID: id}).First(a).Error

	switch {
	case err == nil:
		role = a.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return "", err
	}

	if err := app.Cache().Do(ctx, app.Cache().B().Set().Key(key).Value(role).Ex(time.Hour).Build()).Error(); err != nil {
		zap.S().Errorf("Could not save role to cache: %v", err)
	}

	return role, nil
}

// DigestAccounts lists the accounts that receive the weekly summary.
func DigestAccounts(ctx context.Context) ([]models.Account, error) {
	list := []models.Account{}

	if err := app.DB().WithContext(ctx).
		Where("weekly_digest = ?", true).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}

	return list, nil
}

// PurgeCache removes the cached account data. Queues and sessions live in the
// same Redis database and are kept.
func PurgeCache(ctx context.Context) (int, error) {
	var cursor uint64

	deleted := 0

	for {
		entry, err := app.Cache().Do(ctx, app.Cache().B().Scan().Cursor(cursor).Match(accountCachePrefix+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return deleted, err
		}

		if len(entry.Elements) > 0 {
			if err := app.Cache().Do(ctx, app.Cache().B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return deleted, err
			}

			deleted += len(entry.Elements)
		}

		if entry.Cursor == 0 {
			return deleted, nil
		}

		cursor = entry.Cursor
	}
}
