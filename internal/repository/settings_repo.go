package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sonerezh/internal/logging"
	"sonerezh/internal/models"

	"github.com/Masterminds/squirrel"
)

// ErrSettingsNotFound is returned before the installer has seeded the settings row.
var ErrSettingsNotFound = errors.New("settings not found")

var settingColumns = []string{
	"id", "enable_auto_conv", "convert_from", "convert_to", "quality",
	"enable_mail_notification", "sync_token",
}

// GetSetting returns the settings row.
func (s *Repository) GetSetting(ctx context.Context) (*models.Setting, error) {
	query, args, err := s.Builder.Select(settingColumns...).From("settings").OrderBy("id").Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	var st models.Setting
	row := s.DB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&st.ID, &st.EnableAutoConv, &st.ConvertFrom, &st.ConvertTo, &st.Quality, &st.EnableMailNotification, &st.SyncToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &st, nil
}

// CountSettings returns the number of settings rows.
func (s *Repository) CountSettings(ctx context.Context) (int, error) {
	query, args, err := s.Builder.Select("COUNT(*)").From("settings").ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Repository) createSetting(ctx context.Context, db execer, st models.Setting) (int64, error) {
	insert := s.Builder.Insert("settings").
		Columns("enable_auto_conv", "convert_from", "convert_to", "quality", "enable_mail_notification", "sync_token").
		Values(st.EnableAutoConv, st.ConvertFrom, st.ConvertTo, st.Quality, st.EnableMailNotification, st.SyncToken)
	return s.insert(ctx, db, insert)
}

// SeedInstallation creates the first user and the settings row in one transaction.
// Either both rows exist afterwards or neither does.
func (s *Repository) SeedInstallation(ctx context.Context, user UserCreateArgs, st models.Setting) (*models.User, *models.Setting, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on any error

	created, err := s.createUser(ctx, tx, &user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save user '%s': %w", user.Username, err)
	}

	id, err := s.createSetting(ctx, tx, st)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save settings: %w", err)
	}
	st.ID = id

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit installation data: %w", err)
	}

	logging.Log.Debugf("SeedInstallation: user ID %d and settings ID %d saved", created.ID, st.ID)
	return created, &st, nil
}

// UnseedInstallation removes the rows written by SeedInstallation. It undoes a
// seed whose configuration could not be committed afterwards.
func (s *Repository) UnseedInstallation(ctx context.Context, userID, settingID int64) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on any error

	for _, del := range []struct {
		table string
		id    int64
	}{{"settings", settingID}, {"users", userID}} {
		query, args, err := s.Builder.Delete(del.table).Where(squirrel.Eq{"id": del.id}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", del.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit removal of installation data: %w", err)
	}
	logging.Log.Debugf("UnseedInstallation: user ID %d and settings ID %d removed", userID, settingID)
	return nil
}
