// filepath: internal/repository/user_repo.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"sonerezh/internal/logging"
	"sonerezh/internal/models"
	"sonerezh/internal/shared"

	"github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists is returned when trying to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// UserCreateArgs is a struct used for creating users in the database layer.
// It is separate from models.User to carry the plaintext password for creation.
type UserCreateArgs struct {
	Username string
	Email    string
	Password string
	Role     string
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var userColumns = []string{"id", "username", "email", "password", "role"}

// GetUserByUsername retrieves a user by their username.
func (s *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query, args, err := s.Builder.Select(userColumns...).From("users").Where(squirrel.Eq{"username": username}).ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	row := s.DB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CountUsers returns the number of users, optionally restricted to a role.
func (s *Repository) CountUsers(ctx context.Context, role string) (int, error) {
	q := s.Builder.Select("COUNT(*)").From("users")
	if role != "" {
		q = q.Where(squirrel.Eq{"role": role})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUser hashes the password and inserts the user.
func (s *Repository) CreateUser(ctx context.Context, user *UserCreateArgs) (*models.User, error) {
	return s.createUser(ctx, s.DB, user)
}

func (s *Repository) createUser(ctx context.Context, db execer, user *UserCreateArgs) (*models.User, error) {
	logging.Log.Debugf("CreateUser: Hashing password for '%s'", user.Username)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	insert := s.Builder.Insert("users").
		Columns("username", "email", "password", "role").
		Values(user.Username, user.Email, string(hashedPassword), user.Role)

	id, err := s.insert(ctx, db, insert)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	logging.Log.Debugf("CreateUser: User '%s' created with ID %d", user.Username, id)

	return &models.User{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: string(hashedPassword),
		Role:         user.Role,
	}, nil
}

// insert runs an INSERT and returns the generated id. lib/pq does not implement
// LastInsertId, so postgres uses RETURNING.
func (s *Repository) insert(ctx context.Context, db execer, insert squirrel.InsertBuilder) (int64, error) {
	if s.Datasource == models.DatasourcePostgres {
		query, args, err := insert.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// isUniqueViolation matches the duplicate key errors of all three drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
