package repository

import (
	"context"
	"errors"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/model"
)

// UserRepository reads user accounts
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by record ID. Returns nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	return r.getOne(ctx, query, map[string]interface{}{"id": id})
}

// GetByUsername retrieves a user by username. Returns nil when absent.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT * FROM app_user WHERE username = $username LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"username": username})
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := recordMap(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUser(data), nil
}

func parseUser(data map[string]interface{}) *model.User {
	role := model.UserRole(getString(data, "role"))
	if role == "" {
		role = model.UserRoleUser
	}
	return &model.User{
		ID:         getRecordID(data, "id"),
		Username:   getString(data, "username"),
		Email:      getString(data, "email"),
		Name:       getString(data, "name"),
		Role:       role,
		IsActive:   getBool(data, "is_active"),
		DateJoined: getTime(data, "date_joined"),
	}
}
