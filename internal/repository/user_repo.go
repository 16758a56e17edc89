package repository

import (
	"context"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, last_login
	`
	var id int64
	err := r.db.QueryRow(ctx, query, user.Email, user.Name, user.PasswordHash, user.Provider).
		Scan(&id, &user.CreatedAt, &user.LastLogin)
	if err != nil {
		return err
	}
	user.ID = formatID(id)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, provider, created_at, last_login
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, email, name, password_hash, provider, created_at, last_login
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, userID))
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	return err
}

func (r *UserRepository) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var id int64
	err := row.Scan(
		&id,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Provider,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	user.ID = formatID(id)
	return &user, nil
}
