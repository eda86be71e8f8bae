package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chat_sync_service/internal/chat/domain"
)

// UserRepository definition get user info
type UserRepository interface {
	// Upsert insert-or-overwrite keyed by external_id, returns the stored user_id
	Upsert(ctx context.Context, user *domain.User) (string, error)
	FindByUser(ctx context.Context, userQuery *domain.UserQuery) (*domain.User, error)
	// ListExcept all users except the given one, in insertion order
	ListExcept(ctx context.Context, userID string) ([]domain.User, error)
	EnsureSchema(ctx context.Context) error
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

// EnsureSchema create the users table when missing
func (r *userRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_user (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			external_id TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT ''
		)`)
	return err
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) (string, error) {
	// 已存在時只覆寫 profile 欄位，user_id 保持不變
	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_user(user_id, external_id, display_name, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    email = EXCLUDED.email,
		    avatar_url = EXCLUDED.avatar_url
		RETURNING user_id`,
		user.UserID, user.ExternalID, user.DisplayName, user.Email, user.AvatarURL)

	var userID string
	if err := row.Scan(&userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (r *userRepository) FindByUser(ctx context.Context, userQuery *domain.UserQuery) (*domain.User, error) {
	queryStr := "SELECT id, user_id, external_id, display_name, email, avatar_url FROM chat_user WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if userQuery.ExternalID != nil {
		queryStr += fmt.Sprintf(" AND external_id = $%d", paramCount)
		params = append(params, *userQuery.ExternalID)
		paramCount++
	}
	if userQuery.UserID != nil {
		queryStr += fmt.Sprintf(" AND user_id = $%d", paramCount)
		params = append(params, *userQuery.UserID)
		paramCount++
	}
	if userQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *userQuery.ID)
		paramCount++
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var user domain.User
	err := row.Scan(&user.ID, &user.UserID, &user.ExternalID, &user.DisplayName, &user.Email, &user.AvatarURL)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ListExcept(ctx context.Context, userID string) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, external_id, display_name, email, avatar_url
		FROM chat_user
		WHERE user_id <> $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.UserID, &user.ExternalID, &user.DisplayName, &user.Email, &user.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
