package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/user-account-service/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает вставленную запись
// вместе с назначенными базой UID и отметками времени.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING uid, username, email, password_hash, created_at, updated_at;`
	created := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash)
	if err := row.Scan(&created.UID, &created.Username, &created.Email,
		&created.PasswordHash, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUID возвращает пользователя по его UID.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, created_at, updated_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// EmailTaken сообщает, занят ли email другим пользователем (не exceptUID).
// Проверка выполняется отдельным запросом перед записью и не атомарна
// с последующей вставкой или обновлением.
func (s *Storage) EmailTaken(ctx context.Context, email, exceptUID string) (bool, error) {
	const op = "storage.EmailTaken"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM users WHERE email = $1 AND uid <> $2
			  )`
	var taken bool
	if err := s.DB.QueryRowContext(ctx, query, email, exceptUID).Scan(&taken); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return taken, nil
}

// UpdateUser обновляет только переданные поля пользователя и возвращает
// обновлённую запись. Nil-поля остаются без изменений.
func (s *Storage) UpdateUser(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET username = COALESCE($1, username),
			      email = COALESCE($2, email),
			      password_hash = COALESCE($3, password_hash),
			      updated_at = NOW()
			  WHERE uid = $4
			  RETURNING uid, username, email, password_hash, created_at, updated_at;`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, upd.Username, upd.Email, upd.PasswordHash, userUID)
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUserByEmail удаляет пользователя по email и возвращает количество
// удалённых записей.
func (s *Storage) DeleteUserByEmail(ctx context.Context, email string) (int64, error) {
	const op = "storage.DeleteUserByEmail"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM users WHERE email = $1`
	res, err := s.DB.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
