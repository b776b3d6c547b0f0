package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// LoginAttemptRepository реализация журнала попыток входа для PostgreSQL
type LoginAttemptRepository struct {
	*BaseRepository
}

// NewLoginAttemptRepository создает новый экземпляр LoginAttemptRepository
func NewLoginAttemptRepository(pool *pgxpool.Pool) repository.LoginAttemptRepository {
	return &LoginAttemptRepository{BaseRepository: NewBaseRepository(pool)}
}

// Create добавляет попытку входа
func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	query := `INSERT INTO login_attempts (id, username, ip_address, successful, attempted_at, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.Pool.Exec(ctx, query,
		attempt.ID,
		attempt.Username,
		attempt.IPAddress,
		attempt.Successful,
		attempt.AttemptedAt,
		attempt.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// CountFailuresByUsernameSince считает неудачные попытки пользователя начиная с since
func (r *LoginAttemptRepository) CountFailuresByUsernameSince(ctx context.Context, username string, since time.Time) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE username = $1 AND NOT successful AND attempted_at >= $2`,
		username, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failures by username: %w", err)
	}
	return count, nil
}

// CountFailuresByIPSince считает неудачные попытки с IP начиная с since
func (r *LoginAttemptRepository) CountFailuresByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE ip_address = $1 AND NOT successful AND attempted_at >= $2`,
		ip, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count failures by ip: %w", err)
	}
	return count, nil
}

// ListRecentByUsername последние попытки входа пользователя
func (r *LoginAttemptRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT id, username, ip_address, successful, attempted_at, user_agent
		FROM login_attempts WHERE username = $1 ORDER BY attempted_at DESC LIMIT $2`,
		username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*domain.LoginAttempt, 0)
	for rows.Next() {
		var attempt domain.LoginAttempt
		if err := rows.Scan(
			&attempt.ID,
			&attempt.Username,
			&attempt.IPAddress,
			&attempt.Successful,
			&attempt.AttemptedAt,
			&attempt.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, &attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate login attempts: %w", err)
	}
	return attempts, nil
}
