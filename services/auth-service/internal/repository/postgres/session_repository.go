package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// SessionRepository реализация репозитория сессий для PostgreSQL
type SessionRepository struct {
	*BaseRepository
}

// NewSessionRepository создает новый экземпляр SessionRepository
func NewSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &SessionRepository{BaseRepository: NewBaseRepository(pool)}
}

const sessionColumns = `id, username, user_type, ip_address, user_agent, login_time, last_activity, active`

// Create сохраняет новую сессию
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO user_sessions (` + sessionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.Pool.Exec(ctx, query,
		session.ID,
		session.Username,
		string(session.UserType),
		session.IPAddress,
		session.UserAgent,
		session.LoginTime,
		session.LastActivity,
		session.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID возвращает сессию по ID
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`

	session, err := scanSession(r.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// UpdateLastActivity обновляет время последней активности активной сессии
func (r *SessionRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE user_sessions SET last_activity = GREATEST(last_activity, $2) WHERE id = $1 AND active`,
		id, at)
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	return affected > 0, nil
}

// Deactivate деактивирует сессию
func (r *SessionRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE user_sessions SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate session: %w", err)
	}
	return affected > 0, nil
}

// DeactivateByUsername деактивирует все сессии пользователя
func (r *SessionRepository) DeactivateByUsername(ctx context.Context, username string) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE user_sessions SET active = FALSE WHERE username = $1 AND active`, username)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate user sessions: %w", err)
	}
	return affected, nil
}

// ListActiveByUsername возвращает активные сессии пользователя, новые первыми
func (r *SessionRepository) ListActiveByUsername(ctx context.Context, username string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE username = $1 AND active ORDER BY login_time DESC`

	rows, err := r.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeactivateInactiveBefore деактивирует простаивающие сессии
func (r *SessionRepository) DeactivateInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE user_sessions SET active = FALSE WHERE active AND last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var userType string
	err := row.Scan(
		&session.ID,
		&session.Username,
		&userType,
		&session.IPAddress,
		&session.UserAgent,
		&session.LoginTime,
		&session.LastActivity,
		&session.Active,
	)
	if err != nil {
		return nil, err
	}
	session.UserType = domain.UserType(userType)
	return &session, nil
}
