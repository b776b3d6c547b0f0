package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// BlockedIPRepository реализация репозитория блокировок для PostgreSQL
type BlockedIPRepository struct {
	*BaseRepository
}

// NewBlockedIPRepository создает новый экземпляр BlockedIPRepository
func NewBlockedIPRepository(pool *pgxpool.Pool) repository.BlockedIPRepository {
	return &BlockedIPRepository{BaseRepository: NewBaseRepository(pool)}
}

// Create вставляет активную блокировку. Частичный уникальный индекс
// по активным строкам отсекает параллельную вторую вставку.
func (r *BlockedIPRepository) Create(ctx context.Context, block *domain.BlockedIP) (bool, error) {
	query := `INSERT INTO blocked_ips (id, ip_address, reason, blocked_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ip_address) WHERE active DO NOTHING`

	affected, err := r.ExecAffected(ctx, query,
		block.ID,
		block.IPAddress,
		block.Reason,
		block.BlockedAt,
		block.ExpiresAt,
		block.Active,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create ip block: %w", err)
	}
	return affected > 0, nil
}

// ExistsActive проверяет наличие активной блокировки. Срок истечения не учитывается.
func (r *BlockedIPRepository) ExistsActive(ctx context.Context, ip string) (bool, error) {
	var exists bool
	err := r.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blocked_ips WHERE ip_address = $1 AND active)`, ip).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ip block: %w", err)
	}
	return exists, nil
}

// DeactivateByIP снимает блокировки IP
func (r *BlockedIPRepository) DeactivateByIP(ctx context.Context, ip string) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE blocked_ips SET active = FALSE WHERE ip_address = $1 AND active`, ip)
	if err != nil {
		return 0, fmt.Errorf("failed to unblock ip: %w", err)
	}
	return affected, nil
}

// DeactivateAll снимает все активные блокировки
func (r *BlockedIPRepository) DeactivateAll(ctx context.Context) (int64, error) {
	affected, err := r.ExecAffected(ctx, `UPDATE blocked_ips SET active = FALSE WHERE active`)
	if err != nil {
		return 0, fmt.Errorf("failed to unblock all ips: %w", err)
	}
	return affected, nil
}

// DeactivateExpired снимает истекшие блокировки
func (r *BlockedIPRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE blocked_ips SET active = FALSE WHERE active AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired blocks: %w", err)
	}
	return affected, nil
}

// ListActive возвращает активные блокировки, новые первыми
func (r *BlockedIPRepository) ListActive(ctx context.Context) ([]*domain.BlockedIP, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT id, ip_address, reason, blocked_at, expires_at, active
		FROM blocked_ips WHERE active ORDER BY blocked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ip blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedIP, 0)
	for rows.Next() {
		var block domain.BlockedIP
		if err := rows.Scan(
			&block.ID,
			&block.IPAddress,
			&block.Reason,
			&block.BlockedAt,
			&block.ExpiresAt,
			&block.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ip block: %w", err)
		}
		blocks = append(blocks, &block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ip blocks: %w", err)
	}
	return blocks, nil
}
